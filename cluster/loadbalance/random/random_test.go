/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package random

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/protocol/base"
)

func newInvoker(t *testing.T, weight string) base.Invoker {
	t.Helper()
	opts := []common.Option{common.WithProtocol("dubbo"), common.WithIp("127.0.0.1"), common.WithPath("com.example.Greeter")}
	if weight != "" {
		opts = append(opts, common.WithParamsValue(constant.WeightKey, weight))
	}
	return base.NewBaseInvoker(common.NewURLWithOptions(opts...))
}

func TestRandomLoadBalanceSelectEmptyReturnsNil(t *testing.T) {
	lb := newRandomLoadBalance()
	invocation := base.NewRPCInvocation("sayHello", nil, nil, nil)
	assert.Nil(t, lb.Select(nil, nil, invocation))
}

func TestRandomLoadBalanceSelectSingleReturnsIt(t *testing.T) {
	lb := newRandomLoadBalance()
	invoker := newInvoker(t, "")
	invocation := base.NewRPCInvocation("sayHello", nil, nil, nil)
	assert.Same(t, invoker, lb.Select([]base.Invoker{invoker}, nil, invocation))
}

func TestRandomLoadBalanceSelectZeroWeightNeverPicked(t *testing.T) {
	lb := newRandomLoadBalance()
	dead := newInvoker(t, "0")
	alive := newInvoker(t, "100")
	invocation := base.NewRPCInvocation("sayHello", nil, nil, nil)

	for i := 0; i < 50; i++ {
		got := lb.Select([]base.Invoker{dead, alive}, nil, invocation)
		require.Same(t, alive, got)
	}
}
