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

package roundrobin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/protocol/base"
)

func newInvoker(t *testing.T, ip string) base.Invoker {
	t.Helper()
	return base.NewBaseInvoker(common.NewURLWithOptions(
		common.WithProtocol("dubbo"),
		common.WithIp(ip),
		common.WithPath("com.example.Greeter"),
	))
}

func TestRoundRobinLoadBalanceSelectEmptyReturnsNil(t *testing.T) {
	lb := newRoundRobinLoadBalance()
	invocation := base.NewRPCInvocation("sayHello", nil, nil, nil)
	assert.Nil(t, lb.Select(nil, common.NewURLWithOptions(common.WithPath("com.example.Greeter")), invocation))
}

func TestRoundRobinLoadBalanceVisitsEachInvokerOncePerRound(t *testing.T) {
	lb := newRoundRobinLoadBalance()
	invokers := []base.Invoker{
		newInvoker(t, "10.0.0.1"),
		newInvoker(t, "10.0.0.2"),
		newInvoker(t, "10.0.0.3"),
	}
	url := common.NewURLWithOptions(common.WithPath("com.example.Greeter"))
	invocation := base.NewRPCInvocation("sayHello", nil, nil, nil)

	seen := make(map[base.Invoker]bool)
	for i := 0; i < len(invokers); i++ {
		picked := lb.Select(invokers, url, invocation)
		require.NotNil(t, picked)
		seen[picked] = true
	}
	assert.Len(t, seen, len(invokers))
}

func TestRoundRobinLoadBalanceDropsStaleEntriesWhenClusterShrinks(t *testing.T) {
	lb := newRoundRobinLoadBalance()
	url := common.NewURLWithOptions(common.WithPath("com.example.Greeter"))
	invocation := base.NewRPCInvocation("sayHello", nil, nil, nil)

	full := []base.Invoker{newInvoker(t, "10.0.0.1"), newInvoker(t, "10.0.0.2"), newInvoker(t, "10.0.0.3")}
	lb.Select(full, url, invocation)

	shrunk := full[:2]
	picked := lb.Select(shrunk, url, invocation)
	assert.Contains(t, shrunk, picked)

	key := url.ServiceKey() + "." + invocation.MethodName()
	assert.Len(t, lb.byGroup[key], 2)
}
