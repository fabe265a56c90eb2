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

package failover

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/meshrpc/meshrpc/cluster/loadbalance/random"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/protocol/base"
)

// fakeInvoker always fails the first failCount calls, then succeeds.
type fakeInvoker struct {
	*base.BaseInvoker
	failCount int
	calls     int
}

func newFakeInvoker(ip string, failCount int) *fakeInvoker {
	u := common.NewURLWithOptions(common.WithProtocol("dubbo"), common.WithIp(ip), common.WithPath("com.example.Greeter"))
	return &fakeInvoker{BaseInvoker: base.NewBaseInvoker(u), failCount: failCount}
}

func (f *fakeInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	f.calls++
	r := &base.RPCResult{}
	if f.calls <= f.failCount {
		r.SetError(base.NewRPCError(base.NetworkError, "simulated failure"))
		return r
	}
	r.SetResult("ok")
	return r
}

// fakeDirectory returns a fixed invoker list regardless of invocation.
type fakeDirectory struct {
	url      *common.URL
	invokers []base.Invoker
}

func (d *fakeDirectory) GetURL() *common.URL                           { return d.url }
func (d *fakeDirectory) List(invocation base.Invocation) []base.Invoker { return d.invokers }
func (d *fakeDirectory) IsAvailable() bool                              { return true }
func (d *fakeDirectory) Destroy()                                       {}

func newInvocation() base.Invocation {
	return base.NewRPCInvocation("sayHello", nil, nil, nil)
}

func TestFailoverClusterInvokeRetriesUntilSuccess(t *testing.T) {
	url := common.NewURLWithOptions(
		common.WithPath("com.example.Greeter"),
		common.WithParamsValue(constant.RetriesKey, "2"),
	)
	bad := newFakeInvoker("10.0.0.1", 99)
	good := newFakeInvoker("10.0.0.2", 0)
	directory := &fakeDirectory{url: url, invokers: []base.Invoker{bad, good}}

	invoker := (&failoverCluster{}).Join(directory)
	result := invoker.Invoke(context.Background(), newInvocation())

	require.NoError(t, result.Error())
	assert.Equal(t, "ok", result.Result())
}

func TestFailoverClusterInvokeExhaustsRetriesAndReturnsLastError(t *testing.T) {
	url := common.NewURLWithOptions(
		common.WithPath("com.example.Greeter"),
		common.WithParamsValue(constant.RetriesKey, "1"),
	)
	bad1 := newFakeInvoker("10.0.0.1", 99)
	bad2 := newFakeInvoker("10.0.0.2", 99)
	directory := &fakeDirectory{url: url, invokers: []base.Invoker{bad1, bad2}}

	invoker := (&failoverCluster{}).Join(directory)
	result := invoker.Invoke(context.Background(), newInvocation())

	assert.Error(t, result.Error())
}

func TestFailoverClusterInvokeNoInvokersReturnsNetworkError(t *testing.T) {
	url := common.NewURLWithOptions(common.WithPath("com.example.Greeter"))
	directory := &fakeDirectory{url: url}

	invoker := (&failoverCluster{}).Join(directory)
	result := invoker.Invoke(context.Background(), newInvocation())

	assert.Error(t, result.Error())
}
