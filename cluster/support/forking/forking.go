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

// Package forking implements the forking cluster policy (spec.md §4.6
// table): dispatch to forks.<method> (default 2) invokers concurrently and
// return the first success, used for latency-sensitive reads where
// wasting extra provider work is an acceptable trade for tail latency.
package forking

import (
	"context"
	"sync"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/cluster/support"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "forking"

func init() {
	extension.SetCluster(Name, newForkingCluster)
}

type forkingCluster struct{}

func newForkingCluster() cluster.Cluster {
	return &forkingCluster{}
}

func (c *forkingCluster) Join(directory cluster.Directory) base.Invoker {
	return &forkingClusterInvoker{BaseClusterInvoker: support.NewBaseClusterInvoker(directory)}
}

type forkingClusterInvoker struct {
	*support.BaseClusterInvoker
}

func (inv *forkingClusterInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	url := inv.GetURL()
	invokers := inv.Directory.List(invocation)
	if len(invokers) == 0 {
		return errResult(base.NewRPCError(base.NetworkError, "forking: no invokers available"))
	}

	forks := int(url.GetMethodParamInt(invocation.MethodName(), constant.ForksKey, constant.DefaultForks))
	if forks <= 0 || forks > len(invokers) {
		forks = len(invokers)
	}

	lbName := url.GetMethodParam(invocation.MethodName(), constant.LoadbalanceKey, constant.DefaultLoadBalance)
	lb := extension.GetLoadBalance(lbName)

	selected := make([]base.Invoker, 0, forks)
	remaining := append([]base.Invoker(nil), invokers...)
	for i := 0; i < forks && len(remaining) > 0; i++ {
		picked := lb.Select(remaining, url, invocation)
		if picked == nil {
			break
		}
		selected = append(selected, picked)
		remaining = removeInvoker(remaining, picked)
	}

	resultCh := make(chan base.Result, len(selected))
	var wg sync.WaitGroup
	for _, picked := range selected {
		wg.Add(1)
		go func(inv base.Invoker) {
			defer wg.Done()
			resultCh <- support.InvokeWithInvoker(ctx, inv, invocation.Clone())
		}(picked)
	}
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var lastErr base.Result
	for result := range resultCh {
		if result.Error() == nil {
			return result
		}
		lastErr = result
	}
	if lastErr != nil {
		return lastErr
	}
	return errResult(base.NewRPCError(base.NetworkError, "forking: all forks failed"))
}

func removeInvoker(invokers []base.Invoker, target base.Invoker) []base.Invoker {
	out := make([]base.Invoker, 0, len(invokers))
	for _, inv := range invokers {
		if inv.GetURL().Key() != target.GetURL().Key() {
			out = append(out, inv)
		}
	}
	return out
}

func errResult(err error) base.Result {
	r := &base.RPCResult{}
	r.SetError(err)
	return r
}
