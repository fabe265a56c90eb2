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

// Package failback implements the fail-back cluster policy (spec.md §4.6
// table): a failed call returns immediately with an empty result, and a
// single background retry runs after a fixed interval, with at most
// retryBudget retries pending at once — suited to fire-and-forget
// notifications where the caller cannot block.
package failback

import (
	"context"
	"sync"
	"time"

	"github.com/dubbogo/gost/log/logger"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/cluster/support"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "failback"

const (
	retryInterval = 5 * time.Second
	retryBudget   = 5
)

func init() {
	extension.SetCluster(Name, newFailbackCluster)
}

type failbackCluster struct{}

func newFailbackCluster() cluster.Cluster {
	return &failbackCluster{}
}

func (c *failbackCluster) Join(directory cluster.Directory) base.Invoker {
	return &failbackClusterInvoker{
		BaseClusterInvoker: support.NewBaseClusterInvoker(directory),
	}
}

type failbackClusterInvoker struct {
	*support.BaseClusterInvoker
	mu      sync.Mutex
	pending int
}

func (inv *failbackClusterInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	url := inv.GetURL()
	invokers := inv.Directory.List(invocation)
	if len(invokers) == 0 {
		inv.scheduleRetry(invocation)
		return &base.RPCResult{}
	}
	lbName := url.GetMethodParam(invocation.MethodName(), constant.LoadbalanceKey, constant.DefaultLoadBalance)
	lb := extension.GetLoadBalance(lbName)
	picked := inv.Select(lb, url, invokers, invocation)
	if picked == nil {
		inv.scheduleRetry(invocation)
		return &base.RPCResult{}
	}

	result := support.InvokeWithInvoker(ctx, picked, invocation)
	if result.Error() != nil {
		logger.Warnf("failback: call to %s#%s failed, scheduling retry: %v",
			url.ServiceKey(), invocation.MethodName(), result.Error())
		inv.scheduleRetry(invocation)
		return &base.RPCResult{}
	}
	return result
}

// scheduleRetry fires one background retry attempt after retryInterval,
// bounded by retryBudget concurrent pending retries so a persistently
// down provider cannot leak goroutines without limit.
func (inv *failbackClusterInvoker) scheduleRetry(invocation base.Invocation) {
	inv.mu.Lock()
	if inv.pending >= retryBudget {
		inv.mu.Unlock()
		logger.Warnf("failback: retry budget exhausted for %s#%s, dropping", inv.GetURL().ServiceKey(), invocation.MethodName())
		return
	}
	inv.pending++
	inv.mu.Unlock()

	clone := invocation.Clone()
	go func() {
		defer func() {
			inv.mu.Lock()
			inv.pending--
			inv.mu.Unlock()
		}()
		time.Sleep(retryInterval)

		url := inv.GetURL()
		invokers := inv.Directory.List(clone)
		if len(invokers) == 0 {
			return
		}
		lbName := url.GetMethodParam(clone.MethodName(), constant.LoadbalanceKey, constant.DefaultLoadBalance)
		lb := extension.GetLoadBalance(lbName)
		picked := inv.Select(lb, url, invokers, clone)
		if picked == nil {
			return
		}
		result := support.InvokeWithInvoker(context.Background(), picked, clone)
		if result.Error() != nil {
			logger.Errorf("failback: retry for %s#%s failed: %v", url.ServiceKey(), clone.MethodName(), result.Error())
		}
	}()
}
