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

// Package support holds the pieces every cluster failure policy shares
// (spec.md §4.6): routing the directory's invoker list through the active
// routers and a load balancer, and the sticky-session rule that pins a
// consumer to its last invoker. Each policy in a cluster/support/<name>
// subpackage builds one of these per Join and only adds its own
// retry/fan-out shape on top.
package support

import (
	"context"
	"sync"
	"time"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/protocol/base"
)

// BaseClusterInvoker is embedded by every failure-policy invoker. It owns
// the Directory and the sticky-session state; subtype-specific Invoke
// methods call Select to pick invokers and InvokeWithInvoker to make the
// onward call.
type BaseClusterInvoker struct {
	Directory   cluster.Directory
	mu          sync.Mutex
	stickyCache base.Invoker
}

func NewBaseClusterInvoker(directory cluster.Directory) *BaseClusterInvoker {
	return &BaseClusterInvoker{Directory: directory}
}

func (b *BaseClusterInvoker) GetURL() *common.URL { return b.Directory.GetURL() }
func (b *BaseClusterInvoker) IsAvailable() bool   { return b.Directory.IsAvailable() }
func (b *BaseClusterInvoker) Destroy()            { b.Directory.Destroy() }

// List returns the directory's invokers filtered through every router
// in the order they appear in routers; routers are not sorted by priority.
func List(directory cluster.Directory, routers []cluster.Router, url *common.URL, invocation base.Invocation) []base.Invoker {
	invokers := directory.List(invocation)
	for _, r := range routers {
		invokers = r.Route(invokers, url, invocation)
	}
	return invokers
}

// Select applies the sticky-session rule (spec.md §4.6 "sticky") on top of
// lb: if sticky is enabled, the previous pick is reused as long as it is
// still present in invokers and available.
func (b *BaseClusterInvoker) Select(lb cluster.LoadBalance, url *common.URL, invokers []base.Invoker, invocation base.Invocation) base.Invoker {
	if len(invokers) == 0 {
		return nil
	}
	sticky := url.GetMethodParamBool(invocation.MethodName(), constant.StickyKey, false)

	b.mu.Lock()
	defer b.mu.Unlock()

	if sticky && b.stickyCache != nil {
		for _, inv := range invokers {
			if inv.GetURL().Key() == b.stickyCache.GetURL().Key() && inv.IsAvailable() {
				return b.stickyCache
			}
		}
	}

	picked := lb.Select(invokers, url, invocation)
	if sticky {
		b.stickyCache = picked
	}
	return picked
}

// InvokeWithInvoker runs the invocation against a concrete invoker,
// recording RpcStatus begin/end so LeastActive observes it. The invoker's
// result, error included, is returned unchanged.
func InvokeWithInvoker(ctx context.Context, invoker base.Invoker, invocation base.Invocation) base.Result {
	status := base.GetRpcStatusWithMethod(invoker.GetURL().Key(), invocation.MethodName())
	status.BeginCount()
	start := time.Now()
	result := invoker.Invoke(ctx, invocation)
	status.EndCount(time.Since(start), result.Error() == nil)
	return result
}
