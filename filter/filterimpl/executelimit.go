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

package filterimpl

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/filter"
	"github.com/meshrpc/meshrpc/protocol/base"
)

func init() {
	extension.SetFilter(constant.ExecuteLimitFilterKey, newExecuteLimitFilter, "provider")
}

// executeLimitFilter rejects a call with LimitExceededError once the
// provider method's in-flight count reaches methods.<method>.executes
// (spec.md §4.7 table "execute-limit"). A limit of 0 means unbounded.
type executeLimitFilter struct {
	mu      sync.Mutex
	active  map[string]*atomic.Int64
}

func newExecuteLimitFilter() filter.Filter {
	return &executeLimitFilter{active: make(map[string]*atomic.Int64)}
}

func (f *executeLimitFilter) counter(key string) *atomic.Int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.active[key]
	if !ok {
		c = atomic.NewInt64(0)
		f.active[key] = c
	}
	return c
}

func (f *executeLimitFilter) Invoke(ctx context.Context, invoker base.Invoker, invocation base.Invocation) base.Result {
	limit := invoker.GetURL().GetMethodParamInt(invocation.MethodName(), "executes", 0)
	if limit <= 0 {
		return invoker.Invoke(ctx, invocation)
	}

	key := invoker.GetURL().Key() + "#" + invocation.MethodName()
	counter := f.counter(key)
	if counter.Inc() > limit {
		counter.Dec()
		r := &base.RPCResult{}
		r.SetError(base.NewRPCError(base.LimitExceededError, "execute limit exceeded for "+invocation.MethodName()))
		return r
	}
	defer counter.Dec()
	return invoker.Invoke(ctx, invocation)
}

func (f *executeLimitFilter) OnResponse(ctx context.Context, result base.Result, invoker base.Invoker, invocation base.Invocation) base.Result {
	return result
}
