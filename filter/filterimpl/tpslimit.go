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
	"time"

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/filter"
	"github.com/meshrpc/meshrpc/protocol/base"
)

func init() {
	extension.SetFilter(constant.TPSLimitFilterKey, newTPSLimitFilter, "provider")
}

// tpsLimitFilter enforces a fixed-window requests-per-second cap read
// from the provider URL's "tps" parameter (spec.md §4.7 table
// "tps-limit"). A limit of 0 means unbounded.
type tpsLimitFilter struct {
	mu      sync.Mutex
	windows map[string]*tpsWindow
}

type tpsWindow struct {
	windowStart time.Time
	count       int64
}

func newTPSLimitFilter() filter.Filter {
	return &tpsLimitFilter{windows: make(map[string]*tpsWindow)}
}

func (f *tpsLimitFilter) Invoke(ctx context.Context, invoker base.Invoker, invocation base.Invocation) base.Result {
	limit := invoker.GetURL().GetParamInt("tps", 0)
	if limit <= 0 {
		return invoker.Invoke(ctx, invocation)
	}

	key := invoker.GetURL().ServiceKey()
	now := time.Now()

	f.mu.Lock()
	w, ok := f.windows[key]
	if !ok || now.Sub(w.windowStart) >= time.Second {
		w = &tpsWindow{windowStart: now}
		f.windows[key] = w
	}
	w.count++
	exceeded := w.count > limit
	f.mu.Unlock()

	if exceeded {
		r := &base.RPCResult{}
		r.SetError(base.NewRPCError(base.LimitExceededError, "tps limit exceeded for "+key))
		return r
	}
	return invoker.Invoke(ctx, invocation)
}

func (f *tpsLimitFilter) OnResponse(ctx context.Context, result base.Result, invoker base.Invoker, invocation base.Invocation) base.Result {
	return result
}
