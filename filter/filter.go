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

// Package filter defines the pre/post invocation interceptor contract
// wrapped around every invoker (spec.md §4.7). Concrete filters
// self-register with common/extension from filter/filterimpl.
package filter

import (
	"context"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/protocol/base"
)

// Filter may short-circuit, rewrite, or post-process an invocation.
// OnResponse runs after Invoke returns (on the way back out), mirroring the
// teacher's two-phase filter shape.
type Filter interface {
	Invoke(ctx context.Context, invoker base.Invoker, invocation base.Invocation) base.Result
	OnResponse(ctx context.Context, result base.Result, invoker base.Invoker, invocation base.Invocation) base.Result
}

// Chain composes filters (outermost first) around a terminal invoker.
type Chain struct {
	filters []Filter
	next    base.Invoker
}

// NewChain builds a Chain that runs filters in order, then delegates to
// next.
func NewChain(filters []Filter, next base.Invoker) *Chain {
	return &Chain{filters: filters, next: next}
}

func (c *Chain) GetURL() *common.URL { return c.next.GetURL() }
func (c *Chain) IsAvailable() bool   { return c.next.IsAvailable() }
func (c *Chain) Destroy()            { c.next.Destroy() }

// Invoke runs the chain: each filter's Invoke wraps the next, and
// OnResponse unwinds in reverse order, matching the teacher's
// ProtocolFilterWrapper composition.
func (c *Chain) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	return c.invokeAt(ctx, 0, invocation)
}

func (c *Chain) invokeAt(ctx context.Context, idx int, invocation base.Invocation) base.Result {
	if idx >= len(c.filters) {
		return c.next.Invoke(ctx, invocation)
	}
	f := c.filters[idx]
	rest := &chainInvoker{
		delegate: c.next,
		call: func(ctx context.Context, invocation base.Invocation) base.Result {
			return c.invokeAt(ctx, idx+1, invocation)
		},
	}
	result := f.Invoke(ctx, rest, invocation)
	return f.OnResponse(ctx, result, rest, invocation)
}

// chainInvoker lets one filter call "the rest of the chain" as if it were
// a single invoker.
type chainInvoker struct {
	delegate base.Invoker
	call     func(ctx context.Context, invocation base.Invocation) base.Result
}

func (c *chainInvoker) GetURL() *common.URL { return c.delegate.GetURL() }
func (c *chainInvoker) IsAvailable() bool   { return c.delegate.IsAvailable() }
func (c *chainInvoker) Destroy()            { c.delegate.Destroy() }
func (c *chainInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	return c.call(ctx, invocation)
}
