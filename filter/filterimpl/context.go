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

// Package filterimpl holds the built-in filters that self-register with
// common/extension (spec.md §4.7). Each file is one filter; this one is
// the context filter, activated on both sides by default.
package filterimpl

import (
	"context"

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/filter"
	"github.com/meshrpc/meshrpc/protocol/base"
)

func init() {
	extension.SetFilter(constant.ContextFilterKey, newContextFilter, "provider", "consumer")
}

// contextFilter clears the invocation's Invoker reference once the call
// returns, so a provider-side Invocation's Invoker pointer never outlives
// the request it was built for.
type contextFilter struct{}

func newContextFilter() filter.Filter {
	return &contextFilter{}
}

func (f *contextFilter) Invoke(ctx context.Context, invoker base.Invoker, invocation base.Invocation) base.Result {
	invocation.SetInvoker(invoker)
	return invoker.Invoke(ctx, invocation)
}

func (f *contextFilter) OnResponse(ctx context.Context, result base.Result, invoker base.Invoker, invocation base.Invocation) base.Result {
	invocation.SetInvoker(nil)
	return result
}
