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

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/filter"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const genericInvokeMethod = "$invoke"

func init() {
	extension.SetFilter(constant.GenericFilterKey, newGenericFilter, "provider")
}

// genericFilter unwraps a "$invoke"(method, paramTypes []string, args
// []any) call — the shape a generic/untyped consumer sends — into an
// ordinary Invocation against the real method name, so the provider-side
// dispatch below never has to know about generic calls at all.
type genericFilter struct{}

func newGenericFilter() filter.Filter {
	return &genericFilter{}
}

func (f *genericFilter) Invoke(ctx context.Context, invoker base.Invoker, invocation base.Invocation) base.Result {
	if invocation.MethodName() != genericInvokeMethod {
		return invoker.Invoke(ctx, invocation)
	}

	args := invocation.Arguments()
	if len(args) != 3 {
		r := &base.RPCResult{}
		r.SetError(base.NewRPCError(base.SerializationError, "malformed $invoke call: expected 3 arguments"))
		return r
	}
	method, ok := args[0].(string)
	if !ok {
		r := &base.RPCResult{}
		r.SetError(base.NewRPCError(base.SerializationError, "malformed $invoke call: method name must be a string"))
		return r
	}
	paramTypes, _ := args[1].([]string)
	realArgs, _ := args[2].([]any)

	real := base.NewRPCInvocation(method, paramTypes, realArgs, invocation.Attachments())
	real.SetInvoker(invoker)
	return invoker.Invoke(ctx, real)
}

func (f *genericFilter) OnResponse(ctx context.Context, result base.Result, invoker base.Invoker, invocation base.Invocation) base.Result {
	return result
}
