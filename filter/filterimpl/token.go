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

func init() {
	extension.SetFilter(constant.TokenFilterKey, newTokenFilter, "provider")
}

// tokenFilter rejects calls whose "token" attachment doesn't match the
// provider URL's configured token, a shared-secret check that only
// activates when the provider URL actually sets one.
type tokenFilter struct{}

func newTokenFilter() filter.Filter {
	return &tokenFilter{}
}

func (f *tokenFilter) Invoke(ctx context.Context, invoker base.Invoker, invocation base.Invocation) base.Result {
	expected := invoker.GetURL().GetParam(constant.TokenKey, "")
	if expected == "" {
		return invoker.Invoke(ctx, invocation)
	}
	actual, _ := invocation.Attachment(constant.TokenKey)
	if actual != expected {
		r := &base.RPCResult{}
		r.SetError(base.NewRPCError(base.ForbiddenError, "invalid token for "+invoker.GetURL().ServiceKey()))
		return r
	}
	return invoker.Invoke(ctx, invocation)
}

func (f *tokenFilter) OnResponse(ctx context.Context, result base.Result, invoker base.Invoker, invocation base.Invocation) base.Result {
	return result
}
