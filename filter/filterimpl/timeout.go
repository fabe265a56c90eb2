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
	"time"

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/filter"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const defaultTimeout = 3 * time.Second

func init() {
	extension.SetFilter(constant.TimeoutFilterKey, newTimeoutFilter, "consumer")
}

// timeoutFilter bounds a consumer-side call by methods.<method>.timeout (or the
// service-level timeout), translating context deadline exceeded into a
// TimeoutError RPCError (spec.md §5 "Timeouts").
type timeoutFilter struct{}

func newTimeoutFilter() filter.Filter {
	return &timeoutFilter{}
}

func (f *timeoutFilter) Invoke(ctx context.Context, invoker base.Invoker, invocation base.Invocation) base.Result {
	timeout := invoker.GetURL().GetMethodParamDuration(invocation.MethodName(), constant.TimeoutKey, defaultTimeout)
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan base.Result, 1)
	go func() {
		done <- invoker.Invoke(callCtx, invocation)
	}()

	select {
	case result := <-done:
		return result
	case <-callCtx.Done():
		r := &base.RPCResult{}
		r.SetError(base.NewRPCError(base.TimeoutError, "call to "+invoker.GetURL().ServiceKey()+"#"+invocation.MethodName()+" timed out after "+timeout.String()))
		return r
	}
}

func (f *timeoutFilter) OnResponse(ctx context.Context, result base.Result, invoker base.Invoker, invocation base.Invocation) base.Result {
	return result
}
