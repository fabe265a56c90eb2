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

// Package proxyfactory provides the default reflective ProxyFactory
// (spec.md §4.8), self-registered under the name "default".
package proxyfactory

import (
	"context"
	"reflect"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
	"github.com/meshrpc/meshrpc/proxy"
)

const Name = "default"

func init() {
	extension.SetProxyFactory(Name, newDefaultProxyFactory)
}

type defaultProxyFactory struct{}

func newDefaultProxyFactory() proxy.ProxyFactory {
	return &defaultProxyFactory{}
}

func (f *defaultProxyFactory) GetProxy(invoker base.Invoker, url *common.URL) *proxy.Proxy {
	return proxy.NewProxy(invoker, url, nil)
}

func (f *defaultProxyFactory) GetAsyncProxy(invoker base.Invoker, callback any, url *common.URL) *proxy.Proxy {
	return proxy.NewProxy(invoker, url, callback)
}

// GetInvoker wraps a local service implementation (the provider side's own
// object, registered under common.SetService) as an Invoker whose Invoke
// dispatches by reflection to the matching exported method — the inverse
// of Proxy.Implement (spec.md §4.8 "getInvoker... performs the inverse").
func (f *defaultProxyFactory) GetInvoker(url *common.URL) base.Invoker {
	return &reflectInvoker{BaseInvoker: base.NewBaseInvoker(url)}
}

type reflectInvoker struct {
	*base.BaseInvoker
}

func (r *reflectInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	result := &base.RPCResult{}

	serviceKey := r.GetURL().ServiceKey()
	svc := common.GetService(serviceKey)
	if svc == nil {
		result.SetError(base.NewRPCError(base.UnknownError, "no local service registered for "+serviceKey))
		return result
	}

	methodValue := reflect.ValueOf(svc).MethodByName(invocation.MethodName())
	if !methodValue.IsValid() {
		result.SetError(base.NewRPCError(base.UnknownError, "service "+serviceKey+" has no method "+invocation.MethodName()))
		return result
	}

	args := invocation.Arguments()
	in := make([]reflect.Value, 0, len(args)+1)
	methodType := methodValue.Type()
	if methodType.NumIn() > 0 && methodType.In(0).String() == "context.Context" {
		in = append(in, reflect.ValueOf(ctx))
	}
	for _, a := range args {
		in = append(in, reflect.ValueOf(a))
	}

	out := methodValue.Call(in)
	if len(out) == 0 {
		return result
	}
	last := out[len(out)-1]
	if last.Type().String() == "error" {
		if !last.IsNil() {
			result.SetError(last.Interface().(error))
		}
		if len(out) > 1 {
			result.SetResult(out[0].Interface())
		}
		return result
	}
	result.SetResult(out[0].Interface())
	return result
}
