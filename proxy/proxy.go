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

// Package proxy adapts an Invoker to a concrete service interface and back
// (spec.md §4.8 "Proxy"). The only strategy carried from the teacher is the
// reflective one: Go has no bytecode-gen story to stand in for the
// teacher's optional bytecode wrapper, so reflection — the teacher's own
// fallback — is the sole implementation (see DESIGN.md).
package proxy

import (
	"context"
	"reflect"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/protocol/base"
)

// Proxy implements a service interface in terms of an underlying Invoker.
// ProxyFactory.GetProxy returns a *Proxy; Implement binds a consumer-side
// struct so its methods forward through the invoker.
type Proxy struct {
	invoker  base.Invoker
	url      *common.URL
	callback any
	async    bool
	service  common.RPCService
}

// NewProxy builds a Proxy bound to invoker. callback is non-nil only for
// async proxies built via GetAsyncProxy.
func NewProxy(invoker base.Invoker, url *common.URL, callback any) *Proxy {
	return &Proxy{invoker: invoker, url: url, callback: callback, async: callback != nil}
}

func (p *Proxy) GetInvoker() base.Invoker { return p.invoker }

// Implement rewrites v's exported func fields (the generated consumer
// stub's method-shaped fields) to call through the invoker, the same
// reflective trick the teacher's default proxy factory uses.
func (p *Proxy) Implement(v common.RPCService) {
	makeDubboCallProxy(v, p.invoker)
	p.service = v
}

// Get returns the service this proxy implements, for generic callers that
// only hold the any.
func (p *Proxy) Get() common.RPCService {
	return p.service
}

// makeDubboCallProxy walks v's exported function-typed fields and replaces
// each with a closure building an Invocation and delegating to invoker.
// Result.Result() fills each earlier return value it is assignable to, and
// Result.Error() goes into the last return value; a field with no return
// values drops the error.
func makeDubboCallProxy(v common.RPCService, invoker base.Invoker) {
	valueOf := reflect.ValueOf(v)
	elem := valueOf.Elem()
	if elem.Kind() != reflect.Struct {
		return
	}
	t := elem.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Type.Kind() != reflect.Func {
			continue
		}
		method := field.Name
		fieldValue := elem.Field(i)
		if !fieldValue.CanSet() {
			continue
		}
		fn := reflect.MakeFunc(field.Type, buildCallFunc(method, field.Type, invoker))
		fieldValue.Set(fn)
	}
}

func buildCallFunc(method string, fnType reflect.Type, invoker base.Invoker) func([]reflect.Value) []reflect.Value {
	return func(args []reflect.Value) []reflect.Value {
		paramTypes := make([]string, 0, len(args))
		arguments := make([]any, 0, len(args))
		ctx := context.Background()
		for _, a := range args {
			if a.Type().String() == "context.Context" {
				if c, ok := a.Interface().(context.Context); ok && c != nil {
					ctx = c
				}
				continue
			}
			paramTypes = append(paramTypes, a.Type().String())
			arguments = append(arguments, a.Interface())
		}
		invocation := base.NewRPCInvocation(method, paramTypes, arguments, nil)
		result := invoker.Invoke(ctx, invocation)

		numOut := fnType.NumOut()
		out := make([]reflect.Value, numOut)
		errIdx := numOut - 1
		for i := 0; i < errIdx; i++ {
			outType := fnType.Out(i)
			if result.Result() != nil && reflect.TypeOf(result.Result()).AssignableTo(outType) {
				out[i] = reflect.ValueOf(result.Result())
			} else {
				out[i] = reflect.Zero(outType)
			}
		}
		if numOut > 0 {
			if result.Error() != nil {
				out[errIdx] = reflect.ValueOf(result.Error())
			} else {
				out[errIdx] = reflect.Zero(fnType.Out(errIdx))
			}
		}
		return out
	}
}

// ProxyFactory builds Proxy instances from an Invoker, and Invoker
// instances from a local service implementation (spec.md §4.8
// "getInvoker(ref, type, url) -> Invoker performs the inverse").
type ProxyFactory interface {
	GetProxy(invoker base.Invoker, url *common.URL) *Proxy
	GetAsyncProxy(invoker base.Invoker, callback any, url *common.URL) *Proxy
	GetInvoker(url *common.URL) base.Invoker
}
