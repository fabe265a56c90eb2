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

// Package script implements spec.md §4.6's scriptable router: a router
// whose rule is a small JavaScript snippet defining a `route(urls, method)`
// function returning the subset of candidate URLs (as strings) allowed to
// serve the call.
package script

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "script"

func init() {
	extension.SetRouterFactory(Name, NewScriptRouter)
}

// ScriptRouter compiles its rule once and re-runs the `route` function
// against each List call's candidate set.
type ScriptRouter struct {
	url      *common.URL
	priority int64
	force    bool

	mu   sync.Mutex
	vm   *goja.Runtime
	fn   goja.Callable
}

// NewScriptRouter builds a ScriptRouter from routerURL's "rule" param, a
// JavaScript source defining `function route(urls, method) { ... }`.
func NewScriptRouter(routerURL *common.URL) (cluster.Router, error) {
	rule := routerURL.GetParam("rule", "")
	priority := routerURL.GetParamInt("priority", 0)
	force := routerURL.GetParam("force", "false") == "true"

	r := &ScriptRouter{url: routerURL, priority: priority, force: force}
	if rule == "" {
		return r, nil
	}

	vm := goja.New()
	if _, err := vm.RunString(rule); err != nil {
		return nil, fmt.Errorf("script router: compiling rule: %w", err)
	}
	routeVal := vm.Get("route")
	if routeVal == nil || goja.IsUndefined(routeVal) {
		return nil, fmt.Errorf("script router: rule does not define a route function")
	}
	fn, ok := goja.AssertFunction(routeVal)
	if !ok {
		return nil, fmt.Errorf("script router: route is not callable")
	}
	r.vm, r.fn = vm, fn
	return r, nil
}

func (r *ScriptRouter) URL() *common.URL { return r.url }
func (r *ScriptRouter) Priority() int64  { return r.priority }

func (r *ScriptRouter) Route(invokers []base.Invoker, url *common.URL, invocation base.Invocation) []base.Invoker {
	if r.fn == nil {
		return invokers
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byURL := make(map[string]base.Invoker, len(invokers))
	urls := make([]any, 0, len(invokers))
	for _, inv := range invokers {
		key := inv.GetURL().String()
		byURL[key] = inv
		urls = append(urls, key)
	}

	result, err := r.fn(goja.Undefined(), r.vm.ToValue(urls), r.vm.ToValue(invocation.MethodName()))
	if err != nil {
		if r.force {
			return nil
		}
		return invokers
	}

	exported, ok := result.Export().([]any)
	if !ok {
		if r.force {
			return nil
		}
		return invokers
	}

	filtered := make([]base.Invoker, 0, len(exported))
	for _, v := range exported {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if inv, ok := byURL[s]; ok {
			filtered = append(filtered, inv)
		}
	}
	if len(filtered) == 0 && !r.force {
		return invokers
	}
	return filtered
}
