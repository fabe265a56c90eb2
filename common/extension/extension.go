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

// Package extension is the process-wide registry of named plug-ins
// (spec.md §4.1 "Extension loader"). Every other component looks up its
// collaborators here instead of constructing them directly, so wiring a new
// cluster policy, load balancer, registry backend, filter, or
// serialization is a matter of calling the matching SetXxx from an init()
// in the implementation package — the redesign spec.md §9 asks for in
// place of reflection-driven, annotation-scanned wiring.
package extension

import (
	"fmt"
	"strings"
	"sync"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/filter"
	"github.com/meshrpc/meshrpc/protocol/base"
	"github.com/meshrpc/meshrpc/proxy"
	"github.com/meshrpc/meshrpc/registry"
	"github.com/meshrpc/meshrpc/remoting/codec"
)

// ---- protocols ----

var (
	protocolMu    sync.RWMutex
	protocolFacts = make(map[string]func() base.Protocol)
	protocolInsts = make(map[string]base.Protocol)
)

func SetProtocol(name string, fn func() base.Protocol) {
	protocolMu.Lock()
	defer protocolMu.Unlock()
	protocolFacts[name] = fn
}

// GetProtocol returns the process-wide singleton Protocol registered under
// name, constructing it on first use.
func GetProtocol(name string) base.Protocol {
	protocolMu.Lock()
	defer protocolMu.Unlock()
	if p, ok := protocolInsts[name]; ok {
		return p
	}
	fn, ok := protocolFacts[name]
	if !ok {
		panic(fmt.Sprintf("no extension named %q for protocol", name))
	}
	p := fn()
	protocolInsts[name] = p
	return p
}

// GetAllProtocolInstances returns every constructed (not merely
// registered) protocol singleton, used by shutdown to destroy them all.
func GetAllProtocolInstances() []base.Protocol {
	protocolMu.RLock()
	defer protocolMu.RUnlock()
	out := make([]base.Protocol, 0, len(protocolInsts))
	for _, p := range protocolInsts {
		out = append(out, p)
	}
	return out
}

// ---- clusters ----

var (
	clusterMu    sync.RWMutex
	clusterFacts = make(map[string]func() cluster.Cluster)
)

func SetCluster(name string, fn func() cluster.Cluster) {
	clusterMu.Lock()
	defer clusterMu.Unlock()
	clusterFacts[name] = fn
}

func GetCluster(name string) (cluster.Cluster, error) {
	clusterMu.RLock()
	fn, ok := clusterFacts[name]
	clusterMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no extension named %q for cluster", name)
	}
	return fn(), nil
}

// ---- load balance ----

var (
	lbMu    sync.RWMutex
	lbFacts = make(map[string]func() cluster.LoadBalance)
)

func SetLoadBalance(name string, fn func() cluster.LoadBalance) {
	lbMu.Lock()
	defer lbMu.Unlock()
	lbFacts[name] = fn
}

func GetLoadBalance(name string) cluster.LoadBalance {
	lbMu.RLock()
	fn, ok := lbFacts[name]
	lbMu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("no extension named %q for loadbalance", name))
	}
	return fn()
}

// ---- routers ----

// RouterFactory builds one Router instance from the router URL (parsed
// condition/script/tag rule); url carries the rule, not the target.
type RouterFactory func(url *common.URL) (cluster.Router, error)

var (
	routerMu    sync.RWMutex
	routerFacts = make(map[string]RouterFactory)
)

func SetRouterFactory(name string, fn RouterFactory) {
	routerMu.Lock()
	defer routerMu.Unlock()
	routerFacts[name] = fn
}

func GetRouterFactory(name string) (RouterFactory, bool) {
	routerMu.RLock()
	defer routerMu.RUnlock()
	fn, ok := routerFacts[name]
	return fn, ok
}

// ---- registries ----

type RegistryFactory func(url *common.URL) (registry.Registry, error)

var (
	registryMu    sync.RWMutex
	registryFacts = make(map[string]RegistryFactory)
)

func SetRegistry(name string, fn RegistryFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registryFacts[name] = fn
}

func GetRegistry(name string, url *common.URL) (registry.Registry, error) {
	registryMu.RLock()
	fn, ok := registryFacts[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no extension named %q for registry", name)
	}
	return fn(url)
}

// ---- service discovery ----

type ServiceDiscoveryFactory func(url *common.URL) (registry.ServiceDiscovery, error)

var (
	sdMu    sync.RWMutex
	sdFacts = make(map[string]ServiceDiscoveryFactory)
)

func SetServiceDiscovery(name string, fn ServiceDiscoveryFactory) {
	sdMu.Lock()
	defer sdMu.Unlock()
	sdFacts[name] = fn
}

func GetServiceDiscovery(name string, url *common.URL) (registry.ServiceDiscovery, error) {
	sdMu.RLock()
	fn, ok := sdFacts[name]
	sdMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no extension named %q for service discovery", name)
	}
	return fn(url)
}

// ---- filters ----

var (
	filterMu    sync.RWMutex
	filterFacts = make(map[string]func() filter.Filter)
	// activateOn records, per filter name, which side(s) ("provider",
	// "consumer") it auto-activates on absent an explicit filter list.
	activateOn = make(map[string][]string)
)

// SetFilter registers a filter factory. sides lists the invocation sides
// ("provider"/"consumer") this filter auto-activates on, mirroring the
// teacher's @Activate(group=...).
func SetFilter(name string, fn func() filter.Filter, sides ...string) {
	filterMu.Lock()
	defer filterMu.Unlock()
	filterFacts[name] = fn
	activateOn[name] = sides
}

func GetFilter(name string) filter.Filter {
	filterMu.RLock()
	fn, ok := filterFacts[name]
	filterMu.RUnlock()
	if !ok {
		panic(fmt.Sprintf("no extension named %q for filter", name))
	}
	return fn()
}

// GetActivateExtension resolves the ordered filter list for url[key]: a
// comma list of names, "-name" to suppress a side-activated filter, and
// side-activated filters included even if absent from the list (spec.md
// §4.1 "getActivateExtension").
func GetActivateExtension(url *common.URL, key, side string) []filter.Filter {
	raw := url.GetParam(key, "")
	var explicit []string
	suppressed := make(map[string]bool)
	seen := make(map[string]bool)
	if raw != "" {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if strings.HasPrefix(name, "-") {
				suppressed[strings.TrimPrefix(name, "-")] = true
				continue
			}
			explicit = append(explicit, name)
		}
	}

	var names []string
	filterMu.RLock()
	for name, sides := range activateOn {
		if suppressed[name] || seen[name] {
			continue
		}
		for _, s := range sides {
			if s == side {
				names = append(names, name)
				seen[name] = true
				break
			}
		}
	}
	filterMu.RUnlock()

	for _, name := range explicit {
		if suppressed[name] || seen[name] {
			continue
		}
		names = append(names, name)
		seen[name] = true
	}

	filters := make([]filter.Filter, 0, len(names))
	for _, name := range names {
		filters = append(filters, GetFilter(name))
	}
	return filters
}

// ---- proxy factories ----

var (
	pfMu    sync.RWMutex
	pfFacts = make(map[string]func() proxy.ProxyFactory)
)

func SetProxyFactory(name string, fn func() proxy.ProxyFactory) {
	pfMu.Lock()
	defer pfMu.Unlock()
	pfFacts[name] = fn
}

func GetProxyFactory(name string) proxy.ProxyFactory {
	pfMu.RLock()
	fn, ok := pfFacts[name]
	pfMu.RUnlock()
	if !ok {
		if def, ok2 := pfFacts["default"]; ok2 {
			return def()
		}
		panic(fmt.Sprintf("no extension named %q for proxy factory", name))
	}
	return fn()
}

// ---- serialization ----

var (
	serialMu    sync.RWMutex
	serialFacts = make(map[string]func() codec.Serialization)
)

func SetSerialization(name string, fn func() codec.Serialization) {
	serialMu.Lock()
	defer serialMu.Unlock()
	serialFacts[name] = fn
}

func GetSerialization(name string) (codec.Serialization, error) {
	serialMu.RLock()
	fn, ok := serialFacts[name]
	serialMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no extension named %q for serialization", name)
	}
	return fn(), nil
}
