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

// Package directory implements RegistryDirectory, the cluster.Directory
// backed by a live registry.Registry subscription (spec.md §4.2/§4.6):
// it keeps one Invoker per currently-registered provider URL, replaces
// routers on every "routers" category notification, and reconciles
// consumer-visible invokers against the latest "providers" category
// snapshot by diff rather than teardown/rebuild.
package directory

import (
	"sync"

	"github.com/dubbogo/gost/log/logger"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
	"github.com/meshrpc/meshrpc/registry"
)

// RegistryDirectory subscribes to one consumer URL's service key across
// the providers/routers/configurators categories and exposes the
// currently-live provider invokers to the cluster layer.
type RegistryDirectory struct {
	consumerURL *common.URL
	reg         registry.Registry

	mu        sync.RWMutex
	invokers  map[string]base.Invoker // provider URL string -> Invoker
	routers   []cluster.Router
	destroyed bool

	// pendingNotify holds the latest not-yet-applied snapshot while another
	// NotifyAll call is applying one (refreshing is true); a notify
	// arriving then replaces whatever was previously queued instead of
	// racing it ("coalesce", the Open Question decision recorded in
	// DESIGN.md). nil when nothing is queued.
	refreshMu     sync.Mutex
	refreshing    bool
	pendingNotify []*registry.ServiceEvent
}

// NewRegistryDirectory builds a RegistryDirectory for consumerURL, backed
// by reg, and immediately subscribes.
func NewRegistryDirectory(consumerURL *common.URL, reg registry.Registry) (*RegistryDirectory, error) {
	d := &RegistryDirectory{
		consumerURL: consumerURL,
		reg:         reg,
		invokers:    make(map[string]base.Invoker),
	}
	if err := reg.Subscribe(consumerURL, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *RegistryDirectory) GetURL() *common.URL { return d.consumerURL }

// List returns the current provider invokers after router filtering.
func (d *RegistryDirectory) List(invocation base.Invocation) []base.Invoker {
	d.mu.RLock()
	invokers := make([]base.Invoker, 0, len(d.invokers))
	for _, inv := range d.invokers {
		invokers = append(invokers, inv)
	}
	routers := append([]cluster.Router(nil), d.routers...)
	d.mu.RUnlock()

	for _, r := range routers {
		invokers = r.Route(invokers, d.consumerURL, invocation)
	}
	return invokers
}

func (d *RegistryDirectory) IsAvailable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.destroyed {
		return false
	}
	for _, inv := range d.invokers {
		if inv.IsAvailable() {
			return true
		}
	}
	return false
}

func (d *RegistryDirectory) Destroy() {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return
	}
	d.destroyed = true
	invokers := d.invokers
	d.invokers = make(map[string]base.Invoker)
	d.mu.Unlock()

	_ = d.reg.UnSubscribe(d.consumerURL, d)
	for _, inv := range invokers {
		inv.Destroy()
	}
}

// Notify implements registry.NotifyListener; no backend in this tree calls
// it. RegistryDirectory only acts on full-state NotifyAll, so a lone
// Notify is folded into a one-event NotifyAll.
func (d *RegistryDirectory) Notify(event *registry.ServiceEvent) {
	d.NotifyAll([]*registry.ServiceEvent{event}, func() {})
}

// NotifyAll applies one category's full-state snapshot. A notification
// arriving while a previous one is still being applied is queued behind
// it, coalescing with (replacing) any already-queued notification rather
// than applying both in sequence.
func (d *RegistryDirectory) NotifyAll(events []*registry.ServiceEvent, done func()) {
	defer done()

	d.refreshMu.Lock()
	if d.refreshing {
		d.pendingNotify = events
		d.refreshMu.Unlock()
		return
	}
	d.refreshing = true
	d.refreshMu.Unlock()

	d.applyEvents(events)

	for {
		d.refreshMu.Lock()
		next := d.pendingNotify
		d.pendingNotify = nil
		if next == nil {
			d.refreshing = false
			d.refreshMu.Unlock()
			return
		}
		d.refreshMu.Unlock()
		d.applyEvents(next)
	}
}

func (d *RegistryDirectory) applyEvents(events []*registry.ServiceEvent) {
	if len(events) == 0 {
		return
	}
	switch events[0].Service.GetParam(constant.CategoryKey, constant.CategoryProviders) {
	case constant.CategoryRouters:
		d.refreshRouters(events)
	case constant.CategoryConfigurators:
		d.refreshConfigurators(events)
	default:
		d.refreshInvokers(events)
	}
}

// refreshInvokers diffs the new providers snapshot against the currently
// held invoker set: URLs no longer present are destroyed and dropped,
// URLs already held are left untouched (preserving in-flight calls and
// sticky-session state), and only genuinely new URLs are referred.
func (d *RegistryDirectory) refreshInvokers(events []*registry.ServiceEvent) {
	next := make(map[string]*common.URL, len(events))
	for _, e := range events {
		if e.Service.Protocol == constant.EmptyProtocol {
			continue // empty:// marker: category has zero members
		}
		next[e.Service.String()] = e.Service
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}

	for key, inv := range d.invokers {
		if _, stillPresent := next[key]; !stillPresent {
			inv.Destroy()
			delete(d.invokers, key)
		}
	}

	for key, url := range next {
		if _, already := d.invokers[key]; already {
			continue
		}
		mergedURL := url.MergeURL(d.consumerURL)
		d.invokers[key] = extension.GetProtocol(mergedURL.Protocol).Refer(mergedURL)
	}
}

func (d *RegistryDirectory) refreshRouters(events []*registry.ServiceEvent) {
	var routers []cluster.Router
	for _, e := range events {
		if e.Service.Protocol == constant.EmptyProtocol {
			continue
		}
		factory, ok := extension.GetRouterFactory(e.Service.Protocol)
		if !ok {
			logger.Warnf("registry directory: no router factory for %s", e.Service.Protocol)
			continue
		}
		r, err := factory(e.Service)
		if err != nil {
			logger.Warnf("registry directory: building router from %s: %v", e.Service, err)
			continue
		}
		routers = append(routers, r)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	d.routers = routers
}

// refreshConfigurators merges override parameters from the configurators
// category onto the consumer URL, taking effect on every invoker referred
// from that point on (existing invokers are not retroactively re-merged,
// matching the provider-set diff semantics above).
func (d *RegistryDirectory) refreshConfigurators(events []*registry.ServiceEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	for _, e := range events {
		if e.Service.Protocol == constant.EmptyProtocol {
			continue
		}
		e.Service.RangeParams(func(key, value string) bool {
			d.consumerURL.SetParam(key, value)
			return true
		})
	}
}
