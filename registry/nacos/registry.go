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

package nacos

import (
	"strconv"
	"sync"

	gxset "github.com/dubbogo/gost/container/set"
	"github.com/dubbogo/gost/log/logger"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/registry"
)

func init() {
	extension.SetRegistry(constant.NacosKey, newNacosRegistry)
}

// nacosRegistry adapts the instance-oriented ServiceDiscovery contract,
// resolved through extension.GetServiceDiscovery the same way every other
// backend is resolved by name, to the interface-level Registry contract
// RegistryDirectory/RegistryProtocol consume (spec.md §4.2), the way
// dubbo-go's ServiceDiscoveryRegistry sits in front of a raw
// ServiceDiscovery backend. One ServiceInstance is registered per provider
// URL, carrying the URL's own encoded form in its metadata so Subscribe can
// reconstruct it without a separate metadata-service round trip.
type nacosRegistry struct {
	url       *common.URL
	discovery registry.ServiceDiscovery

	mu        sync.Mutex
	instances map[string]registry.ServiceInstance // url.Key() -> registered instance
	listeners map[string]*instanceListener         // url.ServiceKey() -> active subscription
}

func newNacosRegistry(url *common.URL) (registry.Registry, error) {
	discovery, err := extension.GetServiceDiscovery(constant.NacosKey, url)
	if err != nil {
		return nil, err
	}
	return &nacosRegistry{
		url:       url,
		discovery: discovery,
		instances: make(map[string]registry.ServiceInstance),
		listeners: make(map[string]*instanceListener),
	}, nil
}

func (r *nacosRegistry) GetURL() *common.URL { return r.url }

// IsAvailable reports whether the underlying namingClient session is
// usable; the nacos Go SDK does not expose a session-health hook directly,
// so this mirrors the teacher's own always-available discovery wrapper.
func (r *nacosRegistry) IsAvailable() bool { return true }

func (r *nacosRegistry) Destroy() {
	if err := r.discovery.Destroy(); err != nil {
		logger.Warnf("nacos registry: destroy: %v", err)
	}
}

// Register publishes url as one ServiceInstance named after its encoded
// service key, mirroring zookeeperRegistry.Register's check-then-swallow
// handling of url.check=false.
func (r *nacosRegistry) Register(url *common.URL) error {
	port, _ := strconv.Atoi(url.Port)
	instance := &registry.DefaultServiceInstance{
		ID:          url.Ip + ":" + url.Port,
		ServiceName: url.EncodedServiceKey(),
		Host:        url.Ip,
		Port:        port,
		Enable:      true,
		Healthy:     true,
		Weight:      url.GetParamInt(constant.WeightKey, constant.DefaultWeight),
		Metadata:    map[string]string{constant.NacosURLMetadataKey: url.String()},
	}
	if err := r.discovery.Register(instance); err != nil {
		if url.GetParamBool(constant.CheckKey, true) {
			return err
		}
		logger.Warnf("nacos: register %s failed, will not retry in background: %v", url, err)
		return nil
	}
	r.mu.Lock()
	r.instances[url.Key()] = instance
	r.mu.Unlock()
	return nil
}

func (r *nacosRegistry) UnRegister(url *common.URL) error {
	r.mu.Lock()
	instance, ok := r.instances[url.Key()]
	delete(r.instances, url.Key())
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return r.discovery.Unregister(instance)
}

// decodeInstances recovers the provider URL each instance advertises from
// its NacosURLMetadataKey metadata entry, skipping any instance that
// doesn't carry one (registered by something other than this adapter).
func decodeInstances(instances []registry.ServiceInstance) []*common.URL {
	urls := make([]*common.URL, 0, len(instances))
	for _, inst := range instances {
		raw := inst.GetMetadata()[constant.NacosURLMetadataKey]
		if raw == "" {
			continue
		}
		u, err := common.NewURL(raw)
		if err != nil {
			logger.Warnf("nacos: decode instance URL %q: %v", raw, err)
			continue
		}
		urls = append(urls, u)
	}
	return urls
}

func (r *nacosRegistry) LookUp(url *common.URL) ([]*common.URL, error) {
	return decodeInstances(r.discovery.GetInstances(url.EncodedServiceKey())), nil
}

// instanceListener bridges one interface-level NotifyListener subscription
// to the instance-oriented ServiceInstancesChangedListener contract.
// active lets UnSubscribe silently stop forwarding without needing an
// SDK-level unsubscribe call, which ServiceDiscovery does not expose.
type instanceListener struct {
	serviceName string
	names       *gxset.HashSet
	notify      registry.NotifyListener

	mu     sync.Mutex
	active bool
}

func (l *instanceListener) GetServiceNames() *gxset.HashSet { return l.names }

func (l *instanceListener) OnEvent(event *registry.ServiceInstancesChangedEvent) error {
	l.mu.Lock()
	active := l.active
	l.mu.Unlock()
	if !active {
		return nil
	}
	l.deliver(event.Instances)
	return nil
}

// deliver converts instances to provider URLs and notifies, falling back
// to a single "empty://" marker for the category when nothing resolves
// (spec.md §4.2 contract item 5), the same convention
// zookeeperRegistry's categoryWatcher.refresh uses.
func (l *instanceListener) deliver(instances []registry.ServiceInstance) {
	urls := decodeInstances(instances)
	events := make([]*registry.ServiceEvent, 0, len(urls))
	for _, u := range urls {
		events = append(events, &registry.ServiceEvent{Action: registry.EventTypeAdd, Service: u})
	}
	if len(events) == 0 {
		empty := common.NewURLWithOptions(
			common.WithProtocol(constant.EmptyProtocol),
			common.WithPath(l.serviceName),
			common.WithParamsValue(constant.CategoryKey, constant.CategoryProviders),
		)
		events = append(events, &registry.ServiceEvent{Action: registry.EventTypeAdd, Service: empty})
	}
	l.notify.NotifyAll(events, func() {})
}

// Subscribe installs an instance listener for url's service key, delivering
// the current full state immediately and again on every subsequent
// nacos-side membership change. Only the providers category is modeled:
// the instance-oriented ServiceDiscovery contract has no equivalent of
// zookeeper's routers/configurators znodes.
func (r *nacosRegistry) Subscribe(url *common.URL, listener registry.NotifyListener) error {
	serviceName := url.EncodedServiceKey()
	l := &instanceListener{
		serviceName: serviceName,
		names:       gxset.NewSet(serviceName),
		notify:      listener,
		active:      true,
	}

	r.mu.Lock()
	r.listeners[url.ServiceKey()] = l
	r.mu.Unlock()

	l.deliver(r.discovery.GetInstances(serviceName))
	return r.discovery.AddListener(l)
}

func (r *nacosRegistry) UnSubscribe(url *common.URL, listener registry.NotifyListener) error {
	r.mu.Lock()
	l, ok := r.listeners[url.ServiceKey()]
	delete(r.listeners, url.ServiceKey())
	r.mu.Unlock()
	if ok {
		l.mu.Lock()
		l.active = false
		l.mu.Unlock()
	}
	return nil
}
