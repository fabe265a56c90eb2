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
	"sync"
	"testing"

	gxset "github.com/dubbogo/gost/container/set"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/registry"
)

// stubDiscovery is a minimal in-memory registry.ServiceDiscovery standing in
// for a live nacos namingClient: Register/Unregister mutate a per-service
// slice directly and AddListener stores the listener so tests can drive
// OnEvent explicitly, without any network I/O.
type stubDiscovery struct {
	mu        sync.Mutex
	instances map[string][]registry.ServiceInstance
	listeners []registry.ServiceInstancesChangedListener
}

func newStubDiscovery() *stubDiscovery {
	return &stubDiscovery{instances: make(map[string][]registry.ServiceInstance)}
}

func (s *stubDiscovery) Destroy() error { return nil }

func (s *stubDiscovery) Register(instance registry.ServiceInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := instance.GetServiceName()
	s.instances[name] = append(s.instances[name], instance)
	return nil
}

func (s *stubDiscovery) Update(instance registry.ServiceInstance) error { return nil }

func (s *stubDiscovery) Unregister(instance registry.ServiceInstance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := instance.GetServiceName()
	kept := s.instances[name][:0]
	for _, inst := range s.instances[name] {
		if inst.GetID() != instance.GetID() {
			kept = append(kept, inst)
		}
	}
	s.instances[name] = kept
	return nil
}

func (s *stubDiscovery) GetDefaultPageSize() int { return 10 }

func (s *stubDiscovery) GetServices() *gxset.HashSet { return gxset.NewSet() }

func (s *stubDiscovery) GetInstances(serviceName string) []registry.ServiceInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]registry.ServiceInstance(nil), s.instances[serviceName]...)
}

func (s *stubDiscovery) AddListener(listener registry.ServiceInstancesChangedListener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
	return nil
}

func (s *stubDiscovery) String() string { return "stubDiscovery" }

func newTestRegistry(discovery registry.ServiceDiscovery) *nacosRegistry {
	return &nacosRegistry{
		url:       common.NewURLWithOptions(common.WithProtocol(constant.NacosKey)),
		discovery: discovery,
		instances: make(map[string]registry.ServiceInstance),
		listeners: make(map[string]*instanceListener),
	}
}

func mustURL(t *testing.T, raw string) *common.URL {
	t.Helper()
	u, err := common.NewURL(raw)
	require.NoError(t, err)
	return u
}

func TestNacosRegistryRegisterAndLookUpRoundTripsURL(t *testing.T) {
	discovery := newStubDiscovery()
	r := newTestRegistry(discovery)

	providerURL := mustURL(t, "dubbo://127.0.0.1:20880/com.example.Greeter?interface=com.example.Greeter&group=g1&version=1.0.0")
	require.NoError(t, r.Register(providerURL))

	found, err := r.LookUp(providerURL)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, providerURL.Ip, found[0].Ip)
	assert.Equal(t, providerURL.Port, found[0].Port)
	assert.Equal(t, "g1", found[0].GetParam(constant.GroupKey, ""))
}

func TestNacosRegistryUnRegisterRemovesInstance(t *testing.T) {
	discovery := newStubDiscovery()
	r := newTestRegistry(discovery)

	providerURL := mustURL(t, "dubbo://127.0.0.1:20880/com.example.Greeter?interface=com.example.Greeter")
	require.NoError(t, r.Register(providerURL))
	require.NoError(t, r.UnRegister(providerURL))

	found, err := r.LookUp(providerURL)
	require.NoError(t, err)
	assert.Empty(t, found)
}

// capturingListener records every NotifyAll call it receives so tests can
// assert on delivered full-state event batches.
type capturingListener struct {
	mu    sync.Mutex
	calls [][]*registry.ServiceEvent
}

func (l *capturingListener) Notify(event *registry.ServiceEvent) {}

func (l *capturingListener) NotifyAll(events []*registry.ServiceEvent, done func()) {
	l.mu.Lock()
	l.calls = append(l.calls, events)
	l.mu.Unlock()
	done()
}

func TestNacosRegistrySubscribeDeliversEmptyMarkerWhenNoInstances(t *testing.T) {
	discovery := newStubDiscovery()
	r := newTestRegistry(discovery)
	listener := &capturingListener{}

	consumerURL := mustURL(t, "consumer://127.0.0.1/com.example.Greeter?interface=com.example.Greeter")
	require.NoError(t, r.Subscribe(consumerURL, listener))

	require.Len(t, listener.calls, 1)
	require.Len(t, listener.calls[0], 1)
	assert.Equal(t, constant.EmptyProtocol, listener.calls[0][0].Service.Protocol)
	assert.Equal(t, constant.CategoryProviders, listener.calls[0][0].Service.GetParam(constant.CategoryKey, ""))
}

func TestNacosRegistrySubscribeDeliversExistingInstancesImmediately(t *testing.T) {
	discovery := newStubDiscovery()
	r := newTestRegistry(discovery)
	listener := &capturingListener{}

	providerURL := mustURL(t, "dubbo://127.0.0.1:20880/com.example.Greeter?interface=com.example.Greeter")
	require.NoError(t, r.Register(providerURL))

	consumerURL := mustURL(t, "consumer://127.0.0.1/com.example.Greeter?interface=com.example.Greeter")
	require.NoError(t, r.Subscribe(consumerURL, listener))

	require.Len(t, listener.calls, 1)
	require.Len(t, listener.calls[0], 1)
	assert.Equal(t, "dubbo", listener.calls[0][0].Service.Protocol)
}

func TestNacosRegistryOnEventForwardsSubsequentChanges(t *testing.T) {
	discovery := newStubDiscovery()
	r := newTestRegistry(discovery)
	listener := &capturingListener{}

	consumerURL := mustURL(t, "consumer://127.0.0.1/com.example.Greeter?interface=com.example.Greeter")
	require.NoError(t, r.Subscribe(consumerURL, listener))
	require.Len(t, discovery.listeners, 1)

	providerURL := mustURL(t, "dubbo://127.0.0.1:20880/com.example.Greeter?interface=com.example.Greeter")
	require.NoError(t, r.Register(providerURL))

	err := discovery.listeners[0].OnEvent(&registry.ServiceInstancesChangedEvent{
		Instances: discovery.GetInstances(providerURL.EncodedServiceKey()),
	})
	require.NoError(t, err)

	require.Len(t, listener.calls, 2)
	require.Len(t, listener.calls[1], 1)
	assert.Equal(t, "dubbo", listener.calls[1][0].Service.Protocol)
}

func TestNacosRegistryUnSubscribeStopsForwarding(t *testing.T) {
	discovery := newStubDiscovery()
	r := newTestRegistry(discovery)
	listener := &capturingListener{}

	consumerURL := mustURL(t, "consumer://127.0.0.1/com.example.Greeter?interface=com.example.Greeter")
	require.NoError(t, r.Subscribe(consumerURL, listener))
	require.NoError(t, r.UnSubscribe(consumerURL, listener))

	callsBefore := len(listener.calls)
	err := discovery.listeners[0].OnEvent(&registry.ServiceInstancesChangedEvent{Instances: nil})
	require.NoError(t, err)

	assert.Equal(t, callsBefore, len(listener.calls))
}
