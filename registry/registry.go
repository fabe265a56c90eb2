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

// Package registry defines the contract every backend (zookeeper, nacos)
// must satisfy (spec.md §4.2): register/unregister/subscribe/unsubscribe/
// lookup, full-state notification, and the ephemeral-vs-persistent split by
// category.
package registry

import (
	"github.com/dubbogo/gost/container/set"

	"github.com/meshrpc/meshrpc/common"
)

// DefaultPageSize bounds a single discovery-backend page query.
const DefaultPageSize = 100

// ServiceEvent is a single membership change: an Action over one URL. Used
// internally by backends that only deliver deltas (e.g. zk watch
// callbacks) before they are folded into the full-state NotifyListener
// contract.
type ServiceEvent struct {
	Action EventType
	Service *common.URL
}

// EventType distinguishes an add from a remove in a raw backend callback.
type EventType int

const (
	EventTypeAdd EventType = iota
	EventTypeDel
	EventTypeUpdate
)

func (t EventType) String() string {
	switch t {
	case EventTypeAdd:
		return "add"
	case EventTypeDel:
		return "delete"
	default:
		return "update"
	}
}

// NotifyListener receives one full-state notification per category on
// every subscribe, and again on every subsequent change (spec.md §4.2
// contract items 4 and 5). Notify never delivers a delta.
type NotifyListener interface {
	Notify(event *ServiceEvent)
	// NotifyAll delivers the full URL set for one category at once; events
	// carries every currently registered URL in that category, even if
	// empty (encoded upstream as a single "empty://" URL per the contract).
	NotifyAll(events []*ServiceEvent, done func())
}

// Registry is the interface every registry backend exposes to the
// protocol/orchestrator layer (spec.md §4.2).
type Registry interface {
	// Register publishes url. If url.check=false, failures are logged and
	// nil is returned; the registration is not retried. Otherwise the error
	// is returned.
	Register(url *common.URL) error
	// UnRegister removes a previously registered url.
	UnRegister(url *common.URL) error
	// Subscribe registers listener for changes to url's service key and
	// category set; delivers the current full state immediately.
	Subscribe(url *common.URL, listener NotifyListener) error
	// UnSubscribe removes listener from url's service key.
	UnSubscribe(url *common.URL, listener NotifyListener) error
	// LookUp returns the current full set of URLs known for url's service
	// key without establishing a subscription. The zookeeper backend serves
	// it from its local disk cache when zookeeper is unreachable; the nacos
	// backend keeps no such cache.
	LookUp(url *common.URL) ([]*common.URL, error)
	// GetURL returns the registry's own connection URL.
	GetURL() *common.URL
	// IsAvailable reports whether the backend session is currently usable.
	IsAvailable() bool
	Destroy()
}

// ServiceDiscovery is the instance-oriented registry contract used by
// service-discovery-style backends (registry/nacos), as distinct from the
// interface-level znode contract zookeeper uses directly.
type ServiceDiscovery interface {
	Destroy() error
	Register(instance ServiceInstance) error
	Update(instance ServiceInstance) error
	Unregister(instance ServiceInstance) error
	GetDefaultPageSize() int
	GetServices() *set.HashSet
	GetInstances(serviceName string) []ServiceInstance
	AddListener(listener ServiceInstancesChangedListener) error
	String() string
}

// ServiceInstancesChangedListener receives the full instance list for one
// or more watched service names.
type ServiceInstancesChangedListener interface {
	GetServiceNames() *set.HashSet
	OnEvent(event *ServiceInstancesChangedEvent) error
}

// ServiceInstancesChangedEvent is the full-state notification delivered to
// a ServiceInstancesChangedListener.
type ServiceInstancesChangedEvent struct {
	ServiceName string
	Instances   []ServiceInstance
}

// NewServiceInstancesChangedEvent builds a ServiceInstancesChangedEvent.
func NewServiceInstancesChangedEvent(serviceName string, instances []ServiceInstance) *ServiceInstancesChangedEvent {
	return &ServiceInstancesChangedEvent{ServiceName: serviceName, Instances: instances}
}
