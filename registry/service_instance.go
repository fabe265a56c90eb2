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

package registry

import (
	"encoding/json"
	stdurl "net/url"
	"strconv"

	"github.com/dubbogo/gost/log/logger"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/metadata/info"
)

// ServiceInstance is the instance-oriented registration unit a
// ServiceDiscovery backend stores and looks up, as distinct from the
// interface-level URL a Registry backend stores directly.
type ServiceInstance interface {
	GetID() string
	GetServiceName() string
	GetHost() string
	GetPort() int
	IsEnable() bool
	IsHealthy() bool
	GetMetadata() map[string]string

	// ToURLs expands this instance into one provider URL per endpoint it
	// advertises for service's protocol, falling back to the instance's
	// own host/port when it advertises no multi-protocol endpoint list.
	ToURLs(service *info.ServiceInfo) []*common.URL

	GetEndPoints() []*Endpoint

	// Copy returns an instance identical to this one but bound to a
	// different endpoint's port, used when one physical instance serves
	// more than one protocol.
	Copy(endpoint *Endpoint) ServiceInstance

	GetAddress() string

	SetServiceMetadata(info *info.MetadataInfo)
	GetServiceMetadata() *info.MetadataInfo

	GetTag() string

	// GetWeight returns the instance's configured weight, or
	// constant.DefaultWeight if it never set one (weight <= 0).
	GetWeight() int64
}

// Endpoint is one protocol/port pair a multi-protocol service instance
// advertises, encoded as JSON under the ServiceInstanceEndpoints metadata
// key since the instance-discovery wire format has no native field for it.
type Endpoint struct {
	Port     int    `json:"port,omitempty"`
	Protocol string `json:"protocol,omitempty"`
}

// DefaultServiceInstance is the default ServiceInstance implementation
// the nacos adapter constructs directly rather than through a
// constructor, since its fields are all plain data.
type DefaultServiceInstance struct {
	ID              string
	ServiceName     string
	Host            string
	Port            int
	Weight          int64
	Enable          bool
	Healthy         bool
	Metadata        map[string]string
	ServiceMetadata *info.MetadataInfo
	Address         string
	GroupName       string
	Tag             string

	endpoints []*Endpoint
}

func (d *DefaultServiceInstance) GetID() string          { return d.ID }
func (d *DefaultServiceInstance) GetServiceName() string { return d.ServiceName }
func (d *DefaultServiceInstance) GetHost() string        { return d.Host }
func (d *DefaultServiceInstance) GetPort() int           { return d.Port }
func (d *DefaultServiceInstance) IsEnable() bool         { return d.Enable }
func (d *DefaultServiceInstance) IsHealthy() bool        { return d.Healthy }
func (d *DefaultServiceInstance) GetTag() string         { return d.Tag }

// GetAddress returns host:port, computed once and cached.
func (d *DefaultServiceInstance) GetAddress() string {
	if d.Address != "" {
		return d.Address
	}
	if d.Port <= 0 {
		d.Address = d.Host
	} else {
		d.Address = d.Host + ":" + strconv.Itoa(d.Port)
	}
	return d.Address
}

func (d *DefaultServiceInstance) SetServiceMetadata(m *info.MetadataInfo) { d.ServiceMetadata = m }
func (d *DefaultServiceInstance) GetServiceMetadata() *info.MetadataInfo  { return d.ServiceMetadata }

// ToURLs builds one provider URL per endpoint this instance advertises for
// service.Protocol, loading the endpoint list from metadata on first use.
func (d *DefaultServiceInstance) ToURLs(service *info.ServiceInfo) []*common.URL {
	endpoints := d.endpointsFor(service.Protocol)
	if len(endpoints) == 0 {
		return []*common.URL{d.buildURL(service, d.Port)}
	}
	urls := make([]*common.URL, 0, len(endpoints))
	for _, endpoint := range endpoints {
		urls = append(urls, d.buildURL(service, endpoint.Port))
	}
	return urls
}

// endpointsFor returns the advertised endpoints matching protocol, parsing
// the instance's full endpoint list from metadata on first use. An empty
// result means "use the instance's own host/port", not "no endpoints
// parsed" — ToURLs distinguishes those cases by calling this once.
func (d *DefaultServiceInstance) endpointsFor(protocol string) []*Endpoint {
	if d.endpoints == nil && d.Metadata[constant.ServiceInstanceEndpoints] != "" {
		if err := json.Unmarshal([]byte(d.Metadata[constant.ServiceInstanceEndpoints]), &d.endpoints); err != nil {
			logger.Errorf("registry: parsing endpoints of service instance %+v: %v", d, err)
		}
	}
	if len(d.endpoints) == 0 {
		return nil
	}
	matched := make([]*Endpoint, 0, len(d.endpoints))
	for _, e := range d.endpoints {
		if e.Protocol == protocol {
			matched = append(matched, e)
		}
	}
	return matched
}

func (d *DefaultServiceInstance) buildURL(service *info.ServiceInfo, port int) *common.URL {
	return common.NewURLWithOptions(
		common.WithProtocol(service.Protocol),
		common.WithIp(d.Host),
		common.WithPort(strconv.Itoa(port)),
		common.WithPath(service.Name),
		common.WithInterface(service.Name),
		common.WithMethods(service.GetMethods()),
		common.WithParams(service.GetParams()),
		common.WithParams(stdurl.Values{constant.Tagkey: {d.Tag}}),
		common.WithWeight(d.GetWeight()),
	)
}

// GetEndPoints returns the raw multi-protocol endpoint list this instance
// advertises, independent of any particular protocol.
func (d *DefaultServiceInstance) GetEndPoints() []*Endpoint {
	raw := d.Metadata[constant.ServiceInstanceEndpoints]
	if raw == "" {
		return nil
	}
	var endpoints []*Endpoint
	if err := json.Unmarshal([]byte(raw), &endpoints); err != nil {
		logger.Errorf("registry: parsing endpoints %q: %v", raw, err)
		return nil
	}
	return endpoints
}

// Copy returns a new instance bound to endpoint's port, its ID
// re-derived from the new address so it stays unique per endpoint.
func (d *DefaultServiceInstance) Copy(endpoint *Endpoint) ServiceInstance {
	dn := &DefaultServiceInstance{
		ID:              d.ID,
		ServiceName:     d.ServiceName,
		Host:            d.Host,
		Port:            endpoint.Port,
		Enable:          d.Enable,
		Healthy:         d.Healthy,
		Metadata:        d.Metadata,
		ServiceMetadata: d.ServiceMetadata,
		Tag:             d.Tag,
	}
	dn.ID = dn.GetAddress()
	return dn
}

// GetMetadata never returns nil, so callers can index it directly.
func (d *DefaultServiceInstance) GetMetadata() map[string]string {
	if d.Metadata == nil {
		d.Metadata = make(map[string]string)
	}
	return d.Metadata
}

func (d *DefaultServiceInstance) GetWeight() int64 {
	if d.Weight <= 0 {
		return constant.DefaultWeight
	}
	return d.Weight
}
