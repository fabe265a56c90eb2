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

// Package info describes the service-level metadata a service-instance
// registry backend (registry/nacos) converts to and from common.URL, via
// ServiceInstance.ToURLs.
package info

import "net/url"

// ServiceInfo is the per-interface metadata one service instance publishes:
// name, serving protocol, method list and URL parameters.
type ServiceInfo struct {
	Name     string
	Group    string
	Version  string
	Protocol string
	Methods  []string
	Params   url.Values
}

func (s *ServiceInfo) GetMethods() []string { return s.Methods }

func (s *ServiceInfo) GetParams() url.Values {
	if s.Params == nil {
		return url.Values{}
	}
	return s.Params
}

// MetadataInfo aggregates the ServiceInfo records an instance exports,
// keyed by service key ("[group/]interface:version").
type MetadataInfo struct {
	App      string
	Revision string
	Services map[string]*ServiceInfo
}

// NewMetadataInfo returns an empty MetadataInfo for app.
func NewMetadataInfo(app string) *MetadataInfo {
	return &MetadataInfo{App: app, Services: make(map[string]*ServiceInfo)}
}

// AddService registers (or replaces) svc under its service key.
func (m *MetadataInfo) AddService(key string, svc *ServiceInfo) {
	if m.Services == nil {
		m.Services = make(map[string]*ServiceInfo)
	}
	m.Services[key] = svc
}
