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

// Package config is the orchestrator (spec.md §4.9): it turns declarative
// Application/Registry/Protocol/Service/Reference configuration into the
// URLs, registries, and invokers every lower layer operates on.
package config

import (
	"gopkg.in/yaml.v2"

	"github.com/creasty/defaults"

	// Blank-imported so every self-registering registry/cluster/filter/
	// protocol/codec backend is linked into any binary that loads a
	// RootConfig.
	_ "github.com/meshrpc/meshrpc/imports"
)

// RootConfig is the top-level configuration tree, normally loaded from a
// single YAML file and then Init'd once before any reference/service is
// used.
type RootConfig struct {
	Application *ApplicationConfig         `yaml:"application" json:"application,omitempty" property:"application"`
	Registries  map[string]*RegistryConfig `yaml:"registries" json:"registries,omitempty" property:"registries"`
	Protocols   map[string]*ProtocolConfig `yaml:"protocols" json:"protocols,omitempty" property:"protocols"`
	Consumer    *ConsumerConfig            `yaml:"consumer" json:"consumer,omitempty" property:"consumer"`
	Provider    *ProviderConfig            `yaml:"provider" json:"provider,omitempty" property:"provider"`
	Metrics     MetricsConfig              `yaml:"metrics" json:"metrics,omitempty" property:"metrics"`
	Shutdown    *ShutdownConfig            `yaml:"shutdown" json:"shutdown,omitempty" property:"shutdown"`
}

// ConsumerConfig holds settings shared by every ReferenceConfig that
// doesn't override them explicitly.
type ConsumerConfig struct {
	Filter      string                      `yaml:"filter" json:"filter,omitempty" property:"filter"`
	Check       bool                        `yaml:"check" json:"check,omitempty" property:"check"`
	RegistryIDs []string                    `yaml:"registry-ids" json:"registry-ids,omitempty" property:"registry-ids"`
	Protocol    string                      `yaml:"protocol" json:"protocol,omitempty" property:"protocol"`
	TracingKey  string                      `yaml:"tracing-key" json:"tracing-key,omitempty" property:"tracing-key"`
	ProxyFactory string                     `yaml:"proxy-factory" json:"proxy-factory,omitempty" property:"proxy-factory"`
	AdaptiveService bool                    `yaml:"adaptive-service" json:"adaptive-service,omitempty" property:"adaptive-service"`
	References  map[string]*ReferenceConfig `yaml:"references" json:"references,omitempty" property:"references"`
}

// ProviderConfig holds settings shared by every ServiceConfig that doesn't
// override them explicitly.
type ProviderConfig struct {
	Filter      string                   `yaml:"filter" json:"filter,omitempty" property:"filter"`
	RegistryIDs []string                 `yaml:"registry-ids" json:"registry-ids,omitempty" property:"registry-ids"`
	Protocols   []string                 `yaml:"protocols" json:"protocols,omitempty" property:"protocols"`
	Services    map[string]*ServiceConfig `yaml:"services" json:"services,omitempty" property:"services"`
}

// MetricsConfig toggles the Prometheus metrics filter (a request counter
// and a latency histogram) on every reference (spec.md §4.7). A nil Enable
// means "off" (DefaultReferenceFilters never names the metrics filter
// unless this is turned on); ServiceConfig never adds it.
type MetricsConfig struct {
	Enable *bool `yaml:"enable" json:"enable,omitempty" property:"enable"`
}

// NewRootConfigFromYAML parses a YAML document into a RootConfig and
// initializes it.
func NewRootConfigFromYAML(data []byte) (*RootConfig, error) {
	rc := &RootConfig{}
	if err := yaml.Unmarshal(data, rc); err != nil {
		return nil, err
	}
	if err := rc.Init(); err != nil {
		return nil, err
	}
	return rc, nil
}

// Init fills defaults and validates every sub-config, in dependency
// order: application first (reference/service configs read it), then
// registries/protocols (data only), then consumer/provider (which in turn
// Init every Reference/ServiceConfig they hold).
func (rc *RootConfig) Init() error {
	if rc.Application == nil {
		rc.Application = &ApplicationConfig{Name: "dubbo-go-app"}
	}
	if err := rc.Application.Init(); err != nil {
		return err
	}

	for _, reg := range rc.Registries {
		if err := defaults.Set(reg); err != nil {
			return err
		}
		if err := reg.Init(); err != nil {
			return err
		}
	}
	for _, p := range rc.Protocols {
		if err := p.Init(); err != nil {
			return err
		}
	}

	if rc.Consumer == nil {
		rc.Consumer = &ConsumerConfig{Check: true}
	}
	if rc.Consumer.ProxyFactory == "" {
		rc.Consumer.ProxyFactory = "default"
	}
	for id, ref := range rc.Consumer.References {
		ref.id = id
		if err := ref.Init(rc); err != nil {
			return err
		}
	}

	if rc.Provider != nil {
		for id, sv := range rc.Provider.Services {
			sv.id = id
			if err := sv.Init(rc); err != nil {
				return err
			}
		}
	}

	if rc.Shutdown == nil {
		rc.Shutdown = &ShutdownConfig{}
	}
	return rc.Shutdown.Init()
}

// ReferAll resolves every consumer-side reference.
func (rc *RootConfig) ReferAll() {
	if rc.Consumer == nil {
		return
	}
	for _, ref := range rc.Consumer.References {
		ref.Refer(nil)
	}
}

// ExportAll exports every provider-side service.
func (rc *RootConfig) ExportAll() error {
	if rc.Provider == nil {
		return nil
	}
	for _, sv := range rc.Provider.Services {
		if err := sv.Export(); err != nil {
			return err
		}
	}
	return nil
}
