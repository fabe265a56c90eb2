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

package config

import (
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/creasty/defaults"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
	"github.com/meshrpc/meshrpc/protocol/protocolwrapper"
)

// ServiceConfig is the provider-side mirror of ReferenceConfig: it exports
// one implementation under every configured protocol, optionally
// publishing the resulting provider URL to a set of registries (spec.md
// §4.9).
type ServiceConfig struct {
	exporters []base.Exporter
	mu        sync.Mutex
	rootConfig *RootConfig

	id            string
	ref           common.RPCService
	InterfaceName string          `yaml:"interface" json:"interface,omitempty" property:"interface"`
	ProtocolIDs   []string        `yaml:"protocol-ids" json:"protocol-ids,omitempty" property:"protocol-ids"`
	RegistryIDs   []string        `yaml:"registry-ids" json:"registry-ids,omitempty" property:"registry-ids"`
	Cluster       string          `yaml:"cluster" json:"cluster,omitempty" property:"cluster"`
	Loadbalance   string          `yaml:"loadbalance" json:"loadbalance,omitempty" property:"loadbalance"`
	Group         string          `yaml:"group" json:"group,omitempty" property:"group"`
	Version       string          `yaml:"version" json:"version,omitempty" property:"version"`
	Serialization string          `yaml:"serialization" json:"serialization,omitempty" property:"serialization"`
	Filter        string          `yaml:"filter" json:"filter,omitempty" property:"filter"`
	MethodsConfig []*MethodConfig `yaml:"methods" json:"methods,omitempty" property:"methods"`
	Params        map[string]string `yaml:"params" json:"params,omitempty" property:"params"`
	Token         string          `yaml:"token" json:"token,omitempty" property:"token"`
}

func (sc *ServiceConfig) Init(root *RootConfig) error {
	for _, method := range sc.MethodsConfig {
		if err := method.Init(); err != nil {
			return err
		}
	}
	if err := defaults.Set(sc); err != nil {
		return err
	}
	sc.rootConfig = root
	if root.Application != nil {
		if sc.Group == "" {
			sc.Group = root.Application.Group
		}
		if sc.Version == "" {
			sc.Version = root.Application.Version
		}
	}
	if len(sc.RegistryIDs) > 0 {
		sc.RegistryIDs = translateIds(sc.RegistryIDs)
	}
	if root.Provider != nil {
		if sc.Filter == "" {
			sc.Filter = root.Provider.Filter
		}
		if len(sc.RegistryIDs) == 0 {
			sc.RegistryIDs = translateIds(root.Provider.RegistryIDs)
		}
		if len(sc.ProtocolIDs) == 0 {
			sc.ProtocolIDs = root.Provider.Protocols
		}
	}
	if sc.Cluster == "" {
		sc.Cluster = constant.DefaultCluster
	}
	return verify(sc)
}

// Implement sets ref as the implementation this ServiceConfig serves;
// Export registers it under the service key, where GetInvoker (the
// reflective ProxyFactory's inverse of Proxy.Implement) looks it up at
// dispatch time.
func (sc *ServiceConfig) Implement(ref common.RPCService) {
	sc.ref = ref
}

// Export builds one provider URL per configured protocol, registers the
// implementation under its service key, wraps the service-key-keyed
// Invoker in the filter chain, and either exports it directly (none of its
// registry ids names a configured registry — teacher's "peer" mode) or
// through the registry pseudo-protocol for every configured registry.
func (sc *ServiceConfig) Export() error {
	protocols := sc.rootConfig.Protocols
	ids := sc.ProtocolIDs
	if len(ids) == 0 {
		for id := range protocols {
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		pc, ok := protocols[id]
		if !ok {
			continue
		}
		if err := sc.exportProtocol(pc); err != nil {
			return err
		}
	}
	return nil
}

func (sc *ServiceConfig) exportProtocol(pc *ProtocolConfig) error {
	bindIP := resolveBindIP(pc)
	bindPort := resolveBindPort(pc)

	providerURL := common.NewURLWithOptions(
		common.WithProtocol(pc.Name),
		common.WithIp(bindIP),
		common.WithPort(bindPort),
		common.WithPath(sc.InterfaceName),
		common.WithParams(sc.getURLMap()),
		common.WithToken(sc.Token),
	)

	serviceKey := providerURL.ServiceKey()
	common.SetService(serviceKey, sc.ref)

	factory := extension.GetProxyFactory(proxyFactoryName(sc.rootConfig))
	invoker := factory.GetInvoker(providerURL)

	var exported []base.Exporter
	regURLs := LoadRegistries(sc.RegistryIDs, sc.rootConfig.Registries, common.PROVIDER)
	if len(regURLs) == 0 {
		exported = append(exported, protocolwrapper.NewFilterWrapper(extension.GetProtocol(pc.Name)).Export(invoker))
	} else {
		for _, regURL := range regURLs {
			registryIP := resolveRegistryIP(bindIP)
			registryPort := resolveRegistryPort(bindPort)
			registeredURL := providerURL
			if registryIP != bindIP || registryPort != bindPort {
				registeredURL = providerURL.Clone()
				registeredURL.Ip = registryIP
				registeredURL.Port = registryPort
				registeredURL.Location = registryIP + ":" + registryPort
			}
			wrappedRegURL := regURL.Clone()
			wrappedRegURL.SubURL = registeredURL
			exported = append(exported, protocolwrapper.NewFilterWrapper(extension.GetProtocol(constant.RegistryProtocol)).
				Export(&registryBoundInvoker{Invoker: invoker, url: wrappedRegURL}))
		}
	}

	sc.mu.Lock()
	sc.exporters = append(sc.exporters, exported...)
	sc.mu.Unlock()
	return nil
}

// registryBoundInvoker re-addresses invoker under the registry:// wrapper
// URL RegistryProtocol.Export expects (mirroring protocolwrapper.urlInvoker
// on the provider side of the registry boundary).
type registryBoundInvoker struct {
	base.Invoker
	url *common.URL
}

func (r *registryBoundInvoker) GetURL() *common.URL { return r.url }

// Unexport tears down every exporter this ServiceConfig created.
func (sc *ServiceConfig) Unexport() {
	sc.mu.Lock()
	exporters := sc.exporters
	sc.exporters = nil
	sc.mu.Unlock()
	for _, exp := range exporters {
		exp.Unexport()
	}
}

func (sc *ServiceConfig) getURLMap() url.Values {
	urlMap := url.Values{}
	for k, v := range sc.Params {
		urlMap.Set(k, v)
	}
	urlMap.Set(constant.InterfaceKey, sc.InterfaceName)
	urlMap.Set(constant.TimestampKey, strconv.FormatInt(time.Now().Unix(), 10))
	urlMap.Set(constant.ClusterKey, sc.Cluster)
	urlMap.Set(constant.LoadbalanceKey, sc.Loadbalance)
	urlMap.Set(constant.GroupKey, sc.Group)
	urlMap.Set(constant.VersionKey, sc.Version)
	urlMap.Set(constant.SerializationKey, sc.Serialization)
	urlMap.Set(constant.RegistryRoleKey, strconv.Itoa(common.PROVIDER))
	urlMap.Set(constant.SideKey, (common.RoleType(common.PROVIDER)).Role())
	urlMap.Set(constant.ReleaseKey, "meshrpc-"+constant.Version)

	urlMap.Set(constant.ServiceFilterKey, mergeValue(sc.Filter, "", constant.DefaultServiceFilters))

	if sc.rootConfig.Application != nil {
		urlMap.Set(constant.ApplicationKey, sc.rootConfig.Application.Name)
		urlMap.Set(constant.OrganizationKey, sc.rootConfig.Application.Organization)
		urlMap.Set(constant.ModuleKey, sc.rootConfig.Application.Module)
		urlMap.Set(constant.OwnerKey, sc.rootConfig.Application.Owner)
		urlMap.Set(constant.EnvironmentKey, sc.rootConfig.Application.Environment)
	}

	for _, m := range sc.MethodsConfig {
		urlMap.Set("methods."+m.Name+"."+constant.LoadbalanceKey, m.LoadBalance)
		urlMap.Set("methods."+m.Name+"."+constant.StickyKey, strconv.FormatBool(m.Sticky))
		if m.RequestTimeout != "" {
			urlMap.Set("methods."+m.Name+"."+constant.TimeoutKey, m.RequestTimeout)
		}
	}
	return urlMap
}

// proxyFactoryName resolves the reflective-vs-custom ProxyFactory name a
// provider export uses; providers don't carry their own override today, so
// this shares the consumer side's configured factory (or "default").
func proxyFactoryName(root *RootConfig) string {
	if root.Consumer != nil && root.Consumer.ProxyFactory != "" {
		return root.Consumer.ProxyFactory
	}
	return "default"
}
