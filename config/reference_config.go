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
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"

	"github.com/meshrpc/meshrpc/cluster/directory/static"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
	"github.com/meshrpc/meshrpc/protocol/protocolwrapper"
	"github.com/meshrpc/meshrpc/proxy"
)

// ReferenceConfig is the consumer-side mirror of ServiceConfig (spec.md
// §4.9): it builds the interface-level URL, resolves one invoker per
// configured direct endpoint or registry, joins multiple invokers under a
// cluster policy, and hands the result to a ProxyFactory.
type ReferenceConfig struct {
	pxy        *proxy.Proxy
	invoker    base.Invoker
	urls       []*common.URL
	rootConfig *RootConfig

	id            string
	InterfaceName string   `yaml:"interface"  json:"interface,omitempty" property:"interface"`
	Check         *bool    `yaml:"check"  json:"check,omitempty" property:"check"`
	URL           string   `yaml:"url"  json:"url,omitempty" property:"url"`
	Filter        string   `yaml:"filter" json:"filter,omitempty" property:"filter"`
	Protocol      string   `yaml:"protocol"  json:"protocol,omitempty" property:"protocol"`
	RegistryIDs   []string `yaml:"registry-ids"  json:"registry-ids,omitempty"  property:"registry-ids"`
	Cluster       string   `yaml:"cluster"  json:"cluster,omitempty" property:"cluster"`
	Loadbalance   string   `yaml:"loadbalance"  json:"loadbalance,omitempty" property:"loadbalance"`
	Retries       string   `yaml:"retries"  json:"retries,omitempty" property:"retries"`
	Group         string   `yaml:"group"  json:"group,omitempty" property:"group"`
	Version       string   `yaml:"version"  json:"version,omitempty" property:"version"`
	Serialization string   `yaml:"serialization" json:"serialization" property:"serialization"`

	MethodsConfig []*MethodConfig `yaml:"methods"  json:"methods,omitempty" property:"methods"`

	Async          bool              `yaml:"async"  json:"async,omitempty" property:"async"`
	Params         map[string]string `yaml:"params"  json:"params,omitempty" property:"params"`
	Sticky         bool              `yaml:"sticky"   json:"sticky,omitempty" property:"sticky"`
	RequestTimeout string            `yaml:"timeout"  json:"timeout,omitempty" property:"timeout"`
	ForceTag       bool              `yaml:"force.tag"  json:"force.tag,omitempty" property:"force.tag"`
	TracingKey     string            `yaml:"tracing-key" json:"tracing-key,omitempty" property:"tracing-key"`
	metricsEnable  bool
}

func (rc *ReferenceConfig) Prefix() string {
	return constant.ReferenceConfigPrefix + rc.InterfaceName + "."
}

func (rc *ReferenceConfig) Init(root *RootConfig) error {
	for _, method := range rc.MethodsConfig {
		if err := method.Init(); err != nil {
			return err
		}
	}
	if err := defaults.Set(rc); err != nil {
		return err
	}
	rc.rootConfig = root
	if root.Application != nil {
		if rc.Group == "" {
			rc.Group = root.Application.Group
		}
		if rc.Version == "" {
			rc.Version = root.Application.Version
		}
	}
	if len(rc.RegistryIDs) > 0 {
		rc.RegistryIDs = translateIds(rc.RegistryIDs)
	}
	if root.Consumer != nil {
		if rc.Filter == "" {
			rc.Filter = root.Consumer.Filter
		}
		if len(rc.RegistryIDs) == 0 {
			rc.RegistryIDs = translateIds(root.Consumer.RegistryIDs)
		}
		if rc.Protocol == "" {
			rc.Protocol = root.Consumer.Protocol
		}
		if rc.TracingKey == "" {
			rc.TracingKey = root.Consumer.TracingKey
		}
		if rc.Check == nil {
			check := root.Consumer.Check
			rc.Check = &check
		}
	}
	if rc.Cluster == "" {
		rc.Cluster = constant.DefaultCluster
	}
	if root.Metrics.Enable != nil {
		rc.metricsEnable = *root.Metrics.Enable
	}

	return verify(rc)
}

// Refer resolves rc.urls (direct endpoints and/or registries), builds one
// invoker per URL, joins them under the configured cluster policy when
// there is more than one, and builds the consumer-facing proxy srv will be
// bound to via Implement. srv may be nil when the caller only needs
// GetRPCService/GetProxy.
func (rc *ReferenceConfig) Refer(srv any) {
	cfgURL := common.NewURLWithOptions(
		common.WithPath(rc.InterfaceName),
		common.WithProtocol(rc.Protocol),
		common.WithParams(rc.getURLMap()),
		common.WithParamsValue(constant.BeanNameKey, rc.id),
	)
	if rc.ForceTag {
		cfgURL.AddParam(constant.ForceUseTag, "true")
	}

	if rc.URL != "" {
		// rc.URL is a semicolon-separated list; each entry is either a
		// direct endpoint ("dubbo://host:port") or a registry connection
		// ("registry://host:port?registry=zookeeper&...").
		for _, urlStr := range strings.Split(rc.URL, ";") {
			urlStr = strings.TrimSpace(urlStr)
			if urlStr == "" {
				continue
			}
			serviceURL, err := common.NewURL(urlStr)
			if err != nil {
				panic(fmt.Sprintf("reference %s: invalid direct URL %q: %v", rc.InterfaceName, urlStr, err))
			}
			if serviceURL.Protocol == constant.RegistryProtocol {
				serviceURL.SubURL = cfgURL
				rc.urls = append(rc.urls, serviceURL)
			} else {
				if serviceURL.Path == "" {
					serviceURL.Path = "/" + rc.InterfaceName
				}
				newURL := serviceURL.MergeURL(cfgURL)
				newURL.AddParam("peer", "true")
				rc.urls = append(rc.urls, newURL)
			}
		}
	} else {
		rc.urls = LoadRegistries(rc.RegistryIDs, rc.rootConfig.Registries, common.CONSUMER)
		for _, regURL := range rc.urls {
			regURL.SubURL = cfgURL
		}
	}

	invokers := make([]base.Invoker, 0, len(rc.urls))
	for _, u := range rc.urls {
		invokers = append(invokers, protocolwrapper.NewFilterWrapper(extension.GetProtocol(u.Protocol)).Refer(u))
	}

	switch len(invokers) {
	case 0:
		panic(fmt.Sprintf("reference %s: no direct URL or registry resolved an invoker", rc.InterfaceName))
	case 1:
		rc.invoker = invokers[0]
	default:
		cl, err := extension.GetCluster(rc.Cluster)
		if err != nil {
			panic(err)
		}
		rc.invoker = cl.Join(static.NewDirectory(cfgURL, invokers))
	}

	factory := extension.GetProxyFactory(proxyFactoryName(rc.rootConfig))
	if rc.Async {
		rc.pxy = factory.GetAsyncProxy(rc.invoker, nil, cfgURL)
	} else {
		rc.pxy = factory.GetProxy(rc.invoker, cfgURL)
	}

	if srv != nil {
		if svc, ok := srv.(common.RPCService); ok {
			rc.pxy.Implement(svc)
		}
	}
}

// Implement binds srv, a consumer stub, to this reference's proxy.
func (rc *ReferenceConfig) Implement(srv common.RPCService) {
	rc.pxy.Implement(srv)
}

// GetRPCService returns the service this reference implements.
func (rc *ReferenceConfig) GetRPCService() common.RPCService {
	return rc.pxy.Get()
}

// GetProxy returns the underlying Proxy.
func (rc *ReferenceConfig) GetProxy() *proxy.Proxy {
	return rc.pxy
}

// GetInvoker returns the underlying Invoker.
func (rc *ReferenceConfig) GetInvoker() base.Invoker {
	return rc.invoker
}

// Destroy tears down the underlying invoker, releasing every registry
// subscription and transport connection it holds.
func (rc *ReferenceConfig) Destroy() {
	if rc.invoker != nil {
		rc.invoker.Destroy()
	}
}

func (rc *ReferenceConfig) getURLMap() url.Values {
	urlMap := url.Values{}
	for k, v := range rc.Params {
		urlMap.Set(k, v)
	}

	urlMap.Set(constant.InterfaceKey, rc.InterfaceName)
	urlMap.Set(constant.TimestampKey, strconv.FormatInt(time.Now().Unix(), 10))
	urlMap.Set(constant.ClusterKey, rc.Cluster)
	urlMap.Set(constant.LoadbalanceKey, rc.Loadbalance)
	urlMap.Set(constant.RetriesKey, rc.Retries)
	urlMap.Set(constant.GroupKey, rc.Group)
	urlMap.Set(constant.VersionKey, rc.Version)
	urlMap.Set(constant.RegistryRoleKey, strconv.Itoa(common.CONSUMER))
	urlMap.Set(constant.SerializationKey, rc.Serialization)
	urlMap.Set(constant.TracingConfigKey, rc.TracingKey)

	urlMap.Set(constant.ReleaseKey, "meshrpc-"+constant.Version)
	urlMap.Set(constant.SideKey, (common.RoleType(common.CONSUMER)).Role())

	if len(rc.RequestTimeout) != 0 {
		urlMap.Set(constant.TimeoutKey, rc.RequestTimeout)
	}
	urlMap.Set(constant.AsyncKey, strconv.FormatBool(rc.Async))
	urlMap.Set(constant.StickyKey, strconv.FormatBool(rc.Sticky))

	if rc.rootConfig.Application != nil {
		urlMap.Set(constant.ApplicationKey, rc.rootConfig.Application.Name)
		urlMap.Set(constant.OrganizationKey, rc.rootConfig.Application.Organization)
		urlMap.Set(constant.ModuleKey, rc.rootConfig.Application.Module)
		urlMap.Set(constant.AppVersionKey, rc.rootConfig.Application.Version)
		urlMap.Set(constant.OwnerKey, rc.rootConfig.Application.Owner)
		urlMap.Set(constant.EnvironmentKey, rc.rootConfig.Application.Environment)
	}

	defaultReferenceFilter := constant.DefaultReferenceFilters
	if rc.metricsEnable {
		defaultReferenceFilter += fmt.Sprintf(",%s", constant.MetricsFilterKey)
	}
	urlMap.Set(constant.ReferenceFilterKey, mergeValue(rc.Filter, "", defaultReferenceFilter))

	for _, v := range rc.MethodsConfig {
		urlMap.Set("methods."+v.Name+"."+constant.LoadbalanceKey, v.LoadBalance)
		urlMap.Set("methods."+v.Name+"."+constant.RetriesKey, v.Retries)
		urlMap.Set("methods."+v.Name+"."+constant.StickyKey, strconv.FormatBool(v.Sticky))
		if len(v.RequestTimeout) != 0 {
			urlMap.Set("methods."+v.Name+"."+constant.TimeoutKey, v.RequestTimeout)
		}
	}

	return urlMap
}

//////////////////////////////////// reference config builder

func newEmptyReferenceConfig() *ReferenceConfig {
	return &ReferenceConfig{
		MethodsConfig: make([]*MethodConfig, 0, 8),
		Params:        make(map[string]string, 8),
	}
}

// ReferenceConfigBuilder assembles a ReferenceConfig programmatically, as
// an alternative to unmarshaling it from YAML.
type ReferenceConfigBuilder struct {
	referenceConfig *ReferenceConfig
}

func NewReferenceConfigBuilder() *ReferenceConfigBuilder {
	return &ReferenceConfigBuilder{referenceConfig: newEmptyReferenceConfig()}
}

func (pcb *ReferenceConfigBuilder) SetInterface(interfaceName string) *ReferenceConfigBuilder {
	pcb.referenceConfig.InterfaceName = interfaceName
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetRegistryIDs(registryIDs ...string) *ReferenceConfigBuilder {
	pcb.referenceConfig.RegistryIDs = registryIDs
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetCluster(cluster string) *ReferenceConfigBuilder {
	pcb.referenceConfig.Cluster = cluster
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetSerialization(serialization string) *ReferenceConfigBuilder {
	pcb.referenceConfig.Serialization = serialization
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetProtocol(protocol string) *ReferenceConfigBuilder {
	pcb.referenceConfig.Protocol = protocol
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetURL(url string) *ReferenceConfigBuilder {
	pcb.referenceConfig.URL = url
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetFilter(filter string) *ReferenceConfigBuilder {
	pcb.referenceConfig.Filter = filter
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetLoadbalance(loadbalance string) *ReferenceConfigBuilder {
	pcb.referenceConfig.Loadbalance = loadbalance
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetRetries(retries string) *ReferenceConfigBuilder {
	pcb.referenceConfig.Retries = retries
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetGroup(group string) *ReferenceConfigBuilder {
	pcb.referenceConfig.Group = group
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetVersion(version string) *ReferenceConfigBuilder {
	pcb.referenceConfig.Version = version
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetMethodConfig(methodConfigs []*MethodConfig) *ReferenceConfigBuilder {
	pcb.referenceConfig.MethodsConfig = methodConfigs
	return pcb
}

func (pcb *ReferenceConfigBuilder) AddMethodConfig(methodConfig *MethodConfig) *ReferenceConfigBuilder {
	pcb.referenceConfig.MethodsConfig = append(pcb.referenceConfig.MethodsConfig, methodConfig)
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetAsync(async bool) *ReferenceConfigBuilder {
	pcb.referenceConfig.Async = async
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetParams(params map[string]string) *ReferenceConfigBuilder {
	pcb.referenceConfig.Params = params
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetSticky(sticky bool) *ReferenceConfigBuilder {
	pcb.referenceConfig.Sticky = sticky
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetRequestTimeout(requestTimeout string) *ReferenceConfigBuilder {
	pcb.referenceConfig.RequestTimeout = requestTimeout
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetForceTag(forceTag bool) *ReferenceConfigBuilder {
	pcb.referenceConfig.ForceTag = forceTag
	return pcb
}

func (pcb *ReferenceConfigBuilder) SetTracingKey(tracingKey string) *ReferenceConfigBuilder {
	pcb.referenceConfig.TracingKey = tracingKey
	return pcb
}

func (pcb *ReferenceConfigBuilder) Build() *ReferenceConfig {
	return pcb.referenceConfig
}
