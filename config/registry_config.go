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
	"strconv"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
)

// RegistryConfig names one registry backend (spec.md §4.2). Protocol
// selects the extension.Registry factory ("zookeeper", "nacos"); Address
// is a comma-separated server list, matching zookeeperRegistry.connect's
// strings.Split(url.Location, ",").
type RegistryConfig struct {
	Protocol   string `yaml:"protocol" json:"protocol,omitempty" property:"protocol"`
	Address    string `yaml:"address" json:"address,omitempty" property:"address"`
	TimeoutStr string `yaml:"timeout" json:"timeout,omitempty" property:"timeout"`
	Group      string `yaml:"group" json:"group,omitempty" property:"group"`
	Namespace  string `yaml:"namespace" json:"namespace,omitempty" property:"namespace"`
	Username   string `yaml:"username" json:"username,omitempty" property:"username"`
	Password   string `yaml:"password" json:"password,omitempty" property:"password"`
}

func (rc *RegistryConfig) Init() error {
	if rc.Protocol == "" {
		rc.Protocol = constant.ZookeeperKey
	}
	if rc.TimeoutStr == "" {
		rc.TimeoutStr = constant.DefaultRegTimeout
	}
	return verify(rc)
}

// toURL builds the "registry://" connection URL the RegistryProtocol
// pseudo-protocol resolves a backend from: registryURL.Protocol is always
// "registry", the real backend name travels in the "registry" param so
// extension.GetRegistry can look it up regardless of scheme.
func (rc *RegistryConfig) toURL() *common.URL {
	u := common.NewURLWithOptions(
		common.WithProtocol(constant.RegistryProtocol),
		common.WithParamsValue(constant.RegistryKey, rc.Protocol),
		common.WithParamsValue(constant.RegistryTimeoutKey, rc.TimeoutStr),
		common.WithParamsValue(constant.RegistryNamespaceKey, rc.Namespace),
		common.WithParamsValue(constant.RegistryGroupKey, rc.Group),
		common.WithParamsValue(constant.NacosUsername, rc.Username),
		common.WithParamsValue(constant.NacosPassword, rc.Password),
	)
	// NewURLWithOptions always derives Location from Ip+":"+Port; a
	// registry's Location is a comma-separated server list instead, so it
	// is set directly, after construction.
	u.Location = rc.Address
	return u
}

// translateIds normalizes a RegistryIDs list, defaulting to the single
// "default" entry when empty.
func translateIds(registryIDs []string) []string {
	if len(registryIDs) == 0 {
		return []string{"default"}
	}
	out := make([]string, 0, len(registryIDs))
	for _, id := range registryIDs {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// LoadRegistries resolves registryIDs against the configured registries
// map, building one registry:// URL per id tagged with role; ids with no
// configured registry are skipped. Callers attach the wrapped consumer or
// provider endpoint as SubURL.
func LoadRegistries(registryIDs []string, registries map[string]*RegistryConfig, role int) []*common.URL {
	var urls []*common.URL
	for _, id := range registryIDs {
		rc, ok := registries[id]
		if !ok {
			continue
		}
		u := rc.toURL()
		u.AddParam(constant.RegistryRoleKey, strconv.Itoa(role))
		urls = append(urls, u)
	}
	return urls
}
