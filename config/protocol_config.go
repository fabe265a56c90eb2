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
	"os"

	"github.com/meshrpc/meshrpc/common/constant"
)

// ProtocolConfig names one listening endpoint a ServiceConfig can export
// through (spec.md §6's "host/port resolution priority chain").
type ProtocolConfig struct {
	Name string `yaml:"name" json:"name,omitempty" property:"name"`
	Ip   string `yaml:"ip" json:"ip,omitempty" property:"ip"`
	Port string `yaml:"port" json:"port,omitempty" property:"port"`
}

func (pc *ProtocolConfig) Init() error {
	if pc.Name == "" {
		pc.Name = constant.DubboProtocol
	}
	return verify(pc)
}

// resolveBindIP applies the priority chain: DUBBO_IP_TO_BIND env var,
// then the protocol config's own ip, then "0.0.0.0".
func resolveBindIP(pc *ProtocolConfig) string {
	if v := os.Getenv(constant.EnvDubboIPToBind); v != "" {
		return v
	}
	if pc.Ip != "" {
		return pc.Ip
	}
	return "0.0.0.0"
}

// resolveBindPort applies the priority chain: DUBBO_PORT_TO_BIND env var,
// then the protocol config's own port.
func resolveBindPort(pc *ProtocolConfig) string {
	if v := os.Getenv(constant.EnvDubboPortToBind); v != "" {
		return v
	}
	return pc.Port
}

// resolveRegistryIP/Port apply the registry-facing half of the same chain:
// DUBBO_IP_TO_REGISTRY/DUBBO_PORT_TO_REGISTRY override the bound address
// when the process sits behind NAT (spec.md §6).
func resolveRegistryIP(bound string) string {
	if v := os.Getenv(constant.EnvDubboIPToRegistry); v != "" {
		return v
	}
	return bound
}

func resolveRegistryPort(bound string) string {
	if v := os.Getenv(constant.EnvDubboPortToRegistry); v != "" {
		return v
	}
	return bound
}
