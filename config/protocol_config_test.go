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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshrpc/meshrpc/common/constant"
)

func TestProtocolConfigInitDefaultsName(t *testing.T) {
	pc := &ProtocolConfig{}
	require.NoError(t, pc.Init())
	assert.Equal(t, constant.DubboProtocol, pc.Name)
}

func TestResolveBindIPPrefersEnvOverConfig(t *testing.T) {
	t.Setenv(constant.EnvDubboIPToBind, "10.0.0.1")
	assert.Equal(t, "10.0.0.1", resolveBindIP(&ProtocolConfig{Ip: "192.168.1.1"}))
}

func TestResolveBindIPFallsBackToConfigThenDefault(t *testing.T) {
	assert.Equal(t, "192.168.1.1", resolveBindIP(&ProtocolConfig{Ip: "192.168.1.1"}))
	assert.Equal(t, "0.0.0.0", resolveBindIP(&ProtocolConfig{}))
}

func TestResolveRegistryIPFallsBackToBoundAddress(t *testing.T) {
	assert.Equal(t, "10.0.0.5", resolveRegistryIP("10.0.0.5"))
}

func TestResolveRegistryIPPrefersEnv(t *testing.T) {
	t.Setenv(constant.EnvDubboIPToRegistry, "1.2.3.4")
	assert.Equal(t, "1.2.3.4", resolveRegistryIP("10.0.0.5"))
}
