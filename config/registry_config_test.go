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

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
)

func TestRegistryConfigToURLPreservesServerListLocation(t *testing.T) {
	rc := &RegistryConfig{Protocol: "zookeeper", Address: "host1:2181,host2:2181"}
	require.NoError(t, rc.Init())

	u := rc.toURL()
	assert.Equal(t, constant.RegistryProtocol, u.Protocol)
	assert.Equal(t, "host1:2181,host2:2181", u.Location)
	assert.Equal(t, "zookeeper", u.GetParam(constant.RegistryKey, ""))
}

func TestRegistryConfigInitDefaultsProtocolAndTimeout(t *testing.T) {
	rc := &RegistryConfig{Address: "127.0.0.1:2181"}
	require.NoError(t, rc.Init())

	assert.Equal(t, constant.ZookeeperKey, rc.Protocol)
	assert.Equal(t, constant.DefaultRegTimeout, rc.TimeoutStr)
}

func TestRegistryConfigInitRejectsEmptyAddress(t *testing.T) {
	rc := &RegistryConfig{}
	assert.Error(t, rc.Init())
}

func TestLoadRegistriesSkipsUnknownIDsAndTagsRole(t *testing.T) {
	registries := map[string]*RegistryConfig{
		"default": {Protocol: "zookeeper", Address: "127.0.0.1:2181"},
	}
	urls := LoadRegistries([]string{"default", "missing"}, registries, common.PROVIDER)

	require.Len(t, urls, 1)
	assert.Equal(t, "3", urls[0].GetParam(constant.RegistryRoleKey, ""))
}
