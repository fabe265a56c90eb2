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

func TestServiceConfigInitDefaultsClusterAndInheritsProviderFilter(t *testing.T) {
	root := &RootConfig{Provider: &ProviderConfig{Filter: "tps-limit"}}
	require.NoError(t, root.Init())

	sc := &ServiceConfig{InterfaceName: "com.example.Greeter"}
	require.NoError(t, sc.Init(root))

	assert.Equal(t, constant.DefaultCluster, sc.Cluster)
	assert.Equal(t, "tps-limit", sc.Filter)
	assert.Equal(t, []string{"default"}, sc.RegistryIDs)
}

func TestServiceConfigGetURLMapIncludesServiceFilterChain(t *testing.T) {
	root := &RootConfig{}
	require.NoError(t, root.Init())

	sc := &ServiceConfig{InterfaceName: "com.example.Greeter", Filter: "-accesslog"}
	require.NoError(t, sc.Init(root))

	urlMap := sc.getURLMap()
	assert.Equal(t, "com.example.Greeter", urlMap.Get(constant.InterfaceKey))
	assert.NotContains(t, urlMap.Get(constant.ServiceFilterKey), "accesslog")
	assert.Contains(t, urlMap.Get(constant.ServiceFilterKey), "context")
}

func TestServiceConfigInitRejectsEmptyInterfaceName(t *testing.T) {
	root := &RootConfig{}
	require.NoError(t, root.Init())

	sc := &ServiceConfig{}
	assert.Error(t, sc.Init(root))
}
