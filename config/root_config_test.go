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
)

func TestRootConfigInitDefaultsApplicationAndConsumer(t *testing.T) {
	rc := &RootConfig{}
	require.NoError(t, rc.Init())

	require.NotNil(t, rc.Application)
	assert.Equal(t, "dubbo-go-app", rc.Application.Name)
	assert.Equal(t, "dev", rc.Application.Environment)

	require.NotNil(t, rc.Consumer)
	assert.True(t, rc.Consumer.Check)
	assert.Equal(t, "default", rc.Consumer.ProxyFactory)

	require.NotNil(t, rc.Shutdown)
}

func TestRootConfigInitHonorsExplicitConsumerProxyFactory(t *testing.T) {
	rc := &RootConfig{Consumer: &ConsumerConfig{ProxyFactory: "custom"}}
	require.NoError(t, rc.Init())
	assert.Equal(t, "custom", rc.Consumer.ProxyFactory)
}

func TestRootConfigInitPropagatesReferenceAndServiceIDs(t *testing.T) {
	rc := &RootConfig{
		Consumer: &ConsumerConfig{
			References: map[string]*ReferenceConfig{
				"userRef": {InterfaceName: "com.example.UserService"},
			},
		},
		Provider: &ProviderConfig{
			Services: map[string]*ServiceConfig{
				"userSvc": {InterfaceName: "com.example.UserService"},
			},
		},
	}
	require.NoError(t, rc.Init())

	assert.Equal(t, []string{"default"}, rc.Consumer.References["userRef"].RegistryIDs)
	assert.Equal(t, []string{"default"}, rc.Provider.Services["userSvc"].RegistryIDs)
}
