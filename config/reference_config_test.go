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

	_ "github.com/meshrpc/meshrpc/cluster/loadbalance/random"
	_ "github.com/meshrpc/meshrpc/cluster/support/failover"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	_ "github.com/meshrpc/meshrpc/filter/filterimpl"
	"github.com/meshrpc/meshrpc/protocol/base"
	_ "github.com/meshrpc/meshrpc/proxy/proxyfactory"
)

const mockReferProtocol = "mockrefer"

func init() {
	extension.SetProtocol(mockReferProtocol, func() base.Protocol { return &mockProtocol{} })
}

// mockProtocol stands in for a real transport in tests: Refer returns a
// BaseInvoker bound to whatever URL it was asked for, with no actual
// network behavior.
type mockProtocol struct{}

func (p *mockProtocol) Export(invoker base.Invoker) base.Exporter { return nil }
func (p *mockProtocol) Refer(url *common.URL) base.Invoker        { return base.NewBaseInvoker(url) }
func (p *mockProtocol) Destroy()                                  {}

func TestReferenceConfigGetURLMapSetsInterfaceAndFilterChain(t *testing.T) {
	root := &RootConfig{}
	require.NoError(t, root.Init())

	rc := &ReferenceConfig{InterfaceName: "com.example.Greeter"}
	require.NoError(t, rc.Init(root))

	urlMap := rc.getURLMap()
	assert.Equal(t, "com.example.Greeter", urlMap.Get(constant.InterfaceKey))
	assert.Equal(t, "context", urlMap.Get(constant.ReferenceFilterKey))
}

func TestReferenceConfigReferSingleDirectURL(t *testing.T) {
	root := &RootConfig{}
	require.NoError(t, root.Init())

	rc := &ReferenceConfig{
		InterfaceName: "com.example.Greeter",
		URL:           mockReferProtocol + "://127.0.0.1:20880",
	}
	require.NoError(t, rc.Init(root))

	rc.Refer(nil)

	require.NotNil(t, rc.GetInvoker())
	assert.True(t, rc.GetInvoker().IsAvailable())
	require.NotNil(t, rc.GetProxy())
}

func TestReferenceConfigReferMultipleDirectURLsJoinsUnderCluster(t *testing.T) {
	root := &RootConfig{}
	require.NoError(t, root.Init())

	rc := &ReferenceConfig{
		InterfaceName: "com.example.Greeter",
		URL:           mockReferProtocol + "://127.0.0.1:20880;" + mockReferProtocol + "://127.0.0.1:20881",
		Cluster:       constant.ClusterKeyFailover,
	}
	require.NoError(t, rc.Init(root))

	rc.Refer(nil)

	require.NotNil(t, rc.GetInvoker())
	assert.Len(t, rc.urls, 2)
}
