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

// Package imports pulls in every extension implementation by its side
// effect alone: each one calls extension.Set* from an init() and has no
// exported API this module uses directly, so config (the orchestrator)
// blank-imports this package to make every name in a YAML config
// ("zookeeper", "failover", "random", "hessian2", ...) resolvable through
// common/extension. Without it, the self-registering backends below build
// but are never linked into the binary that loads config.
package imports

import (
	_ "github.com/meshrpc/meshrpc/cluster/loadbalance/consistenthash"
	_ "github.com/meshrpc/meshrpc/cluster/loadbalance/leastactive"
	_ "github.com/meshrpc/meshrpc/cluster/loadbalance/random"
	_ "github.com/meshrpc/meshrpc/cluster/loadbalance/roundrobin"
	_ "github.com/meshrpc/meshrpc/cluster/router/condition"
	_ "github.com/meshrpc/meshrpc/cluster/router/script"
	_ "github.com/meshrpc/meshrpc/cluster/router/tag"
	_ "github.com/meshrpc/meshrpc/cluster/support/available"
	_ "github.com/meshrpc/meshrpc/cluster/support/broadcast"
	_ "github.com/meshrpc/meshrpc/cluster/support/failback"
	_ "github.com/meshrpc/meshrpc/cluster/support/failfast"
	_ "github.com/meshrpc/meshrpc/cluster/support/failover"
	_ "github.com/meshrpc/meshrpc/cluster/support/failsafe"
	_ "github.com/meshrpc/meshrpc/cluster/support/forking"
	_ "github.com/meshrpc/meshrpc/filter/filterimpl"
	_ "github.com/meshrpc/meshrpc/protocol/dubbo"
	_ "github.com/meshrpc/meshrpc/proxy/proxyfactory"
	_ "github.com/meshrpc/meshrpc/registry/nacos"
	_ "github.com/meshrpc/meshrpc/registry/zookeeper"
	_ "github.com/meshrpc/meshrpc/remoting/codec/hessian2"
	_ "github.com/meshrpc/meshrpc/remoting/codec/json"
)
