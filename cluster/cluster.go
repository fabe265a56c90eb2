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

// Package cluster defines the interfaces that tie a consumer-side Directory
// of invokers to a single Cluster-policy Invoker (spec.md §4.6): Directory,
// Router, LoadBalance, and Cluster itself. Implementations live in
// sibling packages (cluster/directory, cluster/router, cluster/loadbalance,
// cluster/support) so this package stays dependency-free and importable
// from common/extension without a cycle.
package cluster

import (
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/protocol/base"
)

// Directory produces the current list of invokers for a given Invocation
// (spec.md glossary "Directory").
type Directory interface {
	GetURL() *common.URL
	List(invocation base.Invocation) []base.Invoker
	IsAvailable() bool
	Destroy()
}

// Router filters and orders invokers per Invocation (spec.md §4.6
// "Routers").
type Router interface {
	Route(invokers []base.Invoker, url *common.URL, invocation base.Invocation) []base.Invoker
	URL() *common.URL
	Priority() int64
}

// LoadBalance selects one invoker out of a candidate list (spec.md §4.6
// "Load balancers").
type LoadBalance interface {
	Select(invokers []base.Invoker, url *common.URL, invocation base.Invocation) base.Invoker
}

// Cluster wraps a Directory with a failure policy, producing a single
// composite Invoker (spec.md glossary "Cluster").
type Cluster interface {
	Join(directory Directory) base.Invoker
}
