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

// Package available implements the available cluster policy (spec.md
// §4.6 table): call the first invoker reporting IsAvailable, skipping
// load balancing entirely — used for diagnostic/admin-style calls where
// "any live instance" is the only requirement.
package available

import (
	"context"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/cluster/support"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "available"

func init() {
	extension.SetCluster(Name, newAvailableCluster)
}

type availableCluster struct{}

func newAvailableCluster() cluster.Cluster {
	return &availableCluster{}
}

func (c *availableCluster) Join(directory cluster.Directory) base.Invoker {
	return &availableClusterInvoker{BaseClusterInvoker: support.NewBaseClusterInvoker(directory)}
}

type availableClusterInvoker struct {
	*support.BaseClusterInvoker
}

func (inv *availableClusterInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	invokers := inv.Directory.List(invocation)
	for _, candidate := range invokers {
		if candidate.IsAvailable() {
			return support.InvokeWithInvoker(ctx, candidate, invocation)
		}
	}
	r := &base.RPCResult{}
	r.SetError(base.NewRPCError(base.NetworkError, "available: no available invokers"))
	return r
}
