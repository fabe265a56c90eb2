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

// Package broadcast implements the broadcast cluster policy (spec.md §4.6
// table): invoke every invoker in the directory sequentially, remembering
// the last error, used for cache-invalidation style calls that must reach
// every provider instance.
package broadcast

import (
	"context"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/cluster/support"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "broadcast"

func init() {
	extension.SetCluster(Name, newBroadcastCluster)
}

type broadcastCluster struct{}

func newBroadcastCluster() cluster.Cluster {
	return &broadcastCluster{}
}

func (c *broadcastCluster) Join(directory cluster.Directory) base.Invoker {
	return &broadcastClusterInvoker{BaseClusterInvoker: support.NewBaseClusterInvoker(directory)}
}

type broadcastClusterInvoker struct {
	*support.BaseClusterInvoker
}

func (inv *broadcastClusterInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	invokers := inv.Directory.List(invocation)
	if len(invokers) == 0 {
		return errResult(base.NewRPCError(base.NetworkError, "broadcast: no invokers available"))
	}

	var last base.Result
	for _, picked := range invokers {
		result := support.InvokeWithInvoker(ctx, picked, invocation.Clone())
		if result.Error() != nil {
			last = result
		} else if last == nil {
			last = result
		}
	}
	return last
}

func errResult(err error) base.Result {
	r := &base.RPCResult{}
	r.SetError(err)
	return r
}
