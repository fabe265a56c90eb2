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

// Package failfast implements the fail-fast cluster policy (spec.md §4.6
// table): a single attempt, no retry, suited to non-idempotent writes.
package failfast

import (
	"context"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/cluster/support"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "failfast"

func init() {
	extension.SetCluster(Name, newFailfastCluster)
}

type failfastCluster struct{}

func newFailfastCluster() cluster.Cluster {
	return &failfastCluster{}
}

func (c *failfastCluster) Join(directory cluster.Directory) base.Invoker {
	return &failfastClusterInvoker{BaseClusterInvoker: support.NewBaseClusterInvoker(directory)}
}

type failfastClusterInvoker struct {
	*support.BaseClusterInvoker
}

func (inv *failfastClusterInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	url := inv.GetURL()
	invokers := inv.Directory.List(invocation)
	if len(invokers) == 0 {
		return errResult(base.NewRPCError(base.NetworkError, "failfast: no invokers available"))
	}
	lbName := url.GetMethodParam(invocation.MethodName(), constant.LoadbalanceKey, constant.DefaultLoadBalance)
	lb := extension.GetLoadBalance(lbName)
	picked := inv.Select(lb, url, invokers, invocation)
	if picked == nil {
		return errResult(base.NewRPCError(base.NetworkError, "failfast: load balance selected no invoker"))
	}
	return support.InvokeWithInvoker(ctx, picked, invocation)
}

func errResult(err error) base.Result {
	r := &base.RPCResult{}
	r.SetError(err)
	return r
}
