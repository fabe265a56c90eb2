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

// Package failsafe implements the fail-safe cluster policy (spec.md §4.6
// table): errors are logged and swallowed, returning an empty result —
// used for best-effort calls like audit logging where availability of the
// caller matters more than the call succeeding.
package failsafe

import (
	"context"

	"github.com/dubbogo/gost/log/logger"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/cluster/support"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "failsafe"

func init() {
	extension.SetCluster(Name, newFailsafeCluster)
}

type failsafeCluster struct{}

func newFailsafeCluster() cluster.Cluster {
	return &failsafeCluster{}
}

func (c *failsafeCluster) Join(directory cluster.Directory) base.Invoker {
	return &failsafeClusterInvoker{BaseClusterInvoker: support.NewBaseClusterInvoker(directory)}
}

type failsafeClusterInvoker struct {
	*support.BaseClusterInvoker
}

func (inv *failsafeClusterInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	url := inv.GetURL()
	invokers := inv.Directory.List(invocation)
	if len(invokers) == 0 {
		logger.Warnf("failsafe: no invokers for %s#%s, returning empty result", url.ServiceKey(), invocation.MethodName())
		return &base.RPCResult{}
	}
	lbName := url.GetMethodParam(invocation.MethodName(), constant.LoadbalanceKey, constant.DefaultLoadBalance)
	lb := extension.GetLoadBalance(lbName)
	picked := inv.Select(lb, url, invokers, invocation)
	if picked == nil {
		return &base.RPCResult{}
	}
	result := support.InvokeWithInvoker(ctx, picked, invocation)
	if result.Error() != nil {
		logger.Warnf("failsafe: swallowing error from %s#%s: %v", url.ServiceKey(), invocation.MethodName(), result.Error())
		return &base.RPCResult{}
	}
	return result
}
