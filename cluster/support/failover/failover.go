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

// Package failover implements the default cluster failure policy (spec.md
// §4.6 table): on error, retry against a different invoker up to
// retries.<method> (default 2 additional attempts) before giving up.
package failover

import (
	"context"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/cluster/support"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "failover"

func init() {
	extension.SetCluster(Name, newFailoverCluster)
}

type failoverCluster struct{}

func newFailoverCluster() cluster.Cluster {
	return &failoverCluster{}
}

func (c *failoverCluster) Join(directory cluster.Directory) base.Invoker {
	return &failoverClusterInvoker{BaseClusterInvoker: support.NewBaseClusterInvoker(directory)}
}

type failoverClusterInvoker struct {
	*support.BaseClusterInvoker
}

func (inv *failoverClusterInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	url := inv.GetURL()
	invokers := inv.Directory.List(invocation)
	if len(invokers) == 0 {
		return errResult(base.NewRPCError(base.NetworkError, "failover: no invokers available"))
	}

	lbName := url.GetMethodParam(invocation.MethodName(), constant.LoadbalanceKey, constant.DefaultLoadBalance)
	lb := extension.GetLoadBalance(lbName)

	retries := url.GetMethodParamInt(invocation.MethodName(), constant.RetriesKey, constant.DefaultRetries)

	tried := make(map[string]bool, retries+1)
	var lastResult base.Result
	for attempt := int64(0); attempt <= retries; attempt++ {
		candidates := excludeTried(invokers, tried)
		if len(candidates) == 0 {
			candidates = invokers
		}
		picked := inv.Select(lb, url, candidates, invocation)
		if picked == nil {
			break
		}
		tried[picked.GetURL().Key()] = true

		lastResult = support.InvokeWithInvoker(ctx, picked, invocation)
		if lastResult.Error() == nil {
			return lastResult
		}
	}
	if lastResult != nil {
		return lastResult
	}
	return errResult(base.NewRPCError(base.NetworkError, "failover: exhausted invokers"))
}

func excludeTried(invokers []base.Invoker, tried map[string]bool) []base.Invoker {
	if len(tried) == 0 {
		return invokers
	}
	out := make([]base.Invoker, 0, len(invokers))
	for _, inv := range invokers {
		if !tried[inv.GetURL().Key()] {
			out = append(out, inv)
		}
	}
	return out
}

func errResult(err error) base.Result {
	r := &base.RPCResult{}
	r.SetError(err)
	return r
}
