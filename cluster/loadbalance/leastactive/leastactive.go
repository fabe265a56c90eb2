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

// Package leastactive implements the least-active load balance policy
// (spec.md §4.6 table): among invokers with the fewest in-flight requests,
// break ties with weighted-random selection rather than always picking the
// first, which would starve the others once they tie.
package leastactive

import (
	"math/rand"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/cluster/loadbalance/warmup"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "leastactive"

func init() {
	extension.SetLoadBalance(Name, newLeastActiveLoadBalance)
}

type leastActiveLoadBalance struct{}

func newLeastActiveLoadBalance() cluster.LoadBalance {
	return &leastActiveLoadBalance{}
}

func (lb *leastActiveLoadBalance) Select(invokers []base.Invoker, url *common.URL, invocation base.Invocation) base.Invoker {
	n := len(invokers)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return invokers[0]
	}

	leastActive := int64(-1)
	leastIndexes := make([]int, 0, n)
	weights := make([]int64, 0, n)
	var total int64
	sameWeight := true

	for i, invoker := range invokers {
		status := base.GetRpcStatusWithMethod(invoker.GetURL().Key(), invocation.MethodName())
		active := status.GetActive()
		w := warmup.EffectiveWeight(invoker.GetURL(), invocation.MethodName())

		if leastActive == -1 || active < leastActive {
			leastActive = active
			leastIndexes = leastIndexes[:0]
			weights = weights[:0]
			total = 0
			sameWeight = true
		}
		if active == leastActive {
			if len(weights) > 0 && w != weights[0] {
				sameWeight = false
			}
			leastIndexes = append(leastIndexes, i)
			weights = append(weights, w)
			total += w
		}
	}

	if len(leastIndexes) == 1 {
		return invokers[leastIndexes[0]]
	}
	if !sameWeight && total > 0 {
		offset := rand.Int63n(total)
		for i, w := range weights {
			offset -= w
			if offset < 0 {
				return invokers[leastIndexes[i]]
			}
		}
	}
	return invokers[leastIndexes[rand.Intn(len(leastIndexes))]]
}
