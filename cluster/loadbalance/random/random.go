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

// Package random implements the weighted-random load balance policy
// (spec.md §4.6 table): pick uniformly over the sum of effective weights,
// where effective weight ramps linearly during an invoker's warmup window.
package random

import (
	"math/rand"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/cluster/loadbalance/warmup"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "random"

func init() {
	extension.SetLoadBalance(Name, newRandomLoadBalance)
}

type randomLoadBalance struct{}

func newRandomLoadBalance() cluster.LoadBalance {
	return &randomLoadBalance{}
}

func (lb *randomLoadBalance) Select(invokers []base.Invoker, url *common.URL, invocation base.Invocation) base.Invoker {
	n := len(invokers)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return invokers[0]
	}

	weights := make([]int64, n)
	sameWeight := true
	var total int64
	for i, invoker := range invokers {
		w := warmup.EffectiveWeight(invoker.GetURL(), invocation.MethodName())
		weights[i] = w
		total += w
		if i > 0 && w != weights[0] {
			sameWeight = false
		}
	}

	if total > 0 && !sameWeight {
		offset := rand.Int63n(total)
		for i, w := range weights {
			offset -= w
			if offset < 0 {
				return invokers[i]
			}
		}
	}
	return invokers[rand.Intn(n)]
}
