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

// Package roundrobin implements smoothed weighted round robin (spec.md
// §4.6 table): each invoker accumulates its weight every pick and the
// heaviest current accumulator wins, decremented by the total weight —
// the same scheduling rule nginx and the teacher both use, which spreads
// picks evenly instead of bursting the heaviest invoker.
package roundrobin

import (
	"sync"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/cluster/loadbalance/warmup"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "roundrobin"

func init() {
	extension.SetLoadBalance(Name, newRoundRobinLoadBalance)
}

type entry struct {
	weight      int64
	current     int64
}

type roundRobinLoadBalance struct {
	mu      sync.Mutex
	byGroup map[string]map[string]*entry
}

func newRoundRobinLoadBalance() cluster.LoadBalance {
	return &roundRobinLoadBalance{byGroup: make(map[string]map[string]*entry)}
}

func (lb *roundRobinLoadBalance) Select(invokers []base.Invoker, url *common.URL, invocation base.Invocation) base.Invoker {
	n := len(invokers)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return invokers[0]
	}

	key := url.ServiceKey() + "." + invocation.MethodName()

	lb.mu.Lock()
	defer lb.mu.Unlock()
	entries, ok := lb.byGroup[key]
	if !ok {
		entries = make(map[string]*entry)
		lb.byGroup[key] = entries
	}

	var total int64
	var best *entry
	var bestInvoker base.Invoker
	for _, invoker := range invokers {
		invokerKey := invoker.GetURL().Key()
		w := warmup.EffectiveWeight(invoker.GetURL(), invocation.MethodName())
		e, ok := entries[invokerKey]
		if !ok {
			e = &entry{weight: w}
			entries[invokerKey] = e
		} else {
			e.weight = w
		}
		e.current += e.weight
		total += e.weight
		if best == nil || e.current > best.current {
			best = e
			bestInvoker = invoker
		}
	}
	if best != nil {
		best.current -= total
	}

	// drop bookkeeping for invokers no longer in the list, so a shrinking
	// cluster doesn't leak entries forever.
	if len(entries) > n {
		live := make(map[string]bool, n)
		for _, invoker := range invokers {
			live[invoker.GetURL().Key()] = true
		}
		for k := range entries {
			if !live[k] {
				delete(entries, k)
			}
		}
	}

	return bestInvoker
}
