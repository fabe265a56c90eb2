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

// Package consistenthash implements the consistent-hash load balance
// policy (spec.md §4.6 table): 160 virtual nodes per invoker hashed onto a
// ring with MD5, so requests whose hash arguments are equal keep landing
// on the same invoker even as the invoker list changes elsewhere on the
// ring.
package consistenthash

import (
	"crypto/md5"
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "consistenthash"

func init() {
	extension.SetLoadBalance(Name, newConsistentHashLoadBalance)
}

type consistentHashLoadBalance struct {
	mu        sync.Mutex
	selectors map[string]*selector
}

func newConsistentHashLoadBalance() cluster.LoadBalance {
	return &consistentHashLoadBalance{selectors: make(map[string]*selector)}
}

func (lb *consistentHashLoadBalance) Select(invokers []base.Invoker, url *common.URL, invocation base.Invocation) base.Invoker {
	if len(invokers) == 0 {
		return nil
	}

	method := invocation.MethodName()
	key := url.ServiceKey() + "." + method
	fingerprint := fingerprintOf(invokers)

	lb.mu.Lock()
	sel, ok := lb.selectors[key]
	if !ok || sel.fingerprint != fingerprint {
		sel = newSelector(invokers, url, method, fingerprint)
		lb.selectors[key] = sel
	}
	lb.mu.Unlock()

	return sel.pick(invocation)
}

// fingerprintOf gives a cheap identity hash for "has the invoker list
// changed", so the ring is only rebuilt when it actually has.
func fingerprintOf(invokers []base.Invoker) uint64 {
	bm := roaring.New()
	for _, invoker := range invokers {
		sum := md5.Sum([]byte(invoker.GetURL().Key()))
		bm.Add(uint32(sum[0])<<24 | uint32(sum[1])<<16 | uint32(sum[2])<<8 | uint32(sum[3]))
	}
	var fp uint64
	it := bm.Iterator()
	for it.HasNext() {
		fp = fp*31 + uint64(it.Next())
	}
	return fp ^ uint64(len(invokers))
}

type selector struct {
	fingerprint uint64
	ring        []uint32
	nodes       map[uint32]base.Invoker
	argIndex    int
}

const virtualNodesPerInvoker = constant.ConsistentHashVNodes

func newSelector(invokers []base.Invoker, url *common.URL, method string, fingerprint uint64) *selector {
	s := &selector{
		fingerprint: fingerprint,
		nodes:       make(map[uint32]base.Invoker, len(invokers)*virtualNodesPerInvoker),
		argIndex:    int(url.GetMethodParamInt64(method, constant.HashArgumentsKey, 0)),
	}
	for _, invoker := range invokers {
		addr := invoker.GetURL().Key()
		for i := 0; i < virtualNodesPerInvoker/4; i++ {
			digest := md5.Sum([]byte(fmt.Sprintf("%s%d", addr, i)))
			for j := 0; j < 4; j++ {
				h := hashSegment(digest, j)
				s.nodes[h] = invoker
				s.ring = append(s.ring, h)
			}
		}
	}
	sort.Slice(s.ring, func(i, j int) bool { return s.ring[i] < s.ring[j] })
	return s
}

func hashSegment(digest [16]byte, idx int) uint32 {
	i := idx * 4
	return uint32(digest[i+3])<<24 | uint32(digest[i+2])<<16 | uint32(digest[i+1])<<8 | uint32(digest[i])
}

func (s *selector) pick(invocation base.Invocation) base.Invoker {
	args := invocation.Arguments()
	var key string
	if s.argIndex >= 0 && s.argIndex < len(args) {
		key = fmt.Sprintf("%v", args[s.argIndex])
	} else if len(args) > 0 {
		key = fmt.Sprintf("%v", args[0])
	}
	digest := md5.Sum([]byte(key))
	h := hashSegment(digest, 0)

	idx := sort.Search(len(s.ring), func(i int) bool { return s.ring[i] >= h })
	if idx == len(s.ring) {
		idx = 0
	}
	return s.nodes[s.ring[idx]]
}
