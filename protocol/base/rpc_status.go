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

package base

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// RpcStatus holds the per-(url, method) counters load balancers (e.g.
// LeastActive) read (spec.md §3 "RpcStatus").
// Updated atomically on invoke begin/end; never locked against readers.
type RpcStatus struct {
	active         atomic.Int64
	total          atomic.Int64
	failed         atomic.Int64
	succeededElapsed atomic.Int64
	failedElapsed  atomic.Int64
}

func (s *RpcStatus) GetActive() int64           { return s.active.Load() }
func (s *RpcStatus) GetTotal() int64            { return s.total.Load() }
func (s *RpcStatus) GetFailed() int64           { return s.failed.Load() }
func (s *RpcStatus) GetSucceededElapsed() int64 { return s.succeededElapsed.Load() }
func (s *RpcStatus) GetFailedElapsed() int64    { return s.failedElapsed.Load() }

// BeginCount increments the active counter when an invocation starts.
func (s *RpcStatus) BeginCount() {
	s.active.Inc()
}

// EndCount records the end of an invocation: active decrements, total and
// failed/elapsed counters update based on succeeded.
func (s *RpcStatus) EndCount(elapsed time.Duration, succeeded bool) {
	s.active.Dec()
	s.total.Inc()
	if succeeded {
		s.succeededElapsed.Add(elapsed.Milliseconds())
	} else {
		s.failed.Inc()
		s.failedElapsed.Add(elapsed.Milliseconds())
	}
}

var (
	statusMu sync.RWMutex
	// keyed by "url|method"; a per-(url,method) RpcStatus is created lazily.
	statusByURLMethod = make(map[string]*RpcStatus)
	statusByURL        = make(map[string]*RpcStatus)
)

func statusKey(urlKey, method string) string { return urlKey + "|" + method }

// GetRpcStatus returns (creating if necessary) the RpcStatus for url alone,
// kept separately from the per-method counters.
func GetRpcStatus(urlKey string) *RpcStatus {
	statusMu.Lock()
	defer statusMu.Unlock()
	s, ok := statusByURL[urlKey]
	if !ok {
		s = &RpcStatus{}
		statusByURL[urlKey] = s
	}
	return s
}

// GetRpcStatusWithMethod returns (creating if necessary) the RpcStatus for
// the (url, method) pair, used by LeastActive load balancing.
func GetRpcStatusWithMethod(urlKey, method string) *RpcStatus {
	key := statusKey(urlKey, method)
	statusMu.Lock()
	defer statusMu.Unlock()
	s, ok := statusByURLMethod[key]
	if !ok {
		s = &RpcStatus{}
		statusByURLMethod[key] = s
	}
	return s
}

// RemoveRpcStatus clears every counter recorded for urlKey so stale
// counters do not bias future selections. Destroying an invoker does not
// call it.
func RemoveRpcStatus(urlKey string) {
	statusMu.Lock()
	defer statusMu.Unlock()
	delete(statusByURL, urlKey)
	for k := range statusByURLMethod {
		if len(k) > len(urlKey) && k[:len(urlKey)] == urlKey && k[len(urlKey)] == '|' {
			delete(statusByURLMethod, k)
		}
	}
}
