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

package exchange

import (
	"sync"
	"time"

	"github.com/meshrpc/meshrpc/common/constant"
)

// HeartbeatMonitor tracks the time a connection last saw any traffic
// (request, response, or heartbeat event) and reports whether it has gone
// idle past the heartbeat interval, or silent past 3x the interval —
// the point spec.md §4.3 calls for closing and reconnecting the
// connection rather than continuing to wait on it.
type HeartbeatMonitor struct {
	mu         sync.Mutex
	lastActive time.Time
	interval   time.Duration
}

func NewHeartbeatMonitor(interval time.Duration) *HeartbeatMonitor {
	if interval <= 0 {
		interval = constant.DefaultHeartbeat
	}
	return &HeartbeatMonitor{lastActive: time.Now(), interval: interval}
}

func (m *HeartbeatMonitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActive = time.Now()
}

// ShouldPing reports whether it's been at least one heartbeat interval
// since the connection last saw traffic — the point a heartbeat request
// should be sent to keep the session alive.
func (m *HeartbeatMonitor) ShouldPing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActive) >= m.interval
}

// ShouldClose reports whether the connection has gone silent for 3
// consecutive heartbeat intervals (spec.md §4.3 "3x heartbeat timeout") —
// the point it should be torn down and reconnected rather than retried.
func (m *HeartbeatMonitor) ShouldClose() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActive) >= 3*m.interval
}

// HeartbeatEvent builds the event Request sent on the wire to probe an
// idle connection (spec.md §6 "event flag bit").
func HeartbeatEvent() *Request {
	return &Request{ID: NextRequestID(), TwoWay: true, Event: true}
}
