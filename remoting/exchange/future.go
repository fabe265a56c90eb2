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

// PendingResponse tracks one in-flight two-way request awaiting its
// Response from the wire (spec.md §4.3 "Futures"). It is registered by id
// before the request is written and resolved exactly once, either by the
// read loop decoding a matching Response or by its own timeout firing.
type PendingResponse struct {
	ID       int64
	done     chan struct{}
	once     sync.Once
	mu       sync.Mutex
	response *Response
	timer    *time.Timer
}

// NewPendingResponse builds a PendingResponse for id that self-cancels
// after timeout, delivering a synthetic CLIENT_TIMEOUT Response if nothing
// else resolves it first.
func NewPendingResponse(id int64, timeout time.Duration) *PendingResponse {
	p := &PendingResponse{ID: id, done: make(chan struct{})}
	p.timer = time.AfterFunc(timeout, func() {
		p.Resolve(&Response{
			ID:     id,
			Status: constant.RespStatusClientTimeout,
			Error:  timeoutError(id),
		})
	})
	return p
}

// Resolve delivers resp to the waiter, a no-op on any call after the
// first (it is a race whether the read loop or the timeout wins).
func (p *PendingResponse) Resolve(resp *Response) {
	p.once.Do(func() {
		p.mu.Lock()
		p.response = resp
		p.mu.Unlock()
		if p.timer != nil {
			p.timer.Stop()
		}
		close(p.done)
	})
}

// Wait blocks until Resolve is called (by the read loop or the timeout),
// or returns nil if stop is closed first.
func (p *PendingResponse) Wait(stop <-chan struct{}) *Response {
	select {
	case <-p.done:
	case <-stop:
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.response
}

type timeoutErr struct{ id int64 }

func (e *timeoutErr) Error() string { return "exchange: request timed out" }

func timeoutError(id int64) error { return &timeoutErr{id: id} }

// PendingResponseRegistry keys in-flight PendingResponses by request id.
type PendingResponseRegistry struct {
	mu       sync.Mutex
	pending  map[int64]*PendingResponse
}

func NewPendingResponseRegistry() *PendingResponseRegistry {
	return &PendingResponseRegistry{pending: make(map[int64]*PendingResponse)}
}

func (r *PendingResponseRegistry) Add(p *PendingResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[p.ID] = p
}

// Resolve delivers resp to the registered PendingResponse for resp.ID, if
// any is still pending; it is a no-op for an id that already timed out or
// was never registered (a response arriving for a request we gave up on).
func (r *PendingResponseRegistry) Resolve(resp *Response) {
	r.mu.Lock()
	p, ok := r.pending[resp.ID]
	if ok {
		delete(r.pending, resp.ID)
	}
	r.mu.Unlock()
	if ok {
		p.Resolve(resp)
	}
}

func (r *PendingResponseRegistry) Remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, id)
}

// DrainWithError resolves every still-pending response with err, used when
// the underlying connection drops so no caller blocks forever.
func (r *PendingResponseRegistry) DrainWithError(status byte, err error) {
	r.mu.Lock()
	all := make([]*PendingResponse, 0, len(r.pending))
	for id, p := range r.pending {
		all = append(all, p)
		delete(r.pending, id)
	}
	r.mu.Unlock()
	for _, p := range all {
		p.Resolve(&Response{ID: p.ID, Status: status, Error: err})
	}
}
