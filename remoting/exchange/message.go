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

// Package exchange is the request/response layer above the raw wire codec
// (spec.md §4.3 "Exchange"): request/response envelopes, a monotonic id
// generator, futures with timeout, and heartbeat-driven idle detection.
package exchange

import (
	"go.uber.org/atomic"

	"github.com/meshrpc/meshrpc/common/constant"
)

var requestIDSeq atomic.Int64

// NextRequestID returns the next value in the process-wide monotonic
// 64-bit request id sequence (spec.md §6 "8-byte request id").
func NextRequestID() int64 {
	return requestIDSeq.Inc()
}

// Request is one outbound or inbound RPC request travelling the wire.
type Request struct {
	ID       int64
	Version  string
	SerialID byte
	Data     any
	TwoWay   bool
	Event    bool
}

// NewRequest builds a two-way, non-event Request with a fresh id.
func NewRequest(version string) *Request {
	return &Request{ID: NextRequestID(), Version: version, TwoWay: true}
}

// Response is the corresponding reply, built by decoding a wire frame or
// by a local filter short-circuiting.
type Response struct {
	ID       int64
	Version  string
	SerialID byte
	Status   byte
	Result   any
	Error    error
	Event    bool
}

// NewResponse builds a Response echoing id and version, status OK.
func NewResponse(id int64, version string) *Response {
	return &Response{ID: id, Version: version, Status: constant.RespStatusOK}
}
