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

// ErrorKind is the stable, caller-facing classification of an RPCError.
// Cluster failure policies pattern-match on Kind instead of string-matching
// error messages; filters attach context without hiding the Kind.
type ErrorKind int

const (
	// UnknownError is used for errors that carry no further classification,
	// e.g. a bare SERVER_ERROR with no class info attached.
	UnknownError ErrorKind = iota
	TimeoutError
	NetworkError
	SerializationError
	BizError
	ForbiddenError
	LimitExceededError
)

func (k ErrorKind) String() string {
	switch k {
	case TimeoutError:
		return "TIMEOUT"
	case NetworkError:
		return "NETWORK"
	case SerializationError:
		return "SERIALIZATION"
	case BizError:
		return "BIZ"
	case ForbiddenError:
		return "FORBIDDEN"
	case LimitExceededError:
		return "LIMIT_EXCEEDED"
	default:
		return "UNKNOWN"
	}
}

// RPCError is the concrete error type returned across the invocation
// pipeline. BIZ errors preserve the remote payload verbatim in Payload.
type RPCError struct {
	Kind    ErrorKind
	Message string
	Payload any // set only for Kind == BizError
}

func (e *RPCError) Error() string {
	return e.Message
}

// NewRPCError builds an *RPCError of the given kind.
func NewRPCError(kind ErrorKind, message string) *RPCError {
	return &RPCError{Kind: kind, Message: message}
}

// NewBizError wraps a remote-thrown payload as a BIZ error, preserved
// verbatim for the caller.
func NewBizError(payload any, message string) *RPCError {
	return &RPCError{Kind: BizError, Message: message, Payload: payload}
}

// KindOf extracts the ErrorKind of err, defaulting to UnknownError for any
// error that is not an *RPCError.
func KindOf(err error) ErrorKind {
	if re, ok := err.(*RPCError); ok {
		return re.Kind
	}
	return UnknownError
}
