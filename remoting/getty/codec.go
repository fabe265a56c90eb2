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

// Package getty wraps github.com/apache/dubbo-getty as the transport for
// the exchange layer (spec.md §4.4 "Transport"): a getty.Session carries
// framed dubbo packets, decoded by PackageHandler and dispatched through
// an EventListener into the exchange layer's pending-response registry.
package getty

import (
	"encoding/binary"
	"fmt"

	"github.com/apache/dubbo-getty"

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/remoting/codec"
)

// Package is one decoded dubbo frame, passed whole to the EventListener's
// OnMessage.
type Package struct {
	Header codec.Header
	Body   []byte
}

// PackageHandler implements getty.ReadWriter: Read accumulates bytes
// until one full dubbo frame is available, Write serializes a Package
// back into wire bytes.
type PackageHandler struct{}

// Read implements getty.Reader. data is whatever bytes have arrived so
// far that getty hasn't yet consumed; returning (nil, 0, nil) tells getty
// to wait for more.
func (h *PackageHandler) Read(ss getty.Session, data []byte) (any, int, error) {
	if len(data) < constant.DubboHeaderLength {
		return nil, 0, nil
	}
	bodyLen := int(binary.BigEndian.Uint32(data[12:16]))
	total := constant.DubboHeaderLength + bodyLen
	if len(data) < total {
		return nil, 0, nil
	}

	flag := data[2]
	pkg := Package{
		Header: codec.Header{
			IsRequest: flag&constant.FlagRequest != 0,
			TwoWay:    flag&constant.FlagTwoWay != 0,
			Event:     flag&constant.FlagEvent != 0,
			SerialID:  flag & constant.SerialMask,
			Status:    data[3],
			RequestID: int64(binary.BigEndian.Uint64(data[4:12])),
			BodyLen:   int32(bodyLen),
		},
		Body: append([]byte(nil), data[constant.DubboHeaderLength:total]...),
	}
	return pkg, total, nil
}

// Write implements getty.Writer.
func (h *PackageHandler) Write(ss getty.Session, pkg any) ([]byte, error) {
	p, ok := pkg.(Package)
	if !ok {
		return nil, fmt.Errorf("getty: Write expected getty.Package, got %T", pkg)
	}

	out := make([]byte, constant.DubboHeaderLength+len(p.Body))
	binary.BigEndian.PutUint16(out[0:2], constant.DubboMagic)
	flag := p.Header.SerialID & constant.SerialMask
	if p.Header.IsRequest {
		flag |= constant.FlagRequest
	}
	if p.Header.TwoWay {
		flag |= constant.FlagTwoWay
	}
	if p.Header.Event {
		flag |= constant.FlagEvent
	}
	out[2] = flag
	out[3] = p.Header.Status
	binary.BigEndian.PutUint64(out[4:12], uint64(p.Header.RequestID))
	binary.BigEndian.PutUint32(out[12:16], uint32(len(p.Body)))
	copy(out[constant.DubboHeaderLength:], p.Body)
	return out, nil
}
