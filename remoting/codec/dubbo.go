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

package codec

import (
	"encoding/binary"
	"errors"

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/remoting/buffer"
)

// ErrIncompleteFrame signals the buffer doesn't yet hold a full frame;
// the caller should wait for more bytes and retry, never treat it as a
// protocol error.
var ErrIncompleteFrame = errors.New("codec: incomplete frame")

// ErrBadMagic signals the header's first two bytes aren't the dubbo magic
// number, meaning the stream is corrupt or not this protocol at all.
var ErrBadMagic = errors.New("codec: bad magic number")

// Header is the decoded 16-byte frame header (spec.md §6 "Wire format").
type Header struct {
	IsRequest bool
	TwoWay    bool
	Event     bool
	SerialID  byte
	Status    byte
	RequestID int64
	BodyLen   int32
}

// EncodeHeader writes a 16-byte dubbo frame header into buf.
func EncodeHeader(buf *buffer.Buffer, h Header) error {
	var hdr [constant.DubboHeaderLength]byte
	binary.BigEndian.PutUint16(hdr[0:2], constant.DubboMagic)

	flag := h.SerialID & constant.SerialMask
	if h.IsRequest {
		flag |= constant.FlagRequest
	}
	if h.TwoWay {
		flag |= constant.FlagTwoWay
	}
	if h.Event {
		flag |= constant.FlagEvent
	}
	hdr[2] = flag
	hdr[3] = h.Status
	binary.BigEndian.PutUint64(hdr[4:12], uint64(h.RequestID))
	binary.BigEndian.PutUint32(hdr[12:16], uint32(h.BodyLen))

	_, err := buf.Write(hdr[:])
	return err
}

// DecodeHeader reads a 16-byte dubbo frame header from the front of buf
// without consuming the body, returning ErrIncompleteFrame if fewer than
// 16 bytes are currently readable.
func DecodeHeader(buf *buffer.Buffer) (Header, error) {
	if buf.Readable() < constant.DubboHeaderLength {
		return Header{}, ErrIncompleteFrame
	}
	raw := make([]byte, constant.DubboHeaderLength)
	buf.MarkReaderIndex()
	if _, err := buf.Read(raw); err != nil {
		return Header{}, err
	}
	buf.ResetReaderIndex()

	if binary.BigEndian.Uint16(raw[0:2]) != constant.DubboMagic {
		return Header{}, ErrBadMagic
	}
	flag := raw[2]
	h := Header{
		IsRequest: flag&constant.FlagRequest != 0,
		TwoWay:    flag&constant.FlagTwoWay != 0,
		Event:     flag&constant.FlagEvent != 0,
		SerialID:  flag & constant.SerialMask,
		Status:    raw[3],
		RequestID: int64(binary.BigEndian.Uint64(raw[4:12])),
		BodyLen:   int32(binary.BigEndian.Uint32(raw[12:16])),
	}
	return h, nil
}

// DecodeFrame consumes one full frame (header + body) from buf if
// available, returning the header and body bytes. It returns
// ErrIncompleteFrame, leaving buf untouched, if the body isn't fully
// buffered yet.
func DecodeFrame(buf *buffer.Buffer) (Header, []byte, error) {
	h, err := DecodeHeader(buf)
	if err != nil {
		return Header{}, nil, err
	}
	if buf.Readable() < constant.DubboHeaderLength+int(h.BodyLen) {
		return Header{}, nil, ErrIncompleteFrame
	}
	if err := buf.Skip(constant.DubboHeaderLength); err != nil {
		return Header{}, nil, err
	}
	body := make([]byte, h.BodyLen)
	if h.BodyLen > 0 {
		if _, err := buf.Read(body); err != nil {
			return Header{}, nil, err
		}
	}
	return h, body, nil
}
