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

// Package buffer implements the index-separated byte buffer the wire codec
// frames requests and responses on top of (spec.md §4.4 "Buffer"):
// readerIndex <= writerIndex <= capacity at all times, mark/reset per
// index, and geometric growth for dynamic buffers.
package buffer

import (
	"errors"
)

// ErrOutOfBounds is returned by every operation that would violate
// readerIndex <= writerIndex <= capacity (spec.md §8 invariant 1).
var ErrOutOfBounds = errors.New("buffer: index out of bounds")

// Buffer is an index-separated byte buffer. A Buffer created with
// NewDynamicBuffer grows geometrically on EnsureWritable; one created with
// NewBuffer(fixed capacity, dynamic=false) raises ErrOutOfBounds instead.
type Buffer struct {
	buf      []byte
	readerIdx int
	writerIdx int
	markedReader int
	markedWriter int
	dynamic  bool
}

// NewBuffer allocates a Buffer with the given initial capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{buf: make([]byte, capacity), dynamic: false}
}

// NewDynamicBuffer allocates a Buffer that grows geometrically when
// EnsureWritable would otherwise overflow it.
func NewDynamicBuffer(initialCapacity int) *Buffer {
	return &Buffer{buf: make([]byte, initialCapacity), dynamic: true}
}

func (b *Buffer) ReaderIndex() int { return b.readerIdx }
func (b *Buffer) WriterIndex() int { return b.writerIdx }
func (b *Buffer) Capacity() int    { return len(b.buf) }

// Readable returns the number of bytes available to Read.
func (b *Buffer) Readable() int { return b.writerIdx - b.readerIdx }

// Writable returns the remaining capacity available to Write without
// growing (or erroring, for non-dynamic buffers).
func (b *Buffer) Writable() int { return len(b.buf) - b.writerIdx }

// EnsureWritable guarantees n more bytes can be written: dynamic buffers
// grow geometrically (doubling until n fits), fixed buffers error.
func (b *Buffer) EnsureWritable(n int) error {
	if b.Writable() >= n {
		return nil
	}
	if !b.dynamic {
		return ErrOutOfBounds
	}
	needed := b.writerIdx + n
	newCap := len(b.buf)
	if newCap == 0 {
		newCap = 64
	}
	for newCap < needed {
		newCap *= 2
	}
	grown := make([]byte, newCap)
	copy(grown, b.buf)
	b.buf = grown
	return nil
}

// Write appends p, growing or erroring per EnsureWritable.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.EnsureWritable(len(p)); err != nil {
		return 0, err
	}
	copy(b.buf[b.writerIdx:], p)
	b.writerIdx += len(p)
	return len(p), nil
}

// Read copies min(len(p), Readable()) bytes into p and advances
// readerIndex; returns ErrOutOfBounds if asked to read more than is
// readable.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(p) > b.Readable() {
		return 0, ErrOutOfBounds
	}
	n := copy(p, b.buf[b.readerIdx:b.writerIdx])
	b.readerIdx += n
	return n, nil
}

// Skip advances readerIndex by n without copying, erroring if n exceeds
// Readable().
func (b *Buffer) Skip(n int) error {
	if n < 0 || n > b.Readable() {
		return ErrOutOfBounds
	}
	b.readerIdx += n
	return nil
}

// Bytes returns the currently-readable slice [readerIndex, writerIndex),
// aliasing the underlying array — callers must copy before further writes.
func (b *Buffer) Bytes() []byte {
	return b.buf[b.readerIdx:b.writerIdx]
}

// DiscardReadBytes compacts [0, readerIndex) out of the buffer, preserving
// the readable bytes bitwise at index 0 (spec.md §8 invariant 2) and
// shifting writerIndex down by the discarded amount.
func (b *Buffer) DiscardReadBytes() {
	if b.readerIdx == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.readerIdx:b.writerIdx])
	b.writerIdx = n
	b.readerIdx = 0
}

// Clear resets both indices to zero without touching the underlying
// content (spec.md §4.4 "clear zeroes both indices (content unchanged)").
func (b *Buffer) Clear() {
	b.readerIdx = 0
	b.writerIdx = 0
}

// MarkReaderIndex saves the current readerIndex for a later ResetReaderIndex.
func (b *Buffer) MarkReaderIndex() { b.markedReader = b.readerIdx }

// ResetReaderIndex restores readerIndex to the last MarkReaderIndex value.
func (b *Buffer) ResetReaderIndex() { b.readerIdx = b.markedReader }

// MarkWriterIndex saves the current writerIndex for a later ResetWriterIndex.
func (b *Buffer) MarkWriterIndex() { b.markedWriter = b.writerIdx }

// ResetWriterIndex restores writerIndex to the last MarkWriterIndex value.
func (b *Buffer) ResetWriterIndex() { b.writerIdx = b.markedWriter }
