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

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexInvariant(t *testing.T) {
	b := NewDynamicBuffer(4)
	_, err := b.Write([]byte("hello world"))
	assert.NoError(t, err)
	assert.LessOrEqual(t, b.ReaderIndex(), b.WriterIndex())
	assert.LessOrEqual(t, b.WriterIndex(), b.Capacity())

	out := make([]byte, 5)
	_, err = b.Read(out)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(out))
	assert.LessOrEqual(t, b.ReaderIndex(), b.WriterIndex())
}

func TestDiscardReadBytesPreservesContent(t *testing.T) {
	b := NewDynamicBuffer(16)
	_, _ = b.Write([]byte("abcdef"))
	_ = b.Skip(2)

	before := append([]byte(nil), b.Bytes()...)
	b.DiscardReadBytes()
	after := b.Bytes()

	assert.Equal(t, before, after)
	assert.Equal(t, 0, b.ReaderIndex())
}

func TestClearKeepsUnderlyingContent(t *testing.T) {
	b := NewDynamicBuffer(8)
	_, _ = b.Write([]byte("xyz"))
	raw := append([]byte(nil), b.buf...)

	b.Clear()

	assert.Equal(t, 0, b.ReaderIndex())
	assert.Equal(t, 0, b.WriterIndex())
	assert.Equal(t, raw, b.buf)
}

func TestFixedBufferOutOfBounds(t *testing.T) {
	b := NewBuffer(4)
	_, err := b.Write([]byte("12345"))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	b2 := NewBuffer(4)
	_, _ = b2.Write([]byte("ab"))
	err = b2.Skip(10)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestMarkReset(t *testing.T) {
	b := NewDynamicBuffer(8)
	_, _ = b.Write([]byte("abcdef"))
	_ = b.Skip(3)
	b.MarkReaderIndex()
	_ = b.Skip(2)
	b.ResetReaderIndex()
	assert.Equal(t, 3, b.ReaderIndex())
}
