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

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeapView_PutAndGetRoundTrip(t *testing.T) {
	v := NewHeapView(32)
	assert.Equal(t, 32, v.Capacity())
	assert.False(t, v.IsDirect())
	assert.False(t, v.IsReadOnly())

	assert.NoError(t, v.PutByte(0, 0xAB))
	b, err := v.GetByte(0)
	assert.NoError(t, err)
	assert.Equal(t, byte(0xAB), b)

	assert.NoError(t, v.PutShort(2, 0x1234))
	s, err := v.GetShort(2)
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x1234), s)

	assert.NoError(t, v.PutInt(4, 0xDEADBEEF))
	i, err := v.GetInt(4)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), i)

	assert.NoError(t, v.PutLong(8, 0x0102030405060708))
	l, err := v.GetLong(8)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), l)

	assert.NoError(t, v.PutDouble(16, 3.25))
	d, err := v.GetDouble(16)
	assert.NoError(t, err)
	assert.Equal(t, 3.25, d)

	assert.NoError(t, v.PutBytes(24, []byte{1, 2, 3, 4}))
	raw, err := v.GetBytes(24, 4)
	assert.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, raw)
}

func TestWrapHeap_DoesNotCopy(t *testing.T) {
	buf := make([]byte, 8)
	v := WrapHeap(buf)
	assert.NoError(t, v.PutByte(0, 7))
	assert.Equal(t, byte(7), buf[0])
}

func TestDirectView_MirrorsCallerBuffer(t *testing.T) {
	buf := make([]byte, 16)
	v := WrapDirect(buf)
	assert.True(t, v.IsDirect())
	assert.False(t, v.IsReadOnly())

	assert.NoError(t, v.PutLong(0, 42))
	assert.Equal(t, byte(42), buf[0])

	l, err := v.GetLong(0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), l)
}

func TestReadOnlyView_RejectsWrites(t *testing.T) {
	inner := NewHeapView(8)
	assert.NoError(t, inner.PutLong(0, 99))
	ro := NewReadOnlyView(inner)

	assert.True(t, ro.IsReadOnly())
	assert.False(t, ro.IsDirect())
	assert.Equal(t, 8, ro.Capacity())

	l, err := ro.GetLong(0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(99), l)

	assert.Error(t, ro.PutByte(0, 1))
	assert.Error(t, ro.PutShort(0, 1))
	assert.Error(t, ro.PutInt(0, 1))
	assert.Error(t, ro.PutLong(0, 1))
	assert.Error(t, ro.PutDouble(0, 1))
	assert.Error(t, ro.PutBytes(0, []byte{1}))
}

func TestView_BoundsChecking(t *testing.T) {
	v := NewHeapView(4)

	_, err := v.GetByte(4)
	assert.Error(t, err)

	_, err = v.GetLong(0)
	assert.Error(t, err)

	err = v.PutInt(1, 1)
	assert.Error(t, err)

	_, err = v.GetBytes(0, 5)
	assert.Error(t, err)

	err = v.PutBytes(2, []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestIsSameResource(t *testing.T) {
	buf := make([]byte, 8)
	heap := WrapHeap(buf)
	direct := WrapDirect(buf)
	other := NewHeapView(8)

	assert.True(t, heap.IsSameResource(direct))
	assert.True(t, direct.IsSameResource(heap))
	assert.False(t, heap.IsSameResource(other))

	ro := NewReadOnlyView(heap)
	assert.True(t, ro.IsSameResource(direct))
	assert.True(t, heap.IsSameResource(ro))
}

func TestCopyArray(t *testing.T) {
	src := NewHeapView(8)
	assert.NoError(t, src.PutLong(0, 0xAABBCCDD11223344))
	dst := NewHeapView(8)

	assert.NoError(t, CopyArray(src, 0, dst, 0, 8))
	l, err := dst.GetLong(0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(0xAABBCCDD11223344), l)
}
