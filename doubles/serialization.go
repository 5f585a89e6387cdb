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

package doubles

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/prattrs/sketches-core/internal/family"
	"github.com/prattrs/sketches-core/internal/prng"
	"github.com/prattrs/sketches-core/memory"
)

// Binary layout (little-endian throughout):
//
//	byte 0      preLongs   1 if empty, 2 otherwise
//	byte 1      serVer     always SerialVersion
//	byte 2      familyID   family.Quantiles.ID
//	byte 3      flags      bit2 EMPTY; bit0 BIG_ENDIAN on big-endian hosts
//	bytes 4-5   k          uint16
//	bytes 6-7   reserved
//	bytes 8-15  N          uint64, iff preLongs >= 2
//	bytes 16-23 minValue   float64, iff preLongs >= 2
//	bytes 24-31 maxValue   float64, iff preLongs >= 2
//	bytes 32..  payload    base buffer (N mod 2k items) then populated
//	                       levels in ascending order, k items each
//
// bitPattern is never stored: it equals floor(N / 2k), and the base
// buffer count equals N mod 2k, so both are recovered from N and k
// alone on decode.

// SerializedSizeBytes returns the exact size MarshalBinary will produce.
func (s *UpdateDoublesSketch) SerializedSizeBytes() int {
	if s.IsEmpty() {
		return 8
	}
	s.acc.SetLevel(0)
	return 32 + 8*(s.acc.NumItems()+s.k*bits.OnesCount64(s.bitPattern))
}

// MarshalBinary renders the sketch as a self-contained byte image.
func (s *UpdateDoublesSketch) MarshalBinary() ([]byte, error) {
	size := s.SerializedSizeBytes()
	view := memory.NewHeapView(size)

	preLongs := uint8(1)
	if !s.IsEmpty() {
		preLongs = 2
	}
	if err := view.PutByte(0, preLongs); err != nil {
		return nil, err
	}
	if err := view.PutByte(1, SerialVersion); err != nil {
		return nil, err
	}
	if err := view.PutByte(2, uint8(family.Quantiles.ID)); err != nil {
		return nil, err
	}

	var flags uint8
	if s.IsEmpty() {
		flags |= 1 << flagEmpty
	}
	if memory.HostIsBigEndian {
		flags |= 1 << flagBigEndian
	}
	if err := view.PutByte(3, flags); err != nil {
		return nil, err
	}
	if err := view.PutShort(4, uint16(s.k)); err != nil {
		return nil, err
	}

	if s.IsEmpty() {
		return view.GetBytes(0, size)
	}

	if err := view.PutLong(8, s.n); err != nil {
		return nil, err
	}
	if err := view.PutDouble(16, s.minValue); err != nil {
		return nil, err
	}
	if err := view.PutDouble(24, s.maxValue); err != nil {
		return nil, err
	}

	offset := 32
	s.acc.SetLevel(0)
	for i := 0; i < s.acc.NumItems(); i++ {
		if err := view.PutDouble(offset, s.acc.Get(i)); err != nil {
			return nil, err
		}
		offset += 8
	}
	for lvl := 0; lvl < s.acc.NumLevels(); lvl++ {
		s.acc.SetLevel(lvl + 1)
		for i := 0; i < s.acc.NumItems(); i++ {
			if err := view.PutDouble(offset, s.acc.Get(i)); err != nil {
				return nil, err
			}
			offset += 8
		}
	}

	return view.GetBytes(0, size)
}

// DecodeUpdateDoublesSketch parses a serial-version-3 image produced by
// MarshalBinary back into a mutable sketch. WithK is ignored if passed:
// k is fixed by the image. WithSeed still controls the PRNG seed the
// decoded sketch's future compactions will use.
func DecodeUpdateDoublesSketch(raw []byte, opts ...SketchOptionFunc) (*UpdateDoublesSketch, error) {
	if len(raw) < 8 {
		return nil, memory.NewArgumentError("length", "at least 8 bytes", len(raw))
	}
	view := memory.WrapHeap(raw)

	preLongs, err := view.GetByte(0)
	if err != nil {
		return nil, err
	}
	serVer, err := view.GetByte(1)
	if err != nil {
		return nil, err
	}
	if serVer != SerialVersion {
		return nil, memory.NewArgumentError("serialVersion", fmt.Sprintf("%d", SerialVersion), serVer)
	}
	familyID, err := view.GetByte(2)
	if err != nil {
		return nil, err
	}
	if int(familyID) != family.Quantiles.ID {
		return nil, memory.NewArgumentError("familyID", fmt.Sprintf("%d", family.Quantiles.ID), familyID)
	}
	flags, err := view.GetByte(3)
	if err != nil {
		return nil, err
	}
	if (flags&(1<<flagBigEndian) != 0) != memory.HostIsBigEndian {
		return nil, memory.NewArgumentError("flags.BIG_ENDIAN", fmt.Sprintf("%t", memory.HostIsBigEndian), flags&(1<<flagBigEndian) != 0)
	}
	kRaw, err := view.GetShort(4)
	if err != nil {
		return nil, err
	}
	k := int(kRaw)
	if err := checkK(k); err != nil {
		return nil, err
	}

	options := &sketchOptions{k: k, seed: DefaultSeed}
	for _, opt := range opts {
		opt(options)
	}

	sketch := &UpdateDoublesSketch{
		k:    k,
		seed: options.seed,
		rng:  prng.New(options.seed),
	}
	sketch.acc = newSliceAccessor(&sketch.baseBuffer, &sketch.levels)

	isEmpty := flags&(1<<flagEmpty) != 0
	if isEmpty {
		if preLongs != 1 {
			return nil, memory.NewArgumentError("preLongs", "1", preLongs)
		}
		sketch.minValue = math.Inf(1)
		sketch.maxValue = math.Inf(-1)
		return sketch, nil
	}

	if preLongs != 2 {
		return nil, memory.NewArgumentError("preLongs", "2", preLongs)
	}
	if len(raw) < 32 {
		return nil, memory.NewArgumentError("length", "at least 32 bytes", len(raw))
	}

	n, err := view.GetLong(8)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, memory.NewArgumentError("N", "non-zero when EMPTY flag is clear", n)
	}
	minV, err := view.GetDouble(16)
	if err != nil {
		return nil, err
	}
	maxV, err := view.GetDouble(24)
	if err != nil {
		return nil, err
	}

	twoK := uint64(2 * k)
	baseBufferCount := int(n % twoK)
	bitPattern := n / twoK

	expectedSize := 32 + 8*(baseBufferCount+k*bits.OnesCount64(bitPattern))
	if len(raw) < expectedSize {
		return nil, memory.NewArgumentError("length", fmt.Sprintf("at least %d bytes", expectedSize), len(raw))
	}

	offset := 32
	base := make([]float64, baseBufferCount)
	for i := range base {
		v, err := view.GetDouble(offset)
		if err != nil {
			return nil, err
		}
		base[i] = v
		offset += 8
	}

	numLevels := bits.Len64(bitPattern)
	levels := make([][]float64, numLevels)
	for lvl := 0; lvl < numLevels; lvl++ {
		if bitPattern&(1<<uint(lvl)) == 0 {
			continue
		}
		items := make([]float64, k)
		for i := range items {
			v, err := view.GetDouble(offset)
			if err != nil {
				return nil, err
			}
			items[i] = v
			offset += 8
		}
		levels[lvl] = items
	}

	sketch.n = n
	sketch.minValue = minV
	sketch.maxValue = maxV
	sketch.baseBuffer = base
	sketch.levels = levels
	sketch.bitPattern = bitPattern
	return sketch, nil
}
