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

package theta

import (
	"fmt"
	"io"

	"github.com/prattrs/sketches-core/internal/hash"
	"github.com/prattrs/sketches-core/memory"
)

// Decoder decodes a compact sketch from the given reader, using hasher to
// recompute the seed hash recorded in the image.
type Decoder struct {
	seed   uint64
	hasher hash.Hasher
}

// NewDecoder creates a new decoder. hasher may be nil to default to
// MurmurHash3.
func NewDecoder(seed uint64, hasher hash.Hasher) Decoder {
	if hasher == nil {
		hasher = hash.Murmur3{}
	}
	return Decoder{seed: seed, hasher: hasher}
}

// Decode reads a compact sketch image from r.
func (dec Decoder) Decode(r io.Reader) (*CompactSketch, error) {
	bytes, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeCompact(bytes, dec.seed, dec.hasher)
}

// DecodeCompact parses a serial-version-3 compact image. Any other
// serial version is rejected: the core carries no legacy decode path.
func DecodeCompact(raw []byte, seed uint64, hasher hash.Hasher) (*CompactSketch, error) {
	if hasher == nil {
		hasher = hash.Murmur3{}
	}
	if len(raw) < 8 {
		return nil, memory.NewArgumentError("length", "at least 8 bytes", len(raw))
	}

	view := memory.WrapHeap(raw)

	preLongs, err := view.GetByte(0)
	if err != nil {
		return nil, err
	}
	serialVersion, err := view.GetByte(1)
	if err != nil {
		return nil, err
	}
	if serialVersion != SerialVersion {
		return nil, memory.NewArgumentError("serialVersion", fmt.Sprintf("%d", SerialVersion), serialVersion)
	}
	sketchType, err := view.GetByte(2)
	if err != nil {
		return nil, err
	}
	if err := CheckSketchTypeEqual(sketchType, compactSketchType); err != nil {
		return nil, err
	}

	flags, err := view.GetByte(5)
	if err != nil {
		return nil, err
	}
	if (flags&(1<<flagIsBigEndian) != 0) != memory.HostIsBigEndian {
		return nil, memory.NewArgumentError("flags.BIG_ENDIAN", fmt.Sprintf("%t", memory.HostIsBigEndian), flags&(1<<flagIsBigEndian) != 0)
	}
	seedHash, err := view.GetShort(6)
	if err != nil {
		return nil, err
	}

	if flags&(1<<flagIsEmpty) != 0 {
		return newCompactSketchFromEntries(true, true, seedHash, MaxTheta, nil), nil
	}

	expectedSeedHash, err := hash.ComputeSeedHash(hasher, seed)
	if err != nil {
		return nil, err
	}
	if err := CheckSeedHashEqual(seedHash, expectedSeedHash); err != nil {
		return nil, err
	}

	theta := MaxTheta
	hasTheta := preLongs > 2

	// Single-entry exact-mode sketches omit the count word: the one entry
	// is stored directly after the 8-byte header.
	if preLongs == 1 {
		if len(raw) < 16 {
			return nil, memory.NewArgumentError("length", "at least 16 bytes", len(raw))
		}
		entry, err := view.GetLong(8)
		if err != nil {
			return nil, err
		}
		return newCompactSketchFromEntries(false, true, seedHash, theta, []uint64{entry}), nil
	}

	numEntries, err := view.GetInt(8)
	if err != nil {
		return nil, err
	}

	entriesStart := 16
	if hasTheta {
		theta, err = view.GetLong(16)
		if err != nil {
			return nil, err
		}
		entriesStart = 24
	}

	expectedSize := entriesStart + int(numEntries)*8
	if len(raw) < expectedSize {
		return nil, memory.NewArgumentError("length", fmt.Sprintf("at least %d bytes", expectedSize), len(raw))
	}

	entries := make([]uint64, numEntries)
	for i := uint32(0); i < numEntries; i++ {
		v, err := view.GetLong(entriesStart + int(i)*8)
		if err != nil {
			return nil, err
		}
		entries[i] = v
	}

	isOrdered := flags&(1<<flagIsOrdered) != 0

	return newCompactSketchFromEntries(false, isOrdered, seedHash, theta, entries), nil
}
