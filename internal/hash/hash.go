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

// Package hash supplies the injected hash function H: bytes -> uint64 used
// by the theta sketch family (the doubles family hashes nothing). The core
// never hard-codes a single algorithm; callers select an implementation of
// Hasher.
package hash

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	farm "github.com/dgryski/go-farm"
	"github.com/twmb/murmur3"
)

// Hasher computes a seeded 64-bit hash of a byte slice.
type Hasher interface {
	HashBytes(b []byte, seed uint64) uint64
}

// Murmur3 hashes with the 128-bit x64 MurmurHash3 variant, keeping its
// first 64 bits. It is the default hasher for theta sketches.
type Murmur3 struct{}

func (Murmur3) HashBytes(b []byte, seed uint64) uint64 {
	return murmur3.SeedSum64(seed, b)
}

// XXHash hashes with 64-bit xxHash. It trades MurmurHash3's avalanche
// quality for raw throughput on larger keys.
type XXHash struct{}

func (XXHash) HashBytes(b []byte, seed uint64) uint64 {
	d := xxhash.NewWithSeed(seed)
	_, _ = d.Write(b)
	return d.Sum64()
}

// Farm hashes with Google's FarmHash, another 64-bit non-cryptographic
// hash with good avalanche behavior on short keys. Offered as a drop-in
// alternative where a caller already standardized on it elsewhere in
// their stack.
type Farm struct{}

func (Farm) HashBytes(b []byte, seed uint64) uint64 {
	return farm.Hash64WithSeed(b, seed)
}

// Uint64LE renders v as its 8-byte little-endian encoding, the canonical
// byte form hashed for integer-valued stream items.
func Uint64LE(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

// HashUint64 is a convenience wrapper hashing the little-endian encoding of v.
func HashUint64(h Hasher, v uint64, seed uint64) uint64 {
	return h.HashBytes(Uint64LE(v), seed)
}

// ComputeSeedHash derives the 16-bit seed fingerprint recorded in compact
// images, used to detect an attempt to merge sketches hashed with
// incompatible seeds. A seed that folds to zero is rejected: zero is the
// hash table's empty-slot sentinel and could never be told apart from "no
// seed hash was recorded".
func ComputeSeedHash(h Hasher, seed uint64) (uint16, error) {
	full := HashUint64(h, seed, 0)
	sh := uint16(full & 0xFFFF)
	if sh == 0 {
		return 0, fmt.Errorf("seed %d produced a seed hash of zero, choose a different seed", seed)
	}
	return sh, nil
}
