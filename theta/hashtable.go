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
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/prattrs/sketches-core/internal/hash"
	"github.com/prattrs/sketches-core/internal/quickselect"
	"github.com/prattrs/sketches-core/memory"
)

const (
	resizeThreshold  = 0.5
	rebuildThreshold = 15.0 / 16.0
)

const (
	strideHashBits = 7
	strideMask     = (1 << strideHashBits) - 1
)

var (
	ErrKeyNotFound                = errors.New("key not found")
	ErrKeyNotFoundAndNoEmptySlots = errors.New("key not found and no empty slots")
	// ErrZeroHashValue reports that a hash collided with the sentinel used
	// for an empty slot; zero never becomes a retained entry.
	ErrZeroHashValue    = errors.New("zero hash value")
	ErrHashExceedsTheta = errors.New("hash exceeds theta")
)

// Hashtable is an open-addressed cache of 64-bit hashes below theta. It
// implements the QuickSelect probing scheme: growth in place up to
// lgNomSize+1, then rebuild-by-quickselect on further load-factor breach.
type Hashtable struct {
	entries    []uint64
	theta      uint64
	seed       uint64
	hasher     hash.Hasher
	numEntries uint32
	p          float32
	lgCurSize  uint8
	lgNomSize  uint8
	rf         ResizeFactor
	isEmpty    bool

	// view, when non-nil, is the caller-supplied backing region a direct
	// sketch mirrors every mutation into; see NewDirectHashtable.
	view memory.View
}

// NewHashtable creates a new hash table. hasher selects the injected hash
// function H; passing nil defaults to MurmurHash3.
func NewHashtable(lgCurSize, lgNomSize uint8, rf ResizeFactor, p float32, theta, seed uint64, isEmpty bool, hasher hash.Hasher) *Hashtable {
	if hasher == nil {
		hasher = hash.Murmur3{}
	}
	t := &Hashtable{
		isEmpty:    isEmpty,
		lgCurSize:  lgCurSize,
		lgNomSize:  lgNomSize,
		rf:         rf,
		p:          p,
		numEntries: 0,
		theta:      theta,
		seed:       seed,
		hasher:     hasher,
	}
	if lgCurSize > 0 {
		t.entries = make([]uint64, 1<<lgCurSize)
	}
	return t
}

// NewDirectHashtable creates a hash table that mirrors every mutating
// operation into view, a caller-supplied backing region. view must be at
// least MaxUpdateSketchBytes(lgNomSize) bytes: large enough to hold the
// table at its largest possible in-place size (2^(lgNomSize+1) slots) before a
// rebuild would otherwise be needed. The table's own entries slice remains
// a native Go []uint64 so the existing probe/resize/rebuild logic is
// unchanged; view only ever receives a write-through copy of that state.
func NewDirectHashtable(view memory.View, lgCurSize, lgNomSize uint8, rf ResizeFactor, p float32, theta, seed uint64, isEmpty bool, hasher hash.Hasher) (*Hashtable, error) {
	required := MaxUpdateSketchBytes(lgNomSize)
	if view.Capacity() < required {
		return nil, memory.NewArgumentError("view.Capacity()", fmt.Sprintf("at least %d bytes", required), view.Capacity())
	}
	t := NewHashtable(lgCurSize, lgNomSize, rf, p, theta, seed, isEmpty, hasher)
	t.view = view
	t.writeThrough()
	return t, nil
}

// writeThrough mirrors the table's current logical entries into its direct
// backing region, zero-padding the remainder; a table with no view is a
// no-op. Errors are impossible in practice since NewDirectHashtable already
// validated view has room for the table's largest possible size, but are
// swallowed defensively rather than changing this method's signature.
func (t *Hashtable) writeThrough() {
	if t.view == nil {
		return
	}
	slots := t.view.Capacity() / 8
	for i := 0; i < slots; i++ {
		var v uint64
		if i < len(t.entries) {
			v = t.entries[i]
		}
		_ = t.view.PutLong(i*8, v)
	}
}

// Copy creates a deep copy of the table. The copy is always heap-backed:
// two independent tables must never alias the same direct region.
func (t *Hashtable) Copy() *Hashtable {
	c := &Hashtable{
		isEmpty:    t.isEmpty,
		lgCurSize:  t.lgCurSize,
		lgNomSize:  t.lgNomSize,
		rf:         t.rf,
		p:          t.p,
		numEntries: t.numEntries,
		theta:      t.theta,
		seed:       t.seed,
		hasher:     t.hasher,
	}
	if t.entries != nil {
		c.entries = make([]uint64, len(t.entries))
		copy(c.entries, t.entries)
	}
	return c
}

func (t *Hashtable) screen(h1 uint64) (uint64, error) {
	t.isEmpty = false
	h := h1 >> 1
	if h == 0 {
		return 0, ErrZeroHashValue
	}
	if h >= t.theta {
		return 0, ErrHashExceedsTheta
	}
	return h, nil
}

// HashStringAndScreen hashes a string and checks it against theta.
func (t *Hashtable) HashStringAndScreen(data string) (uint64, error) {
	return t.screen(t.hasher.HashBytes([]byte(data), t.seed))
}

// HashBytesAndScreen hashes a byte slice and checks it against theta.
func (t *Hashtable) HashBytesAndScreen(data []byte) (uint64, error) {
	return t.screen(t.hasher.HashBytes(data, t.seed))
}

// HashUint64AndScreen hashes the little-endian bytes of a uint64 value and
// checks it against theta.
func (t *Hashtable) HashUint64AndScreen(data uint64) (uint64, error) {
	return t.screen(hash.HashUint64(t.hasher, data, t.seed))
}

// HashInt64AndScreen hashes the little-endian bytes of an int64 value and
// checks it against theta.
func (t *Hashtable) HashInt64AndScreen(data int64) (uint64, error) {
	return t.HashUint64AndScreen(uint64(data))
}

// HashInt32AndScreen hashes the little-endian bytes of an int32 value and
// checks it against theta.
func (t *Hashtable) HashInt32AndScreen(data int32) (uint64, error) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(data))
	return t.screen(t.hasher.HashBytes(b[:], t.seed))
}

// Find searches for key and returns its index, or an error if absent.
func (t *Hashtable) Find(key uint64) (int, error) {
	return find(t.entries, t.lgCurSize, key)
}

func find(entries []uint64, lgSize uint8, key uint64) (int, error) {
	size := uint32(1 << lgSize)
	mask := size - 1
	stride := computeStride(key, lgSize)
	index := uint32(key) & mask

	loopIndex := index
	for {
		probe := entries[index]
		if probe == 0 {
			return int(index), ErrKeyNotFound
		} else if probe == key {
			return int(index), nil
		}

		index = (index + stride) & mask
		if index == loopIndex {
			return 0, ErrKeyNotFoundAndNoEmptySlots
		}
	}
}

// computeStride returns an odd stride derived from bits above the index,
// so probing sequences are independent of the low bits used for indexing.
func computeStride(key uint64, lgSize uint8) uint32 {
	return (2 * uint32((key>>lgSize)&strideMask)) + 1
}

// Insert places entry at index, growing or rebuilding the table if the
// resulting occupancy breaches its load-factor threshold.
func (t *Hashtable) Insert(index int, entry uint64) {
	t.entries[index] = entry
	t.numEntries++

	if t.numEntries > computeCapacity(t.lgCurSize, t.lgNomSize) {
		if t.lgCurSize <= t.lgNomSize {
			t.resize()
		} else {
			t.rebuild()
		}
	}
	t.writeThrough()
}

func computeCapacity(lgCurSize, lgNomSize uint8) uint32 {
	fraction := rebuildThreshold
	if lgCurSize <= lgNomSize {
		fraction = resizeThreshold
	}
	return uint32(math.Floor(fraction * float64(uint32(1)<<lgCurSize)))
}

func (t *Hashtable) resize() {
	oldSize := 1 << t.lgCurSize
	lgNewSize := min(t.lgCurSize+t.rf.lgSteps(), t.lgNomSize+1)
	newEntries := make([]uint64, 1<<lgNewSize)

	for i := 0; i < oldSize; i++ {
		key := t.entries[i]
		if key != 0 {
			index, _ := find(newEntries, lgNewSize, key)
			newEntries[index] = key
		}
	}

	t.entries = newEntries
	t.lgCurSize = lgNewSize
}

func (t *Hashtable) rebuild() {
	size := 1 << t.lgCurSize
	nominalSize := 1 << t.lgNomSize

	consolidateNonEmpty(t.entries, size, int(t.numEntries))

	quickselect.Select(t.entries[:t.numEntries], 0, int(t.numEntries)-1, nominalSize)
	t.theta = t.entries[nominalSize]

	oldEntries := t.entries
	t.entries = make([]uint64, size)
	t.numEntries = uint32(nominalSize)

	for i := 0; i < nominalSize; i++ {
		index, _ := find(t.entries, t.lgCurSize, oldEntries[i])
		t.entries[index] = oldEntries[i]
	}
}

// Trim rebuilds down to nominal size if the table currently holds more.
func (t *Hashtable) Trim() {
	if t.numEntries > uint32(1<<t.lgNomSize) {
		t.rebuild()
		t.writeThrough()
	}
}

// Reset clears all entries and restores the starting theta for p.
func (t *Hashtable) Reset() {
	startingLgSize := startingSubMultiple(t.lgNomSize+1, MinLgNomLongs, t.rf.lgSteps())

	if startingLgSize != t.lgCurSize {
		t.lgCurSize = startingLgSize
		t.entries = make([]uint64, 1<<startingLgSize)
	} else {
		for i := range t.entries {
			t.entries[i] = 0
		}
	}

	t.numEntries = 0
	t.theta = startingThetaFromP(t.p)
	t.isEmpty = true
	t.writeThrough()
}

// lgSizeFromCount picks the smallest table size (as a power-of-two log2)
// that holds n entries without breaching loadFactor.
func lgSizeFromCount(n uint32, loadFactor float64) uint8 {
	lgN := log2Floor(n)
	powerOfTwo := uint32(1) << (lgN + 1)
	threshold := uint32(float64(powerOfTwo) * loadFactor)
	if n > threshold {
		return lgN + 2
	}
	return lgN + 1
}

func log2Floor(n uint32) uint8 {
	if n == 0 {
		return 0
	}
	return uint8(bits.Len32(n) - 1)
}

func consolidateNonEmpty(entries []uint64, size, num int) {
	i := 0
	for i < size && entries[i] != 0 {
		i++
	}

	for j := i + 1; j < size; j++ {
		if entries[j] != 0 {
			entries[i] = entries[j]
			entries[j] = 0
			i++
			if i == num {
				break
			}
		}
	}
}
