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
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/prattrs/sketches-core/internal/binomialbounds"
	"github.com/prattrs/sketches-core/internal/hash"
	"github.com/prattrs/sketches-core/memory"
)

var (
	ErrUpdateEmptyString = errors.New("cannot update empty string")
	ErrDuplicateKey      = errors.New("duplicate key")
)

// QuickSelectUpdateSketch is a mutable, update-form theta sketch built
// incrementally via its Update* methods. It owns a Hashtable and never
// reverts to a compact (read-only) role.
type QuickSelectUpdateSketch struct {
	table *Hashtable
}

type updateSketchOptions struct {
	theta      uint64
	seed       uint64
	p          float32
	lgCurSize  uint8
	lgNomLongs uint8
	rf         ResizeFactor
	hasher     hash.Hasher
	view       memory.View
}

type UpdateSketchOptionFunc func(*updateSketchOptions)

// WithUpdateSketchLgNomLongs sets log2(nomEntries), the accuracy parameter.
func WithUpdateSketchLgNomLongs(lgNomLongs uint8) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) { opts.lgNomLongs = lgNomLongs }
}

// WithUpdateSketchResizeFactor sets the in-place growth step (default X8).
func WithUpdateSketchResizeFactor(rf ResizeFactor) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) { opts.rf = rf }
}

// WithUpdateSketchP sets the up-front sampling probability (initial theta).
// The default of 1 retains every item until the sketch fills, at which
// point it enters estimation mode and lowers theta as needed.
func WithUpdateSketchP(p float32) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) { opts.p = p }
}

// WithUpdateSketchSeed sets the hash seed. Sketches built with different
// seeds cannot be mixed in set operations.
func WithUpdateSketchSeed(seed uint64) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) { opts.seed = seed }
}

// WithUpdateSketchHasher overrides the injected hash function H. The
// default is MurmurHash3 x64-128, keeping its first 64 bits.
func WithUpdateSketchHasher(h hash.Hasher) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) { opts.hasher = h }
}

// WithUpdateSketchInitMemory supplies a backing region for a direct
// (off-heap) sketch: every mutation the sketch makes is mirrored into view
// in place. view must be at least MaxUpdateSketchBytes(lgNomLongs) bytes
// for the lgNomLongs this builder ultimately uses; NewQuickSelectUpdateSketch
// rejects an undersized view rather than silently falling back to heap.
func WithUpdateSketchInitMemory(view memory.View) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) { opts.view = view }
}

// NewQuickSelectUpdateSketch builds an empty update sketch from options.
func NewQuickSelectUpdateSketch(opts ...UpdateSketchOptionFunc) (*QuickSelectUpdateSketch, error) {
	options := &updateSketchOptions{
		lgNomLongs: DefaultLgNomLongs,
		rf:         DefaultResizeFactor,
		p:          1.0,
		seed:       DefaultSeed,
		hasher:     hash.Murmur3{},
	}
	for _, opt := range opts {
		opt(options)
	}

	if options.lgNomLongs < MinLgNomLongs {
		return nil, fmt.Errorf("lgNomLongs must not be less than %d: %d", MinLgNomLongs, options.lgNomLongs)
	}
	if options.lgNomLongs > MaxLgNomLongs {
		return nil, fmt.Errorf("lgNomLongs must not be greater than %d: %d", MaxLgNomLongs, options.lgNomLongs)
	}
	if options.p <= 0 || options.p > 1 {
		return nil, errors.New("sampling probability must be between 0 and 1")
	}

	options.lgCurSize = startingSubMultiple(options.lgNomLongs+1, MinLgNomLongs, options.rf.lgSteps())
	options.theta = startingThetaFromP(options.p)

	if options.view != nil {
		table, err := NewDirectHashtable(
			options.view, options.lgCurSize, options.lgNomLongs, options.rf, options.p, options.theta, options.seed, true, options.hasher,
		)
		if err != nil {
			return nil, err
		}
		return &QuickSelectUpdateSketch{table: table}, nil
	}

	return &QuickSelectUpdateSketch{
		table: NewHashtable(
			options.lgCurSize, options.lgNomLongs, options.rf, options.p, options.theta, options.seed, true, options.hasher,
		),
	}, nil
}

func (s *QuickSelectUpdateSketch) IsEmpty() bool { return s.table.isEmpty }

// IsOrdered reports whether retained entries happen to be ordered; an
// update sketch with at most one entry trivially is.
func (s *QuickSelectUpdateSketch) IsOrdered() bool { return s.table.numEntries <= 1 }

func (s *QuickSelectUpdateSketch) Theta64() uint64 {
	if s.IsEmpty() {
		return MaxTheta
	}
	return s.table.theta
}

func (s *QuickSelectUpdateSketch) NumRetained() uint32 { return s.table.numEntries }

func (s *QuickSelectUpdateSketch) SeedHash() (uint16, error) {
	return hash.ComputeSeedHash(s.table.hasher, s.table.seed)
}

func (s *QuickSelectUpdateSketch) Estimate() float64 {
	return float64(s.NumRetained()) / s.Theta()
}

func (s *QuickSelectUpdateSketch) LowerBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *QuickSelectUpdateSketch) UpperBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *QuickSelectUpdateSketch) IsEstimationMode() bool {
	return s.Theta64() < MaxTheta && !s.IsEmpty()
}

func (s *QuickSelectUpdateSketch) Theta() float64 {
	return float64(s.Theta64()) / float64(MaxTheta)
}

func (s *QuickSelectUpdateSketch) String(shouldPrintItems bool) string {
	seedHash, _ := s.SeedHash()
	lb, _ := s.LowerBound(2)
	ub, _ := s.UpperBound(2)

	var result strings.Builder
	result.WriteString("### Theta sketch summary:\n")
	result.WriteString(fmt.Sprintf("   num retained entries : %d\n", s.NumRetained()))
	result.WriteString(fmt.Sprintf("   seed hash            : %d\n", seedHash))
	result.WriteString(fmt.Sprintf("   empty?               : %t\n", s.IsEmpty()))
	result.WriteString(fmt.Sprintf("   ordered?             : %t\n", s.IsOrdered()))
	result.WriteString(fmt.Sprintf("   estimation mode?     : %t\n", s.IsEstimationMode()))
	result.WriteString(fmt.Sprintf("   theta (fraction)     : %f\n", s.Theta()))
	result.WriteString(fmt.Sprintf("   theta (raw 64-bit)   : %d\n", s.Theta64()))
	result.WriteString(fmt.Sprintf("   estimate             : %f\n", s.Estimate()))
	result.WriteString(fmt.Sprintf("   lower bound 95%% conf : %f\n", lb))
	result.WriteString(fmt.Sprintf("   upper bound 95%% conf : %f\n", ub))
	result.WriteString(fmt.Sprintf("   lg nominal longs     : %d\n", s.LgNomLongs()))
	result.WriteString(fmt.Sprintf("   lg current size      : %d\n", s.table.lgCurSize))
	result.WriteString(fmt.Sprintf("   resize factor        : %d\n", 1<<s.ResizeFactor()))
	result.WriteString("### End sketch summary\n")

	if shouldPrintItems {
		result.WriteString("### Retained entries\n")
		for h := range s.All() {
			result.WriteString(fmt.Sprintf("%d\n", h))
		}
		result.WriteString("### End retained entries\n")
	}

	return result.String()
}

// LgNomLongs returns the configured log2 nominal capacity.
func (s *QuickSelectUpdateSketch) LgNomLongs() uint8 { return s.table.lgNomSize }

func (s *QuickSelectUpdateSketch) ResizeFactor() ResizeFactor { return s.table.rf }

func (s *QuickSelectUpdateSketch) insert(h uint64) error {
	index, err := s.table.Find(h)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			s.table.Insert(index, h)
			return nil
		}
		return err
	}
	return ErrDuplicateKey
}

// UpdateUint64 updates the sketch with an unsigned 64-bit integer.
func (s *QuickSelectUpdateSketch) UpdateUint64(value uint64) error {
	h, err := s.table.HashUint64AndScreen(value)
	if err != nil {
		return err
	}
	return s.insert(h)
}

// UpdateInt64 updates the sketch with a signed 64-bit integer.
func (s *QuickSelectUpdateSketch) UpdateInt64(value int64) error {
	h, err := s.table.HashInt64AndScreen(value)
	if err != nil {
		return err
	}
	return s.insert(h)
}

// UpdateUint32 updates the sketch with an unsigned 32-bit integer.
func (s *QuickSelectUpdateSketch) UpdateUint32(value uint32) error {
	return s.UpdateInt64(int64(value))
}

// UpdateInt32 updates the sketch with a signed 32-bit integer.
func (s *QuickSelectUpdateSketch) UpdateInt32(value int32) error {
	h, err := s.table.HashInt32AndScreen(value)
	if err != nil {
		return err
	}
	return s.insert(h)
}

// UpdateUint16 updates the sketch with an unsigned 16-bit integer.
func (s *QuickSelectUpdateSketch) UpdateUint16(value uint16) error {
	return s.UpdateInt32(int32(value))
}

// UpdateInt16 updates the sketch with a signed 16-bit integer.
func (s *QuickSelectUpdateSketch) UpdateInt16(value int16) error {
	return s.UpdateInt32(int32(value))
}

// UpdateUint8 updates the sketch with an unsigned 8-bit integer.
func (s *QuickSelectUpdateSketch) UpdateUint8(value uint8) error {
	return s.UpdateInt32(int32(value))
}

// UpdateInt8 updates the sketch with a signed 8-bit integer.
func (s *QuickSelectUpdateSketch) UpdateInt8(value int8) error {
	return s.UpdateInt32(int32(value))
}

// UpdateFloat64 updates the sketch with a double-precision value.
func (s *QuickSelectUpdateSketch) UpdateFloat64(value float64) error {
	return s.UpdateInt64(canonicalDouble(value))
}

// canonicalDouble normalizes -0.0 to 0.0 and NaN to a single bit pattern so
// that two bitwise-different NaNs hash identically.
func canonicalDouble(value float64) int64 {
	if value == 0.0 {
		value = 0.0
	} else if math.IsNaN(value) {
		return 0x7ff8000000000000
	}
	return int64(math.Float64bits(value))
}

// UpdateFloat32 updates the sketch with a single-precision value.
func (s *QuickSelectUpdateSketch) UpdateFloat32(value float32) error {
	return s.UpdateFloat64(float64(value))
}

// UpdateString updates the sketch with a string. An empty string is
// rejected rather than silently hashed, since it is rarely meant as data.
func (s *QuickSelectUpdateSketch) UpdateString(value string) error {
	if value == "" {
		return ErrUpdateEmptyString
	}
	h, err := s.table.HashStringAndScreen(value)
	if err != nil {
		return err
	}
	return s.insert(h)
}

// UpdateBytes updates the sketch with an arbitrary byte slice.
func (s *QuickSelectUpdateSketch) UpdateBytes(data []byte) error {
	h, err := s.table.HashBytesAndScreen(data)
	if err != nil {
		return err
	}
	return s.insert(h)
}

// Trim rebuilds down to nominal size if the table currently holds more.
func (s *QuickSelectUpdateSketch) Trim() { s.table.Trim() }

// Reset restores the sketch to its initial empty state.
func (s *QuickSelectUpdateSketch) Reset() { s.table.Reset() }

// All returns an iterator over every retained hash.
func (s *QuickSelectUpdateSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, entry := range s.table.entries {
			if entry != 0 {
				if !yield(entry) {
					return
				}
			}
		}
	}
}

// Compact packs retained hashes into a read-only image, sorting them
// ascending iff ordered.
func (s *QuickSelectUpdateSketch) Compact(ordered bool) *CompactSketch {
	return NewCompactSketch(s, ordered)
}

// CompactOrdered is Compact(true).
func (s *QuickSelectUpdateSketch) CompactOrdered() *CompactSketch {
	return s.Compact(true)
}
