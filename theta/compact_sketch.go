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
	"iter"
	"slices"
	"strings"

	"github.com/prattrs/sketches-core/internal/binomialbounds"
	"github.com/prattrs/sketches-core/internal/family"
)

// SerialVersion is the only compact-image version the core accepts on
// decode; anything else is a decode-time ARGUMENT error (see decoder.go).
const SerialVersion = 3

// compactSketchType is the family-id byte every image of this core's
// theta sketches carries: the core never persists the mutable
// update-sketch form, so compact is the only family value an image can
// contain.
var compactSketchType = uint8(family.Compact.ID)

// Serialization flag bit positions, matching the shared preamble layout.
const (
	flagIsBigEndian uint8 = iota
	flagIsReadOnly
	flagIsEmpty
	flagIsCompact
	flagIsOrdered
)

// CompactSketch is the immutable, densely packed form of a theta sketch: a
// self-contained byte image or its in-memory equivalent. It never accepts
// further updates.
type CompactSketch struct {
	entries   []uint64
	theta     uint64
	seedHash  uint16
	isEmpty   bool
	isOrdered bool
}

// NewCompactSketch packs source's retained hashes into a new CompactSketch,
// sorting them ascending iff ordered.
func NewCompactSketch(source Sketch, ordered bool) *CompactSketch {
	isEmpty := source.IsEmpty()
	sourceOrdered := source.IsOrdered()
	seedHash, _ := source.SeedHash()
	theta := source.Theta64()

	var entries []uint64
	if !isEmpty {
		for entry := range source.All() {
			entries = append(entries, entry)
		}
		if ordered && !sourceOrdered {
			slices.Sort(entries)
		}
	}

	return &CompactSketch{
		isEmpty:   isEmpty,
		isOrdered: sourceOrdered || ordered,
		seedHash:  seedHash,
		theta:     theta,
		entries:   entries,
	}
}

func newCompactSketchFromEntries(isEmpty, isOrdered bool, seedHash uint16, theta uint64, entries []uint64) *CompactSketch {
	if len(entries) <= 1 {
		isOrdered = true
	}
	return &CompactSketch{
		isEmpty:   isEmpty,
		isOrdered: isOrdered,
		seedHash:  seedHash,
		theta:     theta,
		entries:   entries,
	}
}

func (s *CompactSketch) IsEmpty() bool   { return s.isEmpty }
func (s *CompactSketch) IsOrdered() bool { return s.isOrdered }
func (s *CompactSketch) Theta64() uint64 { return s.theta }

func (s *CompactSketch) NumRetained() uint32 { return uint32(len(s.entries)) }

func (s *CompactSketch) SeedHash() (uint16, error) { return s.seedHash, nil }

func (s *CompactSketch) Estimate() float64 {
	return float64(s.NumRetained()) / s.Theta()
}

func (s *CompactSketch) LowerBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(len(s.entries)), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *CompactSketch) UpperBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(len(s.entries)), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *CompactSketch) IsEstimationMode() bool {
	return s.Theta64() < MaxTheta && !s.isEmpty
}

func (s *CompactSketch) Theta() float64 {
	return float64(s.Theta64()) / float64(MaxTheta)
}

func (s *CompactSketch) String(shouldPrintItems bool) string {
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
	result.WriteString("### End sketch summary\n")

	if shouldPrintItems {
		result.WriteString("### Retained entries\n")
		for entry := range s.All() {
			result.WriteString(fmt.Sprintf("%d\n", entry))
		}
		result.WriteString("### End retained entries\n")
	}

	return result.String()
}

// All returns hash values in the sketch, in storage order.
func (s *CompactSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, entry := range s.entries {
			if !yield(entry) {
				return
			}
		}
	}
}

// MarshalBinary implements encoding.BinaryMarshaler, producing the current
// serial-version, uncompressed compact image.
func (s *CompactSketch) MarshalBinary() ([]byte, error) {
	return EncodeCompact(s)
}

func (s *CompactSketch) preambleLongs() uint8 {
	if s.IsEstimationMode() {
		return 3
	}
	if s.isEmpty || len(s.entries) == 1 {
		return 1
	}
	return 2
}

// MaxSerializedSizeBytes computes the largest possible image size for an
// update sketch of the given lgNomLongs once compacted.
func MaxSerializedSizeBytes(lgNomLongs uint8) int {
	capacity := computeCapacity(lgNomLongs+1, lgNomLongs)
	return 8 * (3 + int(capacity))
}

// SerializedSizeBytes computes the exact byte size of this sketch's
// uncompressed compact image.
func (s *CompactSketch) SerializedSizeBytes() int {
	return int(s.preambleLongs())*8 + len(s.entries)*8
}
