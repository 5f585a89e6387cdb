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
	"strings"

	"github.com/prattrs/sketches-core/internal/binomialbounds"
	"github.com/prattrs/sketches-core/internal/hash"
	"github.com/prattrs/sketches-core/memory"
)

// WrappedCompactSketch offers read-only access to a compact image without
// copying its entries into a Go slice; query methods read straight through
// the backing View.
type WrappedCompactSketch struct {
	view          memory.View
	theta         uint64
	entriesStart  int
	numEntries    uint32
	seedHash      uint16
	isEmpty       bool
	isOrdered     bool
}

// WrapCompactSketch wraps raw as a read-only view over a serial-version-3
// compact image, validating it against seed using hasher (nil defaults to
// MurmurHash3).
func WrapCompactSketch(raw []byte, seed uint64, hasher hash.Hasher) (*WrappedCompactSketch, error) {
	sketch, err := DecodeCompact(raw, seed, hasher)
	if err != nil {
		return nil, err
	}

	view := memory.NewReadOnlyView(memory.WrapHeap(raw))
	w := &WrappedCompactSketch{
		view:         view,
		theta:        sketch.theta,
		numEntries:   uint32(len(sketch.entries)),
		seedHash:     sketch.seedHash,
		isEmpty:      sketch.isEmpty,
		isOrdered:    sketch.isOrdered,
		entriesStart: 0,
	}

	preLongs, err := view.GetByte(0)
	if err != nil {
		return nil, err
	}
	switch {
	case sketch.isEmpty:
		w.entriesStart = 8
	case preLongs == 1:
		w.entriesStart = 8
	case preLongs > 2:
		w.entriesStart = 24
	default:
		w.entriesStart = 16
	}

	return w, nil
}

func (s *WrappedCompactSketch) IsEmpty() bool   { return s.isEmpty }
func (s *WrappedCompactSketch) IsOrdered() bool { return s.isOrdered }
func (s *WrappedCompactSketch) Theta64() uint64 { return s.theta }

func (s *WrappedCompactSketch) NumRetained() uint32 { return s.numEntries }

func (s *WrappedCompactSketch) SeedHash() (uint16, error) { return s.seedHash, nil }

func (s *WrappedCompactSketch) Theta() float64 {
	return float64(s.Theta64()) / float64(MaxTheta)
}

func (s *WrappedCompactSketch) IsEstimationMode() bool {
	return s.Theta64() < MaxTheta && !s.isEmpty
}

func (s *WrappedCompactSketch) Estimate() float64 {
	return float64(s.NumRetained()) / s.Theta()
}

func (s *WrappedCompactSketch) LowerBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

func (s *WrappedCompactSketch) UpperBound(numStdDevs uint8) (float64, error) {
	if !s.IsEstimationMode() {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), s.Theta(), uint(numStdDevs))
}

// All lazily reads retained hashes straight out of the backing view.
func (s *WrappedCompactSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for i := uint32(0); i < s.numEntries; i++ {
			entry, err := s.view.GetLong(s.entriesStart + int(i)*8)
			if err != nil {
				return
			}
			if !yield(entry) {
				return
			}
		}
	}
}

func (s *WrappedCompactSketch) String(shouldPrintItems bool) string {
	var sb strings.Builder

	seedHash, _ := s.SeedHash()
	lb, _ := s.LowerBound(2)
	ub, _ := s.UpperBound(2)

	sb.WriteString("### Theta sketch summary:\n")
	sb.WriteString(fmt.Sprintf("   num retained entries : %d\n", s.NumRetained()))
	sb.WriteString(fmt.Sprintf("   seed hash            : %d\n", seedHash))
	sb.WriteString(fmt.Sprintf("   empty?               : %t\n", s.IsEmpty()))
	sb.WriteString(fmt.Sprintf("   ordered?             : %t\n", s.IsOrdered()))
	sb.WriteString(fmt.Sprintf("   estimation mode?     : %t\n", s.IsEstimationMode()))
	sb.WriteString(fmt.Sprintf("   theta (fraction)     : %g\n", s.Theta()))
	sb.WriteString(fmt.Sprintf("   theta (raw 64-bit)   : %d\n", s.Theta64()))
	sb.WriteString(fmt.Sprintf("   estimate             : %g\n", s.Estimate()))
	sb.WriteString(fmt.Sprintf("   lower bound 95%% conf : %g\n", lb))
	sb.WriteString(fmt.Sprintf("   upper bound 95%% conf : %g\n", ub))
	sb.WriteString("### End sketch summary\n")

	if shouldPrintItems {
		sb.WriteString("### Retained entries\n")
		for entry := range s.All() {
			sb.WriteString(fmt.Sprintf("%d\n", entry))
		}
		sb.WriteString("### End retained entries\n")
	}

	return sb.String()
}
