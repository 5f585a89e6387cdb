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
	"strings"

	"github.com/prattrs/sketches-core/common"
	"github.com/prattrs/sketches-core/internal/prng"
)

// UpdateDoublesSketch is a mutable quantiles sketch. Items are appended
// to an unsorted base buffer; once the buffer fills to 2k, compact folds
// it into the level cascade.
type UpdateDoublesSketch struct {
	k          int
	seed       int64
	n          uint64
	minValue   float64
	maxValue   float64
	baseBuffer []float64
	levels     [][]float64 // levels[i] is level i; nil until populated
	bitPattern uint64
	rng        *prng.Source
	acc        *sliceAccessor
}

type sketchOptions struct {
	k    int
	seed int64
}

// SketchOptionFunc configures an UpdateDoublesSketch at construction time.
type SketchOptionFunc func(*sketchOptions)

// WithK sets the accuracy parameter. k must be even and within
// [MinK, MaxK]; larger k gives finer quantile error.
func WithK(k int) SketchOptionFunc {
	return func(o *sketchOptions) { o.k = k }
}

// WithSeed seeds the sketch-local compaction PRNG. Tests that need
// deterministic, repeatable compaction decisions should set this
// explicitly; production callers can leave the default.
func WithSeed(seed int64) SketchOptionFunc {
	return func(o *sketchOptions) { o.seed = seed }
}

// NewUpdateDoublesSketch builds an empty update-form sketch from options.
func NewUpdateDoublesSketch(opts ...SketchOptionFunc) (*UpdateDoublesSketch, error) {
	options := &sketchOptions{k: DefaultK, seed: DefaultSeed}
	for _, opt := range opts {
		opt(options)
	}
	if err := checkK(options.k); err != nil {
		return nil, err
	}
	s := &UpdateDoublesSketch{
		k:        options.k,
		seed:     options.seed,
		minValue: math.Inf(1),
		maxValue: math.Inf(-1),
		rng:      prng.New(options.seed),
	}
	s.acc = newSliceAccessor(&s.baseBuffer, &s.levels)
	return s, nil
}

func checkK(k int) error {
	if k < MinK || k > MaxK {
		return fmt.Errorf("k must be between %d and %d: %d", MinK, MaxK, k)
	}
	if k%2 != 0 {
		return fmt.Errorf("k must be even: %d", k)
	}
	return nil
}

// K returns the configured accuracy parameter.
func (s *UpdateDoublesSketch) K() int { return s.k }

// N returns the total number of items ever inserted.
func (s *UpdateDoublesSketch) N() uint64 { return s.n }

// IsEmpty reports whether the sketch has never been updated.
func (s *UpdateDoublesSketch) IsEmpty() bool { return s.n == 0 }

// MinValue returns the smallest item seen, or +Inf if empty.
func (s *UpdateDoublesSketch) MinValue() float64 {
	if s.IsEmpty() {
		return math.Inf(1)
	}
	return s.minValue
}

// MaxValue returns the largest item seen, or -Inf if empty.
func (s *UpdateDoublesSketch) MaxValue() float64 {
	if s.IsEmpty() {
		return math.Inf(-1)
	}
	return s.maxValue
}

// NumRetained returns the count of items currently held in the base
// buffer and populated levels.
func (s *UpdateDoublesSketch) NumRetained() int {
	s.acc.SetLevel(0)
	count := s.acc.NumItems()
	for lvl := 0; lvl < s.acc.NumLevels(); lvl++ {
		s.acc.SetLevel(lvl + 1)
		count += s.acc.NumItems()
	}
	return count
}

// Update inserts x into the sketch, folding the base buffer into the
// level cascade once it fills.
func (s *UpdateDoublesSketch) Update(x float64) error {
	if math.IsNaN(x) {
		return ErrNaN
	}
	s.minValue = common.MinOf(s.minValue, x)
	s.maxValue = common.MaxOf(s.maxValue, x)
	s.acc.AppendBase(x)
	s.n++
	s.acc.SetLevel(0)
	if s.acc.NumItems() == 2*s.k {
		s.compact()
	}
	return nil
}

// String renders a human-readable summary, optionally including every
// retained item.
func (s *UpdateDoublesSketch) String(shouldPrintItems bool) string {
	var result strings.Builder
	result.WriteString("### Doubles sketch summary:\n")
	result.WriteString(fmt.Sprintf("   k                    : %d\n", s.k))
	result.WriteString(fmt.Sprintf("   n                    : %d\n", s.n))
	result.WriteString(fmt.Sprintf("   num retained entries : %d\n", s.NumRetained()))
	result.WriteString(fmt.Sprintf("   empty?               : %t\n", s.IsEmpty()))
	result.WriteString(fmt.Sprintf("   min value            : %v\n", s.MinValue()))
	result.WriteString(fmt.Sprintf("   max value            : %v\n", s.MaxValue()))
	result.WriteString(fmt.Sprintf("   bit pattern          : %b\n", s.bitPattern))
	result.WriteString("### End sketch summary\n")

	if shouldPrintItems {
		result.WriteString("### Retained entries\n")
		s.acc.SetLevel(0)
		for i := 0; i < s.acc.NumItems(); i++ {
			result.WriteString(fmt.Sprintf("%v\n", s.acc.Get(i)))
		}
		for lvl := 0; lvl < s.acc.NumLevels(); lvl++ {
			s.acc.SetLevel(lvl + 1)
			for i := 0; i < s.acc.NumItems(); i++ {
				result.WriteString(fmt.Sprintf("%v\n", s.acc.Get(i)))
			}
		}
		result.WriteString("### End retained entries\n")
	}

	return result.String()
}
