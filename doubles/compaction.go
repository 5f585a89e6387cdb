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

import "sort"

// compact folds a full base buffer (2k items) into the level cascade.
// The buffer is sorted and halved into k items; if level 0 is already
// populated, the two k-item arrays are merged and halved again, and the
// carry propagates up exactly like a binary counter incrementing by one
// — bitPattern literally tracks floor(N / 2k), one bit per level.
func (s *UpdateDoublesSketch) compact() {
	s.acc.SetLevel(0)
	base := s.acc.GetArray(0, s.acc.NumItems())
	sort.Float64s(base)
	buf := s.halve(base)

	lvl := 0
	for lvl < s.acc.NumLevels() && s.bitPattern&(1<<uint(lvl)) != 0 {
		s.acc.SetLevel(lvl + 1)
		existing := s.acc.GetArray(0, s.acc.NumItems())
		merged := mergeSorted(buf, existing)
		buf = s.halve(merged)
		s.acc.ClearLevel(lvl)
		s.bitPattern &^= 1 << uint(lvl)
		lvl++
	}

	s.acc.ReplaceLevel(lvl, buf)
	s.bitPattern |= 1 << uint(lvl)
	s.acc.ResetBase()
}

// mergeSorted merges two ascending slices into one ascending slice.
func mergeSorted(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}

// halve retains every other element of a sorted, even-length slice,
// starting at a coin-flip offset, producing a sorted half-length slice.
// The coin flip must come from the sketch-local PRNG: it is the source
// of the sketch's unbiasedness, and a fixed choice would skew ranks.
func (s *UpdateDoublesSketch) halve(merged []float64) []float64 {
	offset := s.rng.NextBit()
	out := make([]float64, len(merged)/2)
	for i := range out {
		out[i] = merged[offset+2*i]
	}
	return out
}
