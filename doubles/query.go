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
	"math"
	"sort"

	"github.com/prattrs/sketches-core/common"
	"github.com/prattrs/sketches-core/internal/search"
)

// weightedItem is one retained value together with the number of
// original stream items it represents. Base-buffer items carry weight
// 1; items in level i (0-indexed) carry weight 2^(i+1), since each fold
// halves a population that doubles at every carry.
type weightedItem struct {
	value  float64
	weight uint64
}

func (s *UpdateDoublesSketch) weightedItems() []weightedItem {
	items := make([]weightedItem, 0, s.NumRetained())
	s.acc.SetLevel(0)
	for i := 0; i < s.acc.NumItems(); i++ {
		items = append(items, weightedItem{value: s.acc.Get(i), weight: 1})
	}
	for lvl := 0; lvl < s.acc.NumLevels(); lvl++ {
		s.acc.SetLevel(lvl + 1)
		if s.acc.NumItems() == 0 {
			continue
		}
		w := uint64(1) << uint(lvl+1)
		for i := 0; i < s.acc.NumItems(); i++ {
			items = append(items, weightedItem{value: s.acc.Get(i), weight: w})
		}
	}
	less := common.ItemSketchDoubleComparator(false)
	sort.Slice(items, func(a, b int) bool { return less(items[a].value, items[b].value) })
	return items
}

// GetRank returns the fraction of inserted items less than or equal to
// v, approximated by weighting each retained item by how many stream
// items it represents.
func (s *UpdateDoublesSketch) GetRank(v float64) (float64, error) {
	if math.IsNaN(v) {
		return 0, ErrNaN
	}
	if s.IsEmpty() {
		return math.NaN(), nil
	}

	var weight uint64
	s.acc.SetLevel(0)
	for i := 0; i < s.acc.NumItems(); i++ {
		if s.acc.Get(i) <= v {
			weight++
		}
	}
	for lvl := 0; lvl < s.acc.NumLevels(); lvl++ {
		s.acc.SetLevel(lvl + 1)
		if s.acc.NumItems() == 0 {
			continue
		}
		w := uint64(1) << uint(lvl+1)
		for i := 0; i < s.acc.NumItems(); i++ {
			if s.acc.Get(i) <= v {
				weight += w
			}
		}
	}
	return float64(weight) / float64(s.n), nil
}

// GetQuantile inverts GetRank: it returns the value at approximately
// the q-th rank. q=0 and q=1 return the exact min/max even on an empty
// sketch (+Inf / -Inf); any other rank on an empty sketch is NaN — this
// asymmetry is intentional, not an oversight.
func (s *UpdateDoublesSketch) GetQuantile(q float64) (float64, error) {
	if q < 0 || q > 1 {
		return 0, ErrRankOutOfRange
	}
	if q == 0 {
		return s.MinValue(), nil
	}
	if q == 1 {
		return s.MaxValue(), nil
	}
	if s.IsEmpty() {
		return math.NaN(), nil
	}

	items := s.weightedItems()
	cum := make([]uint64, len(items))
	var running uint64
	for i, it := range items {
		running += it.weight
		cum[i] = running
	}

	target := uint64(math.Ceil(q * float64(s.n)))
	if target < 1 {
		target = 1
	}
	if target > running {
		target = running
	}

	idx := search.FindWithInequality(cum, 0, len(cum)-1, target, search.InequalityGE,
		func(a, b uint64) bool { return a < b })
	if idx == -1 {
		idx = len(items) - 1
	}
	return items[idx].value, nil
}

// GetQuantiles is GetQuantile applied to each rank in qs, preserving
// input order.
func (s *UpdateDoublesSketch) GetQuantiles(qs []float64) ([]float64, error) {
	out := make([]float64, len(qs))
	for i, q := range qs {
		v, err := s.GetQuantile(q)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// GetCDF returns, for each split point and a final implicit +Inf split,
// the fraction of items at or below it. splitPoints must be finite,
// unique, and strictly increasing.
func (s *UpdateDoublesSketch) GetCDF(splitPoints []float64) ([]float64, error) {
	if err := validateSplitPoints(splitPoints); err != nil {
		return nil, err
	}
	out := make([]float64, len(splitPoints)+1)
	if s.IsEmpty() {
		for i := range out {
			out[i] = math.NaN()
		}
		return out, nil
	}
	for i, sp := range splitPoints {
		r, err := s.GetRank(sp)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	out[len(out)-1] = 1.0
	return out, nil
}

// GetPMF is the first difference of GetCDF: the mass attributed to each
// bucket delimited by splitPoints.
func (s *UpdateDoublesSketch) GetPMF(splitPoints []float64) ([]float64, error) {
	cdf, err := s.GetCDF(splitPoints)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cdf))
	prev := 0.0
	for i, c := range cdf {
		out[i] = c - prev
		prev = c
	}
	return out, nil
}

func validateSplitPoints(points []float64) error {
	for i, p := range points {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return ErrSplitPointsInvalid
		}
		if i > 0 && p <= points[i-1] {
			return ErrSplitPointsInvalid
		}
	}
	return nil
}
