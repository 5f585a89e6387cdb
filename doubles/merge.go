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

import "math"

// Merge absorbs other's retained items into s. If the two sketches were
// built with different k, the receiver is downsampled to the smaller k
// first, per the union contract: the result always carries the smaller
// (more conservative) accuracy parameter of its inputs.
//
// Every retained item is replayed through s's own Update/compact
// pipeline with its recorded weight (the number of stream items it
// stands for). This keeps merge commutative and associative up to the
// same statistical equivalence as a fresh sketch fed the multiset union
// of both inputs, without needing a separate pairwise level-merge
// routine for the downsampling case.
func (s *UpdateDoublesSketch) Merge(other *UpdateDoublesSketch) error {
	if other == nil || other.IsEmpty() {
		return nil
	}

	if other.k < s.k {
		if err := s.downsampleTo(other.k); err != nil {
			return err
		}
	}

	for _, it := range other.weightedItems() {
		for i := uint64(0); i < it.weight; i++ {
			if err := s.Update(it.value); err != nil {
				return err
			}
		}
	}
	return nil
}

// downsampleTo rebuilds s at the given k, replaying its own retained
// items through a fresh Update/compact pipeline.
func (s *UpdateDoublesSketch) downsampleTo(k int) error {
	items := s.weightedItems()

	s.k = k
	s.n = 0
	s.minValue = math.Inf(1)
	s.maxValue = math.Inf(-1)
	s.acc.Reset()
	s.bitPattern = 0

	for _, it := range items {
		for i := uint64(0); i < it.weight; i++ {
			if err := s.Update(it.value); err != nil {
				return err
			}
		}
	}
	return nil
}
