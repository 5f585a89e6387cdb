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
	"slices"

	"github.com/prattrs/sketches-core/internal/hash"
)

// ANotB computes the set difference (entries in a but not in b) of two
// theta sketches, using hasher to recompute the expected seed hash.
func ANotB(a, b Sketch, seed uint64, hasher hash.Hasher, ordered bool) (*CompactSketch, error) {
	if hasher == nil {
		hasher = hash.Murmur3{}
	}
	seedHash, err := hash.ComputeSeedHash(hasher, seed)
	if err != nil {
		return nil, err
	}

	if a.IsEmpty() {
		return NewCompactSketch(a, ordered), nil
	}
	if a.NumRetained() > 0 && b.IsEmpty() {
		return NewCompactSketch(a, ordered), nil
	}

	aSeedHash, err := a.SeedHash()
	if err != nil {
		return nil, err
	}
	bSeedHash, err := b.SeedHash()
	if err != nil {
		return nil, err
	}
	if aSeedHash != seedHash {
		return nil, fmt.Errorf("sketch A seed hash mismatch: expected %d, got %d", seedHash, aSeedHash)
	}
	if bSeedHash != seedHash {
		return nil, fmt.Errorf("sketch B seed hash mismatch: expected %d, got %d", seedHash, bSeedHash)
	}

	theta := min(a.Theta64(), b.Theta64())
	var entries []uint64

	if b.NumRetained() == 0 {
		for entry := range a.All() {
			if entry < theta {
				entries = append(entries, entry)
			}
		}
	} else if a.IsOrdered() && b.IsOrdered() {
		entries = computeSortBased(a, b, theta)
	} else {
		var err error
		entries, err = computeHashBased(a, b, theta, hasher)
		if err != nil {
			return nil, err
		}
	}

	isEmpty := a.IsEmpty()
	if len(entries) == 0 && theta == MaxTheta {
		isEmpty = true
	}

	if ordered && !a.IsOrdered() {
		slices.Sort(entries)
	}

	return newCompactSketchFromEntries(
		isEmpty,
		a.IsOrdered() || ordered,
		seedHash,
		theta,
		entries,
	), nil
}

func computeSortBased(a, b Sketch, theta uint64) []uint64 {
	bEntries := make(map[uint64]struct{})
	for entry := range b.All() {
		bEntries[entry] = struct{}{}
	}

	var entries []uint64
	for entry := range a.All() {
		if _, ok := bEntries[entry]; ok {
			continue
		}

		if entry < theta {
			entries = append(entries, entry)
		}
	}
	return entries
}

func computeHashBased(a, b Sketch, theta uint64, hasher hash.Hasher) ([]uint64, error) {
	lgSize := lgSizeFromCount(b.NumRetained(), rebuildThreshold)

	table := NewHashtable(lgSize, lgSize, ResizeX1, 1, 0, 0, false, hasher)

	for entry := range b.All() {
		if entry < theta {
			idx, err := table.Find(entry)
			if err != nil && err == ErrKeyNotFoundAndNoEmptySlots {
				return nil, err
			}

			table.Insert(idx, entry)
		} else if b.IsOrdered() {
			break
		}
	}

	var entries []uint64
	for entry := range a.All() {
		if entry < theta {
			_, err := table.Find(entry)
			if err != nil && err == ErrKeyNotFound {
				entries = append(entries, entry)
			}
		} else if a.IsOrdered() {
			break
		}
	}

	return entries, nil
}
