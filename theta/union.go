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
	"slices"

	"github.com/prattrs/sketches-core/internal/hash"
	"github.com/prattrs/sketches-core/internal/quickselect"
)

// Union folds any number of theta sketches into a single running hash
// table, applying a conflict Policy to duplicate entries as they arrive.
type Union struct {
	policy    Policy
	hashtable *Hashtable
	theta     uint64
}

type unionOptions struct {
	hasher      hash.Hasher
	theta       uint64
	seed        uint64
	p           float32
	lgCurSize   uint8
	lgNomLongs  uint8
	rf          ResizeFactor
}

// UnionOptionFunc configures a Union at construction time.
type UnionOptionFunc func(*unionOptions)

// WithUnionLgNomLongs sets log2(k), the nominal number of entries the union
// retains before it must start discarding.
func WithUnionLgNomLongs(lgNomLongs uint8) UnionOptionFunc {
	return func(opts *unionOptions) {
		opts.lgNomLongs = lgNomLongs
	}
}

// WithUnionResizeFactor sets the growth factor of the internal hash table.
func WithUnionResizeFactor(rf ResizeFactor) UnionOptionFunc {
	return func(opts *unionOptions) {
		opts.rf = rf
	}
}

// WithUnionSketchP sets the up-front sampling probability (initial theta).
// The default of 1 retains every entry until capacity forces estimation.
func WithUnionSketchP(p float32) UnionOptionFunc {
	return func(opts *unionOptions) {
		opts.p = p
	}
}

// WithUnionSeed sets the seed for the hash function. Unions built with
// different seeds are not compatible and cannot be mixed in set operations.
func WithUnionSeed(seed uint64) UnionOptionFunc {
	return func(opts *unionOptions) {
		opts.seed = seed
	}
}

// WithUnionHasher overrides the injected hash function H; the default is
// MurmurHash3.
func WithUnionHasher(h hash.Hasher) UnionOptionFunc {
	return func(opts *unionOptions) {
		opts.hasher = h
	}
}

// NewUnion creates a new union with the given options.
func NewUnion(opts ...UnionOptionFunc) (*Union, error) {
	options := &unionOptions{
		lgNomLongs: DefaultLgNomLongs,
		rf:         DefaultResizeFactor,
		p:          1.0,
		seed:       DefaultSeed,
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

	table := NewHashtable(
		options.lgCurSize, options.lgNomLongs, options.rf, options.p, options.theta, options.seed, true, options.hasher,
	)

	return &Union{
		hashtable: table,
		policy:    &noopPolicy{},
		theta:     table.theta,
	}, nil
}

// Update folds sketch's retained entries into the union.
func (u *Union) Update(sketch Sketch) error {
	if sketch.IsEmpty() {
		return nil
	}

	seedHash, err := hash.ComputeSeedHash(u.hashtable.hasher, u.hashtable.seed)
	if err != nil {
		return err
	}
	sketchSeedHash, err := sketch.SeedHash()
	if err != nil {
		return err
	}
	if seedHash != sketchSeedHash {
		return errors.New("seed hash mismatch")
	}

	u.hashtable.isEmpty = false
	u.theta = min(u.theta, sketch.Theta64())

	for entry := range sketch.All() {
		if entry < u.theta && entry < u.hashtable.theta {
			index, err := u.hashtable.Find(entry)
			if err != nil {
				if err == ErrKeyNotFound {
					u.hashtable.Insert(index, entry)
					continue
				}
				return err
			}

			u.policy.Apply(&u.hashtable.entries[index], entry)
		} else if sketch.IsOrdered() {
			// Ordered sketches are sorted ascending, so once an entry
			// clears theta every later one will too.
			break
		}
	}

	u.theta = min(u.theta, u.hashtable.theta)
	return nil
}

// Result snapshots the union's current state as a compact sketch.
func (u *Union) Result(ordered bool) (*CompactSketch, error) {
	seedHash, err := hash.ComputeSeedHash(u.hashtable.hasher, u.hashtable.seed)
	if err != nil {
		return nil, err
	}

	if u.hashtable.isEmpty {
		return newCompactSketchFromEntries(true, true, seedHash, u.theta, nil), nil
	}

	var entries []uint64

	theta := min(u.theta, u.hashtable.theta)
	nominalNum := uint32(1 << u.hashtable.lgNomSize)

	if u.theta >= u.hashtable.theta {
		for _, entry := range u.hashtable.entries {
			if entry != 0 {
				entries = append(entries, entry)
			}
		}
	} else {
		for _, entry := range u.hashtable.entries {
			if entry != 0 && entry < theta {
				entries = append(entries, entry)
			}
		}
	}

	if uint32(len(entries)) > nominalNum {
		quickselect.Select(entries, 0, len(entries)-1, int(nominalNum))
		theta = entries[nominalNum]
		entries = entries[:nominalNum]
	}

	if ordered {
		slices.Sort(entries)
	}

	return newCompactSketchFromEntries(u.hashtable.isEmpty, ordered, seedHash, theta, entries), nil
}

// OrderedResult snapshots the union's current state as an ordered compact
// sketch.
func (u *Union) OrderedResult() (*CompactSketch, error) {
	return u.Result(true)
}

// Reset restores the union to its initial empty state.
func (u *Union) Reset() {
	u.hashtable.Reset()
	u.theta = u.hashtable.theta
}

// Policy returns the conflict-resolution policy used by this union.
func (u *Union) Policy() Policy {
	return u.policy
}
