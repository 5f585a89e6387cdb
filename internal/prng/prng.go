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

// Package prng is a per-sketch, seedable source of randomness for the
// quantiles compaction coin flip. Every sketch instance owns one; none of
// them draw from the process-global generator, so a seeded sketch replays
// identically across runs.
package prng

import "math/rand"

// Source is a seedable, instance-owned random bit source.
type Source struct {
	r *rand.Rand
}

// New returns a Source seeded deterministically from seed.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// NextBit returns one fair coin flip, consumed by a single compaction carry
// step. Bit 0 means "retain even indices", bit 1 means "retain odd indices".
func (s *Source) NextBit() int {
	return int(s.r.Int63() & 1)
}
