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

import "github.com/prattrs/sketches-core/memory"

// EncodeCompact renders s as its current-serial-version compact image: a
// preamble sized by preambleLongs(), followed by the retained hashes in
// storage order.
func EncodeCompact(s *CompactSketch) ([]byte, error) {
	preLongs := s.preambleLongs()
	view := memory.NewHeapView(s.SerializedSizeBytes())

	if err := view.PutByte(0, preLongs); err != nil {
		return nil, err
	}
	if err := view.PutByte(1, SerialVersion); err != nil {
		return nil, err
	}
	if err := view.PutByte(2, compactSketchType); err != nil {
		return nil, err
	}
	// bytes 3-4 are unused.

	var flags byte
	flags |= 1 << flagIsCompact
	flags |= 1 << flagIsReadOnly
	if memory.HostIsBigEndian {
		flags |= 1 << flagIsBigEndian
	}
	if s.IsEmpty() {
		flags |= 1 << flagIsEmpty
	}
	if s.IsOrdered() {
		flags |= 1 << flagIsOrdered
	}
	if err := view.PutByte(5, flags); err != nil {
		return nil, err
	}

	seedHash, _ := s.SeedHash()
	if err := view.PutShort(6, seedHash); err != nil {
		return nil, err
	}

	offset := 8
	if preLongs > 1 {
		if err := view.PutInt(offset, uint32(len(s.entries))); err != nil {
			return nil, err
		}
		// the following 4 bytes are unused.
		offset += 8
	}

	if s.IsEstimationMode() {
		if err := view.PutLong(offset, s.theta); err != nil {
			return nil, err
		}
		offset += 8
	}

	for _, entry := range s.entries {
		if err := view.PutLong(offset, entry); err != nil {
			return nil, err
		}
		offset += 8
	}

	return view.GetBytes(0, view.Capacity())
}
