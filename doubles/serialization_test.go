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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerialization_EmptySketch(t *testing.T) {
	// Scenario: an empty sketch serializes to exactly an 8-byte preamble
	// and decodes back to an empty sketch with the same k.
	sketch, err := NewUpdateDoublesSketch(WithK(16))
	assert.NoError(t, err)

	data, err := sketch.MarshalBinary()
	assert.NoError(t, err)
	assert.Equal(t, 8, len(data))
	assert.Equal(t, 8, sketch.SerializedSizeBytes())

	decoded, err := DecodeUpdateDoublesSketch(data)
	assert.NoError(t, err)
	assert.Equal(t, 16, decoded.K())
	assert.True(t, decoded.IsEmpty())
	assert.Equal(t, math.Inf(1), decoded.MinValue())
	assert.Equal(t, math.Inf(-1), decoded.MaxValue())
}

func TestSerialization_RoundTripAndContinueUpdating(t *testing.T) {
	// Scenario: update 0..999, serialize, decode, continue updating
	// 1000..1999, then check min/max/median on the combined stream.
	sketch := buildSketch(t, 128, 17, 1000)

	data, err := sketch.MarshalBinary()
	assert.NoError(t, err)
	assert.Equal(t, sketch.SerializedSizeBytes(), len(data))

	decoded, err := DecodeUpdateDoublesSketch(data, WithSeed(17))
	assert.NoError(t, err)
	assert.Equal(t, sketch.K(), decoded.K())
	assert.Equal(t, sketch.N(), decoded.N())
	assert.Equal(t, sketch.MinValue(), decoded.MinValue())
	assert.Equal(t, sketch.MaxValue(), decoded.MaxValue())
	assert.Equal(t, sketch.NumRetained(), decoded.NumRetained())

	for i := 1000; i < 2000; i++ {
		assert.NoError(t, decoded.Update(float64(i)))
	}
	assert.Equal(t, uint64(2000), decoded.N())
	assert.Equal(t, 0.0, decoded.MinValue())
	assert.Equal(t, 1999.0, decoded.MaxValue())

	median, err := decoded.GetQuantile(0.5)
	assert.NoError(t, err)
	assert.InDelta(t, 1000, median, 120)
}

func TestSerialization_PreservesRetainedValues(t *testing.T) {
	sketch, err := NewUpdateDoublesSketch(WithK(4), WithSeed(9))
	assert.NoError(t, err)
	for i := 13; i >= 1; i-- {
		assert.NoError(t, sketch.Update(float64(i)))
	}

	data, err := sketch.MarshalBinary()
	assert.NoError(t, err)

	decoded, err := DecodeUpdateDoublesSketch(data)
	assert.NoError(t, err)
	assert.Equal(t, sketch.baseBuffer, decoded.baseBuffer)
	assert.Equal(t, sketch.levels, decoded.levels)
	assert.Equal(t, sketch.bitPattern, decoded.bitPattern)
}

func TestDecodeUpdateDoublesSketch_Errors(t *testing.T) {
	t.Run("Too Short", func(t *testing.T) {
		_, err := DecodeUpdateDoublesSketch([]byte{1, 2, 3})
		assert.Error(t, err)
	})

	t.Run("Wrong Serial Version", func(t *testing.T) {
		sketch, err := NewUpdateDoublesSketch(WithK(4))
		assert.NoError(t, err)
		data, err := sketch.MarshalBinary()
		assert.NoError(t, err)
		data[1] = 99
		_, err = DecodeUpdateDoublesSketch(data)
		assert.Error(t, err)
	})

	t.Run("Wrong Family", func(t *testing.T) {
		sketch, err := NewUpdateDoublesSketch(WithK(4))
		assert.NoError(t, err)
		data, err := sketch.MarshalBinary()
		assert.NoError(t, err)
		data[2] = 99
		_, err = DecodeUpdateDoublesSketch(data)
		assert.Error(t, err)
	})

	t.Run("Truncated Payload", func(t *testing.T) {
		sketch := buildSketch(t, 4, 9, 13)
		data, err := sketch.MarshalBinary()
		assert.NoError(t, err)
		_, err = DecodeUpdateDoublesSketch(data[:len(data)-8])
		assert.Error(t, err)
	})

	t.Run("Big Endian Flag Mismatch", func(t *testing.T) {
		sketch, err := NewUpdateDoublesSketch(WithK(4))
		assert.NoError(t, err)
		data, err := sketch.MarshalBinary()
		assert.NoError(t, err)
		data[3] ^= 1 << flagBigEndian
		_, err = DecodeUpdateDoublesSketch(data)
		assert.Error(t, err)
	})
}
