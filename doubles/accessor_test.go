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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceAccessor_BaseWindow(t *testing.T) {
	base := []float64{3, 1, 2}
	var levels [][]float64
	acc := newSliceAccessor(&base, &levels)

	acc.SetLevel(0)
	assert.Equal(t, 3, acc.NumItems())
	assert.Equal(t, 1.0, acc.Get(1))

	acc.Set(1, 9)
	assert.Equal(t, 9.0, base[1])
	assert.Equal(t, []float64{3, 9}, acc.GetArray(0, 2))
}

func TestSliceAccessor_LevelWindows(t *testing.T) {
	base := []float64{}
	levels := [][]float64{{10, 20}, nil, {30}}
	acc := newSliceAccessor(&base, &levels)

	assert.Equal(t, 3, acc.NumLevels())

	acc.SetLevel(1)
	assert.Equal(t, 2, acc.NumItems())
	assert.Equal(t, 20.0, acc.Get(1))

	acc.SetLevel(2)
	assert.Equal(t, 0, acc.NumItems())

	acc.SetLevel(3)
	assert.Equal(t, 1, acc.NumItems())
}

func TestSliceAccessor_AppendAndResetBase(t *testing.T) {
	var base []float64
	var levels [][]float64
	acc := newSliceAccessor(&base, &levels)

	acc.AppendBase(1)
	acc.AppendBase(2)
	assert.Equal(t, []float64{1, 2}, base)

	acc.ResetBase()
	assert.Equal(t, 0, len(base))
	acc.SetLevel(0)
	assert.Equal(t, 0, acc.NumItems())
}

func TestSliceAccessor_ReplaceAndClearLevel(t *testing.T) {
	var base []float64
	var levels [][]float64
	acc := newSliceAccessor(&base, &levels)

	acc.ReplaceLevel(2, []float64{5, 6})
	assert.Equal(t, 3, len(levels))
	assert.Nil(t, levels[0])
	assert.Nil(t, levels[1])
	assert.Equal(t, []float64{5, 6}, levels[2])

	acc.ClearLevel(2)
	assert.Nil(t, levels[2])
	assert.Equal(t, 3, len(levels))
}

func TestSliceAccessor_Reset(t *testing.T) {
	base := []float64{1, 2}
	levels := [][]float64{{3, 4}}
	acc := newSliceAccessor(&base, &levels)

	acc.Reset()
	assert.Nil(t, base)
	assert.Nil(t, levels)
}

// TestAccessor_WiredIntoSketchLifecycle exercises the Accessor through a
// full update/compact/query/serialize cycle rather than in isolation,
// confirming compaction.go, query.go, and serialization.go all observe
// the same state through s.acc that direct field access would see.
func TestAccessor_WiredIntoSketchLifecycle(t *testing.T) {
	sketch, err := NewUpdateDoublesSketch(WithK(4), WithSeed(7))
	assert.NoError(t, err)

	var acc Accessor = sketch.acc
	for i := 1; i <= 13; i++ {
		assert.NoError(t, sketch.Update(float64(i)))
	}

	acc.SetLevel(0)
	assert.Equal(t, len(sketch.baseBuffer), acc.NumItems())
	assert.Equal(t, sketch.NumRetained(), func() int {
		n := acc.NumItems()
		for lvl := 0; lvl < sketch.acc.NumLevels(); lvl++ {
			acc.SetLevel(lvl + 1)
			n += acc.NumItems()
		}
		return n
	}())

	median, err := sketch.GetQuantile(0.5)
	assert.NoError(t, err)
	assert.True(t, median > 0)

	data, err := sketch.MarshalBinary()
	assert.NoError(t, err)
	decoded, err := DecodeUpdateDoublesSketch(data)
	assert.NoError(t, err)
	assert.NotNil(t, decoded.acc)
	assert.Equal(t, sketch.baseBuffer, decoded.baseBuffer)
}
