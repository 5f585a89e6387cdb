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

func TestNewUpdateDoublesSketch(t *testing.T) {
	t.Run("No Options And Empty", func(t *testing.T) {
		sketch, err := NewUpdateDoublesSketch()
		assert.NoError(t, err)
		assert.Equal(t, DefaultK, sketch.K())
		assert.True(t, sketch.IsEmpty())
		assert.Equal(t, uint64(0), sketch.N())
		assert.Equal(t, 0, sketch.NumRetained())
		assert.Equal(t, math.Inf(1), sketch.MinValue())
		assert.Equal(t, math.Inf(-1), sketch.MaxValue())
	})

	t.Run("With Options", func(t *testing.T) {
		sketch, err := NewUpdateDoublesSketch(WithK(32), WithSeed(42))
		assert.NoError(t, err)
		assert.Equal(t, 32, sketch.K())
	})

	t.Run("Rejects Odd K", func(t *testing.T) {
		_, err := NewUpdateDoublesSketch(WithK(31))
		assert.Error(t, err)
	})

	t.Run("Rejects K Out Of Range", func(t *testing.T) {
		_, err := NewUpdateDoublesSketch(WithK(0))
		assert.Error(t, err)
		_, err = NewUpdateDoublesSketch(WithK(MaxK + 2))
		assert.Error(t, err)
	})
}

func TestUpdateDoublesSketch_Update(t *testing.T) {
	t.Run("Rejects NaN", func(t *testing.T) {
		sketch, err := NewUpdateDoublesSketch(WithK(4))
		assert.NoError(t, err)
		err = sketch.Update(math.NaN())
		assert.ErrorIs(t, err, ErrNaN)
	})

	t.Run("Tracks Min And Max", func(t *testing.T) {
		sketch, err := NewUpdateDoublesSketch(WithK(4), WithSeed(7))
		assert.NoError(t, err)
		for _, v := range []float64{5, 1, 9, 3} {
			assert.NoError(t, sketch.Update(v))
		}
		assert.Equal(t, 1.0, sketch.MinValue())
		assert.Equal(t, 9.0, sketch.MaxValue())
		assert.Equal(t, uint64(4), sketch.N())
		assert.Equal(t, 4, sketch.NumRetained())
	})

	t.Run("Compacts Base Buffer At 2k", func(t *testing.T) {
		sketch, err := NewUpdateDoublesSketch(WithK(4), WithSeed(7))
		assert.NoError(t, err)
		for i := 13; i >= 1; i-- {
			assert.NoError(t, sketch.Update(float64(i)))
		}
		assert.Equal(t, uint64(13), sketch.N())
		assert.Equal(t, 1.0, sketch.MinValue())
		assert.Equal(t, 13.0, sketch.MaxValue())
		assert.True(t, sketch.NumRetained() < 13)
	})
}

func TestUpdateDoublesSketch_String(t *testing.T) {
	sketch, err := NewUpdateDoublesSketch(WithK(4))
	assert.NoError(t, err)
	assert.NoError(t, sketch.Update(1))
	assert.NoError(t, sketch.Update(2))

	s := sketch.String(false)
	assert.Contains(t, s, "k                    : 4")
	assert.NotContains(t, s, "Retained entries")

	withItems := sketch.String(true)
	assert.Contains(t, withItems, "Retained entries")
}
