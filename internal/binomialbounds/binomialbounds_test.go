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

package binomialbounds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidation(t *testing.T) {
	_, err := LowerBound(100, 1.5, 2)
	assert.ErrorContains(t, err, "theta must be in [0, 1]")

	_, err = UpperBound(100, -0.1, 2)
	assert.ErrorContains(t, err, "theta must be in [0, 1]")

	_, err = LowerBound(100, 0.5, 0)
	assert.ErrorContains(t, err, "numStdDevs must be 1, 2 or 3")

	_, err = UpperBound(100, 0.5, 4)
	assert.ErrorContains(t, err, "numStdDevs must be 1, 2 or 3")
}

func TestExactWhenNotEstimating(t *testing.T) {
	for _, nsd := range []uint{1, 2, 3} {
		lb, err := LowerBound(5000, 1.0, nsd)
		assert.NoError(t, err)
		assert.Equal(t, 5000.0, lb)

		ub, err := UpperBound(5000, 1.0, nsd)
		assert.NoError(t, err)
		assert.Equal(t, 5000.0, ub)
	}
}

func TestZeroSamples(t *testing.T) {
	lb, err := LowerBound(0, 0.1, 2)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, lb)

	ub, err := UpperBound(0, 0.1, 2)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, ub)
}

func TestBoundsStraddleEstimate(t *testing.T) {
	thetas := []float64{0.9, 0.5, 0.1, 0.01}
	for _, theta := range thetas {
		for _, nsd := range []uint{1, 2, 3} {
			numSamples := uint64(10000)
			estimate := float64(numSamples) / theta

			lb, err := LowerBound(numSamples, theta, nsd)
			assert.NoError(t, err)
			ub, err := UpperBound(numSamples, theta, nsd)
			assert.NoError(t, err)

			assert.LessOrEqual(t, lb, estimate)
			assert.GreaterOrEqual(t, ub, estimate)
			assert.GreaterOrEqual(t, lb, float64(numSamples))
		}
	}
}

func TestWiderIntervalForMoreStdDevs(t *testing.T) {
	lb1, _ := LowerBound(10000, 0.2, 1)
	lb2, _ := LowerBound(10000, 0.2, 2)
	lb3, _ := LowerBound(10000, 0.2, 3)
	assert.GreaterOrEqual(t, lb1, lb2)
	assert.GreaterOrEqual(t, lb2, lb3)

	ub1, _ := UpperBound(10000, 0.2, 1)
	ub2, _ := UpperBound(10000, 0.2, 2)
	ub3, _ := UpperBound(10000, 0.2, 3)
	assert.LessOrEqual(t, ub1, ub2)
	assert.LessOrEqual(t, ub2, ub3)
}
