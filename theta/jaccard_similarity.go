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
	"github.com/prattrs/sketches-core/common"
)

// JaccardSimilarityResult holds a lower bound, point estimate, and upper
// bound for a Jaccard similarity computation.
type JaccardSimilarityResult struct {
	LowerBound float64
	Estimate   float64
	UpperBound float64
}

// Jaccard computes the Jaccard similarity index J(A,B) = |A ∩ B| / |A ∪ B|,
// a measure of how similar two sketches are: J = 1 means the sketches are
// equal, J = 0 means they are disjoint.
//
// seed must match the seed used to build sketchA and sketchB. The returned
// bounds are for a confidence interval of 95.4%, i.e. +/- 2 standard
// deviations.
//
// For pairs of sketches configured with 2^25 or 2^26 nominal entries, this
// may produce unpredictable results.
func Jaccard(sketchA, sketchB Sketch, seed uint64) (JaccardSimilarityResult, error) {
	if sketchA == sketchB {
		return JaccardSimilarityResult{1, 1, 1}, nil
	}
	if sketchA.IsEmpty() && sketchB.IsEmpty() {
		return JaccardSimilarityResult{1, 1, 1}, nil
	}
	if sketchA.IsEmpty() || sketchB.IsEmpty() {
		return JaccardSimilarityResult{0, 0, 0}, nil
	}

	unionAB, err := computeUnion(sketchA, sketchB, seed)
	if err != nil {
		return JaccardSimilarityResult{}, err
	}

	if identicalSets(sketchA, sketchB, unionAB) {
		return JaccardSimilarityResult{1, 1, 1}, nil
	}

	intersection := NewIntersection(WithIntersectionSeed(seed))
	if err := intersection.Update(sketchA); err != nil {
		return JaccardSimilarityResult{}, err
	}
	if err := intersection.Update(sketchB); err != nil {
		return JaccardSimilarityResult{}, err
	}
	// ensures that the intersection is a subset of the union
	if err := intersection.Update(unionAB); err != nil {
		return JaccardSimilarityResult{}, err
	}

	interABU, err := intersection.Result(false)
	if err != nil {
		return JaccardSimilarityResult{}, err
	}

	lb, err := lowerBoundForBOverAInSketchedSets(unionAB, interABU)
	if err != nil {
		return JaccardSimilarityResult{}, err
	}

	est, err := estimateOfBOverAInSketchedSets(unionAB, interABU)
	if err != nil {
		return JaccardSimilarityResult{}, err
	}

	ub, err := upperBoundForBOverAInSketchedSets(unionAB, interABU)
	if err != nil {
		return JaccardSimilarityResult{}, err
	}

	return JaccardSimilarityResult{
		LowerBound: lb,
		Estimate:   est,
		UpperBound: ub,
	}, nil
}

// IsExactlyEqual reports whether sketchA and sketchB represent the same
// set exactly, not merely similar estimates.
func IsExactlyEqual(sketchA, sketchB Sketch, seed uint64) (bool, error) {
	if sketchA == sketchB {
		return true, nil
	}
	if sketchA.IsEmpty() && sketchB.IsEmpty() {
		return true, nil
	}
	if sketchA.IsEmpty() || sketchB.IsEmpty() {
		return false, nil
	}

	unionAB, err := computeUnion(sketchA, sketchB, seed)
	if err != nil {
		return false, err
	}

	return identicalSets(sketchA, sketchB, unionAB), nil
}

// IsSimilar reports whether actual is similar to expected with at least
// 97.7% confidence: the Jaccard lower bound meets threshold.
func IsSimilar(actual, expected Sketch, threshold float64, seed uint64) (bool, error) {
	jc, err := Jaccard(actual, expected, seed)
	if err != nil {
		return false, err
	}
	return jc.LowerBound >= threshold, nil
}

// IsDissimilar reports whether actual is dissimilar to expected with at
// least 97.7% confidence: the Jaccard upper bound stays at or below
// threshold.
func IsDissimilar(actual, expected Sketch, threshold float64, seed uint64) (bool, error) {
	jc, err := Jaccard(actual, expected, seed)
	if err != nil {
		return false, err
	}
	return jc.UpperBound <= threshold, nil
}

func computeUnion(sketchA, sketchB Sketch, seed uint64) (Sketch, error) {
	countA := sketchA.NumRetained()
	countB := sketchB.NumRetained()

	lgNomLongs := log2Floor(uint32(common.CeilPowerOf2(int(countA + countB))))
	if lgNomLongs < MinLgNomLongs {
		lgNomLongs = MinLgNomLongs
	}
	if lgNomLongs > MaxLgNomLongs {
		lgNomLongs = MaxLgNomLongs
	}

	union, err := NewUnion(
		WithUnionLgNomLongs(lgNomLongs),
		WithUnionSeed(seed),
	)
	if err != nil {
		return nil, err
	}

	if err := union.Update(sketchA); err != nil {
		return nil, err
	}
	if err := union.Update(sketchB); err != nil {
		return nil, err
	}

	return union.Result(false)
}

func identicalSets(sketchA, sketchB, unionAB Sketch) bool {
	return unionAB.NumRetained() == sketchA.NumRetained() &&
		unionAB.NumRetained() == sketchB.NumRetained() &&
		unionAB.Theta64() == sketchA.Theta64() &&
		unionAB.Theta64() == sketchB.Theta64()
}
