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

// Package ratiobounds computes an approximate Clopper-Pearson confidence
// interval for a binomial proportion. It backs the Jaccard-similarity and
// bounds-on-ratio estimators built on top of theta sketches, where a ratio
// of two sketch counts is itself a binomial proportion with sampling noise
// on both the numerator and the denominator.
//
//   - n is the number of independent randomized trials.
//   - p is the unknown probability of a trial being a success.
//   - k is the number of trials (out of n) observed to be successes.
//   - pHat = k / n is an unbiased estimate of the unknown success
//     probability p.
//
// Exact Clopper-Pearson intervals are strictly conservative; this
// approximation is not.
package ratiobounds

import (
	"fmt"
	"math"
)

// LowerBoundOnP computes the lower bound of an approximate Clopper-Pearson
// confidence interval for a binomial proportion given n trials, k observed
// successes, and a confidence expressed as a number of standard deviations.
func LowerBoundOnP(n, k uint64, numStdDevs float64) (float64, error) {
	if err := validateInputs(n, k); err != nil {
		return 0, err
	}
	switch {
	case n == 0:
		return 0.0, nil
	case k == 0:
		return 0.0, nil
	case k == 1:
		return exactLowerBoundPKEq1(n, deltaOfNumStdevs(numStdDevs)), nil
	case k == n:
		return exactLowerBoundPKEqN(n, deltaOfNumStdevs(numStdDevs)), nil
	default:
		x := abramowitzStegun26p5p22(float64((n-k)+1), float64(k), -1.0*numStdDevs)
		return 1.0 - x, nil
	}
}

// UpperBoundOnP computes the upper bound of an approximate Clopper-Pearson
// confidence interval for a binomial proportion given n trials, k observed
// successes, and a confidence expressed as a number of standard deviations.
func UpperBoundOnP(n, k uint64, numStdDevs float64) (float64, error) {
	if err := validateInputs(n, k); err != nil {
		return 0, err
	}
	switch {
	case n == 0:
		return 1.0, nil
	case k == n:
		return 1.0, nil
	case k == n-1:
		return exactUpperBoundPKEqNMinus1(n, deltaOfNumStdevs(numStdDevs)), nil
	case k == 0:
		return exactUpperBoundPKEq0(n, deltaOfNumStdevs(numStdDevs)), nil
	default:
		x := abramowitzStegun26p5p22(float64(n-k), float64(k+1), numStdDevs)
		return 1.0 - x, nil
	}
}

// Erf approximates the error function to roughly 7 decimal digits.
func Erf(x float64) float64 {
	if x < 0.0 {
		return -erfOfNonneg(-x)
	}
	return erfOfNonneg(x)
}

// NormalCDF approximates the standard normal CDF at x.
func NormalCDF(x float64) float64 {
	return 0.5 * (1.0 + Erf(x/math.Sqrt2))
}

func validateInputs(n, k uint64) error {
	if k > n {
		return fmt.Errorf("k cannot exceed n: n=%d, k=%d", n, k)
	}
	return nil
}

// erfOfNonneg is Abramowitz & Stegun formula 7.1.28, accurate to about 7
// decimal digits for x >= 0.
func erfOfNonneg(x float64) float64 {
	const a1 = 0.0705230784
	const a2 = 0.0422820123
	const a3 = 0.0092705272
	const a4 = 0.0001520143
	const a5 = 0.0002765672
	const a6 = 0.0000430638

	x2 := x * x
	x3 := x2 * x
	x4 := x2 * x2
	x5 := x2 * x3
	x6 := x3 * x3

	sum := 1.0 + a1*x + a2*x2 + a3*x3 + a4*x4 + a5*x5 + a6*x6
	sum2 := sum * sum
	sum4 := sum2 * sum2
	sum8 := sum4 * sum4
	sum16 := sum8 * sum8
	return 1.0 - 1.0/sum16
}

func deltaOfNumStdevs(kappa float64) float64 {
	return NormalCDF(-kappa)
}

// abramowitzStegun26p5p22 is formula 26.5.22 (p. 945) approximating the
// inverse of the regularized incomplete beta function I_x(a,b) = delta as a
// function of x, with delta specified indirectly via yp, the number of
// standard deviations leaving delta probability in the right tail of a
// standard Gaussian. Variable names follow the book so the formula stays
// easy to check against the source.
func abramowitzStegun26p5p22(a, b, yp float64) float64 {
	b2m1 := 2.0*b - 1.0
	a2m1 := 2.0*a - 1.0
	lambda := (yp*yp - 3.0) / 6.0
	h := 2.0 / (1.0/a2m1 + 1.0/b2m1)
	term1 := (yp * math.Sqrt(h+lambda)) / h
	term2 := 1.0/b2m1 - 1.0/a2m1
	term3 := (lambda + 5.0/6.0) - 2.0/(3.0*h)
	w := term1 - term2*term3
	return a / (a + b*math.Exp(2.0*w))
}

func exactUpperBoundPKEq0(n uint64, delta float64) float64 {
	return 1.0 - math.Pow(delta, 1.0/float64(n))
}

func exactLowerBoundPKEqN(n uint64, delta float64) float64 {
	return math.Pow(delta, 1.0/float64(n))
}

func exactLowerBoundPKEq1(n uint64, delta float64) float64 {
	return 1.0 - math.Pow(1.0-delta, 1.0/float64(n))
}

func exactUpperBoundPKEqNMinus1(n uint64, delta float64) float64 {
	return math.Pow(1.0-delta, 1.0/float64(n))
}
