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

// Package quickselect finds the k-th smallest element of a uint64 slice in
// place, in expected linear time, without fully sorting it. It backs the
// theta hash table's rebuild-on-load-factor-breach step.
package quickselect

// Select reorders arr[lo:hi+1] in place (Hoare partitioning) until
// arr[pivot] holds the value that a full ascending sort would place there,
// and returns that value. lo, hi, and pivot are all inclusive indices.
func Select(arr []uint64, lo, hi, pivot int) uint64 {
	for hi > lo {
		j := partition(arr, lo, hi)
		switch {
		case j == pivot:
			return arr[pivot]
		case j > pivot:
			hi = j - 1
		default:
			lo = j + 1
		}
	}
	return arr[pivot]
}

func partition(arr []uint64, lo, hi int) int {
	i := lo
	j := hi + 1
	v := arr[lo]
	for {
		for {
			i++
			if i == hi || arr[i] >= v {
				break
			}
		}
		for {
			j--
			if j == lo || arr[j] <= v {
				break
			}
		}
		if i >= j {
			break
		}
		arr[i], arr[j] = arr[j], arr[i]
	}
	arr[lo], arr[j] = arr[j], arr[lo]
	return j
}
