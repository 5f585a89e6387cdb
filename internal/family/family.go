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

// Package family holds the preamble family IDs shared by the doubles and
// theta binary formats. Only the two families this core actually persists
// are represented; the rest of the historical Apache DataSketches family
// enumeration (Alpha, QuickSelect, Tuple, ...) has no image format in this
// core and was dropped rather than carried as dead table entries.
package family

// Family identifies the sketch variant encoded in a preamble, along with the
// maximum number of 8-byte preamble longs that variant's header can occupy.
type Family struct {
	ID          int
	MaxPreLongs int
}

var (
	// Compact is the family ID theta images carry: the core only ever
	// serializes the immutable compact form, never the mutable
	// update-sketch form.
	Compact = Family{ID: 3, MaxPreLongs: 3}

	// Quantiles is the family ID doubles-sketch images carry.
	Quantiles = Family{ID: 8, MaxPreLongs: 2}
)
