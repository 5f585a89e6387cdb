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

package memory

import "encoding/binary"

// HostIsBigEndian reports whether the running process's native byte
// order is big-endian. The wire format is always little-endian
// regardless of host; the BIG_ENDIAN preamble flag bit records the
// byte order of the writer, and a decoder compares it against its own
// host order. The format never byte-swaps on read, so a mismatch is a
// fatal decode error rather than a silent fix-up.
var HostIsBigEndian = binary.NativeEndian == binary.BigEndian
