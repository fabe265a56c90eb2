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

// Package codec defines the Serialization contract the Dubbo wire codec
// plugs bodies through (spec.md §6 "Serializations"); concrete codecs
// (hessian2, json) live in sibling packages and self-register with
// common/extension.
package codec

// Serialization marshals/unmarshals an RPC argument list or return value.
// Implementations must satisfy spec.md §8's round-trip property:
// Unmarshal(Marshal(v)) reproduces v.
type Serialization interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}
