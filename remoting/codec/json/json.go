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

// Package json wires serialization id 6 (spec.md §6), for generic and
// cross-language-debugging paths where a human-readable wire body is
// worth the extra bytes.
package json

import (
	"encoding/json"

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/remoting/codec"
)

func init() {
	extension.SetSerialization(constant.JSONSerialization, newJSONSerialization)
}

type jsonSerialization struct{}

func newJSONSerialization() codec.Serialization {
	return &jsonSerialization{}
}

func (s *jsonSerialization) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (s *jsonSerialization) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
