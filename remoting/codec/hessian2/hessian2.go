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

// Package hessian2 wires github.com/apache/dubbo-go-hessian2 in as the
// default wire Serialization (spec.md §6, serialization id 2 — the
// teacher's own default).
package hessian2

import (
	"fmt"
	"reflect"

	hessian "github.com/apache/dubbo-go-hessian2"

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/remoting/codec"
)

func init() {
	extension.SetSerialization(constant.Hessian2Serialization, newHessian2Serialization)
}

type hessian2Serialization struct{}

func newHessian2Serialization() codec.Serialization {
	return &hessian2Serialization{}
}

func (s *hessian2Serialization) Marshal(v any) ([]byte, error) {
	encoder := hessian.NewEncoder()
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return encoder.Buffer(), nil
}

func (s *hessian2Serialization) Unmarshal(data []byte, v any) error {
	decoder := hessian.NewDecoder(data)
	decoded, err := decoder.Decode()
	if err != nil {
		return err
	}
	return assignDecoded(decoded, v)
}

// assignDecoded copies a hessian-decoded value into v, which callers
// always pass as a pointer to the type they expect back.
func assignDecoded(decoded any, v any) error {
	if ptr, ok := v.(*any); ok {
		*ptr = decoded
		return nil
	}
	dst := reflect.ValueOf(v)
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return fmt.Errorf("hessian2: Unmarshal target must be a non-nil pointer, got %T", v)
	}
	src := reflect.ValueOf(decoded)
	if !src.IsValid() {
		return nil
	}
	elem := dst.Elem()
	if !src.Type().AssignableTo(elem.Type()) {
		return fmt.Errorf("hessian2: cannot assign decoded %T to %T", decoded, v)
	}
	elem.Set(src)
	return nil
}
