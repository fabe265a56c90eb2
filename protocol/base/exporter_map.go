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

package base

import "sync"

// ExporterMap is the (service key -> invoker) table a transport server
// handler dispatches against (spec.md §4.5 "registers the invoker in a
// (service key -> invoker) table served by the server handler").
type ExporterMap struct {
	mu sync.RWMutex
	m  map[string]Invoker
}

// NewExporterMap returns an empty ExporterMap.
func NewExporterMap() *ExporterMap {
	return &ExporterMap{m: make(map[string]Invoker)}
}

func (m *ExporterMap) Store(key string, invoker Invoker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = invoker
}

func (m *ExporterMap) Load(key string) (Invoker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.m[key]
	return v, ok
}

func (m *ExporterMap) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, key)
}

func (m *ExporterMap) Range(f func(key string, invoker Invoker) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, v := range m.m {
		if !f(k, v) {
			return
		}
	}
}
