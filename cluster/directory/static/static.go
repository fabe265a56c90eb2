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

// Package static implements a fixed-membership cluster.Directory, used
// when a consumer refers a provider URL directly rather than through a
// registry (spec.md §4.6 "point-to-point / static directory").
package static

import (
	"sync"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/protocol/base"
)

// Directory wraps a fixed slice of invokers that never changes after
// construction.
type Directory struct {
	url *common.URL

	mu        sync.RWMutex
	invokers  []base.Invoker
	destroyed bool
}

// NewDirectory builds a static Directory over invokers, bound to url (the
// consumer reference URL, returned from GetURL).
func NewDirectory(url *common.URL, invokers []base.Invoker) cluster.Directory {
	return &Directory{url: url, invokers: invokers}
}

func (d *Directory) GetURL() *common.URL { return d.url }

func (d *Directory) List(invocation base.Invocation) []base.Invoker {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.destroyed {
		return nil
	}
	out := make([]base.Invoker, len(d.invokers))
	copy(out, d.invokers)
	return out
}

func (d *Directory) IsAvailable() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.destroyed {
		return false
	}
	for _, inv := range d.invokers {
		if inv.IsAvailable() {
			return true
		}
	}
	return false
}

func (d *Directory) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return
	}
	d.destroyed = true
	for _, inv := range d.invokers {
		inv.Destroy()
	}
}
