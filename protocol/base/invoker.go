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

// Package base holds the types shared by every layer of the invocation
// pipeline: Invoker, Invocation, Result, Exporter, Protocol, and the
// per-(url,method) RpcStatus counters load balancers read.
package base

import (
	"context"
	"sync/atomic"

	"github.com/meshrpc/meshrpc/common"
)

// Invoker is a callable endpoint, local or remote (spec.md §3 "Invoker<T>").
// Created by protocol.Export/Refer, destroyed by its creator; Destroy must
// be idempotent.
type Invoker interface {
	GetURL() *common.URL
	IsAvailable() bool
	Destroy()
	Invoke(ctx context.Context, invocation Invocation) Result
}

// BaseInvoker implements the destroy-once bookkeeping shared by every
// concrete Invoker; embed it and override Invoke.
type BaseInvoker struct {
	url       *common.URL
	destroyed atomic.Bool
	available atomic.Bool
}

// NewBaseInvoker builds a BaseInvoker bound to url, initially available.
func NewBaseInvoker(url *common.URL) *BaseInvoker {
	b := &BaseInvoker{url: url}
	b.available.Store(true)
	return b
}

func (b *BaseInvoker) GetURL() *common.URL { return b.url }

func (b *BaseInvoker) IsAvailable() bool {
	return !b.destroyed.Load() && b.available.Load()
}

// SetAvailable toggles availability without destroying the invoker, used by
// transport-layer connection state changes.
func (b *BaseInvoker) SetAvailable(available bool) { b.available.Store(available) }

// Destroy marks the invoker destroyed. Idempotent: the second and later
// calls are no-ops, satisfying spec.md §8 invariant 8.
func (b *BaseInvoker) Destroy() {
	b.destroyed.Store(true)
	b.available.Store(false)
}

func (b *BaseInvoker) IsDestroyed() bool { return b.destroyed.Load() }

// Invoke on the bare BaseInvoker always fails: concrete invokers must
// override it. Kept so BaseInvoker alone satisfies the Invoker interface
// for embedding convenience.
func (b *BaseInvoker) Invoke(ctx context.Context, invocation Invocation) Result {
	result := &RPCResult{}
	if b.destroyed.Load() {
		result.SetError(NewRPCError(ForbiddenError, "invoker destroyed: "+b.url.Key()))
		return result
	}
	result.SetError(NewRPCError(UnknownError, "BaseInvoker.Invoke not overridden"))
	return result
}

// Exporter is the lifetime handle returned by Protocol.Export. Destroying
// it unexports the underlying invoker (spec.md glossary "Exporter").
type Exporter interface {
	GetInvoker() Invoker
	Unexport()
}

// BaseExporter is the default Exporter: removes itself from a shared
// key->invoker map on Unexport.
type BaseExporter struct {
	key        string
	invoker    Invoker
	exporterMap *ExporterMap
}

// NewBaseExporter registers invoker under key in exporterMap.
func NewBaseExporter(key string, invoker Invoker, exporterMap *ExporterMap) *BaseExporter {
	exporterMap.Store(key, invoker)
	return &BaseExporter{key: key, invoker: invoker, exporterMap: exporterMap}
}

func (e *BaseExporter) GetInvoker() Invoker { return e.invoker }

func (e *BaseExporter) Unexport() {
	e.invoker.Destroy()
	e.exporterMap.Delete(e.key)
}

// Protocol binds a service-side invoker to a transport and builds
// client-side invokers from a URL (spec.md §4.5).
type Protocol interface {
	Export(invoker Invoker) Exporter
	Refer(url *common.URL) Invoker
	// Destroy tears down every exporter/invoker this protocol created and
	// releases shared transport resources (servers/connections).
	Destroy()
}
