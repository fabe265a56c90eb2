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

package protocolwrapper

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
	"github.com/meshrpc/meshrpc/registry"
	regdirectory "github.com/meshrpc/meshrpc/registry/directory"
)

func init() {
	extension.SetProtocol(constant.RegistryProtocol, func() base.Protocol { return NewRegistryProtocol() })
}

// RegistryProtocol is the pseudo-protocol a consumer/provider URL of the
// form "registry://host:port?registry=zookeeper&..." refers/exports
// through: Refer subscribes a RegistryDirectory and joins it to the
// requested cluster policy; Export registers the wrapped provider URL with
// the backend and delegates the real export to that URL's own protocol
// (spec.md §4.5 "registry pseudo-protocol").
type RegistryProtocol struct {
	mu          sync.Mutex
	registries  map[string]registry.Registry
	invokers    []base.Invoker
	exporters   []*registryExporter
}

// NewRegistryProtocol returns an empty RegistryProtocol.
func NewRegistryProtocol() *RegistryProtocol {
	return &RegistryProtocol{registries: make(map[string]registry.Registry)}
}

func (p *RegistryProtocol) getRegistry(registryURL *common.URL) (registry.Registry, error) {
	key := registryURL.Key()

	p.mu.Lock()
	defer p.mu.Unlock()
	if reg, ok := p.registries[key]; ok {
		return reg, nil
	}
	name := registryURL.GetParam(constant.RegistryKey, "")
	if name == "" {
		name = registryURL.Protocol
	}
	reg, err := extension.GetRegistry(name, registryURL)
	if err != nil {
		return nil, errors.Wrapf(err, "registry protocol: resolving registry backend %q", name)
	}
	p.registries[key] = reg
	return reg, nil
}

// Refer subscribes the registry behind registryURL for registryURL.SubURL's
// service key and joins the resulting directory to the consumer's
// requested cluster policy.
func (p *RegistryProtocol) Refer(registryURL *common.URL) base.Invoker {
	consumerURL := registryURL.SubURL
	if consumerURL == nil {
		consumerURL = registryURL
	}

	reg, err := p.getRegistry(registryURL)
	if err != nil {
		inv := base.NewBaseInvoker(consumerURL)
		inv.Destroy()
		return inv
	}

	dir, err := regdirectory.NewRegistryDirectory(consumerURL, reg)
	if err != nil {
		inv := base.NewBaseInvoker(consumerURL)
		inv.Destroy()
		return inv
	}

	clusterName := consumerURL.GetParam(constant.ClusterKey, constant.DefaultCluster)
	cl, err := extension.GetCluster(clusterName)
	if err != nil {
		dir.Destroy()
		inv := base.NewBaseInvoker(consumerURL)
		inv.Destroy()
		return inv
	}

	invoker := cl.Join(dir)
	p.mu.Lock()
	p.invokers = append(p.invokers, invoker)
	p.mu.Unlock()
	return invoker
}

// Export registers registryURL.SubURL (the real provider endpoint) with
// the registry behind registryURL, then delegates the actual transport
// export to that endpoint's own protocol.
func (p *RegistryProtocol) Export(invoker base.Invoker) base.Exporter {
	registryURL := invoker.GetURL()
	providerURL := registryURL.SubURL
	if providerURL == nil {
		providerURL = registryURL
	}

	reg, err := p.getRegistry(registryURL)
	if err == nil {
		if regErr := reg.Register(providerURL); regErr != nil && providerURL.GetParamBool(constant.CheckKey, true) {
			panic(regErr)
		}
	}

	realProtocol := extension.GetProtocol(providerURL.Protocol)
	realExporter := realProtocol.Export(&urlInvoker{Invoker: invoker, url: providerURL})

	exp := &registryExporter{inner: realExporter, reg: reg, providerURL: providerURL}
	p.mu.Lock()
	p.exporters = append(p.exporters, exp)
	p.mu.Unlock()
	return exp
}

func (p *RegistryProtocol) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, inv := range p.invokers {
		inv.Destroy()
	}
	p.invokers = nil
	for _, exp := range p.exporters {
		exp.Unexport()
	}
	p.exporters = nil
	for _, reg := range p.registries {
		reg.Destroy()
	}
	p.registries = make(map[string]registry.Registry)
}

// urlInvoker re-addresses an invoker under a different URL, letting the
// registry protocol hand the real protocol a provider-URL-keyed invoker
// without the real protocol ever seeing the registry:// wrapper URL.
type urlInvoker struct {
	base.Invoker
	url *common.URL
}

func (u *urlInvoker) GetURL() *common.URL { return u.url }

func (u *urlInvoker) Invoke(ctx context.Context, invocation base.Invocation) base.Result {
	return u.Invoker.Invoke(ctx, invocation)
}

// registryExporter unregisters the provider URL from the backend on
// Unexport, in addition to tearing down the real transport exporter.
type registryExporter struct {
	inner       base.Exporter
	reg         registry.Registry
	providerURL *common.URL
}

func (e *registryExporter) GetInvoker() base.Invoker { return e.inner.GetInvoker() }

func (e *registryExporter) Unexport() {
	if e.reg != nil {
		_ = e.reg.UnRegister(e.providerURL)
	}
	e.inner.Unexport()
}
