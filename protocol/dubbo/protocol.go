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

package dubbo

import (
	"context"
	"sync"

	apachegetty "github.com/apache/dubbo-getty"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
	"github.com/meshrpc/meshrpc/remoting/codec"
	"github.com/meshrpc/meshrpc/remoting/getty"
)

const Name = "dubbo"

func init() {
	extension.SetProtocol(Name, func() base.Protocol { return NewDubboProtocol() })
}

// DubboProtocol publishes local services on a shared per-address getty
// server and builds Invokers that call out over a shared per-address getty
// client (spec.md §4.5 "dubbo protocol").
type DubboProtocol struct {
	mu          sync.Mutex
	exporterMap *base.ExporterMap
	servers     map[string]*getty.Server
	invokers    []base.Invoker
}

func NewDubboProtocol() *DubboProtocol {
	return &DubboProtocol{
		exporterMap: base.NewExporterMap(),
		servers:     make(map[string]*getty.Server),
	}
}

// Export registers invoker under its service key and, on first use of this
// address, starts a shared getty server carrying every service exported on
// it (spec.md §4.5 "shared server per host:port").
func (p *DubboProtocol) Export(invoker base.Invoker) base.Exporter {
	url := invoker.GetURL()
	key := url.ServiceKey()
	exporter := base.NewBaseExporter(key, invoker, p.exporterMap)

	p.ensureServer(url.Address())
	return exporter
}

func (p *DubboProtocol) ensureServer(addr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.servers[addr]; ok {
		return
	}
	handler := newProviderHandler(p.exporterMap)
	dispatch := getty.NewPooledDispatcher(getty.NewFixedWorkerPool(constant.DefaultServerWorkers, constant.DefaultServerQueueSize))
	listener := getty.NewDubboEventListener(handler, dispatch, constant.DefaultHeartbeat)
	server := getty.NewServer(addr, listener)
	server.Start()
	p.servers[addr] = server
}

// Refer builds a DubboInvoker bound to url's remote address, reusing the
// shared ExchangeClient for that address across every Refer call against it.
func (p *DubboProtocol) Refer(url *common.URL) base.Invoker {
	client, err := getOrCreateExchangeClient(url.Address())
	if err != nil {
		inv := newDubboInvoker(url, nil)
		inv.Destroy()
		return inv
	}
	inv := newDubboInvoker(url, client)

	p.mu.Lock()
	p.invokers = append(p.invokers, inv)
	p.mu.Unlock()
	return inv
}

// Destroy tears down every server and invoker this protocol created.
func (p *DubboProtocol) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, inv := range p.invokers {
		inv.Destroy()
	}
	p.invokers = nil
	for addr, server := range p.servers {
		server.Stop()
		delete(p.servers, addr)
	}
	p.exporterMap.Range(func(key string, invoker base.Invoker) bool {
		invoker.Destroy()
		return true
	})
}

// providerHandler dispatches inbound request frames to the locally exported
// invoker matching the frame's service key, and writes the resulting
// Response back onto the session (spec.md §4.5 "provider-side dispatch").
type providerHandler struct {
	exporterMap *base.ExporterMap
}

func newProviderHandler(exporterMap *base.ExporterMap) *providerHandler {
	return &providerHandler{exporterMap: exporterMap}
}

func (h *providerHandler) OnResponse(pkg getty.Package) {}

func (h *providerHandler) serve(pkg getty.Package) getty.Package {
	serialName := serialNameFor(pkg.Header.SerialID)
	serialization, err := extension.GetSerialization(serialName)
	if err != nil {
		return errorReply(pkg, base.SerializationError, err.Error())
	}

	var call invocationPayload
	if err := serialization.Unmarshal(pkg.Body, &call); err != nil {
		return errorReply(pkg, base.SerializationError, err.Error())
	}

	intf, ok := call.Attachments[constant.InterfaceKey]
	if !ok || intf == "" {
		return errorReply(pkg, base.ForbiddenError, "request missing service key attachment")
	}
	key := common.ServiceKey(intf, call.Attachments[constant.GroupKey], call.Attachments[constant.VersionKey])
	invoker, ok := h.exporterMap.Load(key)
	if !ok {
		return errorReply(pkg, base.UnknownError, "no exporter for service "+key)
	}

	invocation := base.NewRPCInvocation(call.Method, call.ParameterTypes, call.Arguments, call.Attachments)
	result := invoker.Invoke(context.Background(), invocation)

	reply := wireReply{Value: result.Result(), Attachments: result.Attachments()}
	if err := result.Error(); err != nil {
		if rpcErr, ok := err.(*base.RPCError); ok && rpcErr.Kind == base.BizError {
			reply.BizError = rpcErr.Message
		} else {
			return errorReply(pkg, base.UnknownError, err.Error())
		}
	}

	body, err := serialization.Marshal(reply)
	if err != nil {
		return errorReply(pkg, base.SerializationError, err.Error())
	}
	return getty.Package{
		Header: okHeader(pkg.Header, body),
		Body:   body,
	}
}

func (h *providerHandler) OnRequest(session apachegetty.Session, pkg getty.Package) {
	if !pkg.Header.TwoWay {
		h.serve(pkg)
		return
	}
	reply := h.serve(pkg)
	_ = session.WritePkg(reply, 0)
}

func serialNameFor(id byte) string {
	if id == constant.SerialIDJSON {
		return constant.JSONSerialization
	}
	return constant.Hessian2Serialization
}

// okHeader mirrors the request header back as a non-request, non-two-way
// reply carrying body's length and an OK status.
func okHeader(reqHeader codec.Header, body []byte) codec.Header {
	return codec.Header{
		IsRequest: false,
		TwoWay:    false,
		Event:     false,
		SerialID:  reqHeader.SerialID,
		Status:    constant.RespStatusOK,
		RequestID: reqHeader.RequestID,
		BodyLen:   int32(len(body)),
	}
}

// errorReply builds a non-OK reply; the status byte alone tells the
// consumer's DubboInvoker which ErrorKind to raise (statusKind in
// invoker.go), so the body carries the message only for logging and is
// never unmarshaled as a wireReply on that path.
func errorReply(reqHeader getty.Package, kind base.ErrorKind, message string) getty.Package {
	return getty.Package{
		Header: codec.Header{
			SerialID:  reqHeader.Header.SerialID,
			Status:    statusFor(kind),
			RequestID: reqHeader.Header.RequestID,
			BodyLen:   int32(len(message)),
		},
		Body: []byte(message),
	}
}

func statusFor(kind base.ErrorKind) byte {
	switch kind {
	case base.TimeoutError:
		return constant.RespStatusServerTimeout
	case base.SerializationError:
		return constant.RespStatusBadRequest
	case base.ForbiddenError:
		return constant.RespStatusServiceNotFound
	case base.LimitExceededError:
		return constant.RespStatusServerThreadpoolExhausted
	default:
		return constant.RespStatusServerError
	}
}
