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
	"time"

	apachegetty "github.com/apache/dubbo-getty"

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/remoting/codec"
	"github.com/meshrpc/meshrpc/remoting/exchange"
	"github.com/meshrpc/meshrpc/remoting/getty"
)

// exchangeClientCache shares one ExchangeClient per address across every
// DubboInvoker referring to it, the "shared server/client per host:port"
// rule from spec.md §4.5.
var (
	clientCacheMu sync.Mutex
	clientCache   = make(map[string]*ExchangeClient)
)

func getOrCreateExchangeClient(addr string) (*ExchangeClient, error) {
	clientCacheMu.Lock()
	defer clientCacheMu.Unlock()
	if c, ok := clientCache[addr]; ok {
		return c, nil
	}
	c, err := newExchangeClient(addr)
	if err != nil {
		return nil, err
	}
	clientCache[addr] = c
	return c, nil
}

// ExchangeClient owns one shared getty.Client per remote address plus the
// PendingResponseRegistry matching responses back to the Request that
// caused them (spec.md §4.3 "Exchange client").
type ExchangeClient struct {
	addr    string
	pending *exchange.PendingResponseRegistry
	client  *getty.Client
}

func newExchangeClient(addr string) (*ExchangeClient, error) {
	c := &ExchangeClient{addr: addr, pending: exchange.NewPendingResponseRegistry()}
	dispatch := getty.DirectDispatcher{}
	listener := getty.NewDubboEventListener(c, dispatch, constant.DefaultHeartbeat)
	c.client = getty.NewClient(addr, listener)
	if err := c.client.Connect(5 * time.Second); err != nil {
		return nil, err
	}
	return c, nil
}

// OnRequest is never invoked on the consumer side's exchange client: a
// pure client connection only receives responses.
func (c *ExchangeClient) OnRequest(session apachegetty.Session, pkg getty.Package) {}

func (c *ExchangeClient) OnResponse(pkg getty.Package) {
	c.pending.Resolve(&exchange.Response{
		ID:     pkg.Header.RequestID,
		Status: pkg.Header.Status,
		Result: pkg.Body,
	})
}

// Request sends req over the shared session and returns a channel that
// receives exactly one Response, resolved either by a matching reply or
// by timeout.
func (c *ExchangeClient) Request(ctx context.Context, req *exchange.Request, header codec.Header, body []byte, timeout time.Duration) (<-chan *exchange.Response, error) {
	pending := exchange.NewPendingResponse(req.ID, timeout)
	c.pending.Add(pending)

	if err := c.client.Send(getty.Package{Header: header, Body: body}); err != nil {
		c.pending.Remove(req.ID)
		return nil, err
	}

	out := make(chan *exchange.Response, 1)
	go func() {
		out <- pending.Wait(ctx.Done())
	}()
	return out, nil
}

func (c *ExchangeClient) Close() {
	c.client.Close()
}
