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

package getty

import (
	"errors"
	"sync"
	"time"

	"github.com/apache/dubbo-getty"

	"github.com/meshrpc/meshrpc/common/constant"
)

var ErrNotConnected = errors.New("getty: client has no live session")

// Client is one consumer-side connection to a provider address, reused
// across every invocation against that address (spec.md §4.4 "one
// session per address, multiplexed").
type Client struct {
	addr     string
	listener *DubboEventListener

	mu      sync.RWMutex
	session getty.Session
	inner   getty.Client
}

func NewClient(addr string, listener *DubboEventListener) *Client {
	return &Client{addr: addr, listener: listener}
}

func (c *Client) Connect(connectTimeout time.Duration) error {
	c.inner = getty.NewTCPClient(
		getty.WithServerAddress(c.addr),
		getty.WithConnectionNumber(1),
		getty.WithDialTimeout(connectTimeout),
	)
	c.inner.RunEventLoop(c.newSession)

	deadline := time.Now().Add(connectTimeout)
	for time.Now().Before(deadline) {
		if c.Session() != nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return ErrNotConnected
}

func (c *Client) newSession(session getty.Session) error {
	session.SetPkgHandler(&PackageHandler{})
	session.SetEventListener(c.listener)
	session.SetReadTimeout(constant.DefaultHeartbeatTimeout)
	session.SetWriteTimeout(5 * time.Second)

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	return nil
}

func (c *Client) Session() getty.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Send writes pkg to the live session, failing fast if the connection has
// dropped rather than queuing behind a reconnect.
func (c *Client) Send(pkg Package) error {
	session := c.Session()
	if session == nil {
		return ErrNotConnected
	}
	_, err := session.WritePkg(pkg, 5*time.Second)
	return err
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}
