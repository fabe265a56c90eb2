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
	"time"

	"github.com/apache/dubbo-getty"

	"github.com/meshrpc/meshrpc/common/constant"
)

// Server listens on one host:port and shares the listener across every
// exported service on that address (spec.md §4.5 "shared server per
// host:port").
type Server struct {
	addr     string
	listener *DubboEventListener
	inner    getty.Server
}

// NewServer builds a Server bound to addr; Start begins accepting.
func NewServer(addr string, listener *DubboEventListener) *Server {
	return &Server{addr: addr, listener: listener}
}

func (s *Server) Start() {
	options := []getty.ServerOption{getty.WithLocalAddress(s.addr)}
	s.inner = getty.NewTCPServer(options...)
	s.inner.RunEventLoop(s.newSession)
}

func (s *Server) newSession(session getty.Session) error {
	session.SetPkgHandler(&PackageHandler{})
	session.SetEventListener(s.listener)
	session.SetReadTimeout(constant.DefaultHeartbeatTimeout)
	session.SetWriteTimeout(5 * time.Second)
	return nil
}

func (s *Server) Stop() {
	if s.inner != nil {
		s.inner.Close()
	}
}
