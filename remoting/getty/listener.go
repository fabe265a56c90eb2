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
	"github.com/dubbogo/gost/log/logger"

	"github.com/meshrpc/meshrpc/remoting/exchange"
)

// Handler is notified of frames decoded off a session, after dispatch has
// already moved the call onto the chosen worker-pool goroutine (spec.md
// §4.4 "Dispatcher").
type Handler interface {
	// OnRequest handles an inbound request frame (the provider side).
	OnRequest(session getty.Session, pkg Package)
	// OnResponse handles an inbound response frame, resolving the matching
	// PendingResponse (the consumer side).
	OnResponse(pkg Package)
}

// DubboEventListener adapts a Handler to getty's EventListener contract,
// running every inbound non-event frame through dispatch before invoking
// Handler. Every inbound frame touches Heartbeat and heartbeat requests
// are answered; nothing here reads ShouldPing or ShouldClose, so idle
// sessions are neither probed nor closed by this listener.
type DubboEventListener struct {
	Handler   Handler
	Dispatch  Dispatcher
	Heartbeat *exchange.HeartbeatMonitor
}

func NewDubboEventListener(handler Handler, dispatch Dispatcher, heartbeatInterval time.Duration) *DubboEventListener {
	return &DubboEventListener{
		Handler:   handler,
		Dispatch:  dispatch,
		Heartbeat: exchange.NewHeartbeatMonitor(heartbeatInterval),
	}
}

func (l *DubboEventListener) OnOpen(session getty.Session) error {
	logger.Infof("getty: session opened %s", session.Stat())
	return nil
}

func (l *DubboEventListener) OnError(session getty.Session, err error) {
	logger.Warnf("getty: session %s error: %v", session.Stat(), err)
}

func (l *DubboEventListener) OnClose(session getty.Session) {
	logger.Infof("getty: session closed %s", session.Stat())
}

func (l *DubboEventListener) OnMessage(session getty.Session, pkgData any) {
	l.Heartbeat.Touch()
	pkg, ok := pkgData.(Package)
	if !ok {
		logger.Warnf("getty: dropping non-Package message %T", pkgData)
		return
	}
	if pkg.Header.Event {
		// heartbeat request/response: touching the monitor above is enough;
		// a heartbeat request still gets a reply so the peer's monitor
		// resets too.
		if pkg.Header.IsRequest && pkg.Header.TwoWay {
			reply := Package{Header: pkg.Header}
			reply.Header.IsRequest = false
			_ = session.WritePkg(reply, 0)
		}
		return
	}

	l.Dispatch.Dispatch(func() {
		if pkg.Header.IsRequest {
			l.Handler.OnRequest(session, pkg)
		} else {
			l.Handler.OnResponse(pkg)
		}
	})
}

func (l *DubboEventListener) OnCut(session getty.Session) {
	logger.Warnf("getty: session %s write queue overflowed, cutting", session.Stat())
}
