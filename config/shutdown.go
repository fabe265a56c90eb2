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

package config

import (
	"time"

	"go.uber.org/atomic"

	"github.com/dubbogo/gost/log/logger"
)

// shuttingDown guards BeforeShutdown against concurrent/repeat invocation:
// the first caller runs the teardown, every later caller (a duplicate
// signal handler fire, a second explicit Stop) returns immediately.
var shuttingDown atomic.Bool

// ShutdownConfig holds BeforeShutdown's timings (spec.md §5's
// graceful-shutdown window): StepTimeout is the pause taken before
// invoker/exporter teardown; Timeout is only reported in the log.
type ShutdownConfig struct {
	Timeout string `yaml:"timeout" json:"timeout,omitempty" property:"timeout"`
	StepTimeout string `yaml:"step-timeout" json:"step-timeout,omitempty" property:"step-timeout"`
}

func (sc *ShutdownConfig) Init() error {
	if sc.Timeout == "" {
		sc.Timeout = "60s"
	}
	if sc.StepTimeout == "" {
		sc.StepTimeout = "10s"
	}
	return verify(sc)
}

func (sc *ShutdownConfig) timeout() time.Duration {
	d, err := time.ParseDuration(sc.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

func (sc *ShutdownConfig) stepTimeout() time.Duration {
	d, err := time.ParseDuration(sc.StepTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// BeforeShutdown pauses for the configured step timeout, then unexports
// every provider service and destroys every consumer reference registered
// on rc. In-flight invocations are not tracked. Safe to call more than
// once; only the first call does anything.
func (rc *RootConfig) BeforeShutdown() {
	if !shuttingDown.CAS(false, true) {
		return
	}

	var sc ShutdownConfig
	if rc.Shutdown != nil {
		sc = *rc.Shutdown
	}
	_ = sc.Init()

	logger.Infof("shutting down, waiting up to %s for in-flight calls to drain", sc.timeout())
	time.Sleep(sc.stepTimeout())

	if rc.Provider != nil {
		for _, sv := range rc.Provider.Services {
			sv.Unexport()
		}
	}
	if rc.Consumer != nil {
		for _, rf := range rc.Consumer.References {
			rf.Destroy()
		}
	}
}
