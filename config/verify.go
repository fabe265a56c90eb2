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

import "fmt"

// verify is the single post-Init validation hook every *Config.Init calls.
// None of this tree's structs carry validator struct tags, so a
// go-playground/validator instance would have nothing to evaluate beyond
// what the checks below already cover directly; verify stays a plain
// function rather than a pulled-in dependency (see DESIGN.md).
func verify(v any) error {
	switch cfg := v.(type) {
	case *ApplicationConfig:
		if cfg.Name == "" {
			return fmt.Errorf("application.name must not be empty")
		}
	case *RegistryConfig:
		if cfg.Address == "" {
			return fmt.Errorf("registry.address must not be empty")
		}
	case *ProtocolConfig:
		if cfg.Name == "" {
			return fmt.Errorf("protocol.name must not be empty")
		}
	case *ShutdownConfig:
		// timeout/step-timeout are defaulted above; nothing further to check.
	case *ReferenceConfig:
		if cfg.InterfaceName == "" {
			return fmt.Errorf("reference.interface must not be empty")
		}
	case *ServiceConfig:
		if cfg.InterfaceName == "" {
			return fmt.Errorf("service.interface must not be empty")
		}
	}
	return nil
}
