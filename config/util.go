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

import "strings"

// mergeValue combines a user-supplied comma list (val) with a default
// comma list (def), honoring a "-name" entry in val to suppress a name
// that would otherwise come from def — the same convention
// extension.GetActivateExtension applies to filter chains.
func mergeValue(val, sep, def string) string {
	if val == "" {
		if sep != "" {
			return sep + def
		}
		return def
	}

	removed := make(map[string]bool)
	var kept []string
	for _, name := range strings.Split(val, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.HasPrefix(name, "-") {
			removed[strings.TrimPrefix(name, "-")] = true
			continue
		}
		kept = append(kept, name)
	}
	for _, name := range strings.Split(def, ",") {
		name = strings.TrimSpace(name)
		if name == "" || removed[name] {
			continue
		}
		kept = append(kept, name)
	}
	return strings.Join(kept, ",")
}
