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

// Package warmup computes an invoker's effective weight, shared by every
// load balance policy that is weight-aware (spec.md §4.6: "weight ramps
// linearly over the warmup window"). A freshly started provider advertises
// its full weight immediately; callers would otherwise flood it before its
// connection pools and caches are hot.
package warmup

import (
	"strconv"
	"time"

	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
)

// EffectiveWeight returns invokerURL's configured weight, ramped down if
// the provider is still inside its warmup window.
func EffectiveWeight(invokerURL *common.URL, methodName string) int64 {
	weight := invokerURL.GetMethodParamInt64(methodName, constant.WeightKey, constant.DefaultWeight)
	if weight <= 0 {
		return 0
	}

	timestamp := invokerURL.GetParam(constant.TimestampKey, "")
	if timestamp == "" {
		return weight
	}
	uptimeMs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return weight
	}
	uptime := time.Since(time.UnixMilli(uptimeMs))
	warmupDuration := invokerURL.GetMethodParamDuration(methodName, constant.WarmupKey, constant.DefaultWarmup)
	if warmupDuration <= 0 || uptime >= warmupDuration {
		return weight
	}

	ramped := int64(float64(weight) * float64(uptime) / float64(warmupDuration))
	if ramped < 1 {
		return 1
	}
	if ramped > weight {
		return weight
	}
	return ramped
}
