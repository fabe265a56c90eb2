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

package filterimpl

import (
	"context"
	"time"

	"github.com/dubbogo/gost/log/logger"

	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/filter"
	"github.com/meshrpc/meshrpc/protocol/base"
)

func init() {
	extension.SetFilter(constant.AccessLogFilterKey, newAccessLogFilter, "provider")
}

// accessLogFilter writes one structured log line per call, mirroring the
// teacher's reliance on dubbogo/gost's logger rather than stdlib log.
type accessLogFilter struct{}

func newAccessLogFilter() filter.Filter {
	return &accessLogFilter{}
}

func (f *accessLogFilter) Invoke(ctx context.Context, invoker base.Invoker, invocation base.Invocation) base.Result {
	start := time.Now()
	result := invoker.Invoke(ctx, invocation)
	elapsed := time.Since(start)

	if result.Error() != nil {
		logger.Infof("access-log: %s#%s failed in %s: %v",
			invoker.GetURL().ServiceKey(), invocation.MethodName(), elapsed, result.Error())
	} else {
		logger.Infof("access-log: %s#%s ok in %s",
			invoker.GetURL().ServiceKey(), invocation.MethodName(), elapsed)
	}
	return result
}

func (f *accessLogFilter) OnResponse(ctx context.Context, result base.Result, invoker base.Invoker, invocation base.Invocation) base.Result {
	return result
}
