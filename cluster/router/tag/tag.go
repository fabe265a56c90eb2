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

// Package tag implements spec.md §4.6's tag router: routes a call to the
// invoker subset whose "tag" provider parameter matches the invocation's
// "tag" attachment, falling back to untagged invokers when no tagged
// candidate is available and the rule does not force isolation.
package tag

import (
	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "tag"

const tagAttachmentKey = "tag"
const tagParamKey = "tag"

func init() {
	extension.SetRouterFactory(Name, NewTagRouter)
}

// TagRouter reads its force flag from routerURL; the tag value itself
// travels per-call as an invocation attachment, not as part of the rule.
type TagRouter struct {
	url      *common.URL
	priority int64
	force    bool
}

func NewTagRouter(routerURL *common.URL) (cluster.Router, error) {
	return &TagRouter{
		url:      routerURL,
		priority: routerURL.GetParamInt("priority", 0),
		force:    routerURL.GetParam("force", "false") == "true",
	}, nil
}

func (r *TagRouter) URL() *common.URL { return r.url }
func (r *TagRouter) Priority() int64  { return r.priority }

func (r *TagRouter) Route(invokers []base.Invoker, url *common.URL, invocation base.Invocation) []base.Invoker {
	tag, ok := invocation.Attachment(tagAttachmentKey)
	if !ok || tag == "" {
		return r.untagged(invokers)
	}

	var tagged []base.Invoker
	for _, inv := range invokers {
		if inv.GetURL().GetParam(tagParamKey, "") == tag {
			tagged = append(tagged, inv)
		}
	}
	if len(tagged) > 0 {
		return tagged
	}
	if r.force {
		return nil
	}
	return r.untagged(invokers)
}

func (r *TagRouter) untagged(invokers []base.Invoker) []base.Invoker {
	var out []base.Invoker
	for _, inv := range invokers {
		if inv.GetURL().GetParam(tagParamKey, "") == "" {
			out = append(out, inv)
		}
	}
	if len(out) == 0 {
		return invokers
	}
	return out
}
