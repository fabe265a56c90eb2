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

// Package condition implements the condition router (spec.md §4.6
// "Routers" table): a rule of the shape "when-clause => then-clause",
// where each clause is an &-joined list of key=value or key!=value terms,
// a term's value being a comma-separated set of alternatives that are
// matched exactly (no glob wildcards). An invoker survives when either the
// when-clause doesn't match the invocation/consumer URL, or it matches
// and the invoker's URL also matches the then-clause.
package condition

import (
	"strings"

	"github.com/meshrpc/meshrpc/cluster"
	"github.com/meshrpc/meshrpc/common"
	"github.com/meshrpc/meshrpc/common/constant"
	"github.com/meshrpc/meshrpc/common/extension"
	"github.com/meshrpc/meshrpc/protocol/base"
)

const Name = "condition"

func init() {
	extension.SetRouterFactory(Name, NewConditionRouter)
}

type matchTerm struct {
	key      string
	values   map[string]bool
	negate   bool
}

// ConditionRouter filters invokers per a when/then rule pair parsed from
// its URL's "rule" parameter: "when => then".
type ConditionRouter struct {
	url      *common.URL
	priority int64
	force    bool
	when     []matchTerm
	then     []matchTerm
}

// NewConditionRouter parses routerURL's rule parameter into a
// ConditionRouter. routerURL carries rule, priority, and force as
// ordinary URL parameters, the way the registry's router
// category znode content is assumed to be encoded (spec.md §4.2
// "Routers" category).
func NewConditionRouter(routerURL *common.URL) (cluster.Router, error) {
	rule := routerURL.GetParam("rule", "")
	when, then, err := parseRule(rule)
	if err != nil {
		return nil, err
	}
	return &ConditionRouter{
		url:      routerURL,
		priority: routerURL.GetParamInt("priority", 0),
		force:    routerURL.GetParamBool("force", false),
		when:     when,
		then:     then,
	}, nil
}

func (r *ConditionRouter) URL() *common.URL { return r.url }
func (r *ConditionRouter) Priority() int64  { return r.priority }

func (r *ConditionRouter) Route(invokers []base.Invoker, url *common.URL, invocation base.Invocation) []base.Invoker {
	if len(r.when) > 0 && !matchAll(r.when, url, nil) {
		return invokers
	}
	if len(r.then) == 0 {
		if r.force {
			return nil
		}
		return invokers
	}

	result := make([]base.Invoker, 0, len(invokers))
	for _, invoker := range invokers {
		if matchAll(r.then, invoker.GetURL(), url) {
			result = append(result, invoker)
		}
	}
	if len(result) == 0 && !r.force {
		return invokers
	}
	return result
}

// matchAll evaluates every term against subject, resolving "$consumer"
// style placeholders in term values against the consumer URL where
// provided.
func matchAll(terms []matchTerm, subject *common.URL, consumer *common.URL) bool {
	for _, term := range terms {
		actual := fieldOf(subject, term.key)
		ok := term.values[actual]
		if !ok && consumer != nil {
			for v := range term.values {
				if strings.HasPrefix(v, "$") && fieldOf(consumer, v[1:]) == actual {
					ok = true
					break
				}
			}
		}
		if term.negate {
			ok = !ok
		}
		if !ok {
			return false
		}
	}
	return true
}

func fieldOf(url *common.URL, key string) string {
	switch key {
	case constant.InterfaceKey:
		return url.Service()
	case "host":
		return url.Ip
	case constant.GroupKey:
		return url.Group()
	case constant.VersionKey:
		return url.Version()
	default:
		return url.GetParam(key, "")
	}
}

// parseRule splits "when => then" into matchTerm slices; a rule with no
// "=>" is treated as a then-only rule (always matches when).
func parseRule(rule string) (when, then []matchTerm, err error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, nil, nil
	}
	parts := strings.SplitN(rule, "=>", 2)
	var whenClause, thenClause string
	if len(parts) == 2 {
		whenClause = strings.TrimSpace(parts[0])
		thenClause = strings.TrimSpace(parts[1])
	} else {
		thenClause = strings.TrimSpace(parts[0])
	}
	when = parseClause(whenClause)
	then = parseClause(thenClause)
	return when, then, nil
}

func parseClause(clause string) []matchTerm {
	if clause == "" {
		return nil
	}
	segments := strings.Split(clause, "&")
	terms := make([]matchTerm, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		negate := false
		op := "="
		idx := strings.Index(seg, "!=")
		if idx >= 0 {
			negate = true
		} else {
			idx = strings.Index(seg, "=")
		}
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(seg[:idx])
		valuePart := seg[idx+len(op):]
		if negate {
			valuePart = seg[idx+2:]
		}
		values := make(map[string]bool)
		for _, v := range strings.Split(valuePart, ",") {
			values[strings.TrimSpace(v)] = true
		}
		terms = append(terms, matchTerm{key: key, values: values, negate: negate})
	}
	return terms
}
