// Copyright 2025 Memvex Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package interceptor

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/memvex/gatekeeper/quota"
)

// DefaultRoute is the route label reported for requests that match no
// configured pattern and fall back to the global default rule.
const DefaultRoute = "default"

// defaultExemptPrefixes lists path prefixes that bypass rate limiting
// entirely: health, readiness and monitoring endpoints must stay reachable
// even for clients that have exhausted every quota. The root path "/" is
// exempt as an exact match only.
var defaultExemptPrefixes = []string{"/health", "/ready", "/metrics"}

// RouteTable maps requests to the quota rule that governs them. It is
// immutable after construction; config reloads build a new table and swap
// the engine's pointer atomically rather than mutating a live table.
type RouteTable struct {
	exempt []string
	rules  []quota.Rule
	global quota.Rule
}

// NewRouteTable builds a RouteTable from route-specific rules and a global
// default. The global rule is applied, with its class chosen by request
// method, to any route that matches no pattern: an unknown route is never
// unlimited. All rules are validated; a table is never built in a state
// that could admit unboundedly.
func NewRouteTable(rules []quota.Rule, global quota.Rule) (*RouteTable, error) {
	if global.Pattern == "" {
		global.Pattern = DefaultRoute
	}
	check := global
	check.Class = quota.Read
	if err := check.Validate(); err != nil {
		return nil, fmt.Errorf("global rule: %v", err)
	}

	ordered := make([]quota.Rule, len(rules))
	copy(ordered, rules)
	for _, r := range ordered {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	// Longest pattern first, so the most specific rule wins for nested
	// paths.
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Pattern) > len(ordered[j].Pattern)
	})

	return &RouteTable{
		exempt: defaultExemptPrefixes,
		rules:  ordered,
		global: global,
	}, nil
}

// Resolve returns the rule governing method+path, or exempt=true when the
// path bypasses rate limiting altogether.
func (t *RouteTable) Resolve(method, path string) (rule quota.Rule, exempt bool) {
	if t.Exempt(path) {
		return quota.Rule{}, true
	}
	for _, r := range t.rules {
		if routeMatches(r.Pattern, path) {
			return r, false
		}
	}
	rule = t.global
	rule.Pattern = DefaultRoute
	rule.Class = classForMethod(method)
	return rule, false
}

// Exempt reports whether path bypasses rate limiting.
func (t *RouteTable) Exempt(path string) bool {
	if path == "/" {
		return true
	}
	for _, prefix := range t.exempt {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// routeMatches reports whether path falls under pattern: either an exact
// match or a path-segment prefix (pattern "/search" matches "/search" and
// "/search/v2", but not "/searchable").
func routeMatches(pattern, path string) bool {
	if path == pattern {
		return true
	}
	pattern = strings.TrimSuffix(pattern, "/")
	return strings.HasPrefix(path, pattern+"/")
}

// classForMethod groups requests without a route-specific rule: mutating
// methods draw from the write bucket, everything else from the read bucket.
func classForMethod(method string) quota.Class {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return quota.Write
	default:
		return quota.Read
	}
}
