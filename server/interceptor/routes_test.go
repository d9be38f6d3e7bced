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
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/memvex/gatekeeper/quota"
)

var (
	searchRule = quota.Rule{Pattern: "/search", Class: quota.Read, QPS: 5, Burst: 10}
	uploadRule = quota.Rule{Pattern: "/upload", Class: quota.Write, QPS: 2, Burst: 4}
	memoryRule = quota.Rule{Pattern: "/memory/search", Class: quota.Read, QPS: 1, Burst: 2}
	globalRule = quota.Rule{Pattern: DefaultRoute, QPS: 10, Burst: 20}
)

func newTestTable(t *testing.T) *RouteTable {
	t.Helper()
	table, err := NewRouteTable([]quota.Rule{searchRule, uploadRule, memoryRule}, globalRule)
	if err != nil {
		t.Fatalf("NewRouteTable() returned err = %v", err)
	}
	return table
}

func TestNewRouteTableErrors(t *testing.T) {
	tests := []struct {
		desc   string
		rules  []quota.Rule
		global quota.Rule
	}{
		{
			desc:   "invalidRule",
			rules:  []quota.Rule{{Pattern: "/search", Class: quota.Read, QPS: 0, Burst: 1}},
			global: globalRule,
		},
		{
			desc:   "invalidGlobalQPS",
			global: quota.Rule{QPS: 0, Burst: 20},
		},
		{
			desc:   "invalidGlobalBurst",
			global: quota.Rule{QPS: 10, Burst: 0},
		},
	}
	for _, test := range tests {
		if _, err := NewRouteTable(test.rules, test.global); err == nil {
			t.Errorf("%v: NewRouteTable() returned err = nil, want non-nil", test.desc)
		}
	}
}

func TestRouteTable_Resolve(t *testing.T) {
	table := newTestTable(t)
	tests := []struct {
		desc       string
		method     string
		path       string
		wantRule   quota.Rule
		wantExempt bool
	}{
		{
			desc:     "exactMatch",
			method:   http.MethodGet,
			path:     "/search",
			wantRule: searchRule,
		},
		{
			desc:     "nestedPathMatches",
			method:   http.MethodGet,
			path:     "/search/v2",
			wantRule: searchRule,
		},
		{
			desc:     "prefixNeedsSegmentBoundary",
			method:   http.MethodGet,
			path:     "/searchable",
			wantRule: quota.Rule{Pattern: DefaultRoute, Class: quota.Read, QPS: 10, Burst: 20},
		},
		{
			desc:     "longestPatternWins",
			method:   http.MethodGet,
			path:     "/memory/search",
			wantRule: memoryRule,
		},
		{
			desc:     "writeRoute",
			method:   http.MethodPost,
			path:     "/upload",
			wantRule: uploadRule,
		},
		{
			desc:     "unknownRouteGetFallsBackToRead",
			method:   http.MethodGet,
			path:     "/unknown",
			wantRule: quota.Rule{Pattern: DefaultRoute, Class: quota.Read, QPS: 10, Burst: 20},
		},
		{
			desc:     "unknownRoutePostFallsBackToWrite",
			method:   http.MethodPost,
			path:     "/unknown",
			wantRule: quota.Rule{Pattern: DefaultRoute, Class: quota.Write, QPS: 10, Burst: 20},
		},
		{
			desc:       "rootExempt",
			method:     http.MethodGet,
			path:       "/",
			wantExempt: true,
		},
		{
			desc:       "healthExempt",
			method:     http.MethodGet,
			path:       "/healthz",
			wantExempt: true,
		},
		{
			desc:       "readyExempt",
			method:     http.MethodGet,
			path:       "/ready",
			wantExempt: true,
		},
		{
			desc:       "metricsExempt",
			method:     http.MethodGet,
			path:       "/metrics",
			wantExempt: true,
		},
	}
	for _, test := range tests {
		rule, exempt := table.Resolve(test.method, test.path)
		if exempt != test.wantExempt {
			t.Errorf("%v: Resolve(%v, %v) exempt = %v, want %v", test.desc, test.method, test.path, exempt, test.wantExempt)
			continue
		}
		if test.wantExempt {
			continue
		}
		if diff := cmp.Diff(rule, test.wantRule); diff != "" {
			t.Errorf("%v: Resolve(%v, %v) rule diff (-got +want):\n%v", test.desc, test.method, test.path, diff)
		}
	}
}
