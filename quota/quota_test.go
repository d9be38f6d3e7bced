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

package quota

import "testing"

func TestSpec_Name(t *testing.T) {
	tests := []struct {
		spec Spec
		want string
	}{
		{spec: Spec{Client: "10.0.0.7", Class: Read}, want: "clients/10.0.0.7/read"},
		{spec: Spec{Client: "10.0.0.7", Class: Write}, want: "clients/10.0.0.7/write"},
		{spec: Spec{Client: "2001:db8::1", Class: Read}, want: "clients/2001:db8::1/read"},
		{spec: Spec{Client: "llama", Class: Class("reindex")}, want: "clients/llama/reindex"},
	}
	for _, test := range tests {
		if got := test.spec.Name(); got != test.want {
			t.Errorf("%#v.Name() = %v, want = %v", test.spec, got, test.want)
		}
	}
}

func TestRule_Validate(t *testing.T) {
	tests := []struct {
		desc    string
		rule    Rule
		wantErr bool
	}{
		{
			desc: "ok",
			rule: Rule{Pattern: "/search", Class: Read, QPS: 10, Burst: 20},
		},
		{
			desc: "fractionalQPS",
			rule: Rule{Pattern: "/reindex", Class: Write, QPS: 0.5, Burst: 1},
		},
		{
			desc:    "zeroQPS",
			rule:    Rule{Pattern: "/search", Class: Read, QPS: 0, Burst: 20},
			wantErr: true,
		},
		{
			desc:    "negativeQPS",
			rule:    Rule{Pattern: "/search", Class: Read, QPS: -1, Burst: 20},
			wantErr: true,
		},
		{
			desc:    "zeroBurst",
			rule:    Rule{Pattern: "/search", Class: Read, QPS: 10, Burst: 0},
			wantErr: true,
		},
		{
			desc:    "emptyClass",
			rule:    Rule{Pattern: "/search", QPS: 10, Burst: 20},
			wantErr: true,
		},
	}
	for _, test := range tests {
		err := test.rule.Validate()
		if gotErr := err != nil; gotErr != test.wantErr {
			t.Errorf("%v: Validate() returned err = %v, wantErr = %v", test.desc, err, test.wantErr)
		}
	}
}
