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
)

func TestClientIdentifier_Identify(t *testing.T) {
	tests := []struct {
		desc       string
		trustProxy bool
		remoteAddr string
		header     map[string]string
		want       string
	}{
		{
			desc:       "socketAddress",
			remoteAddr: "10.1.2.3:5555",
			want:       "10.1.2.3",
		},
		{
			desc:       "socketAddressIPv6",
			remoteAddr: "[2001:db8::9]:5555",
			want:       "2001:db8::9",
		},
		{
			desc:       "headersIgnoredWithoutTrust",
			remoteAddr: "10.1.2.3:5555",
			header:     map[string]string{"X-Forwarded-For": "198.51.100.7"},
			want:       "10.1.2.3",
		},
		{
			desc:       "xffSingle",
			trustProxy: true,
			remoteAddr: "10.1.2.3:5555",
			header:     map[string]string{"X-Forwarded-For": "198.51.100.7"},
			want:       "198.51.100.7",
		},
		{
			desc:       "xffFirstOfMany",
			trustProxy: true,
			remoteAddr: "10.1.2.3:5555",
			header:     map[string]string{"X-Forwarded-For": "198.51.100.7, 203.0.113.10, 10.0.0.1"},
			want:       "198.51.100.7",
		},
		{
			desc:       "xffWithPort",
			trustProxy: true,
			remoteAddr: "10.1.2.3:5555",
			header:     map[string]string{"X-Forwarded-For": "198.51.100.7:4711"},
			want:       "198.51.100.7",
		},
		{
			desc:       "xffMalformedFallsBack",
			trustProxy: true,
			remoteAddr: "10.1.2.3:5555",
			header:     map[string]string{"X-Forwarded-For": "not-an-address"},
			want:       "10.1.2.3",
		},
		{
			desc:       "forwardedHeader",
			trustProxy: true,
			remoteAddr: "10.1.2.3:5555",
			header:     map[string]string{"Forwarded": "for=192.0.2.60;proto=http;by=203.0.113.43"},
			want:       "192.0.2.60",
		},
		{
			desc:       "forwardedQuotedIPv6",
			trustProxy: true,
			remoteAddr: "10.1.2.3:5555",
			header:     map[string]string{"Forwarded": `for="[2001:db8::1]:443"`},
			want:       "2001:db8::1",
		},
		{
			desc:       "forwardedFirstElement",
			trustProxy: true,
			remoteAddr: "10.1.2.3:5555",
			header:     map[string]string{"Forwarded": "for=192.0.2.60, for=203.0.113.10"},
			want:       "192.0.2.60",
		},
		{
			desc:       "forwardedUnknownFallsBack",
			trustProxy: true,
			remoteAddr: "10.1.2.3:5555",
			header:     map[string]string{"Forwarded": "for=unknown"},
			want:       "10.1.2.3",
		},
		{
			desc:       "xffPreferredOverForwarded",
			trustProxy: true,
			remoteAddr: "10.1.2.3:5555",
			header: map[string]string{
				"X-Forwarded-For": "198.51.100.7",
				"Forwarded":       "for=192.0.2.60",
			},
			want: "198.51.100.7",
		},
		{
			desc:       "remoteAddrWithoutPort",
			remoteAddr: "10.1.2.3",
			want:       "10.1.2.3",
		},
		{
			desc: "emptyRemoteAddr",
			want: "unknown",
		},
	}
	for _, test := range tests {
		header := make(http.Header)
		for k, v := range test.header {
			header.Set(k, v)
		}
		ci := ClientIdentifier{TrustProxy: test.trustProxy}
		if got := ci.Identify(test.remoteAddr, header); got != test.want {
			t.Errorf("%v: Identify(%q) = %q, want %q", test.desc, test.remoteAddr, got, test.want)
		}
	}
}
