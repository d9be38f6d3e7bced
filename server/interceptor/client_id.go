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
	"net"
	"net/http"
	"strings"

	"k8s.io/klog/v2"
)

// ClientIdentifier resolves the client key for a request from its transport
// metadata. It is a pure function of its inputs and never fails: anything it
// cannot parse degrades to the socket peer address.
type ClientIdentifier struct {
	// TrustProxy enables client resolution from the X-Forwarded-For and
	// Forwarded headers. Only safe behind a reverse proxy that is
	// guaranteed to set them; otherwise clients can choose their own
	// quota key.
	TrustProxy bool
}

// Identify returns the client key for a request with the given peer address
// and headers.
func (ci ClientIdentifier) Identify(remoteAddr string, header http.Header) string {
	if ci.TrustProxy {
		if client := forwardedClient(header); client != "" {
			return client
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(remoteAddr))
	if err == nil && host != "" {
		return host
	}
	if addr := strings.TrimSpace(remoteAddr); addr != "" {
		return addr
	}
	return "unknown"
}

// forwardedClient extracts the original client address from proxy headers,
// preferring X-Forwarded-For over the RFC 7239 Forwarded header. Returns ""
// if neither header carries a usable address.
func forwardedClient(header http.Header) string {
	if xff := header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the original client; later ones are proxies.
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := parseAddr(first); ip != "" {
			return ip
		}
		klog.V(1).Infof("Unparseable X-Forwarded-For %q, trying next source", xff)
	}
	if fwd := header.Get("Forwarded"); fwd != "" {
		first := strings.Split(fwd, ",")[0]
		for _, part := range strings.Split(first, ";") {
			kv := strings.SplitN(part, "=", 2)
			if len(kv) != 2 || !strings.EqualFold(strings.TrimSpace(kv[0]), "for") {
				continue
			}
			if ip := parseAddr(strings.Trim(strings.TrimSpace(kv[1]), `"`)); ip != "" {
				return ip
			}
		}
		klog.V(1).Infof("Unparseable Forwarded %q, falling back to socket address", fwd)
	}
	return ""
}

// parseAddr normalizes a forwarded address value to a bare IP string.
// Handles "192.0.2.60", "192.0.2.60:8080" and "[2001:db8::1]:443" forms;
// returns "" for anything else (including RFC 7239 "unknown" and obfuscated
// identifiers).
func parseAddr(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	addr = strings.Trim(addr, "[]")
	if ip := net.ParseIP(addr); ip != nil {
		return ip.String()
	}
	return ""
}
