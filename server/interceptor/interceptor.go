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

// Package interceptor implements per-request admission control: it decides,
// before a request reaches its handler, whether the client is within quota,
// and exposes the decision as an HTTP middleware and a gRPC unary
// interceptor.
package interceptor

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"

	"github.com/memvex/gatekeeper/quota"
)

// Decision is the outcome of one admission evaluation.
type Decision struct {
	// Admit is true when the request may proceed to its handler.
	Admit bool

	// Client is the resolved client key. Empty for exempt paths, which
	// skip client resolution.
	Client string

	// Rule is the quota rule that produced the decision. Zero for exempt
	// paths.
	Rule quota.Rule

	// RetryAfter estimates how long the client must wait before a retry can
	// succeed. Only set on rejection.
	RetryAfter time.Duration
}

// Interceptor evaluates one admission decision per request: classify the
// route, resolve the client, then take a token from the matching bucket.
//
// Rejection is a normal, frequent outcome. It is counted, never logged as
// an error, and surfaces to callers as a decision value rather than an
// error from this package.
//
// Calling the interceptor twice for one logical request consumes two
// tokens; it keeps no request identity, so deduplication of internal
// retries is the caller's responsibility.
type Interceptor struct {
	Routes     *RouteTable
	Store      *quota.Store
	Identifier ClientIdentifier

	// DryRun controls whether an exhausted bucket actually blocks requests
	// (if set to true, no requests are blocked; rejections are still
	// counted). Intended for rollout of new quota rules.
	DryRun bool
}

// Admit evaluates the admission decision for a request described by its
// method, path and transport metadata. Exempt paths are admitted
// unconditionally and consume no tokens.
func (i *Interceptor) Admit(method, path, remoteAddr string, header http.Header) Decision {
	start := time.Now()
	defer func() {
		observeLatency(time.Since(start).Seconds())
	}()
	incRequestCounter()

	rule, exempt := i.Routes.Resolve(method, path)
	if exempt {
		return Decision{Admit: true}
	}

	client := i.Identifier.Identify(remoteAddr, header)
	spec := quota.Spec{Client: client, Class: rule.Class}
	ok, retryAfter := i.Store.Consume(spec, rule, 1)
	if !ok {
		incRejectedCounter(rule.Pattern)
		if i.DryRun {
			klog.V(1).Infof("(DryRun) %v %v from %v over quota, not denied", method, path, client)
			return Decision{Admit: true, Client: client, Rule: rule}
		}
		return Decision{Admit: false, Client: client, Rule: rule, RetryAfter: retryAfter}
	}
	return Decision{Admit: true, Client: client, Rule: rule}
}

// Handler wraps next with admission control. Rejected requests receive
// 429 Too Many Requests with a Retry-After hint; admitted requests pass
// through untouched. Tokens spent on requests that later fail downstream
// are not refunded.
func (i *Interceptor) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := i.Admit(r.Method, r.URL.Path, r.RemoteAddr, r.Header)
		if !decision.Admit {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UnaryInterceptor applies the same admission control to gRPC unary RPCs,
// using the full method name as the route path. Rejections map to
// ResourceExhausted, the gRPC equivalent of 429.
func (i *Interceptor) UnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	var remoteAddr string
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		remoteAddr = p.Addr.String()
	}
	header := make(http.Header)
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, name := range []string{"x-forwarded-for", "forwarded"} {
			if vals := md.Get(name); len(vals) > 0 {
				header.Set(name, vals[0])
			}
		}
	}

	// All RPCs arrive as POST; routes that refill from the read bucket
	// need an explicit rule for their method pattern.
	decision := i.Admit(http.MethodPost, info.FullMethod, remoteAddr, header)
	if !decision.Admit {
		return nil, status.Errorf(codes.ResourceExhausted, "quota exhausted for %v", decision.Rule.Pattern)
	}
	return handler(ctx, req)
}

// retryAfterSeconds renders a Retry-After hint, rounding up so a client
// that waits the advertised time always finds a token.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
