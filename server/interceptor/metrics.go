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
	"github.com/memvex/gatekeeper/monitoring"
)

var (
	requestCounter       monitoring.Counter
	rejectedCounter      monitoring.Counter
	rejectedRouteCounter monitoring.Counter
	requestLatency       monitoring.Histogram
)

// InitMetrics initializes the metrics on the interceptor package.
func InitMetrics(mf monitoring.MetricFactory) {
	requestCounter = mf.NewCounter("interceptor_request_count", "Total number of intercepted requests")
	rejectedCounter = mf.NewCounter("interceptor_request_rejected_count", "Total number of requests rejected by rate limiting")
	rejectedRouteCounter = mf.NewCounter(
		"interceptor_route_rejected_count",
		"Number of requests rejected by rate limiting, labeled by the route pattern that matched",
		"route")
	requestLatency = mf.NewHistogram("interceptor_request_seconds", "Latency of admission decisions")
}

func incRequestCounter() {
	if requestCounter != nil {
		requestCounter.Inc()
	}
}

func incRejectedCounter(route string) {
	if rejectedCounter != nil {
		rejectedCounter.Inc()
	}
	if rejectedRouteCounter != nil {
		rejectedRouteCounter.Inc(route)
	}
}

func observeLatency(seconds float64) {
	if requestLatency != nil {
		requestLatency.Observe(seconds)
	}
}
