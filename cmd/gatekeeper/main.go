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

// The gatekeeper binary runs the admission-control engine in front of a
// set of API routes, with configuration drawn from RATE_LIMIT_* environment
// variables and an optional external rules file. Metrics are exported in
// Prometheus format on a separate endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/memvex/gatekeeper/monitoring/prometheus"
	"github.com/memvex/gatekeeper/quota"
	"github.com/memvex/gatekeeper/server"
	"github.com/memvex/gatekeeper/server/interceptor"
)

var (
	httpEndpoint    = flag.String("http_endpoint", "localhost:8080", "Endpoint for the guarded API (host:port)")
	metricsEndpoint = flag.String("metrics_endpoint", "localhost:8091", "Endpoint for serving metrics (host:port)")
	shutdownTimeout = flag.Duration("shutdown_timeout", 5*time.Second, "Time to wait for in-flight requests on shutdown")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	cfg := server.NewConfig()
	if err := cfg.ApplyEnv(os.Environ()); err != nil {
		klog.Exitf("Bad rate limit environment: %v", err)
	}

	mf := prometheus.MetricFactory{Prefix: "gatekeeper_"}
	quota.InitMetrics(mf)
	interceptor.InitMetrics(mf)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	// Placeholder backends for the guarded routes. Deployments replace
	// these with reverse proxies or real handlers; the admission layer does
	// not care what runs behind it.
	for _, route := range []string{"/search", "/query", "/rerank", "/memory/search", "/upload", "/ingest", "/reindex", "/memory/store"} {
		mux.HandleFunc(route, okHandler(route))
	}

	handler := http.Handler(mux)
	if cfg.Enabled {
		ic, err := server.NewInterceptor(cfg)
		if err != nil {
			klog.Exitf("Invalid rate limit configuration: %v", err)
		}
		handler = ic.Handler(mux)
		klog.Infof("Admission control enabled: global qps=%v burst=%v, store size=%v", cfg.GlobalQPS, cfg.GlobalBurst, cfg.StoreSize)
	} else {
		klog.Warning("RATE_LIMIT_ENABLED=false: all requests will be admitted")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	apiServer := &http.Server{Addr: *httpEndpoint, Handler: handler}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: *metricsEndpoint, Handler: metricsMux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		klog.Infof("API server listening on %v", *httpEndpoint)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		klog.Infof("Metrics server listening on %v", *metricsEndpoint)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		klog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			klog.Warningf("API server shutdown: %v", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			klog.Warningf("Metrics server shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		klog.Exitf("Server exited with error: %v", err)
	}
}

func okHandler(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok", "route": route}); err != nil {
			klog.Warningf("Failed to write response for %v: %v", route, err)
		}
	}
}
