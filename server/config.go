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

// Package server assembles the admission-control engine from layered
// configuration: built-in defaults, environment variables, and an optional
// external rules file.
package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/memvex/gatekeeper/quota"
	"github.com/memvex/gatekeeper/server/interceptor"
	"github.com/memvex/gatekeeper/util/clock"
)

// Route patterns installed by default. Read-style routes share the per-client
// read bucket; write-style routes share the per-client write bucket, so
// exhausting one never blocks the other.
var (
	readRoutes  = []string{"/search", "/query", "/rerank", "/memory/search"}
	writeRoutes = []string{"/upload", "/ingest", "/reindex", "/memory/store"}
)

// Config carries every knob of the admission-control engine. Zero values
// for the per-class overrides mean "inherit the global default".
type Config struct {
	// Enabled is the master switch. When false the engine is not built and
	// requests pass through unlimited.
	Enabled bool

	// TrustProxy enables client identification from proxy headers.
	TrustProxy bool

	// DryRun evaluates and counts rejections without enforcing them.
	DryRun bool

	// StoreSize bounds the number of token buckets held in memory.
	StoreSize int

	// GlobalQPS and GlobalBurst define the default quota applied to any
	// route without a more specific rule.
	GlobalQPS   float64
	GlobalBurst int

	// SearchQPS and SearchBurst override the quota for the read-class
	// routes; UploadQPS and UploadBurst for the write-class routes.
	SearchQPS   float64
	SearchBurst int
	UploadQPS   float64
	UploadBurst int

	// RoutesFile optionally names a JSON or YAML file with additional
	// per-route rules; entries there win over the built-in route rules.
	RoutesFile string
}

// NewConfig returns a Config with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Enabled:     true,
		StoreSize:   quota.DefaultMaxEntries,
		GlobalQPS:   10,
		GlobalBurst: 20,
	}
}

// ApplyEnv overlays environment variables onto c. environ uses the
// "KEY=value" form of os.Environ. Unknown variables are ignored; known
// variables with unparseable values are errors, not silently skipped.
func (c *Config) ApplyEnv(environ []string) error {
	values := envMap(environ)

	for _, v := range []struct {
		name string
		dst  *bool
	}{
		{"RATE_LIMIT_ENABLED", &c.Enabled},
		{"TRUST_PROXY", &c.TrustProxy},
		{"RATE_LIMIT_DRY_RUN", &c.DryRun},
	} {
		if raw, ok := values[v.name]; ok {
			parsed, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("invalid %v: %q", v.name, raw)
			}
			*v.dst = parsed
		}
	}

	for _, v := range []struct {
		name string
		dst  *float64
	}{
		{"RATE_LIMIT_QPS", &c.GlobalQPS},
		{"RATE_LIMIT_SEARCH_QPS", &c.SearchQPS},
		{"RATE_LIMIT_UPLOAD_QPS", &c.UploadQPS},
	} {
		if raw, ok := values[v.name]; ok {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return fmt.Errorf("invalid %v: %q", v.name, raw)
			}
			*v.dst = parsed
		}
	}

	for _, v := range []struct {
		name string
		dst  *int
	}{
		{"RATE_LIMIT_BURST", &c.GlobalBurst},
		{"RATE_LIMIT_SEARCH_BURST", &c.SearchBurst},
		{"RATE_LIMIT_UPLOAD_BURST", &c.UploadBurst},
		{"RATE_LIMIT_STORE_SIZE", &c.StoreSize},
	} {
		if raw, ok := values[v.name]; ok {
			parsed, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("invalid %v: %q", v.name, raw)
			}
			*v.dst = parsed
		}
	}

	if raw, ok := values["RATE_LIMIT_ROUTES_FILE"]; ok {
		c.RoutesFile = strings.TrimSpace(raw)
	}
	return nil
}

// Validate checks the configuration. The engine never starts from an
// invalid Config; callers treat a Validate error as a startup failure.
func (c *Config) Validate() error {
	switch {
	case c.StoreSize <= 0:
		return fmt.Errorf("invalid RATE_LIMIT_STORE_SIZE: %v, must be > 0", c.StoreSize)
	case c.GlobalQPS <= 0:
		return fmt.Errorf("invalid RATE_LIMIT_QPS: %v, must be > 0", c.GlobalQPS)
	case c.GlobalBurst < 1:
		return fmt.Errorf("invalid RATE_LIMIT_BURST: %v, must be >= 1", c.GlobalBurst)
	case c.SearchQPS < 0 || c.SearchBurst < 0:
		return fmt.Errorf("invalid search override: qps=%v burst=%v", c.SearchQPS, c.SearchBurst)
	case c.UploadQPS < 0 || c.UploadBurst < 0:
		return fmt.Errorf("invalid upload override: qps=%v burst=%v", c.UploadQPS, c.UploadBurst)
	}
	return nil
}

// NewInterceptor builds the admission engine described by c: a bounded
// bucket store, the route table with all rule layers merged, and the client
// identifier. Returns an error rather than an engine for any invalid
// configuration, including an unreadable or invalid rules file.
func NewInterceptor(c *Config) (*interceptor.Interceptor, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	store, err := quota.NewStore(c.StoreSize, clock.System)
	if err != nil {
		return nil, err
	}

	routes, err := c.routeTable()
	if err != nil {
		return nil, err
	}

	return &interceptor.Interceptor{
		Routes:     routes,
		Store:      store,
		Identifier: interceptor.ClientIdentifier{TrustProxy: c.TrustProxy},
		DryRun:     c.DryRun,
	}, nil
}

// routeTable merges the rule layers in precedence order: rules-file entries
// over built-in class rules over the global default.
func (c *Config) routeTable() (*interceptor.RouteTable, error) {
	searchQPS, searchBurst := c.GlobalQPS, c.GlobalBurst
	if c.SearchQPS > 0 {
		searchQPS = c.SearchQPS
	}
	if c.SearchBurst > 0 {
		searchBurst = c.SearchBurst
	}
	uploadQPS, uploadBurst := c.GlobalQPS, c.GlobalBurst
	if c.UploadQPS > 0 {
		uploadQPS = c.UploadQPS
	}
	if c.UploadBurst > 0 {
		uploadBurst = c.UploadBurst
	}

	byPattern := make(map[string]quota.Rule)
	order := []string{}
	add := func(r quota.Rule) {
		if _, ok := byPattern[r.Pattern]; !ok {
			order = append(order, r.Pattern)
		}
		byPattern[r.Pattern] = r
	}
	for _, pattern := range readRoutes {
		add(quota.Rule{Pattern: pattern, Class: quota.Read, QPS: searchQPS, Burst: searchBurst})
	}
	for _, pattern := range writeRoutes {
		add(quota.Rule{Pattern: pattern, Class: quota.Write, QPS: uploadQPS, Burst: uploadBurst})
	}

	if c.RoutesFile != "" {
		fileRules, err := LoadRules(c.RoutesFile)
		if err != nil {
			return nil, err
		}
		for _, r := range fileRules {
			add(r)
		}
	}

	rules := make([]quota.Rule, 0, len(order))
	for _, pattern := range order {
		rules = append(rules, byPattern[pattern])
	}

	global := quota.Rule{Pattern: interceptor.DefaultRoute, QPS: c.GlobalQPS, Burst: c.GlobalBurst}
	return interceptor.NewRouteTable(rules, global)
}

func envMap(environ []string) map[string]string {
	values := make(map[string]string)
	for _, entry := range environ {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}
