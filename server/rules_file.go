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

package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/memvex/gatekeeper/quota"
)

// ruleEntry is the on-disk shape of one rule. Both the JSON and YAML forms
// decode into it; the quota package only ever sees the resolved rule list.
type ruleEntry struct {
	RoutePattern string  `json:"route_pattern" yaml:"route_pattern"`
	BucketClass  string  `json:"bucket_class" yaml:"bucket_class"`
	QPS          float64 `json:"qps" yaml:"qps"`
	Burst        int     `json:"burst" yaml:"burst"`
}

// LoadRules reads per-route quota rules from path. Files ending in .yaml or
// .yml are parsed as YAML, everything else as JSON. Every entry is
// validated; a file with any invalid rule is rejected as a whole so the
// engine never starts on a partially-applied rule set.
func LoadRules(path string) ([]quota.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %v", err)
	}

	var entries []ruleEntry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		err = json.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("malformed rules file %v: %v", path, err)
	}

	rules := make([]quota.Rule, 0, len(entries))
	for _, e := range entries {
		rule := quota.Rule{
			Pattern: e.RoutePattern,
			Class:   quota.Class(e.BucketClass),
			QPS:     e.QPS,
			Burst:   e.Burst,
		}
		if rule.Pattern == "" {
			return nil, fmt.Errorf("rules file %v: entry with empty route_pattern", path)
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("rules file %v: %v", path, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
