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

import (
	"fmt"
)

// Class is a named partition of quota. Requests in different classes never
// share a bucket, so exhausting one class does not affect the others.
type Class string

const (
	// Read is the class shared by non-modifying routes (search, query,
	// rerank and similar).
	Read Class = "read"

	// Write is the class shared by modifying routes (upload, ingest,
	// reindex and similar).
	Write Class = "write"
)

// Spec identifies a single token bucket: one client in one class. Two
// requests carrying the same Spec always observe the same bucket.
type Spec struct {
	// Client is the resolved client key (socket address or trusted
	// forwarded address).
	Client string

	// Class of the spec.
	Class Class
}

// Name returns a textual representation of the Spec. Names are constant and
// may be relied upon to not change in the future.
//
// Names are created as "clients/$Client/$Class". E.g., "clients/10.0.0.7/read".
func (s Spec) Name() string {
	return fmt.Sprintf("clients/%v/%v", s.Client, s.Class)
}

// String returns a description of Spec.
func (s Spec) String() string {
	return s.Name()
}

// Rule is a resolved quota for a route pattern: requests matching Pattern
// draw from the per-client bucket of Class, refilled at QPS tokens per
// second up to Burst tokens.
type Rule struct {
	// Pattern is the route pattern the rule applies to. Patterns ending in
	// "/" match by prefix, all others match the path exactly. The pattern
	// also serves as the route label on rejection metrics.
	Pattern string

	// Class selects the bucket partition for matching requests.
	Class Class

	// QPS is the steady-state refill rate, in tokens per second.
	QPS float64

	// Burst is the bucket capacity: the number of requests admissible
	// instantaneously before refill pacing applies.
	Burst int
}

// Validate checks that the rule describes a usable quota.
func (r Rule) Validate() error {
	switch {
	case r.QPS <= 0:
		return fmt.Errorf("rule %q: invalid qps %v, must be > 0", r.Pattern, r.QPS)
	case r.Burst < 1:
		return fmt.Errorf("rule %q: invalid burst %v, must be >= 1", r.Pattern, r.Burst)
	case r.Class == "":
		return fmt.Errorf("rule %q: bucket class required", r.Pattern)
	}
	return nil
}

// String returns a description of Rule.
func (r Rule) String() string {
	return fmt.Sprintf("%v: class=%v qps=%v burst=%v", r.Pattern, r.Class, r.QPS, r.Burst)
}
