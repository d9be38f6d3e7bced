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
	"sync"

	"github.com/memvex/gatekeeper/monitoring"
)

var (
	// Metrics groups the store's occupancy metrics. Increments are nil-safe,
	// so packages that never call InitMetrics simply don't export them.
	Metrics     = &m{}
	metricsOnce = sync.Once{}
)

type m struct {
	// StoreEntries is the current number of buckets held by the store.
	StoreEntries monitoring.Gauge

	// StoreEvictions counts buckets evicted to keep the store bounded,
	// labeled by bucket class.
	StoreEvictions monitoring.Counter
}

// InitMetrics initializes Metrics using mf to create the monitoring objects.
// May be called multiple times. If so, the first call is the one that counts.
func InitMetrics(mf monitoring.MetricFactory) {
	metricsOnce.Do(func() {
		Metrics.StoreEntries = mf.NewGauge("quota_store_entries", "Number of token buckets currently held")
		Metrics.StoreEvictions = mf.NewCounter("quota_store_evictions", "Number of token buckets evicted to bound store size", "class")
	})
}

func (m *m) setEntries(n int) {
	if m.StoreEntries != nil {
		m.StoreEntries.Set(float64(n))
	}
}

func (m *m) incEvictions(class Class) {
	if m.StoreEvictions != nil {
		m.StoreEvictions.Inc(string(class))
	}
}
