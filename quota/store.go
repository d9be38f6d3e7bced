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
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/memvex/gatekeeper/util/clock"
)

// DefaultMaxEntries is the suggested default for the store's entry bound.
const DefaultMaxEntries = 1024

// Store is a bounded registry of token buckets, keyed by Spec. Buckets are
// created lazily and full on first use; when creating a bucket would push
// the store past its bound, the least recently used entry is evicted first.
//
// A bucket evicted and later recreated starts full again. This is a
// deliberate bounded-memory/accuracy tradeoff: a client that cycles in and
// out of the LRU window can burst more than its nominal quota. Deployments
// where that matters should size maxEntries well above the expected number
// of concurrently active (client, class) pairs; StoreEntries and
// StoreEvictions are exported to make that observable.
//
// A single mutex guards the whole structure. Lookup, refill and consume all
// happen under it, which makes Consume linearizable per Spec: concurrent
// callers can never double-spend a token or race an eviction mid-consume.
// The critical section is a couple of map/list operations plus the bucket
// arithmetic, all O(1).
type Store struct {
	ts         clock.TimeSource
	maxEntries int

	// mu guards entries and order.
	mu      sync.Mutex
	entries map[Spec]*list.Element
	order   *list.List // front is most recently used
}

type storeEntry struct {
	spec   Spec
	bucket *Bucket
}

// NewStore creates a Store bounded at maxEntries buckets, reading time from
// ts. maxEntries must be positive: a store that cannot hold any bucket
// would silently admit everything, so it is rejected here rather than
// tolerated at runtime.
func NewStore(maxEntries int, ts clock.TimeSource) (*Store, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("invalid maxEntries: %v", maxEntries)
	}
	if ts == nil {
		ts = clock.System
	}
	return &Store{
		ts:         ts,
		maxEntries: maxEntries,
		entries:    make(map[Spec]*list.Element),
		order:      list.New(),
	}, nil
}

// Consume takes n tokens from the bucket for spec, creating the bucket from
// rule if it does not exist. It returns whether the tokens were granted
// and, when they were not, an estimate of how long the caller should wait
// before retrying.
//
// The bucket for spec is marked most recently used whether or not the
// tokens were granted.
func (s *Store) Consume(spec Spec, rule Rule, n int) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.ts.Now()
	b := s.getOrCreate(spec, rule, now)
	if b.TryConsume(n, now) {
		return true, 0
	}
	return false, b.RetryAfter(n)
}

// Len returns the current number of buckets held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// getOrCreate returns the bucket for spec, creating it full if absent and
// evicting the least recently used entry if the store is at its bound.
// Callers must hold s.mu.
func (s *Store) getOrCreate(spec Spec, rule Rule, now time.Time) *Bucket {
	if el, ok := s.entries[spec]; ok {
		s.order.MoveToFront(el)
		b := el.Value.(*storeEntry).bucket
		// Rule tables can be swapped at runtime; pick up new limits on the
		// next touch rather than waiting for the bucket to cycle out.
		b.setLimits(rule.QPS, rule.Burst)
		return b
	}

	// Eviction happens only when a new key would exceed the bound, never on
	// access to an existing key.
	if len(s.entries) >= s.maxEntries {
		el := s.order.Back()
		victim := el.Value.(*storeEntry)
		s.order.Remove(el)
		delete(s.entries, victim.spec)
		Metrics.incEvictions(victim.spec.Class)
	}

	b := NewBucket(rule.QPS, rule.Burst, now)
	s.entries[spec] = s.order.PushFront(&storeEntry{spec: spec, bucket: b})
	Metrics.setEntries(len(s.entries))
	return b
}
