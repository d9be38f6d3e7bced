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
	"math"
	"time"
)

// Bucket is a continuously-refilled token bucket. Fractional tokens
// accumulate between requests, so low refill rates don't exhibit staircase
// behavior.
//
// Bucket carries no locking of its own. The Store serializes all access to
// a bucket under its mutex; standalone use requires external
// synchronization.
type Bucket struct {
	capacity   float64
	tokens     float64
	rate       float64
	lastRefill time.Time
}

// NewBucket creates a full bucket holding burst tokens, refilled at qps
// tokens per second. now seeds the refill timestamp.
func NewBucket(qps float64, burst int, now time.Time) *Bucket {
	return &Bucket{
		capacity:   float64(burst),
		tokens:     float64(burst),
		rate:       qps,
		lastRefill: now,
	}
}

// TryConsume refills the bucket up to now, then attempts to take n tokens.
// It returns true and deducts the tokens if at least n are available, and
// returns false leaving the bucket unchanged otherwise.
//
// If now is before the last refill time the elapsed interval is treated as
// zero: no tokens are added and the refill timestamp keeps its old value,
// so it never moves backwards.
func (b *Bucket) TryConsume(n int, now time.Time) bool {
	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		b.tokens = math.Min(b.capacity, b.tokens+elapsed.Seconds()*b.rate)
		b.lastRefill = now
	}
	need := float64(n)
	if b.tokens >= need {
		b.tokens -= need
		return true
	}
	return false
}

// setLimits applies a new refill rate and capacity, clamping the token
// count so the 0 <= tokens <= capacity invariant survives a lowered burst.
func (b *Bucket) setLimits(qps float64, burst int) {
	b.rate = qps
	b.capacity = float64(burst)
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
}

// Tokens returns the token count as of the last refill. It does not apply
// pending refill, so the value is a lower bound on what the next TryConsume
// will observe.
func (b *Bucket) Tokens() float64 {
	return b.tokens
}

// RetryAfter returns an estimate of how long a caller must wait before n
// tokens become available, assuming no competing consumers. Returns zero if
// the tokens are already available.
func (b *Bucket) RetryAfter(n int) time.Duration {
	missing := float64(n) - b.tokens
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing / b.rate * float64(time.Second))
}
