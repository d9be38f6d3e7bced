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

// Package quota implements the token-bucket quota state for admission
// control.
//
// The objective of the quota layer is to protect the serving backend from
// traffic peaks, rejecting requests that would put the index, embedding
// pipeline or cache tiers out of capacity.
//
// Each admitted request consumes one token from the bucket identified by a
// Spec: the combination of a client key and a bucket class. Classes
// partition quota so that unrelated operation types don't share a pool;
// read-style routes draw from one bucket per client and write-style routes
// from another, so exhausting the read quota never blocks writes.
//
// Buckets refill continuously at the rule's QPS up to its Burst capacity.
// Bucket state is process-local and held in a bounded, LRU-evicting Store;
// it is not shared across nodes and does not survive restarts.
package quota
