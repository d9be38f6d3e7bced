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

package clock

import (
	"testing"
	"time"
)

func TestFakeTimeSource(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := NewFake(base)
	if got, want := fake.Now(), base; !got.Equal(want) {
		t.Errorf("Now()=%v, want %v", got, want)
	}

	fake.Set(base.Add(time.Minute))
	if got, want := fake.Now(), base.Add(time.Minute); !got.Equal(want) {
		t.Errorf("Now() after Set=%v, want %v", got, want)
	}

	got := fake.Advance(-30 * time.Second)
	if want := base.Add(30 * time.Second); !got.Equal(want) {
		t.Errorf("Advance(-30s)=%v, want %v", got, want)
	}
}

func TestSecondsSince(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := NewFake(base.Add(1500 * time.Millisecond))
	if got, want := SecondsSince(fake, base), 1.5; got != want {
		t.Errorf("SecondsSince()=%v, want %v", got, want)
	}
}
