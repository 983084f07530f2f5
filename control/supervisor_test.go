// Copyright 2024 Hiccup Authors
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

package control

import (
	"math"
	"runtime/debug"
	"testing"
)

func TestShouldLaunchNoFilterAlwaysTrue(t *testing.T) {
	if !ShouldLaunch(0) {
		t.Errorf("ShouldLaunch(0) = false, want true (filter disabled)")
	}
	if !ShouldLaunch(-5) {
		t.Errorf("ShouldLaunch(-5) = false, want true (filter disabled)")
	}
}

// TestShouldLaunchNoMemLimitAlwaysTrue confirms that with no GOMEMLIMIT
// configured (math.MaxInt64, Go's default), the filter never disables the
// supervisor even when heapFilterMB is set.
func TestShouldLaunchNoMemLimitAlwaysTrue(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(prev)
	debug.SetMemoryLimit(math.MaxInt64) // no usable ceiling, regardless of prev
	if !ShouldLaunch(1_000_000) {
		t.Errorf("ShouldLaunch(1_000_000) with no GOMEMLIMIT = false, want true")
	}
}

// TestShouldLaunchBelowMemLimitDisables exercises the actual filtering
// branch: with a soft memory limit configured below heapFilterMB, the
// supervisor should not be launched.
func TestShouldLaunchBelowMemLimitDisables(t *testing.T) {
	prev := debug.SetMemoryLimit(-1)
	defer debug.SetMemoryLimit(prev)

	const limitMB = 64
	debug.SetMemoryLimit(limitMB * 1024 * 1024)

	if ShouldLaunch(limitMB + 1) {
		t.Errorf("ShouldLaunch(%d) with GOMEMLIMIT=%dMB = true, want false", limitMB+1, limitMB)
	}
	if !ShouldLaunch(limitMB) {
		t.Errorf("ShouldLaunch(%d) with GOMEMLIMIT=%dMB = false, want true (at threshold)", limitMB, limitMB)
	}
	if !ShouldLaunch(limitMB - 1) {
		t.Errorf("ShouldLaunch(%d) with GOMEMLIMIT=%dMB = false, want true (below threshold)", limitMB-1, limitMB)
	}
}
