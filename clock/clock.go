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

// Package clock wraps the monotonic timestamp source used by the sampler and
// the reporter. It exists as its own component (rather than inline
// time.Now() calls) so the hot sampling loop can be driven by a fake clock in
// tests and so the "no monotonic source" failure mode has one place to live.
package clock // import "fortio.org/hiccup/clock"

import (
	"errors"
	"time"
)

// ErrNoMonotonicSource is returned by New on a platform that can't provide a
// monotonic clock reading. In practice every platform the Go runtime
// supports stamps time.Now() with a monotonic reading, so this is not
// expected to trigger outside of tests of the error path itself.
var ErrNoMonotonicSource = errors.New("clock: no monotonic time source available")

// Clock returns monotonic nanosecond timestamps for measurement and a wall
// clock timestamp (milliseconds since epoch) for log annotation only.
type Clock interface {
	// NowNS returns a monotonically non-decreasing nanosecond timestamp.
	// The absolute value has no meaning outside of this process; only
	// differences between two calls are meaningful.
	NowNS() int64
	// WallMS returns milliseconds since the Unix epoch, for display only.
	WallMS() int64
}

type systemClock struct {
	base time.Time
}

// New returns the system monotonic clock, or ErrNoMonotonicSource if this
// build of Go somehow lacks one.
func New() (Clock, error) {
	now := time.Now()
	if now.Round(0) == now {
		// Round(0) strips the monotonic reading; if it was a no-op the
		// monotonic reading was already absent.
		return nil, ErrNoMonotonicSource
	}
	return &systemClock{base: now}, nil
}

func (c *systemClock) NowNS() int64 {
	return int64(time.Since(c.base))
}

func (c *systemClock) WallMS() int64 {
	return time.Now().UnixMilli()
}
