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

// Package histlog writes the interval log: one line per reporting interval
// with start/end timestamps, the interval max, and a compressed histogram
// payload, in either the default textual format or the CSV variant (-o).
//
// The exact HdrHistogram log wire format (the byte-for-byte V2 codec real
// HdrHistogram tooling reads) is explicitly out of scope: the library this
// repo already depends on for storage, hdrhistogram-go, does not expose
// that wire codec. This package's payload is a gzip+base64 encoding of the
// interval's recorded counts, compatible in spirit (a self-describing,
// compressed, text-safe blob) but not byte-compatible with the real format.
package histlog // import "fortio.org/hiccup/histlog"

import (
	"time"

	"fortio.org/hiccup/histogram"
)

// Header carries the fields written once at the top of the log, before any
// interval lines.
type Header struct {
	Version        string
	Legend         string
	BaseTimeMs     int64
	StartTimeMs    int64
	StartAtZero    bool
	ResolutionNS   int64
	ReportInterval time.Duration
}

// Writer is the interval-log sink contract. Exactly one goroutine (the
// reporter) calls into it, so it needs no internal locking.
type Writer interface {
	WriteHeader(h Header) error
	WriteInterval(iv histogram.Interval) error
	Close() error
}
