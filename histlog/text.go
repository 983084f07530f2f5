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

package histlog

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"fortio.org/hiccup/histogram"
	"fortio.org/log"
)

// textWriter is the default interval log format: a '#'-prefixed comment
// header (version, legend, base/start time) followed by one
// comma-separated line per interval, mirroring
// stats.Histogram.Print's header-then-rows shape.
type textWriter struct {
	out        io.Closer
	w          *bufio.Writer
	startGrace time.Duration
	opened     time.Time
	warned     bool
}

// NewTextWriter wraps out (typically an *os.File) as the default textual
// interval log format. startGrace is the window, right after opening,
// during which write errors are logged but not propagated, since some
// hosting environments install startup-phase security filters that make
// the very first writes to a new file transiently fail; defaults to 60s
// via the caller.
func NewTextWriter(out io.WriteCloser, startGrace time.Duration) Writer {
	return &textWriter{
		out:        out,
		w:          bufio.NewWriter(out),
		startGrace: startGrace,
		opened:     time.Now(),
	}
}

func (t *textWriter) WriteHeader(h Header) error {
	_, err := fmt.Fprintf(t.w,
		"#[Histogram log format version %s]\n"+
			"#[BaseTime: %d]\n"+
			"#[StartTime: %d (startAtZero=%t)]\n"+
			"#[Resolution: %dns, ReportingInterval: %s]\n"+
			"#%s\n",
		h.Version, h.BaseTimeMs, h.StartTimeMs, h.StartAtZero,
		h.ResolutionNS, h.ReportInterval,
		h.Legend)
	return t.guard(err)
}

func (t *textWriter) WriteInterval(iv histogram.Interval) error {
	payload, err := encodePayload(iv)
	if err != nil {
		return t.guard(err)
	}
	_, err = fmt.Fprintf(t.w, "%d,%d,%d,%d,%s\n",
		iv.StartTS.UnixMilli(), iv.EndTS.UnixMilli(),
		iv.TotalCount(), maxOf(iv), payload)
	return t.guard(err)
}

func (t *textWriter) Close() error {
	if err := t.w.Flush(); err != nil {
		log.Warnf("histlog: flush on close: %v", err)
	}
	return t.out.Close()
}

// guard swallows write errors for the first startGrace window after
// opening the log, then propagates them: a log sink hitting a transient
// disk/NFS hiccup right at startup (often the same kind of stall this
// tool exists to measure) shouldn't crash the run; a sustained failure
// still should.
func (t *textWriter) guard(err error) error {
	if err == nil {
		return nil
	}
	if time.Since(t.opened) < t.startGrace {
		if !t.warned {
			log.Warnf("histlog: ignoring write error during startup grace period: %v", err)
			t.warned = true
		}
		return nil
	}
	return err
}

func maxOf(iv histogram.Interval) int64 {
	if iv.Snapshot == nil {
		return 0
	}
	return iv.Snapshot.Max()
}
