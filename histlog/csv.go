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
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"fortio.org/hiccup/histogram"
	"fortio.org/log"
)

// csvWriter is the -o CSV variant, grounded on periodic.go's
// fileAccessLogger: an open file, one row appended per event, flushed after
// every write since there is exactly one writer goroutine and no batching
// requirement.
type csvWriter struct {
	out        io.Closer
	w          *csv.Writer
	startGrace time.Duration
	opened     time.Time
	warned     bool
}

// NewCSVWriter wraps out as the CSV interval log format.
func NewCSVWriter(out io.WriteCloser, startGrace time.Duration) Writer {
	return &csvWriter{
		out:        out,
		w:          csv.NewWriter(out),
		startGrace: startGrace,
		opened:     time.Now(),
	}
}

func (c *csvWriter) WriteHeader(h Header) error {
	err := c.w.Write([]string{
		"version", "base_time_ms", "start_time_ms", "start_at_zero",
		"resolution_ns", "reporting_interval_ms", "legend",
	})
	if err == nil {
		err = c.w.Write([]string{
			h.Version,
			strconv.FormatInt(h.BaseTimeMs, 10),
			strconv.FormatInt(h.StartTimeMs, 10),
			strconv.FormatBool(h.StartAtZero),
			strconv.FormatInt(h.ResolutionNS, 10),
			strconv.FormatInt(h.ReportInterval.Milliseconds(), 10),
			h.Legend,
		})
	}
	if err == nil {
		err = c.w.Write([]string{"start_ts_ms", "end_ts_ms", "count", "max_ns", "payload"})
	}
	c.w.Flush()
	return c.guard(c.firstErr(err))
}

func (c *csvWriter) WriteInterval(iv histogram.Interval) error {
	payload, err := encodePayload(iv)
	if err != nil {
		return c.guard(err)
	}
	err = c.w.Write([]string{
		strconv.FormatInt(iv.StartTS.UnixMilli(), 10),
		strconv.FormatInt(iv.EndTS.UnixMilli(), 10),
		strconv.FormatInt(iv.TotalCount(), 10),
		strconv.FormatInt(maxOf(iv), 10),
		payload,
	})
	c.w.Flush()
	return c.guard(c.firstErr(err))
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		log.Warnf("histlog: csv flush on close: %v", err)
	}
	return c.out.Close()
}

func (c *csvWriter) firstErr(err error) error {
	if err != nil {
		return err
	}
	return c.w.Error()
}

func (c *csvWriter) guard(err error) error {
	if err == nil {
		return nil
	}
	if time.Since(c.opened) < c.startGrace {
		if !c.warned {
			log.Warnf("histlog: ignoring write error during startup grace period: %v", err)
			c.warned = true
		}
		return nil
	}
	return err
}
