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

package sampling

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"fortio.org/hiccup/histogram"
)

// inputLine is one parsed record out of a replayed latency log: a
// timestamp in input-stream milliseconds and a latency, also in
// milliseconds.
type inputLine struct {
	tsMs      float64
	latencyMs float64
}

// FileSampler replays a previously recorded latency log (whitespace-separated
// "ts_ms latency_ms" lines, not the interval log histlog writes) instead of
// measuring live stalls. It has no background goroutine:
// AdvanceTo is driven synchronously by the reporter's own goroutine, one
// input line at a time.
type FileSampler struct {
	scanner      *bufio.Scanner
	rec          *histogram.Recorder
	resolutionNS int64
	fillZeros    bool

	prevTsMs float64
	buffered *inputLine
	terminal bool
	reported bool // reportedAfterTerminate
	stopped  atomic.Bool
}

// NewFile builds a FileSampler reading whitespace-separated "ts_ms
// latency_ms" pairs from r.
func NewFile(r io.Reader, rec *histogram.Recorder, resolutionNS int64, fillZeros bool) *FileSampler {
	return &FileSampler{
		scanner:      bufio.NewScanner(r),
		rec:          rec,
		resolutionNS: resolutionNS,
		fillZeros:    fillZeros,
	}
}

// resolutionMs returns the sampling resolution in milliseconds, used to
// pace the fill-zeros bulk recording; resolutions below 1ms are rounded up
// to 1ms of gap-filling granularity since the input stream itself is
// millisecond-resolution.
func (f *FileSampler) resolutionMs() int64 {
	ms := f.resolutionNS / 1_000_000
	if ms <= 0 {
		ms = 1
	}
	return ms
}

// fillZerosBetween bulk-records a zero hiccup value for every resolution
// tick between fromMs (exclusive) and toMs (inclusive), approximating "no
// stall occurred" for the quiet gaps a fill_zeros replay must synthesize.
func (f *FileSampler) fillZerosBetween(fromMs, toMs float64) {
	if !f.fillZeros || f.resolutionNS <= 0 {
		return
	}
	resMs := f.resolutionMs()
	ticks := int64((toMs - fromMs) / float64(resMs))
	if ticks > 0 {
		f.rec.RecordCount(0, ticks)
	}
}

func (f *FileSampler) fillBuffer() {
	if f.buffered != nil || f.terminal {
		return
	}
	if !f.scanner.Scan() {
		f.terminal = true
		return
	}
	fields := strings.Fields(f.scanner.Text())
	if len(fields) < 2 {
		f.terminal = true
		return
	}
	ts, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		f.terminal = true
		return
	}
	latency, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		f.terminal = true
		return
	}
	if ts < f.prevTsMs {
		// Time must be non-decreasing; treat regression as end-of-input.
		f.terminal = true
		return
	}
	f.buffered = &inputLine{tsMs: ts, latencyMs: latency}
}

// AdvanceTo replays buffered input until the input-stream timeline reaches
// deadlineMs (milliseconds), or the input is exhausted.
func (f *FileSampler) AdvanceTo(deadlineMs int64) Outcome {
	deadline := float64(deadlineMs)
	for {
		if f.stopped.Load() {
			return Outcome{Terminated: true}
		}
		f.fillBuffer()

		if f.terminal {
			if f.reported {
				return Outcome{Terminated: true}
			}
			f.reported = true
			if f.fillZeros {
				f.fillZerosBetween(f.prevTsMs, deadline)
				f.prevTsMs = deadline
			}
			return Outcome{NowNS: deadlineMs}
		}

		line := f.buffered
		msecPreceding := line.tsMs
		if f.fillZeros {
			msecPreceding = line.tsMs - math.Ceil(line.latencyMs)
		}

		if deadline < msecPreceding {
			if f.fillZeros {
				f.fillZerosBetween(f.prevTsMs, deadline)
			}
			f.prevTsMs = deadline
			return Outcome{NowNS: deadlineMs}
		}

		if msecPreceding >= f.prevTsMs {
			if f.fillZeros {
				f.fillZerosBetween(f.prevTsMs, msecPreceding)
			}
			f.rec.Record(int64(line.latencyMs*1e6), f.resolutionNS)
			f.prevTsMs = line.tsMs
		}
		f.buffered = nil // consume
	}
}

// Stop marks the replay as terminated; the next AdvanceTo call returns a
// terminated outcome. There is no goroutine to interrupt mid-sleep since
// FileSampler never sleeps; stopped is atomic so a concurrent caller (e.g.
// a signal handler) can call Stop() safely while AdvanceTo runs elsewhere.
func (f *FileSampler) Stop() {
	f.stopped.Store(true)
}

// Wait is a no-op: FileSampler does all its work synchronously on the
// caller's goroutine, so there is nothing to join.
func (f *FileSampler) Wait() {}

// SkipUntil discards buffered input lines without recording them, stopping
// once the next buffered line's timestamp reaches tsMs or the input is
// exhausted. Used for the file-mode warm-up equivalent of the live
// sampler's discard-and-reset startup: unlike AdvanceTo, this never calls
// Record, so no warm-up samples leak into the measured run.
func (f *FileSampler) SkipUntil(tsMs int64) {
	target := float64(tsMs)
	for {
		f.fillBuffer()
		if f.terminal || f.buffered == nil {
			return
		}
		if f.buffered.tsMs >= target {
			return
		}
		f.prevTsMs = f.buffered.tsMs
		f.buffered = nil
	}
}
