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

// Package histogram implements the HistogramRecorder contract: a
// single-writer, single-swapper interval histogram backed by
// github.com/HdrHistogram/hdrhistogram-go, with coordinated-omission
// correction applied on the record path.
package histogram // import "fortio.org/hiccup/histogram"

import (
	"runtime"
	"sync/atomic"
	"time"

	hdr "github.com/HdrHistogram/hdrhistogram-go"

	"fortio.org/log"
)

// Interval is one reporting window's worth of recorded values, handed from
// the Recorder to the reporter by SwapInterval.
type Interval struct {
	StartTS  time.Time
	EndTS    time.Time
	Snapshot *hdr.Histogram
}

// TotalCount returns the number of values recorded in this interval.
func (ih Interval) TotalCount() int64 {
	if ih.Snapshot == nil {
		return 0
	}
	return ih.Snapshot.TotalCount()
}

// Recorder is a double-buffered HdrHistogram-compatible recorder. Exactly
// one goroutine may call Record/RecordCount at a time (the SamplingRecorder)
// and exactly one goroutine may call SwapInterval (the IntervalReporter);
// Reset may be called by either when no other call is in flight.
type Recorder struct {
	buf      [2]*hdr.Histogram
	inFlight [2]atomic.Int64
	gen      atomic.Int64 // low bit selects the active buffer

	lowestTrackable   int64
	highestTrackable  int64
	significantDigits int
}

// NewRecorder builds a Recorder whose two buffers both track values in
// [lowestTrackable, highestTrackable] with significantDigits of precision.
func NewRecorder(lowestTrackable, highestTrackable int64, significantDigits int) *Recorder {
	r := &Recorder{
		lowestTrackable:   lowestTrackable,
		highestTrackable:  highestTrackable,
		significantDigits: significantDigits,
	}
	r.buf[0] = hdr.New(lowestTrackable, highestTrackable, significantDigits)
	r.buf[1] = hdr.New(lowestTrackable, highestTrackable, significantDigits)
	return r
}

// acquire returns the currently active buffer, having registered this
// goroutine as an in-flight writer against it. The caller must call
// release(idx) exactly once when done. This is the writer side of the
// generation-counter double buffer: no lock is taken; on the rare race
// where a swap happens between the read of gen and the in-flight
// increment, the writer retries against the new buffer.
func (r *Recorder) acquire() (buf *hdr.Histogram, idx int64) {
	for {
		g := r.gen.Load()
		idx = g & 1
		r.inFlight[idx].Add(1)
		if r.gen.Load() == g {
			return r.buf[idx], idx
		}
		// A swap landed between our read of gen and the increment:
		// back out and retry against whatever is active now.
		r.inFlight[idx].Add(-1)
	}
}

func (r *Recorder) release(idx int64) {
	r.inFlight[idx].Add(-1)
}

// Record records valueNS, applying coordinated-omission correction against
// expectedIntervalNS: if valueNS exceeds expectedIntervalNS, additional
// samples are recorded at valueNS-expectedIntervalNS, valueNS-2*expectedIntervalNS,
// ... for as long as the missing value is >= expectedIntervalNS. This backs
// in the samples a real sampling cadence would have produced had it not
// been blocked for the whole of valueNS, so a stall doesn't silently
// collapse to a single, deceptively small recorded delta.
func (r *Recorder) Record(valueNS, expectedIntervalNS int64) {
	buf, idx := r.acquire()
	defer r.release(idx)
	if expectedIntervalNS > 0 && valueNS > expectedIntervalNS {
		for missing := valueNS - expectedIntervalNS; missing >= expectedIntervalNS; missing -= expectedIntervalNS {
			if err := buf.RecordValue(missing); err != nil {
				log.LogVf("histogram: correction value %d out of range: %v", missing, err)
			}
		}
	}
	if err := buf.RecordValue(valueNS); err != nil {
		log.LogVf("histogram: value %d out of range: %v", valueNS, err)
	}
}

// RecordCount bulk-records valueNS, count times, with no coordinated
// omission correction. Used for synthetic zero-fill, where the caller
// already knows exactly how many quiet ticks elapsed.
func (r *Recorder) RecordCount(valueNS, count int64) {
	if count <= 0 {
		return
	}
	buf, idx := r.acquire()
	defer r.release(idx)
	if err := buf.RecordValues(valueNS, count); err != nil {
		log.LogVf("histogram: bulk value %d out of range: %v", valueNS, err)
	}
}

// SwapInterval atomically exchanges the live accumulator for a cleared one
// and returns the previous contents stamped with the provided start/end
// timestamps. It blocks (briefly, via a spin with runtime.Gosched) until any
// writer that grabbed the outgoing buffer just before the swap has finished
// with it; the writer path itself never blocks.
func (r *Recorder) SwapInterval(startTS, endTS time.Time) Interval {
	oldGen := r.gen.Load()
	oldIdx := oldGen & 1
	newIdx := oldIdx ^ 1

	r.buf[newIdx].Reset()
	r.gen.Add(1) // from here on, acquire() hands out newIdx

	spins := 0
	for r.inFlight[oldIdx].Load() != 0 {
		spins++
		if spins < 1000 {
			runtime.Gosched()
		} else {
			time.Sleep(time.Microsecond)
		}
	}

	return Interval{StartTS: startTS, EndTS: endTS, Snapshot: r.buf[oldIdx]}
}

// Reset discards all counts in both buffers without reallocating. Intended
// for use between the orchestrator's warm-up epoch and the measured run,
// when no sampler or reporter goroutine is concurrently active.
func (r *Recorder) Reset() {
	r.buf[0].Reset()
	r.buf[1].Reset()
}
