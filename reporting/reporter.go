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

// Package reporting drives the outer loop: ask the sampler to advance to
// the next reporting deadline, swap the interval histogram, skip any
// deadlines that elapsed without samples, and write non-empty intervals to
// the log sink. Grounded on periodic.go's Run() outer loop shape
// (warm-up/threshold bookkeeping, log.Log guards before emitting).
package reporting // import "fortio.org/hiccup/reporting"

import (
	"time"

	"fortio.org/hiccup/histogram"
	"fortio.org/hiccup/histlog"
	"fortio.org/hiccup/sampling"
	"fortio.org/log"
)

// Reporter owns the interval cadence and is the sole swapper of the
// histogram.Recorder and the sole writer to the histlog.Writer.
type Reporter struct {
	rec     *histogram.Recorder
	sampler sampling.Sampler
	writer  histlog.Writer

	// intervalUnits and runTimeUnits are expressed in the sampler's own
	// deadline unit: nanoseconds for a live source, input-stream
	// milliseconds for a file source, since a replayed log's deadlines are
	// themselves milliseconds on the input timeline rather than wall-clock
	// nanoseconds.
	intervalUnits int64
	runTimeUnits  int64 // 0 = unbounded

	// baseWallMs is the wall-clock milliseconds corresponding to units=0;
	// unitsPerMs converts a deadline unit into milliseconds (1_000_000 for
	// a nanosecond-based live source, 1 for an already-millisecond file
	// source). Together they let intervals carry a time.Time without the
	// reporter needing to know which source it's driving.
	baseWallMs int64
	unitsPerMs int64
}

// New builds a Reporter. runStartUnits is the deadline-unit value at which
// the measured run begins (after warm-up); baseWallMs/unitsPerMs are as
// described above.
func New(rec *histogram.Recorder, sampler sampling.Sampler, writer histlog.Writer,
	intervalUnits, runTimeUnits, baseWallMs, unitsPerMs int64,
) *Reporter {
	return &Reporter{
		rec:           rec,
		sampler:       sampler,
		writer:        writer,
		intervalUnits: intervalUnits,
		runTimeUnits:  runTimeUnits,
		baseWallMs:    baseWallMs,
		unitsPerMs:    unitsPerMs,
	}
}

func (r *Reporter) timestampFor(units int64) time.Time {
	return time.UnixMilli(r.baseWallMs + units/r.unitsPerMs)
}

// Run writes header, then drives the interval loop until the sampler
// terminates, the run time elapses, or ctx-equivalent external
// cancellation reaches us via sampler.Stop() from another goroutine (the
// orchestrator, on signal). runStartUnits is the deadline-unit value at
// which measurement begins.
func (r *Reporter) Run(runStartUnits int64, header histlog.Header) error {
	if err := r.writer.WriteHeader(header); err != nil {
		return err
	}

	nextDeadline := runStartUnits + r.intervalUnits
	prevEndTS := r.timestampFor(runStartUnits)

	for {
		outcome := r.sampler.AdvanceTo(nextDeadline)
		if outcome.Terminated {
			break
		}
		now := outcome.NowNS

		if now >= nextDeadline {
			startTS := prevEndTS
			endTS := r.timestampFor(now)
			iv := r.rec.SwapInterval(startTS, endTS)
			prevEndTS = endTS

			for now >= nextDeadline {
				nextDeadline += r.intervalUnits
			}

			if iv.TotalCount() > 0 {
				if err := r.writer.WriteInterval(iv); err != nil {
					log.Warnf("reporting: failed to write interval: %v", err)
				}
			} else {
				log.LogVf("reporting: skipping empty interval ending %d", now)
			}
		}

		if r.runTimeUnits > 0 && now-runStartUnits >= r.runTimeUnits {
			break
		}
	}

	r.sampler.Stop()
	r.sampler.Wait()
	return r.writer.Close()
}
