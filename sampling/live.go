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
	"math"
	"sync"
	"sync/atomic"
	"time"

	"fortio.org/hiccup/clock"
	"fortio.org/hiccup/histogram"
	"fortio.org/hiccup/stats"
	"fortio.org/log"
)

// pollInterval bounds how promptly AdvanceTo notices the sampler goroutine
// has reached a deadline. It is independent of resolutionNS: a coarse
// reporting cadence (seconds) shouldn't make the driver loop spin, and a
// fine one (sub-millisecond) shouldn't make it oversleep by much.
const pollInterval = time.Millisecond

const tsSentinel = int64(math.MaxInt64)

// LiveSampler measures real scheduling/GC/allocator stalls by sleeping a
// fixed resolution and comparing requested vs. observed elapsed time,
// subtracting a rolling minimum baseline. It runs its own goroutine from the
// moment it's constructed, continuing to sample independently of whether
// the reporter is currently waiting on a deadline: sampling and reporting are
// deliberately separate goroutines, so a slow or blocked reporter never
// throttles the sampling cadence itself.
type LiveSampler struct {
	clk             clock.Clock
	rec             *histogram.Recorder
	resolutionNS    int64
	allocateObjects bool
	sleep           func(time.Duration)

	lastNowNS atomic.Int64 // updated every iteration; read by AdvanceTo

	stopCh   chan struct{}
	stopOnce sync.Once
	doneCh   chan struct{}

	allocSink atomic.Pointer[[]byte]

	// deltaStats tracks the raw observed delta between consecutive
	// iterations (in nanoseconds, requested sleep included), not the hiccup
	// value recorded into rec: a running
	// count/min/max/avg of the sampler's own overhead, logged once at
	// Wait() the way periodic.go logs its sleepTime.Counter at the end of
	// a run. Only the sampler goroutine writes it, so it needs no lock.
	deltaStats stats.Counter
}

// NewLive starts a LiveSampler recording into rec, reading time from clk,
// sleeping resolutionNS between measurements. If allocateObjects is true, a
// small throwaway allocation is made and stored every iteration to expose
// allocator-path stalls.
func NewLive(clk clock.Clock, rec *histogram.Recorder, resolutionNS int64, allocateObjects bool) *LiveSampler {
	return newLive(clk, rec, resolutionNS, allocateObjects, time.Sleep)
}

// newLive is the test seam: it accepts an injectable sleep function so unit
// tests don't have to wait on real wall-clock sleeps while still exercising
// the rolling-min/hiccup arithmetic.
func newLive(clk clock.Clock, rec *histogram.Recorder, resolutionNS int64, allocateObjects bool, sleep func(time.Duration)) *LiveSampler {
	s := &LiveSampler{
		clk:             clk,
		rec:             rec,
		resolutionNS:    resolutionNS,
		allocateObjects: allocateObjects,
		sleep:           sleep,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
	s.lastNowNS.Store(clk.NowNS())
	go s.run()
	return s
}

func (s *LiveSampler) run() {
	defer close(s.doneCh)
	lastTS := tsSentinel
	rollingMin := tsSentinel

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		if s.resolutionNS > 0 {
			s.sleep(time.Duration(s.resolutionNS))
		}

		if s.allocateObjects {
			b := make([]byte, 64)
			s.allocSink.Store(&b)
		}

		now := s.clk.NowNS()
		s.lastNowNS.Store(now)

		delta := now - lastTS
		if lastTS == tsSentinel || delta < 0 {
			lastTS = now
			continue
		}
		lastTS = now
		s.deltaStats.Record(float64(delta))
		if delta < rollingMin {
			rollingMin = delta
		}
		hiccup := delta - rollingMin
		s.rec.Record(hiccup, s.resolutionNS)
	}
}

// AdvanceTo blocks until the sampler goroutine has observed a now_ns at or
// past deadlineNS, or has terminated.
func (s *LiveSampler) AdvanceTo(deadlineNS int64) Outcome {
	for {
		select {
		case <-s.doneCh:
			return Outcome{Terminated: true}
		default:
		}
		if now := s.lastNowNS.Load(); now >= deadlineNS {
			return Outcome{NowNS: now}
		}
		time.Sleep(pollInterval)
	}
}

// Stop requests cooperative termination of the sampling goroutine.
func (s *LiveSampler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Wait blocks until the sampling goroutine has exited, then logs a
// one-line diagnostic summary of the observed sleep-delta distribution
// (verbose/-v-gated like periodic.go's sleepTime.Counter.Print).
func (s *LiveSampler) Wait() {
	<-s.doneCh
	if log.Log(log.Verbose) {
		s.deltaStats.Log("sampling: observed sleep delta (ns)")
	}
}
