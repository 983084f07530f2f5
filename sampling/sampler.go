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

// Package sampling implements the two sample sources: LiveSampler, which
// measures actual platform stalls against a sleeping clock, and FileSampler,
// which replays a previously recorded "ts_ms latency_ms" latency log. Both
// are driven by the reporter through the shared Sampler interface.
package sampling // import "fortio.org/hiccup/sampling"

// Outcome is returned by Sampler.AdvanceTo.
type Outcome struct {
	// Terminated is true once the sampler has nothing more to produce
	// (cooperative stop was observed, or the input file is exhausted).
	Terminated bool
	// NowNS is the timestamp (sampler-clock-relative for LiveSampler, or
	// input-stream milliseconds for FileSampler) at which the deadline was
	// reached. Valid only when !Terminated.
	NowNS int64
}

// Sampler is the contract the reporter drives: run forward until at least
// deadlineNS (in the sampler's own time base) has been reached, recording
// samples into the histogram.Recorder along the way.
type Sampler interface {
	// AdvanceTo blocks until the sampler's clock reaches deadlineNS or the
	// sampler terminates, whichever comes first.
	AdvanceTo(deadlineNS int64) Outcome
	// Stop requests cooperative termination; safe to call from any
	// goroutine, and more than once.
	Stop()
	// Wait blocks until the sampler goroutine (if any) has exited.
	Wait()
}
