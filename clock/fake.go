package clock

import "sync/atomic"

// Fake is a controllable Clock for tests of code that depends on clock.Clock,
// such as orchestrator's live-mode startup-time arithmetic. It is exported
// (not _test.go) so those packages' own tests can construct one without an
// import cycle through a shared testing-only package.
type Fake struct {
	ns atomic.Int64
	ms atomic.Int64
}

// NewFake returns a Fake clock starting at the given nanosecond/millisecond
// reading (the two are independent on purpose: NowNS is what matters for
// correctness, WallMS is display-only).
func NewFake(startNS, startWallMS int64) *Fake {
	f := &Fake{}
	f.ns.Store(startNS)
	f.ms.Store(startWallMS)
	return f
}

func (f *Fake) NowNS() int64  { return f.ns.Load() }
func (f *Fake) WallMS() int64 { return f.ms.Load() }

// Advance moves both readings forward by d nanoseconds (ms is advanced by
// d/1e6, truncated).
func (f *Fake) Advance(d int64) {
	f.ns.Add(d)
	f.ms.Add(d / 1e6)
}

// Set pins NowNS to an absolute value, useful for deadline-boundary tests.
func (f *Fake) Set(ns int64) {
	f.ns.Store(ns)
}
