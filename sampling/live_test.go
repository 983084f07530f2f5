package sampling

import (
	"sync/atomic"
	"testing"
	"time"

	"fortio.org/hiccup/histogram"
)

// fakeClockSeq returns a clock.Clock-compatible sequence that hands out a
// fixed list of nanosecond readings, then repeats the last one. It lets the
// live-sampler tests control exactly what delta each iteration observes
// without depending on wall-clock timing.
type fakeClockSeq struct {
	values []int64
	idx    atomic.Int64
}

func newFakeClockSeq(values ...int64) *fakeClockSeq {
	return &fakeClockSeq{values: values}
}

func (f *fakeClockSeq) NowNS() int64 {
	i := f.idx.Add(1) - 1
	if int(i) >= len(f.values) {
		return f.values[len(f.values)-1]
	}
	return f.values[i]
}

func (f *fakeClockSeq) WallMS() int64 { return 0 }

func TestLiveSamplerHiccupNeverNegative(t *testing.T) {
	// newLive's own NowNS call consumes 0 and the loop's first reading (100)
	// only seeds lastTS; deltas: 90 (first min), 200 (hiccup=110),
	// 80 (new min), 80 (hiccup=0)
	clk := newFakeClockSeq(0, 100, 190, 390, 470, 550)
	rec := histogram.NewRecorder(1, 1_000_000_000, 3)
	s := newLive(clk, rec, 1, false, func(time.Duration) {})

	deadline := clk.values[len(clk.values)-1]
	s.AdvanceTo(deadline)
	s.Stop()
	s.Wait()

	iv := rec.SwapInterval(time.Now(), time.Now())
	if iv.TotalCount() == 0 {
		t.Fatalf("expected at least one recorded sample")
	}
	if iv.Snapshot.Min() < 0 {
		t.Errorf("Min() = %d, want >= 0 (hiccup must never be negative)", iv.Snapshot.Min())
	}
}

func TestLiveSamplerStopTerminates(t *testing.T) {
	clk := newFakeClockSeq(0)
	rec := histogram.NewRecorder(1, 1_000_000_000, 3)
	s := newLive(clk, rec, 1, false, func(time.Duration) {})
	s.Stop()
	s.Wait()
	outcome := s.AdvanceTo(1_000_000)
	if !outcome.Terminated {
		t.Errorf("AdvanceTo after Stop()+Wait() = %+v, want Terminated", outcome)
	}
}

func TestLiveSamplerAllocateObjectsDoesNotPanic(t *testing.T) {
	clk := newFakeClockSeq(0, 10, 20, 30, 40)
	rec := histogram.NewRecorder(1, 1_000_000_000, 3)
	s := newLive(clk, rec, 1, true, func(time.Duration) {})
	s.AdvanceTo(40)
	s.Stop()
	s.Wait()
}
