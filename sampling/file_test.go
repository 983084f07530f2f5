package sampling

import (
	"strings"
	"testing"
	"time"

	"fortio.org/hiccup/histogram"
)

func TestFileSamplerBasicReplay(t *testing.T) {
	input := "1000 5\n2000 3\n3000 1\n"
	rec := histogram.NewRecorder(1, 1_000_000_000, 3)
	fs := NewFile(strings.NewReader(input), rec, 1_000_000, false)

	outcome := fs.AdvanceTo(3000)
	if outcome.Terminated {
		t.Fatalf("unexpected early termination: %+v", outcome)
	}

	// Each line is recorded with coordinated-omission correction against the
	// 1ms resolution: 5ms adds 4 backfilled values, 3ms adds 2, 1ms adds
	// none, so the three lines yield 5+3+1 = 9 counts.
	iv := rec.SwapInterval(time.Now(), time.Now())
	if got := iv.TotalCount(); got != 9 {
		t.Fatalf("TotalCount() = %d, want 9", got)
	}
}

func TestFileSamplerTerminatesAtEOF(t *testing.T) {
	input := "1000 5\n"
	rec := histogram.NewRecorder(1, 1_000_000_000, 3)
	fs := NewFile(strings.NewReader(input), rec, 1_000_000, false)

	first := fs.AdvanceTo(5000)
	if first.Terminated {
		t.Fatalf("first AdvanceTo should report the deadline reached, not terminated: %+v", first)
	}
	second := fs.AdvanceTo(10000)
	if !second.Terminated {
		t.Fatalf("second AdvanceTo after EOF = %+v, want Terminated", second)
	}
}

func TestFileSamplerNonDecreasingTimeEndsInput(t *testing.T) {
	input := "2000 1\n1000 1\n"
	rec := histogram.NewRecorder(1, 1_000_000_000, 3)
	fs := NewFile(strings.NewReader(input), rec, 1_000_000, false)

	fs.AdvanceTo(2000)
	outcome := fs.AdvanceTo(5000)
	if !outcome.Terminated {
		t.Fatalf("expected termination once input timestamps regress, got %+v", outcome)
	}
}

func TestFileSamplerFillZerosBulkRecords(t *testing.T) {
	// One line at ts=5000 with latency 1ms; with fill_zeros and a 1ms
	// resolution, the gap from 0 to msec_preceding (4999) should be
	// zero-filled before the real sample lands.
	input := "5000 1\n"
	rec := histogram.NewRecorder(1, 1_000_000_000, 3)
	fs := NewFile(strings.NewReader(input), rec, 1_000_000, true)

	fs.AdvanceTo(5000)
	iv := rec.SwapInterval(time.Now(), time.Now())
	if got := iv.TotalCount(); got < 2 {
		t.Fatalf("TotalCount() = %d, want at least 2 (zero-fill + real sample)", got)
	}
	if got := iv.Snapshot.Min(); got != 0 {
		t.Errorf("Min() = %d, want 0 from the zero-filled gap", got)
	}
}

func TestFileSamplerStop(t *testing.T) {
	rec := histogram.NewRecorder(1, 1_000_000_000, 3)
	fs := NewFile(strings.NewReader("1000 1\n"), rec, 1_000_000, false)
	fs.Stop()
	fs.Wait()
	outcome := fs.AdvanceTo(1000)
	if !outcome.Terminated {
		t.Errorf("AdvanceTo after Stop() = %+v, want Terminated", outcome)
	}
}
