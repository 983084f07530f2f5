package config

import (
	"testing"
	"time"
)

func TestSubstitutePlaceholdersIdempotentWithoutMarkers(t *testing.T) {
	const path = "hiccup.log"
	once := substitutePlaceholders(path, 1234, time.Now())
	twice := substitutePlaceholders(once, 1234, time.Now())
	if once != path {
		t.Errorf("substitutePlaceholders(%q) = %q, want unchanged (no placeholders present)", path, once)
	}
	if twice != once {
		t.Errorf("second substitution changed an already-substituted string: %q -> %q", once, twice)
	}
}

func TestSubstitutePlaceholdersFillsPidAndDate(t *testing.T) {
	ts := time.Date(2026, 7, 30, 14, 5, 0, 0, time.UTC)
	got := substitutePlaceholders("hiccup.%date.%pid.hlog", 4321, ts)
	want := "hiccup.260730.1405.4321.hlog"
	if got != want {
		t.Errorf("substitutePlaceholders() = %q, want %q", got, want)
	}
}

func TestMsToNS(t *testing.T) {
	if got := msToNS(1); got != 1_000_000 {
		t.Errorf("msToNS(1) = %d, want 1000000", got)
	}
	if got := msToNS(0.5); got != 500_000 {
		t.Errorf("msToNS(0.5) = %d, want 500000", got)
	}
}

func TestSplitArgs(t *testing.T) {
	if got := splitArgs("  "); got != nil {
		t.Errorf("splitArgs(whitespace) = %v, want nil", got)
	}
	got := splitArgs("-foo bar -baz")
	want := []string{"-foo", "bar", "-baz"}
	if len(got) != len(want) {
		t.Fatalf("splitArgs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitArgs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDeriveControlArgsIncludesCoreFlags(t *testing.T) {
	c := &Config{
		ReportingIntervalNS: 5_000_000_000,
		ResolutionNS:        1_000_000,
		StartDelayNS:        0,
		SignificantDigits:   2,
		LogPath:             "hiccup.log",
		StartAtZero:         true,
		CSVFormat:           true,
	}
	args := c.DeriveControlArgs()
	joined := map[string]bool{}
	for _, a := range args {
		joined[a] = true
	}
	for _, want := range []string{"-control-mode", "-terminateWithStdInput", "-0", "-o"} {
		if !joined[want] {
			t.Errorf("DeriveControlArgs() missing %q, got %v", want, args)
		}
	}
	found := false
	for i, a := range args {
		if a == "-l" && i+1 < len(args) && args[i+1] == "hiccup.log.c" {
			found = true
		}
	}
	if !found {
		t.Errorf("DeriveControlArgs() missing -l hiccup.log.c, got %v", args)
	}
}
