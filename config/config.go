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

// Package config declares the command-line flag surface and derives the
// frozen Config struct the rest of the program runs on, mirroring
// bincommon's "package-var flags, one function that validates them into a
// struct" split (there, SharedHTTPOptions; here, FromFlags).
package config // import "fortio.org/hiccup/config"

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// ErrConfig is wrapped by every validation failure FromFlags returns.
var ErrConfig = errors.New("config")

// ErrInputFile additionally wraps the -f input-file-unreadable case, so
// cmd/hiccup can map it to its own distinct exit code for input-file open
// failures, separate from other configuration errors (see DESIGN.md).
var ErrInputFile = errors.New("input file")

var (
	verboseFlag = flag.Bool("v", false, "Verbose diagnostics")
	logPathFlag = flag.String("l", "hiccup.%date.%pid.hlog",
		"Log `path`; supports %pid and %date placeholders")
	csvFlag           = flag.Bool("o", false, "Emit the interval log in CSV format")
	intervalMsFlag    = flag.Float64("i", 5000, "Reporting interval in `ms`")
	resolutionMsFlag  = flag.Float64("r", 1, "Sampling resolution in `ms` (0 = tight loop)")
	startDelayMsFlag  = flag.Float64("d", 0, "Startup warm-up delay in `ms`")
	runTimeMsFlag     = flag.Float64("t", 0, "Total run time in `ms` (0 = unbounded)")
	sigDigitsFlag     = flag.Int("s", 2, "Significant value `digits`, 0-5")
	startAtZeroFlag   = flag.Bool("0", false, "Report timestamps starting at zero")
	allocateFlag      = flag.Bool("a", false, "Allocate a throwaway object per sample")
	controlFlag       = flag.Bool("c", false, "Launch a control (baseline) process")
	controlHeapMBFlag = flag.Int64("cfmb", 0, "Heap-size filter (`MB`) below which the control process is skipped; "+
		"compares against GOMEMLIMIT, so has no effect unless GOMEMLIMIT is also set")
	extraArgsFlag     = flag.String("x", "", "Extra `args` passed to the control child")
	inputFileFlag     = flag.String("f", "", "Replay a latency log (\"ts_ms latency_ms\" lines) from this input `path` instead of sampling live")
	fillZerosFlag     = flag.Bool("fz", false, "With -f, fill quiet gaps with zero-valued samples")
	terminateStdin    = flag.Bool("terminateWithStdInput", false, "Exit when standard input is closed")
	controlModeFlag   = flag.Bool("control-mode", false,
		"Internal: set on spawned control children, replacing the sentinel environment variable")
)

// Config is the frozen, validated configuration the rest of the program
// runs on. Once built by FromFlags it is never mutated.
type Config struct {
	Verbose bool

	LogPath   string
	CSVFormat bool

	ReportingIntervalNS int64
	ResolutionNS        int64
	StartDelayNS        int64
	RunTimeNS           int64

	SignificantDigits  int
	LowestTrackableNS  int64
	HighestTrackableNS int64

	StartAtZero     bool
	AllocateObjects bool

	LaunchControl    bool
	ControlHeapMB    int64
	ControlExtraArgs []string

	InputPath string
	FillZeros bool

	TerminateWithStdin bool
	ControlMode        bool
}

const (
	defaultLowestTrackableNS     = 20_000
	defaultLowestTrackableFileNS = 1
)

var defaultHighestTrackableNS = int64(30 * 24 * time.Hour)

// FromFlags reads the already-parsed flag.CommandLine values (the caller
// must have already called flag.Parse, per cli.Main's convention) and
// derives a validated Config.
func FromFlags() (*Config, error) {
	if *resolutionMsFlag < 0 {
		return nil, fmt.Errorf("%w: resolution must be >= 0, got %g", ErrConfig, *resolutionMsFlag)
	}
	if *intervalMsFlag <= 0 {
		return nil, fmt.Errorf("%w: reporting interval must be > 0, got %g", ErrConfig, *intervalMsFlag)
	}
	if *sigDigitsFlag < 0 || *sigDigitsFlag > 5 {
		return nil, fmt.Errorf("%w: significant digits must be 0-5, got %d", ErrConfig, *sigDigitsFlag)
	}

	lowest := int64(defaultLowestTrackableNS)
	if *inputFileFlag != "" {
		lowest = defaultLowestTrackableFileNS
		if _, err := os.Stat(*inputFileFlag); err != nil {
			return nil, fmt.Errorf("%w: %w: unreadable input file %q: %v", ErrConfig, ErrInputFile, *inputFileFlag, err)
		}
	}

	c := &Config{
		Verbose:             *verboseFlag,
		LogPath:             substitutePlaceholders(*logPathFlag, os.Getpid(), time.Now()),
		CSVFormat:           *csvFlag,
		ReportingIntervalNS: msToNS(*intervalMsFlag),
		ResolutionNS:        msToNS(*resolutionMsFlag),
		StartDelayNS:        msToNS(*startDelayMsFlag),
		RunTimeNS:           msToNS(*runTimeMsFlag),
		SignificantDigits:   *sigDigitsFlag,
		LowestTrackableNS:   lowest,
		HighestTrackableNS:  defaultHighestTrackableNS,
		StartAtZero:         *startAtZeroFlag,
		AllocateObjects:     *allocateFlag,
		LaunchControl:       *controlFlag,
		ControlHeapMB:       *controlHeapMBFlag,
		ControlExtraArgs:    splitArgs(*extraArgsFlag),
		InputPath:           *inputFileFlag,
		FillZeros:           *fillZerosFlag,
		TerminateWithStdin:  *terminateStdin,
		ControlMode:         *controlModeFlag,
	}
	if c.HighestTrackableNS <= c.LowestTrackableNS {
		return nil, fmt.Errorf("%w: highest trackable value must exceed lowest trackable value", ErrConfig)
	}
	return c, nil
}

func msToNS(ms float64) int64 {
	return int64(ms * 1e6)
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}

// substitutePlaceholders replaces %pid with pid and %date with yyMMdd.HHmm
// of t. A path with neither placeholder is returned unchanged, so applying
// it twice is the same as applying it once.
func substitutePlaceholders(path string, pid int, t time.Time) string {
	r := strings.NewReplacer(
		"%pid", fmt.Sprintf("%d", pid),
		"%date", t.Format("060102.1504"),
	)
	return r.Replace(path)
}

// DeriveControlArgs builds the argument list for a spawned control-mode
// peer: same reporting interval/resolution/significant-digits/start-delay/
// start-at-zero/CSV flags, a ".c"-suffixed log path, -control-mode and
// -terminateWithStdInput set, plus any operator-supplied extra args.
func (c *Config) DeriveControlArgs() []string {
	args := []string{
		"-control-mode",
		"-terminateWithStdInput",
		"-i", fmt.Sprintf("%g", float64(c.ReportingIntervalNS)/1e6),
		"-r", fmt.Sprintf("%g", float64(c.ResolutionNS)/1e6),
		"-d", fmt.Sprintf("%g", float64(c.StartDelayNS)/1e6),
		"-s", fmt.Sprintf("%d", c.SignificantDigits),
		"-l", c.LogPath + ".c",
	}
	if c.StartAtZero {
		args = append(args, "-0")
	}
	if c.CSVFormat {
		args = append(args, "-o")
	}
	args = append(args, c.ControlExtraArgs...)
	return args
}
