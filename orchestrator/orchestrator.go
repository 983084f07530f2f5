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

// Package orchestrator wires clock, histogram, sampling, reporting, and
// control together per the Config, and runs the warm-up/startup sequence:
// resolve flags into options, start the components, drive the run, then
// join and clean up.
package orchestrator // import "fortio.org/hiccup/orchestrator"

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"fortio.org/hiccup/clock"
	"fortio.org/hiccup/config"
	"fortio.org/hiccup/control"
	"fortio.org/hiccup/histlog"
	"fortio.org/hiccup/reporting"
	"fortio.org/hiccup/sampling"
	"fortio.org/hiccup/version"
	"fortio.org/log"

	hdr "fortio.org/hiccup/histogram"
)

// legend describes the interval line's fields, written once in the log
// header.
const legend = "start_ts_ms,end_ts_ms,count,max_ns,payload(gzip+base64 json histogram snapshot)"

// Run builds and drives a full measurement run from cfg: opens the log
// sink, optionally launches the control-process peer and the stdin-sever
// watchdog, performs the warm-up sequence, then drives the reporter until
// termination.
func Run(cfg *config.Config) error {
	clk, err := clock.New()
	if err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}

	rec := hdr.NewRecorder(cfg.LowestTrackableNS, cfg.HighestTrackableNS, cfg.SignificantDigits)

	logFile, err := os.Create(cfg.LogPath)
	if err != nil {
		return fmt.Errorf("orchestrator: creating log file %q: %w", cfg.LogPath, err)
	}
	var writer histlog.Writer
	if cfg.CSVFormat {
		writer = histlog.NewCSVWriter(logFile, 60*time.Second)
	} else {
		writer = histlog.NewTextWriter(logFile, 60*time.Second)
	}

	var sup *control.Supervisor
	if cfg.LaunchControl && !cfg.ControlMode {
		if control.ShouldLaunch(cfg.ControlHeapMB) {
			self, err := os.Executable()
			if err != nil {
				log.Warnf("orchestrator: could not resolve own executable path, control process disabled: %v", err)
			} else {
				sup, err = control.Spawn(self, cfg.DeriveControlArgs())
				if err != nil {
					log.Warnf("orchestrator: failed to launch control process: %v", err)
					sup = nil
				}
			}
		} else {
			log.Infof("orchestrator: control process disabled by heap-size filter (-cfmb %d)", cfg.ControlHeapMB)
		}
	}

	if cfg.TerminateWithStdin || cfg.ControlMode {
		go control.NewStdinMonitor(nil, nil).Run()
	}

	sampler, runStartUnits, unitsPerMs, baseWallMs, runTimeUnits, err := startSampler(cfg, clk, rec)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		if _, ok := <-sigCh; ok {
			log.Infof("orchestrator: signal received, stopping sampler")
			sampler.Stop()
		}
	}()
	defer signal.Stop(sigCh)

	header := histlog.Header{
		Version:        version.Short(),
		Legend:         legend,
		BaseTimeMs:     baseWallMs,
		StartTimeMs:    baseWallMs + runStartUnits/unitsPerMs,
		StartAtZero:    cfg.StartAtZero,
		ResolutionNS:   cfg.ResolutionNS,
		ReportInterval: time.Duration(cfg.ReportingIntervalNS),
	}

	intervalUnits := cfg.ReportingIntervalNS
	if unitsPerMs == 1 {
		intervalUnits = cfg.ReportingIntervalNS / 1_000_000
		if intervalUnits <= 0 {
			intervalUnits = 1
		}
	}

	reporter := reporting.New(rec, sampler, writer, intervalUnits, runTimeUnits, baseWallMs, unitsPerMs)
	runErr := reporter.Run(runStartUnits, header)

	if sup != nil {
		if err := sup.Terminate(); err != nil {
			log.Warnf("orchestrator: terminating control process: %v", err)
		}
		sup.Wait()
	}

	return runErr
}

// startSampler performs the warm-up sequencing (for a live source: sample
// for the configured startup delay, discard it, and start over fresh so
// startup-transient stalls never leak into the measured run) and returns
// the sampler the reporter should drive, along with the unit-conversion
// parameters reporting.New needs.
func startSampler(cfg *config.Config, clk clock.Clock, rec *hdr.Recorder) (
	sampler sampling.Sampler, runStartUnits, unitsPerMs, baseWallMs, runTimeUnits int64, err error,
) {
	if cfg.InputPath != "" {
		f, ferr := os.Open(cfg.InputPath)
		if ferr != nil {
			return nil, 0, 0, 0, 0, fmt.Errorf("orchestrator: opening input file %q: %w", cfg.InputPath, ferr)
		}
		fs := sampling.NewFile(f, rec, cfg.ResolutionNS, cfg.FillZeros)
		startDelayMs := cfg.StartDelayNS / 1_000_000
		if startDelayMs > 0 {
			fs.SkipUntil(startDelayMs)
		}
		// File mode always stamps timestamps from the input-stream
		// timeline, regardless of -0/start_time_at_zero: there is no wall
		// clock to be relative to when replaying a recorded log.
		return fs, startDelayMs, 1, 0, cfg.RunTimeNS / 1_000_000, nil
	}

	ns0 := clk.NowNS()
	wall0 := clk.WallMS()
	processBirthWallMs := wall0 - ns0/1_000_000

	var runStartNS int64
	if cfg.StartDelayNS > 0 {
		warm := sampling.NewLive(clk, rec, cfg.ResolutionNS, cfg.AllocateObjects)
		warm.AdvanceTo(ns0 + cfg.StartDelayNS)
		warm.Stop()
		warm.Wait()
		rec.Reset()
		runStartNS = clk.NowNS()
	} else {
		runStartNS = ns0
	}

	live := sampling.NewLive(clk, rec, cfg.ResolutionNS, cfg.AllocateObjects)

	reportingStartMs := processBirthWallMs
	if cfg.StartAtZero {
		reportingStartMs = 0
	}
	base := reportingStartMs - runStartNS/1_000_000

	return live, runStartNS, 1_000_000, base, cfg.RunTimeNS, nil
}
