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

// hiccup measures platform execution stalls ("hiccups") by repeatedly
// sleeping a short, fixed interval and recording how much longer than
// requested the sleep actually took, minus the best delta ever observed.
// Results accumulate into per-interval HdrHistogram-compatible histograms
// written to a log file for downstream percentile analysis.
//
// This is a single-purpose binary, not a multi-subcommand dispatcher: it
// has exactly one mode of operation, so it only needs the plain
// cli.ProgramName/cli.ArgsHelp/cli.Main() wiring.
package main

import (
	"errors"
	"os"

	"fortio.org/cli"
	"fortio.org/hiccup/config"
	"fortio.org/hiccup/orchestrator"
	"fortio.org/hiccup/version"
	"fortio.org/log"
)

func main() {
	os.Exit(Main())
}

// Main is split out from main() so the testscript-based CLI test
// (cli_test.go) can drive it in-process, the same pattern fortio's own
// fcurl_test.go and cli_test.go use.
func Main() int {
	cli.ProgramName = "hiccup"
	cli.ArgsHelp = "" // no positional arguments, everything is a flag
	cli.MaxArgs = 0
	cli.Main()

	cfg, err := config.FromFlags()
	if err != nil {
		if errors.Is(err, config.ErrInputFile) {
			log.Errf("%v", err)
			return 2 // distinct exit code for an unreadable -f input file
		}
		log.Errf("%v", err)
		return 1
	}

	log.Infof("hiccup %s starting, log=%s", version.Short(), cfg.LogPath)

	if err := orchestrator.Run(cfg); err != nil {
		log.Errf("%v", err)
		return 1
	}
	return 0
}
