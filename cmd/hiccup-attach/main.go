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

// hiccup-attach is the Attacher binary. Go has no equivalent of the JVM's
// com.sun.tools.attach dynamic-agent API, so there is no supported way to
// inject this tool's sampling loop into another running process's address
// space. Instead, this binary records the requested target pid for
// diagnostics only and runs the measurement loop itself, in its own
// process, independent of the target; it does not spawn a separate
// process. -j (agent payload path) is accepted for
// flag-compatibility with tools that do support in-process attach, but is
// ignored here, with a warning.
package main

import (
	"errors"
	"flag"
	"os"

	"fortio.org/cli"
	"fortio.org/hiccup/config"
	"fortio.org/hiccup/orchestrator"
	"fortio.org/log"
)

var (
	pidFlag   int
	jarFlag   string
	errAttach = errors.New("attach")
)

// registerFlags adds -p and -j to the shared flag.CommandLine, alongside
// the measurement flags the config package already registers at import
// time.
func registerFlags() {
	flag.IntVar(&pidFlag, "p", 0, "Target process `pid` (recorded for diagnostics only; not actually attached to)")
	flag.StringVar(&jarFlag, "j", "", "Agent payload `path` (accepted for compatibility, ignored)")
}

func main() {
	os.Exit(Main())
}

// Main is split out from main() for in-process CLI testing, same as
// cmd/hiccup.
func Main() int {
	cli.ProgramName = "hiccup-attach"
	cli.ArgsHelp = ""
	cli.MaxArgs = 0
	registerFlags()
	cli.Main()

	if pidFlag <= 0 {
		log.Errf("%v: -p PID is required", errAttach)
		return 1
	}
	if jarFlag != "" {
		log.Warnf("hiccup-attach: -j %q ignored: Go has no dynamic-agent injection API, "+
			"running a standalone measurement instead of attaching to pid %d",
			jarFlag, pidFlag)
	}
	log.Infof("hiccup-attach: cannot attach to pid %d in-process (no JVM-style agent API); "+
		"starting an independent measurement process instead", pidFlag)

	cfg, err := config.FromFlags()
	if err != nil {
		if errors.Is(err, config.ErrInputFile) {
			log.Errf("%v", err)
			return 2
		}
		log.Errf("%v", err)
		return 1
	}

	if err := orchestrator.Run(cfg); err != nil {
		log.Errf("%v", err)
		return 1
	}
	return 0
}
