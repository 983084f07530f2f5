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

package control

import (
	"io"
	"os"

	"fortio.org/log"
)

// StdinMonitor reads standard input one byte at a time in the background;
// any read error (in particular EOF, meaning the parent closed our stdin
// pipe) exits the process. Spawned control children use this so they die
// with their parent; the main process can optionally use it too, via
// -terminateWithStdInput.
type StdinMonitor struct {
	r    io.Reader
	exit func(code int)
}

// NewStdinMonitor builds a monitor reading from r (os.Stdin if nil) and
// exiting via exit (os.Exit if nil). The injectable reader/exit pair
// mirrors fnet's `var stdin io.Reader = os.Stdin` test seam.
func NewStdinMonitor(r io.Reader, exit func(int)) *StdinMonitor {
	if r == nil {
		r = os.Stdin
	}
	if exit == nil {
		exit = os.Exit
	}
	return &StdinMonitor{r: r, exit: exit}
}

// Run blocks, reading one byte at a time, until a read fails. Intended to
// be launched with `go monitor.Run()`.
func (m *StdinMonitor) Run() {
	buf := make([]byte, 1)
	for {
		if _, err := m.r.Read(buf); err != nil {
			log.Infof("control: stdin closed (%v), exiting", err)
			m.exit(1)
			return
		}
	}
}
