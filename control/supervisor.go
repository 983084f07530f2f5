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

// Package control implements the optional control-process supervisor (a
// peer measurement running concurrently, for baseline comparison) and the
// stdin-sever watchdog used by both the parent and its spawned children.
package control // import "fortio.org/hiccup/control"

import (
	"io"
	"math"
	"os/exec"
	"runtime/debug"

	"fortio.org/log"
)

// Supervisor spawns a peer process running this same binary in control
// mode and owns its lifetime: an inheritable stdin pipe (closing it is the
// primary termination signal) and a background goroutine that joins the
// child and logs, but never propagates, its exit. The control process is
// advisory, a concurrent baseline for comparison, not load-bearing: its
// failure never fails the parent's own measurement run.
type Supervisor struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}
}

// Spawn starts binaryPath with args as a control-mode peer. The caller is
// responsible for having derived args (same reporting interval, resolution,
// significant digits, start delay, and a ".c"-suffixed log path) before
// calling Spawn; see config.DeriveControlArgs.
func Spawn(binaryPath string, args []string) (*Supervisor, error) {
	cmd := exec.Command(binaryPath, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	log.Infof("control: launching %s %v", binaryPath, args)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	s := &Supervisor{cmd: cmd, stdin: stdin, done: make(chan struct{})}
	go s.watch()
	return s, nil
}

func (s *Supervisor) watch() {
	defer close(s.done)
	if err := s.cmd.Wait(); err != nil {
		log.Warnf("control: child process exited: %v", err)
	}
}

// Terminate closes the child's stdin, which (via its own StdinMonitor)
// causes it to exit.
func (s *Supervisor) Terminate() error {
	return s.stdin.Close()
}

// Wait blocks until the child process has been reaped.
func (s *Supervisor) Wait() {
	<-s.done
}

// ShouldLaunch applies the optional heap-size filter: if heapFilterMB > 0
// and the current process's soft memory limit (set via GOMEMLIMIT or
// debug.SetMemoryLimit) is configured and below that threshold, the
// supervisor should not be launched at all. This stands in for a maximum-heap
// comparison: Go has no fixed heap ceiling the way -Xmx gives one, only this
// optional soft limit, which is unset by default. With no soft limit
// configured, Go reports math.MaxInt64, which is treated as "no usable
// ceiling to compare against" and never disables the supervisor — operators
// who want -cfmb to actually filter must also set GOMEMLIMIT.
func ShouldLaunch(heapFilterMB int64) bool {
	if heapFilterMB <= 0 {
		return true
	}
	limit := debug.SetMemoryLimit(-1) // read-only probe, per runtime/debug's documented usage
	if limit <= 0 || limit == math.MaxInt64 {
		return true
	}
	limitMB := limit / (1024 * 1024)
	return limitMB >= heapFilterMB
}
