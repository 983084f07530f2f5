// Copyright 2017 Istio Authors
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

package stats

import (
	"bufio"
	"bytes"
	"testing"
)

func TestCounter(t *testing.T) {
	var c Counter
	var b bytes.Buffer
	w := bufio.NewWriter(&b)
	c.Record(23.1)
	c.Print(w, "test1")
	expected := "test1 : count 1 avg 23.1 +/- 0 min 23.1 max 23.1 sum 23.1\n"
	c.Record(22.9)
	c.Print(w, "test2")
	expected += "test2 : count 2 avg 23 +/- 0.1 min 22.9 max 23.1 sum 46\n"
	c.Record(23.1)
	c.Record(22.9)
	c.Print(w, "test3")
	expected += "test3 : count 4 avg 23 +/- 0.1 min 22.9 max 23.1 sum 92\n"
	c.Record(1023)
	c.Record(-977)
	c.Print(w, "test4")
	expected += "test4 : count 6 avg 23 +/- 577.4 min -977 max 1023 sum 138\n"
	w.Flush()
	if b.String() != expected {
		t.Errorf("Got:\n%s\nExpected:\n%s", b.String(), expected)
	}
}

func TestCounterReset(t *testing.T) {
	var c Counter
	c.Record(1)
	c.Record(2)
	c.Reset()
	if c.Count != 0 || c.Sum != 0 || c.Min != 0 || c.Max != 0 {
		t.Errorf("Reset() left non zero state: %+v", c)
	}
}

func TestCounterTransfer(t *testing.T) {
	var dst, src Counter
	dst.Record(1)
	dst.Record(3)
	src.Record(5)
	src.Record(7)
	dst.Transfer(&src)
	if dst.Count != 4 {
		t.Errorf("Count after Transfer = %d, want 4", dst.Count)
	}
	if dst.Min != 1 || dst.Max != 7 {
		t.Errorf("Min/Max after Transfer = %g/%g, want 1/7", dst.Min, dst.Max)
	}
	if src.Count != 0 {
		t.Errorf("src.Count after Transfer = %d, want 0 (src must be cleared)", src.Count)
	}
}

func TestCounterTransferEmptySrc(t *testing.T) {
	var dst, src Counter
	dst.Record(1)
	dst.Transfer(&src)
	if dst.Count != 1 {
		t.Errorf("Count after Transfer of empty src = %d, want 1", dst.Count)
	}
}

func TestCounterTransferEmptyDst(t *testing.T) {
	var dst, src Counter
	src.Record(1)
	src.Record(2)
	dst.Transfer(&src)
	if dst.Count != 2 || dst.Sum != 3 {
		t.Errorf("Count/Sum after Transfer into empty dst = %d/%g, want 2/3", dst.Count, dst.Sum)
	}
}

func TestCounterRecordN(t *testing.T) {
	var c Counter
	c.RecordN(5, 3)
	if c.Count != 3 || c.Sum != 15 {
		t.Errorf("Count/Sum after RecordN(5,3) = %d/%g, want 3/15", c.Count, c.Sum)
	}
}
