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

package histlog

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"

	"fortio.org/hiccup/histogram"
)

// encodePayload gzip-compresses then base64-encodes a JSON snapshot of the
// interval's histogram (its exported counts, trackable range and
// precision), for embedding as one field of an interval log line.
func encodePayload(iv histogram.Interval) (string, error) {
	if iv.Snapshot == nil {
		return "", nil
	}
	raw, err := json.Marshal(iv.Snapshot.Export())
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
