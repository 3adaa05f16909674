// This source file is part of the gelwire project.
//
// Copyright the gelwire authors.
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

// Package protocol drives the wire protocol state machine (spec.md
// §4.G "Wire frame codec", §4.H "Protocol state machine"): handshake
// and SCRAM-SHA-256 authentication, Parse/Execute, Sync, error and
// log-message handling, and Dump/Restore streaming.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/exp/slices"

	"github.com/gel-io/gelwire/internal/buff"
	"github.com/gel-io/gelwire/internal/header"
	"github.com/gel-io/gelwire/internal/message"
	"github.com/gel-io/gelwire/internal/protover"
)

// clientHandshake builds the ClientHandshake message for the given
// connection parameters, sorting parameter keys for determinism
// (spec.md §6 "Handshake") the same way the teacher's connect.go
// relies on golang.org/x/exp/slices to do before writing the map.
func clientHandshake(params map[string]string, scratch []byte) *buff.Writer {
	w := buff.NewWriter(scratch)
	w.BeginMessage(uint8(message.ClientHandshake))
	w.PushUint16(protover.Max.Major)
	w.PushUint16(protover.Max.Minor)

	keys := make([]string, 0, len(params))
	for k := range params {
		if params[k] == "" {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	w.PushUint16(uint16(len(keys)))
	for _, k := range keys {
		w.PushString(k)
		w.PushString(params[k])
	}

	w.PushUint16(0) // no extensions
	w.EndMessage()
	return w
}

// writeSync appends an empty Sync message: the client's signal that
// no more messages follow until a ReadyForCommand (spec.md §4.G).
func writeSync(w *buff.Writer) {
	w.BeginMessage(uint8(message.Sync))
	w.EndMessage()
}

// writeTerminate appends a Terminate message.
func writeTerminate(w *buff.Writer) {
	w.BeginMessage(uint8(message.Terminate))
	w.EndMessage()
}

// legacyHeaders writes a protocol < 3.0 numeric-keyed header map.
func legacyHeaders(w *buff.Writer, h header.Legacy) {
	w.PushUint16(uint16(len(h)))
	keys := make([]uint16, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		w.PushUint16(k)
		w.PushBytes(h[k])
	}
}

// annotations writes a protocol >= 3.0 UTF-8 annotation map.
func annotations(w *buff.Writer, a header.Annotations) {
	w.PushUint16(uint16(len(a)))
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.PushString(k)
		w.PushString(a[k])
	}
}

func ignoreHeaders(r *buff.Reader, ver protover.Version) {
	if ver.HasAnnotationMaps() {
		n := int(r.PopUint16())
		for i := 0; i < n; i++ {
			r.PopString()
			r.PopString()
		}
		return
	}
	n := int(r.PopUint16())
	for i := 0; i < n; i++ {
		r.PopUint16()
		r.PopBytes()
	}
}

// popHeaders reads a header/annotation map into a string-keyed map,
// the same shape on both generations of the wire so callers that need
// a value (warnings, capabilities) don't have to branch on version
// themselves. Numeric legacy keys are rendered as their decimal string
// so a lookup by header.WarningsKey only ever matches the annotation
// map a query actually carries it in.
func popHeaders(r *buff.Reader, ver protover.Version) map[string]string {
	if ver.HasAnnotationMaps() {
		n := int(r.PopUint16())
		h := make(map[string]string, n)
		for i := 0; i < n; i++ {
			k := r.PopString()
			h[k] = r.PopString()
		}
		return h
	}
	n := int(r.PopUint16())
	h := make(map[string]string, n)
	for i := 0; i < n; i++ {
		k := r.PopUint16()
		v := r.PopBytes()
		h[strconv.Itoa(int(k))] = string(v)
	}
	return h
}

// warningPayload mirrors the JSON array the server attaches under
// header.WarningsKey (spec.md §9 "Annotations & headers").
type warningPayload struct {
	Code    uint32 `json:"code"`
	Message string `json:"message"`
}

// decodeWarnings extracts the human-readable message of every compiler
// warning attached to headers, if any. A malformed payload is treated
// as no warnings rather than a hard failure: warnings are advisory and
// must never turn a successful query into an error by themselves.
func decodeWarnings(headers map[string]string) []string {
	data, ok := headers[header.WarningsKey]
	if !ok {
		return nil
	}
	var payload []warningPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil
	}
	messages := make([]string, len(payload))
	for i, w := range payload {
		messages[i] = w.Message
	}
	return messages
}

// allowCapabilitiesHeaderValue is a convenience wrapper around
// header.NewAllowCapabilitiesWithout used when a caller wants to
// disable transaction-control statements from inside a transaction
// (spec.md §4.H "Capability negotiation").
func allowCapabilitiesHeaderValue(disallow uint64) []byte {
	buf := header.NewAllowCapabilitiesWithout(disallow)
	// NewAllowCapabilitiesWithout already writes big-endian; this
	// wrapper exists purely so call sites read as intent, not bit math.
	if len(buf) != 8 {
		panic(fmt.Sprintf("allow-capabilities header must be 8 bytes, got %d",
			len(buf)))
	}
	return buf
}

func mustUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
