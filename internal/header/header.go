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

// Package header models the two generations of the protocol's
// annotation bag (spec.md §3 "Annotation map" / §9 "Annotations &
// headers"): protocol < 3.0 uses a 16-bit numeric key with a
// length-prefixed byte-string value; protocol >= 3.0 uses a UTF-8
// key/value annotation map. Both are always written with a uint16
// count prefix and may be empty.
package header

import "encoding/binary"

// Legacy is the protocol < 3.0 numeric-keyed header map.
type Legacy map[uint16][]byte

// Annotations is the protocol >= 3.0 UTF-8 key/value annotation map.
type Annotations map[string]string

// Known legacy/modern header keys.
const (
	// AllowCapabilities tells the server what capabilities to permit.
	AllowCapabilities uint16 = 0xFF04
	allCapabilities   uint64 = 0xffffffffffffffff

	// ExplicitObjectIDs tells the server not to inject object ids.
	ExplicitObjectIDs uint16 = 0xFF05

	// AllowCapabilitiesTransaction is the transaction-control bit of
	// the AllowCapabilities header value.
	AllowCapabilitiesTransaction uint64 = 0b100

	// Capabilities is returned on StatementDataDescription /
	// CommandComplete.
	Capabilities uint16 = 0x1001

	// WarningsKey is the annotation key StatementDataDescription uses
	// to carry a JSON-encoded array of compiler warnings.
	WarningsKey = "warnings"
)

// NewAllowCapabilitiesWithout returns an AllowCapabilities header value
// with the bits in mask cleared.
func NewAllowCapabilitiesWithout(mask uint64) []byte {
	bts := make([]byte, 8)
	binary.BigEndian.PutUint64(bts, allCapabilities^mask)
	return bts
}
