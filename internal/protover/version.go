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

// Package protover carries the wire protocol's (major, minor) version
// and the feature gates spec.md §6 hangs off it.
package protover

import "fmt"

// Version is a (major, minor) protocol version pair.
type Version struct {
	Major uint16
	Minor uint16
}

func (v Version) String() string { return fmt.Sprintf("%v.%v", v.Major, v.Minor) }

// GT reports whether v is strictly greater than o.
func (v Version) GT(o Version) bool { return v.cmp(o) > 0 }

// GTE reports whether v is greater than or equal to o.
func (v Version) GTE(o Version) bool { return v.cmp(o) >= 0 }

// LT reports whether v is strictly less than o.
func (v Version) LT(o Version) bool { return v.cmp(o) < 0 }

func (v Version) cmp(o Version) int {
	if v.Major != o.Major {
		if v.Major < o.Major {
			return -1
		}
		return 1
	}
	if v.Minor != o.Minor {
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	}
	return 0
}

// Client-advertised and minimum-supported versions (spec.md §6).
var (
	Max = Version{Major: 3, Minor: 0}
	Min = Version{Major: 0, Minor: 9}

	// V2p0 is the threshold for length-prefixed descriptor framing,
	// type names on Scalar/Tuple/NamedTuple/Array/Range/MultiRange/Enum
	// descriptors, and Object/Compound stub descriptors.
	V2p0 = Version{Major: 2, Minor: 0}

	// V3p0 is the threshold for UTF-8 annotation maps and the
	// input-language byte on Parse/Execute.
	V3p0 = Version{Major: 3, Minor: 0}
)

// IsLegacy reports whether v is the legacy (0.x) generation, which uses
// 16-bit-keyed header maps and the separate DescribeStatement /
// LegacyExecute messages.
func (v Version) IsLegacy() bool { return v.Major == 0 }

// HasAnnotationMaps reports whether v uses UTF-8 annotation maps
// instead of legacy numeric-keyed headers.
func (v Version) HasAnnotationMaps() bool { return v.GTE(V3p0) }

// HasInputLanguage reports whether Parse/Execute carry an input
// language byte.
func (v Version) HasInputLanguage() bool { return v.GTE(V3p0) }

// HasLengthPrefixedDescriptors reports whether type descriptors are
// individually length-prefixed.
func (v Version) HasLengthPrefixedDescriptors() bool { return v.GTE(V2p0) }
