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

package gelval

import (
	"fmt"
	"strings"
)

// Decimal is an arbitrary precision decimal, kept in the wire's own
// base-10000 digit-group representation (spec.md §4.D "Decimal"):
// each element of Digits is one base-10000 digit, most significant
// first, and Weight is the power of 10000 the first digit is
// multiplied by. Converting through a binary float would lose the
// precision `std::decimal` promises, so Decimal never does.
type Decimal struct {
	Negative bool
	Weight   int32
	Digits   []uint16
}

// String renders the decimal in plain (non-exponential) form.
func (d Decimal) String() string {
	if len(d.Digits) == 0 {
		return "0"
	}

	var intPart, fracPart strings.Builder
	if d.Weight < -1 {
		// zero groups between the point and the first explicit digit
		fracPart.WriteString(strings.Repeat("0000", int(-d.Weight-1)))
	}
	for i, digit := range d.Digits {
		pos := d.Weight - int32(i)
		group := fmt.Sprintf("%04d", digit)
		if pos >= 0 {
			if i == 0 {
				group = strings.TrimLeft(group, "0")
				if group == "" {
					group = "0"
				}
			}
			intPart.WriteString(group)
		} else {
			fracPart.WriteString(group)
		}
	}

	// Digits beyond the last explicit group but within Weight's
	// implied range are zero; pad the integer part so its magnitude
	// matches Weight when the tail was omitted because it was zero.
	missingIntGroups := int(d.Weight) - (len(d.Digits) - 1)
	if missingIntGroups > 0 && intPart.Len() > 0 {
		intPart.WriteString(strings.Repeat("0000", missingIntGroups))
	}

	out := intPart.String()
	if out == "" {
		out = "0"
	}
	if fracPart.Len() > 0 {
		out += "." + strings.TrimRight(fracPart.String(), "0")
		if strings.HasSuffix(out, ".") {
			out = out[:len(out)-1]
		}
	}
	if d.Negative && out != "0" {
		out = "-" + out
	}
	return out
}
