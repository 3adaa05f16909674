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
	"regexp"
	"strconv"
	"strings"
)

const monthsPerYear = 12

// DateDuration is the wire value behind `cal::date_duration`: a
// months/days offset with no time-of-day component.
type DateDuration struct {
	Months int32
	Days   int32
}

func (dd DateDuration) String() string {
	if dd == (DateDuration{}) {
		return "P0D"
	}

	var b strings.Builder
	b.WriteByte('P')

	if dd.Months != 0 {
		years := dd.Months / monthsPerYear
		months := dd.Months % monthsPerYear
		if years != 0 {
			fmt.Fprintf(&b, "%dY", years)
		}
		if months != 0 {
			fmt.Fprintf(&b, "%dM", months)
		}
	}
	if dd.Days != 0 {
		fmt.Fprintf(&b, "%dD", dd.Days)
	}

	return b.String()
}

// RelativeDuration is the wire value behind `cal::relative_duration`:
// a fuzzy months/days/microseconds offset that cannot be collapsed to
// a single duration without a reference date (spec.md §4.B).
type RelativeDuration struct {
	Months       int32
	Days         int32
	Microseconds int64
}

func (rd RelativeDuration) String() string {
	if rd == (RelativeDuration{}) {
		return "PT0S"
	}

	var date strings.Builder
	if rd.Months != 0 {
		years := rd.Months / monthsPerYear
		months := rd.Months % monthsPerYear
		if years != 0 {
			fmt.Fprintf(&date, "%dY", years)
		}
		if months != 0 {
			fmt.Fprintf(&date, "%dM", months)
		}
	}
	if rd.Days != 0 {
		fmt.Fprintf(&date, "%dD", rd.Days)
	}

	var timePart strings.Builder
	us := rd.Microseconds
	neg := us < 0
	if neg {
		us = -us
	}

	hours := us / 3_600_000_000
	us -= hours * 3_600_000_000
	minutes := us / 60_000_000
	us -= minutes * 60_000_000
	seconds := us / 1_000_000
	us -= seconds * 1_000_000

	if hours != 0 || minutes != 0 || seconds != 0 || us != 0 {
		sign := ""
		if neg {
			sign = "-"
		}
		if hours != 0 {
			fmt.Fprintf(&timePart, "%s%dH", sign, hours)
		}
		if minutes != 0 {
			fmt.Fprintf(&timePart, "%s%dM", sign, minutes)
		}
		if seconds != 0 || us != 0 {
			if us != 0 {
				fmt.Fprintf(&timePart, "%s%d.%06dS", sign, seconds, us)
			} else {
				fmt.Fprintf(&timePart, "%s%dS", sign, seconds)
			}
		}
	}

	out := "P" + date.String()
	if timePart.Len() > 0 {
		out += "T" + timePart.String()
	}
	if out == "P" {
		return "PT0S"
	}
	return out
}

var isoDurationRegex = regexp.MustCompile(
	`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?` +
		`(?:T(?:(-?\d+)H)?(?:(-?\d+)M)?(?:(-?\d+)(?:\.(\d+))?S)?)?$`)

// ParseRelativeDuration parses an ISO-8601 duration string down to
// microsecond precision. A fractional-seconds component with more
// than six digits is rejected: the wire format cannot carry it, and
// silently truncating would lose precision the caller asked for.
func ParseRelativeDuration(s string) (RelativeDuration, error) {
	m := isoDurationRegex.FindStringSubmatch(s)
	if m == nil {
		return RelativeDuration{}, fmt.Errorf(
			"malformed gelval.RelativeDuration: %q", s)
	}

	years := parseIntOr0(m[1])
	months := parseIntOr0(m[2])
	days := parseIntOr0(m[3])
	hours := parseIntOr0(m[4])
	minutes := parseIntOr0(m[5])
	seconds := parseIntOr0(m[6])
	frac := m[7]

	if len(frac) > 6 {
		return RelativeDuration{}, fmt.Errorf(
			"malformed gelval.RelativeDuration: %q has sub-microsecond "+
				"precision, which cannot be represented on the wire", s)
	}
	for len(frac) < 6 && frac != "" {
		frac += "0"
	}
	micros := int64(0)
	if frac != "" {
		v, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return RelativeDuration{}, fmt.Errorf(
				"malformed gelval.RelativeDuration: %q", s)
		}
		micros = v
	}

	return RelativeDuration{
		Months: int32(years*monthsPerYear + months),
		Days:   int32(days),
		Microseconds: int64(hours)*3_600_000_000 +
			int64(minutes)*60_000_000 +
			int64(seconds)*1_000_000 +
			micros,
	}, nil
}

func parseIntOr0(s string) int64 {
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
