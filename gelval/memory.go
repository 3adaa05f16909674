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
	"strconv"
	"strings"
)

const (
	petabyte = 1_024 * 1_024 * 1_024 * 1_024 * 1_024
	terabyte = 1_024 * 1_024 * 1_024 * 1_024
	gigabyte = 1_024 * 1_024 * 1_024
	megabyte = 1_024 * 1_024
	kilobyte = 1_024
)

// ConfigMemory is a byte count, the wire value behind `cfg::memory`.
type ConfigMemory int64

func (m ConfigMemory) String() string {
	switch {
	case m == 0:
		return "0B"
	case m%petabyte == 0:
		return fmt.Sprintf("%vPiB", int64(m)/petabyte)
	case m%terabyte == 0:
		return fmt.Sprintf("%vTiB", int64(m)/terabyte)
	case m%gigabyte == 0:
		return fmt.Sprintf("%vGiB", int64(m)/gigabyte)
	case m%megabyte == 0:
		return fmt.Sprintf("%vMiB", int64(m)/megabyte)
	case m%kilobyte == 0:
		return fmt.Sprintf("%vKiB", int64(m)/kilobyte)
	default:
		return fmt.Sprintf("%vB", int64(m))
	}
}

// ParseConfigMemory parses a string produced by ConfigMemory.String.
func ParseConfigMemory(s string) (ConfigMemory, error) {
	suffixLen := 3
	var multiplier int64 = 1

	switch {
	case strings.HasSuffix(s, "PiB"):
		multiplier = petabyte
	case strings.HasSuffix(s, "TiB"):
		multiplier = terabyte
	case strings.HasSuffix(s, "GiB"):
		multiplier = gigabyte
	case strings.HasSuffix(s, "MiB"):
		multiplier = megabyte
	case strings.HasSuffix(s, "KiB"):
		multiplier = kilobyte
	case strings.HasSuffix(s, "B"):
		suffixLen = 1
	default:
		return 0, fmt.Errorf("malformed gelval.ConfigMemory: %q", s)
	}

	i, err := strconv.ParseInt(s[:len(s)-suffixLen], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed gelval.ConfigMemory: %w", err)
	}

	return ConfigMemory(i * multiplier), nil
}
