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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMemoryString(t *testing.T) {
	samples := []struct {
		mem ConfigMemory
		str string
	}{
		{0, "0B"},
		{1023, "1023B"},
		{1024, "1KiB"},
		{1024 * 1024, "1MiB"},
		{1024 * 1024 * 1024, "1GiB"},
	}

	for _, s := range samples {
		assert.Equal(t, s.str, s.mem.String())

		parsed, err := ParseConfigMemory(s.str)
		require.NoError(t, err)
		assert.Equal(t, s.mem, parsed)
	}
}

func TestDateDurationString(t *testing.T) {
	samples := []struct {
		dd  DateDuration
		str string
	}{
		{DateDuration{}, "P0D"},
		{DateDuration{Months: 14, Days: 3}, "P1Y2M3D"},
		{DateDuration{Days: 30}, "P30D"},
	}

	for _, s := range samples {
		assert.Equal(t, s.str, s.dd.String())
	}
}

func TestRelativeDurationRoundTrip(t *testing.T) {
	samples := []string{"PT0S", "P1Y2M3DT4H5M6S", "PT1.500000S", "PT-30S"}
	for _, s := range samples {
		t.Run(s, func(t *testing.T) {
			rd, err := ParseRelativeDuration(s)
			require.NoError(t, err)
			assert.Equal(t, s, rd.String())
		})
	}
}

func TestRelativeDurationRejectsSubMicrosecondPrecision(t *testing.T) {
	_, err := ParseRelativeDuration("PT1.1234567S")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sub-microsecond")
}

func TestRangeEmptyHasNoBounds(t *testing.T) {
	r := NewRange(nil, nil, false, false, true)
	assert.True(t, r.RangeEmpty)
	assert.Nil(t, r.RangeLower)
	assert.Nil(t, r.RangeUpper)
}

func TestRangeNonEmptyCarriesBounds(t *testing.T) {
	lo := NewInt64(1)
	hi := NewInt64(10)
	r := NewRange(&lo, &hi, true, false, false)

	require.NotNil(t, r.RangeLower)
	require.NotNil(t, r.RangeUpper)
	assert.Equal(t, int64(1), r.RangeLower.Int64)
	assert.Equal(t, int64(10), r.RangeUpper.Int64)
	assert.True(t, r.RangeIncLower)
	assert.False(t, r.RangeIncUpper)
}

func TestObjectFieldLookup(t *testing.T) {
	obj := NewObject([]NamedField{
		{Name: "id", Value: NewUUID(UUID{1})},
		{Name: "name", Value: NewStr("alice")},
	})

	v, ok := obj.Field("name")
	require.True(t, ok)
	assert.Equal(t, "alice", v.Str)

	_, ok = obj.Field("missing")
	assert.False(t, ok)
}

func TestDecimalString(t *testing.T) {
	samples := []struct {
		d   Decimal
		str string
	}{
		{Decimal{Weight: 0, Digits: []uint16{0}}, "0"},
		{Decimal{Weight: 0, Digits: []uint16{123}}, "123"},
		{Decimal{Weight: 1, Digits: []uint16{1, 234}}, "10234"},
		{Decimal{Negative: true, Weight: -1, Digits: []uint16{5000}}, "-0.5"},
	}

	for _, s := range samples {
		assert.Equal(t, s.str, s.d.String())
	}
}
