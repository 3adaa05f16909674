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

package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gel-io/gelwire/gelval"
	"github.com/gel-io/gelwire/internal/buff"
)

func TestRangeInt32LiteralBytes(t *testing.T) {
	inner := &scalarCodec{id: Int32ID, kind: gelval.KindInt64}
	c := &rangeCodec{id: gelval.UUID{}, inner: inner}

	lower := gelval.NewInt64(1)
	upper := gelval.NewInt64(10)
	val := gelval.NewRange(&lower, &upper, true, false, false)

	body := encodeBody(t, c, val)

	assert.Equal(t, []byte{
		0x02, // flags: inc_lower only
		0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x01, // lower = 1
		0x00, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x0a, // upper = 10
	}, body)
}

func TestRangeInt32RoundTrips(t *testing.T) {
	inner := &scalarCodec{id: Int32ID, kind: gelval.KindInt64}
	c := &rangeCodec{id: gelval.UUID{}, inner: inner}

	lower := gelval.NewInt64(1)
	upper := gelval.NewInt64(10)
	val := gelval.NewRange(&lower, &upper, true, false, false)

	w := buff.NewWriter(nil)
	w.BeginMessage(0)
	require.NoError(t, c.Encode(w, val))
	w.EndMessage()

	buf := w.Unwrap()
	r := buff.SimpleReader(buf[5:])
	elemLen := r.PopUint32()
	sub := r.PopSlice(elemLen)

	got, err := c.Decode(sub)
	require.NoError(t, err)
	assert.True(t, got.RangeIncLower)
	assert.False(t, got.RangeIncUpper)
	require.NotNil(t, got.RangeLower)
	require.NotNil(t, got.RangeUpper)
	assert.Equal(t, int64(1), got.RangeLower.Int64)
	assert.Equal(t, int64(10), got.RangeUpper.Int64)
}

func TestArrayInt64LiteralBytes(t *testing.T) {
	elem := &scalarCodec{id: Int64ID, kind: gelval.KindInt64}
	c := &arrayCodec{id: gelval.UUID{}, elem: elem}

	val := gelval.NewArray([]gelval.Value{
		gelval.NewInt64(1), gelval.NewInt64(2), gelval.NewInt64(3),
	})
	body := encodeBody(t, c, val)

	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x01, // ndims = 1
		0x00, 0x00, 0x00, 0x00, // reserved
		0x00, 0x00, 0x00, 0x00, // reserved
		0x00, 0x00, 0x00, 0x03, // dim_len (upper) = 3
		0x00, 0x00, 0x00, 0x01, // lower bound = 1
		0x00, 0x00, 0x00, 0x08, 0, 0, 0, 0, 0, 0, 0, 1, // elem 0 = 1
		0x00, 0x00, 0x00, 0x08, 0, 0, 0, 0, 0, 0, 0, 2, // elem 1 = 2
		0x00, 0x00, 0x00, 0x08, 0, 0, 0, 0, 0, 0, 0, 3, // elem 2 = 3
	}, body)
}

func TestArrayInt64RoundTrips(t *testing.T) {
	elem := &scalarCodec{id: Int64ID, kind: gelval.KindInt64}
	c := &arrayCodec{id: gelval.UUID{}, elem: elem}

	val := gelval.NewArray([]gelval.Value{
		gelval.NewInt64(1), gelval.NewInt64(2), gelval.NewInt64(3),
	})

	w := buff.NewWriter(nil)
	w.BeginMessage(0)
	require.NoError(t, c.Encode(w, val))
	w.EndMessage()

	buf := w.Unwrap()
	r := buff.SimpleReader(buf[5:])
	elemLen := r.PopUint32()
	sub := r.PopSlice(elemLen)

	got, err := c.Decode(sub)
	require.NoError(t, err)
	require.Len(t, got.Elements, 3)
	assert.Equal(t, int64(1), got.Elements[0].Int64)
	assert.Equal(t, int64(2), got.Elements[1].Int64)
	assert.Equal(t, int64(3), got.Elements[2].Int64)
}

func TestArrayZeroDimsDecodesToEmpty(t *testing.T) {
	elem := &scalarCodec{id: Int64ID, kind: gelval.KindInt64}
	c := &arrayCodec{id: gelval.UUID{}, elem: elem}

	w := buff.NewWriter(nil)
	w.PushUint32(0) // ndims
	w.PushUint32(0) // reserved
	w.PushUint32(0) // reserved

	r := buff.SimpleReader(w.Unwrap())
	got, err := c.Decode(r)
	require.NoError(t, err)
	assert.Empty(t, got.Elements)
}

func TestNullCodecDecodesToNullRegardlessOfBytes(t *testing.T) {
	c := &nullCodec{id: gelval.UUID{}}
	r := buff.SimpleReader([]byte{1, 2, 3})
	got, err := c.Decode(r)
	require.NoError(t, err)
	assert.Equal(t, gelval.KindNull, got.Kind)
}

func TestNullCodecEncodesZeroLengthPayload(t *testing.T) {
	c := &nullCodec{id: gelval.UUID{}}
	body := encodeBody(t, c, gelval.Value{})
	assert.Empty(t, body)
}

func TestSetCodecWrapsAsSetKind(t *testing.T) {
	elem := &scalarCodec{id: Int64ID, kind: gelval.KindInt64}
	c := &arrayCodec{id: gelval.UUID{}, elem: elem, set: true}

	val := gelval.NewSet([]gelval.Value{gelval.NewInt64(7)})
	w := buff.NewWriter(nil)
	w.BeginMessage(0)
	require.NoError(t, c.Encode(w, val))
	w.EndMessage()

	buf := w.Unwrap()
	r := buff.SimpleReader(buf[5:])
	elemLen := r.PopUint32()
	sub := r.PopSlice(elemLen)

	got, err := c.Decode(sub)
	require.NoError(t, err)
	assert.Equal(t, gelval.KindSet, got.Kind)
	require.Len(t, got.Elements, 1)
	assert.Equal(t, int64(7), got.Elements[0].Int64)
}
