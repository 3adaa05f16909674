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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gel-io/gelwire/gelval"
	"github.com/gel-io/gelwire/internal/buff"
)

func encodeBody(t *testing.T, c Codec, val gelval.Value) []byte {
	t.Helper()
	w := buff.NewWriter(nil)
	w.BeginMessage(0)
	require.NoError(t, c.Encode(w, val))
	w.EndMessage()
	buf := w.Unwrap()
	require.GreaterOrEqual(t, len(buf), 9)
	return buf[9:] // 1 tag + 4 message length + 4 BeginBytes length
}

func TestBigIntZeroEncodesToEmptyDigitList(t *testing.T) {
	c := &scalarCodec{id: BigIntID, kind: gelval.KindBigInt}
	body := encodeBody(t, c, gelval.NewBigInt(big.NewInt(0)))

	assert.Equal(t, []byte{
		0x00, 0x00, // ndigits = 0
		0x00, 0x00, // weight = 0
		0x00, 0x00, // sign = positive
		0x00, 0x00, // reserved
	}, body)
}

func TestBigIntZeroRoundTrips(t *testing.T) {
	c := &scalarCodec{id: BigIntID, kind: gelval.KindBigInt}
	w := buff.NewWriter(nil)
	w.BeginMessage(0)
	require.NoError(t, c.Encode(w, gelval.NewBigInt(big.NewInt(0))))
	w.EndMessage()

	buf := w.Unwrap()
	r := buff.SimpleReader(buf[5:])
	elemLen := r.PopUint32()
	sub := r.PopSlice(elemLen)

	got, err := c.Decode(sub)
	require.NoError(t, err)
	assert.Equal(t, 0, got.BigInt.Sign())
}

func TestDurationEncodesSixteenBytePayload(t *testing.T) {
	c := &scalarCodec{id: DurationID, kind: gelval.KindDuration}
	body := encodeBody(t, c, gelval.NewDuration(12345))

	assert.Equal(t, []byte{
		0, 0, 0, 0, 0, 0, 0x30, 0x39, // microseconds = 12345
		0, 0, 0, 0, // reserved (days)
		0, 0, 0, 0, // reserved (months)
	}, body)
}

func TestDurationRoundTrips(t *testing.T) {
	c := &scalarCodec{id: DurationID, kind: gelval.KindDuration}

	w := buff.NewWriter(nil)
	w.BeginMessage(0)
	require.NoError(t, c.Encode(w, gelval.NewDuration(98765)))
	w.EndMessage()

	buf := w.Unwrap()
	r := buff.SimpleReader(buf[5:])
	elemLen := r.PopUint32()
	sub := r.PopSlice(elemLen)

	got, err := c.Decode(sub)
	require.NoError(t, err)
	assert.Equal(t, int64(98765), got.Int64)
	assert.True(t, sub.Finished())
}

func TestDurationDecodeRejectsNonzeroDays(t *testing.T) {
	c := &scalarCodec{id: DurationID, kind: gelval.KindDuration}

	w := buff.NewWriter(nil)
	w.PushUint64(1)
	w.PushUint32(1) // days
	w.PushUint32(0)

	r := buff.SimpleReader(w.Unwrap())
	_, err := c.Decode(r)
	assert.Error(t, err)
}

func TestDateDurationDecodeRejectsNonzeroMicroseconds(t *testing.T) {
	c := &scalarCodec{id: DateDurationID, kind: gelval.KindDateDuration}

	w := buff.NewWriter(nil)
	w.PushUint64(1) // microseconds, must be zero
	w.PushUint32(2) // days
	w.PushUint32(0) // months

	r := buff.SimpleReader(w.Unwrap())
	_, err := c.Decode(r)
	assert.Error(t, err)
}

func TestDateDurationRoundTrips(t *testing.T) {
	c := &scalarCodec{id: DateDurationID, kind: gelval.KindDateDuration}
	val := gelval.NewDateDuration(gelval.DateDuration{Days: 3, Months: 1})

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
	assert.Equal(t, int32(3), got.DateDuration.Days)
	assert.Equal(t, int32(1), got.DateDuration.Months)
}

func TestBigIntNegativeRoundTrips(t *testing.T) {
	c := &scalarCodec{id: BigIntID, kind: gelval.KindBigInt}
	want := big.NewInt(-123_456_789_012)

	w := buff.NewWriter(nil)
	w.BeginMessage(0)
	require.NoError(t, c.Encode(w, gelval.NewBigInt(want)))
	w.EndMessage()

	buf := w.Unwrap()
	r := buff.SimpleReader(buf[5:])
	elemLen := r.PopUint32()
	sub := r.PopSlice(elemLen)

	got, err := c.Decode(sub)
	require.NoError(t, err)
	assert.Equal(t, 0, want.Cmp(got.BigInt))
}
