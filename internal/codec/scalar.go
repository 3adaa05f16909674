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
	"fmt"
	"math/big"

	"github.com/gel-io/gelwire/gelval"
	"github.com/gel-io/gelwire/internal/buff"
)

// y2kEpochOffsetSeconds is the distance from the Unix epoch to
// 2000-01-01T00:00:00Z, which every datetime-family wire value is
// relative to (spec.md §4.D "Temporal scalars").
const y2kEpochOffsetSeconds = 946_684_800

// y2kEpochOffsetDays is the distance in days from 0001-01-01
// (Go's reference date for day counting) to 2000-01-01.
const y2kEpochOffsetDays = 730_119

type scalarCodec struct {
	id   gelval.UUID
	kind gelval.Kind
}

func (c *scalarCodec) DescriptorID() gelval.UUID { return c.id }

func (c *scalarCodec) Decode(r *buff.Reader) (gelval.Value, error) {
	switch c.id {
	case UUIDID:
		return gelval.NewUUID(gelval.UUID(r.PopUUID())), nil
	case StrID:
		v := gelval.NewStr(string(r.Buf))
		r.DiscardMessage()
		return v, nil
	case BytesID:
		v := gelval.NewBytes(r.Buf)
		r.DiscardMessage()
		return v, nil
	case Int16ID:
		return gelval.NewInt64(int64(int16(r.PopUint16()))), nil
	case Int32ID:
		return gelval.NewInt64(int64(int32(r.PopUint32()))), nil
	case Int64ID:
		return gelval.NewInt64(int64(r.PopUint64())), nil
	case Float32ID:
		return gelval.NewFloat64(float64(r.PopFloat32())), nil
	case Float64ID:
		return gelval.NewFloat64(r.PopFloat64()), nil
	case BoolID:
		return gelval.NewBool(r.PopUint8() != 0), nil
	case JSONID:
		r.Discard(1) // format byte, always 1 (JSON text)
		v := gelval.NewJSON(r.Buf)
		r.DiscardMessage()
		return v, nil
	case DateTimeID:
		return gelval.NewDateTime(int64(r.PopUint64())), nil
	case LocalDateTimeID:
		return gelval.NewLocalDateTime(int64(r.PopUint64())), nil
	case LocalDateID:
		return gelval.NewLocalDate(int32(r.PopUint32())), nil
	case LocalTimeID:
		return gelval.NewLocalTime(int64(r.PopUint64())), nil
	case DurationID:
		us := int64(r.PopUint64())
		days := r.PopUint32()
		months := r.PopUint32()
		if days != 0 || months != 0 {
			return gelval.Value{}, fmt.Errorf(
				"codec: duration must carry zero days and months, got %v/%v",
				days, months)
		}
		return gelval.NewDuration(us), nil
	case RelativeDurationID:
		us := int64(r.PopUint64())
		days := int32(r.PopUint32())
		months := int32(r.PopUint32())
		return gelval.NewRelativeDuration(gelval.RelativeDuration{
			Months: months, Days: days, Microseconds: us,
		}), nil
	case DateDurationID:
		us := r.PopUint64()
		if us != 0 {
			return gelval.Value{}, fmt.Errorf(
				"codec: date_duration must carry zero microseconds, got %v", us)
		}
		days := int32(r.PopUint32())
		months := int32(r.PopUint32())
		return gelval.NewDateDuration(gelval.DateDuration{
			Months: months, Days: days,
		}), nil
	case MemoryID:
		return gelval.NewMemory(gelval.ConfigMemory(int64(r.PopUint64()))), nil
	case DecimalID:
		return gelval.NewDecimal(decodeDecimalDigits(r)), nil
	case BigIntID:
		return gelval.NewBigInt(decodeBigIntDigits(r)), nil
	case VectorID:
		return decodeVector(r)
	case HalfVecID:
		return decodeHalfVec(r)
	case SparseVecID:
		return decodeSparseVec(r)
	default:
		return gelval.Value{}, fmt.Errorf(
			"codec: unrecognized base scalar id %v", c.id)
	}
}

func (c *scalarCodec) Encode(w *buff.Writer, val gelval.Value) error {
	switch c.id {
	case UUIDID:
		w.PushUint32(16)
		w.PushUUID(val.UUID)
	case StrID:
		w.BeginBytes()
		w.PushBytes([]byte(val.Str))
		w.EndBytes()
	case BytesID:
		w.BeginBytes()
		w.PushBytes(val.Bytes)
		w.EndBytes()
	case Int16ID:
		w.PushUint32(2)
		w.PushUint16(uint16(int16(val.Int64)))
	case Int32ID:
		w.PushUint32(4)
		w.PushUint32(uint32(int32(val.Int64)))
	case Int64ID:
		w.PushUint32(8)
		w.PushUint64(uint64(val.Int64))
	case Float32ID:
		w.PushUint32(4)
		w.PushFloat32(float32(val.Float64))
	case Float64ID:
		w.PushUint32(8)
		w.PushFloat64(val.Float64)
	case BoolID:
		w.PushUint32(1)
		if val.Bool {
			w.PushUint8(1)
		} else {
			w.PushUint8(0)
		}
	case JSONID:
		w.BeginBytes()
		w.PushUint8(1)
		w.PushBytes(val.Bytes)
		w.EndBytes()
	case DateTimeID, LocalDateTimeID:
		w.PushUint32(8)
		w.PushUint64(uint64(val.Int64))
	case DurationID:
		w.PushUint32(16)
		w.PushUint64(uint64(val.Int64))
		w.PushUint32(0) // reserved (days)
		w.PushUint32(0) // reserved (months)
	case LocalDateID:
		w.PushUint32(4)
		w.PushUint32(uint32(int32(val.Int64)))
	case LocalTimeID:
		w.PushUint32(8)
		w.PushUint64(uint64(val.Int64))
	case RelativeDurationID:
		w.PushUint32(16)
		w.PushUint64(uint64(val.RelativeDuration.Microseconds))
		w.PushUint32(uint32(val.RelativeDuration.Days))
		w.PushUint32(uint32(val.RelativeDuration.Months))
	case DateDurationID:
		w.PushUint32(16)
		w.PushUint64(0) // reserved
		w.PushUint32(uint32(val.DateDuration.Days))
		w.PushUint32(uint32(val.DateDuration.Months))
	case MemoryID:
		w.PushUint32(8)
		w.PushUint64(uint64(val.Memory))
	case DecimalID:
		encodeDecimalDigits(w, val.Decimal)
	case BigIntID:
		encodeBigIntDigits(w, val.BigInt)
	case VectorID:
		return encodeVector(w, val.Vector)
	case HalfVecID:
		return encodeHalfVec(w, val.Vector)
	case SparseVecID:
		return encodeSparseVec(w, val.SparseVector)
	default:
		return fmt.Errorf("codec: unrecognized base scalar id %v", c.id)
	}
	return nil
}

// base10000Digits splits the absolute value of v into big-endian
// base-10000 digit groups, matching the decimal/bigint wire format
// (spec.md §4.D "Decimal and bigint"). Unlike the teacher's
// bigIntCodec.encodeData, a zero value is special cased to produce
// zero digits rather than relying on the loop never executing: the
// teacher's weight computation (len(digits)/2 - 1) underflows to
// 65535 for an empty digit list, which spec.md's literal test
// scenario for "Bigint zero" requires to instead be weight 0.
func base10000Digits(v *big.Int) (digits []uint16, negative bool) {
	if v.Sign() == 0 {
		return nil, false
	}

	cpy := new(big.Int).Abs(v)
	big10k := big.NewInt(10_000)
	rem := new(big.Int)

	for cpy.Sign() != 0 {
		cpy.DivMod(cpy, big10k, rem)
		digits = append([]uint16{uint16(rem.Int64())}, digits...)
	}

	return digits, v.Sign() < 0
}

func encodeBigIntDigits(w *buff.Writer, v *big.Int) {
	digits, negative := base10000Digits(v)

	var sign uint16
	if negative {
		sign = 0x4000
	}

	w.BeginBytes()
	w.PushUint16(uint16(len(digits)))
	if len(digits) == 0 {
		w.PushUint16(0)
	} else {
		w.PushUint16(uint16(len(digits) - 1))
	}
	w.PushUint16(sign)
	w.PushUint16(0) // reserved
	for _, d := range digits {
		w.PushUint16(d)
	}
	w.EndBytes()
}

func decodeBigIntDigits(r *buff.Reader) *big.Int {
	n := int(r.PopUint16())
	weight := int64(r.PopUint16())
	sign := r.PopUint16()
	r.Discard(2) // reserved

	result := new(big.Int)
	digit := new(big.Int)
	shift := new(big.Int)
	big10k := big.NewInt(10_000)

	for i := 0; i < n; i++ {
		shift.Exp(big10k, big.NewInt(weight), nil)
		digit.SetInt64(int64(r.PopUint16()))
		digit.Mul(digit, shift)
		result.Add(result, digit)
		weight--
	}

	if sign == 0x4000 {
		result.Neg(result)
	}
	return result
}

func encodeDecimalDigits(w *buff.Writer, d *gelval.Decimal) {
	var sign uint16
	if d.Negative {
		sign = 0x4000
	}

	w.BeginBytes()
	w.PushUint16(uint16(len(d.Digits)))
	w.PushUint16(uint16(int32(d.Weight)))
	w.PushUint16(sign)
	w.PushUint16(0) // decimal digits after the point; unused here
	for _, digit := range d.Digits {
		w.PushUint16(digit)
	}
	w.EndBytes()
}

func decodeDecimalDigits(r *buff.Reader) *gelval.Decimal {
	n := int(r.PopUint16())
	weight := int16(r.PopUint16())
	sign := r.PopUint16()
	r.Discard(2) // decimal digits after the point

	digits := make([]uint16, n)
	for i := range digits {
		digits[i] = r.PopUint16()
	}

	return &gelval.Decimal{
		Negative: sign == 0x4000,
		Weight:   int32(weight),
		Digits:   digits,
	}
}
