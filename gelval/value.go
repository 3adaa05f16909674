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

// Package gelval holds the decoded value containers codecs in
// internal/codec produce and consume (spec.md §3 "Value model", §4.B
// "Value containers"). Rather than decode onto caller-supplied Go
// structs through reflection, every wire value becomes a Value: a
// single tagged-sum type a caller switches on by Kind. This is the
// one place this module's design departs from reflect-driven
// unmarshaling (spec.md §9).
package gelval

import "math/big"

// Kind tags which field(s) of a Value are meaningful.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64 // carries int16, int32 and int64 alike, widened
	KindFloat64
	KindBytes
	KindStr
	KindUUID
	KindJSON
	KindBigInt
	KindDecimal
	KindMemory
	KindDateDuration
	KindRelativeDuration
	// KindDateTime, KindLocalDateTime and KindDuration store their
	// wire integer (microseconds, signed) in Int64. KindLocalDate
	// stores its wire integer (days since 2000-01-01) in Int64 too.
	KindDateTime
	KindLocalDateTime
	KindLocalDate
	KindLocalTime
	KindDuration
	KindEnum
	KindArray
	KindSet
	KindTuple
	KindNamedTuple
	KindObject
	KindSparseObject
	KindRange
	KindMultiRange
	KindVector
)

// NamedField is one element of an Object, NamedTuple or SparseObject:
// a field name paired with its value. Object fields additionally
// carry IsLink / IsLinkProp so callers can tell a backlink property
// from a plain scalar (spec.md §4.B "Object").
type NamedField struct {
	Name       string
	Value      Value
	IsLink     bool
	IsLinkProp bool
}

// Value is a decoded wire value. Exactly the fields implied by Kind
// are meaningful; the rest are zero. Use the constructors below
// rather than building a Value by hand.
type Value struct {
	Kind Kind

	Bool    bool
	Int64   int64
	Float64 float64
	Bytes   []byte
	Str     string
	UUID    UUID
	BigInt  *big.Int
	Decimal *Decimal
	Memory  ConfigMemory

	DateDuration     DateDuration
	RelativeDuration RelativeDuration

	// Enum carries its label text in Str.

	// Elements backs Array, Set, Tuple and MultiRange.
	Elements []Value

	// Fields backs NamedTuple, Object and SparseObject.
	Fields []NamedField

	// Range fields; see NewRange.
	RangeLower    *Value
	RangeUpper    *Value
	RangeIncLower bool
	RangeIncUpper bool
	RangeEmpty    bool

	// Vector and SparseVector back the pgvector scalar family: Vector
	// is used by `vector`, and by `halfvec` with each element narrowed
	// to float16 on the wire (see internal/codec's half-float
	// conversion), and SparseVector by `sparsevec`.
	Vector       []float32
	SparseVector SparseVector
}

// SparseVector is the decoded form of a `sparsevec` value: a
// dimension count plus the nonzero (index, value) pairs, stored in
// ascending index order as the wire format requires.
type SparseVector struct {
	Dimensions int
	Indices    []uint32
	Values     []float32
}

func Null() Value { return Value{Kind: KindNull} }

func NewBool(v bool) Value { return Value{Kind: KindBool, Bool: v} }

func NewInt64(v int64) Value { return Value{Kind: KindInt64, Int64: v} }

func NewFloat64(v float64) Value { return Value{Kind: KindFloat64, Float64: v} }

func NewBytes(v []byte) Value { return Value{Kind: KindBytes, Bytes: v} }

func NewStr(v string) Value { return Value{Kind: KindStr, Str: v} }

func NewUUID(v UUID) Value { return Value{Kind: KindUUID, UUID: v} }

func NewJSON(v []byte) Value { return Value{Kind: KindJSON, Bytes: v} }

func NewBigInt(v *big.Int) Value { return Value{Kind: KindBigInt, BigInt: v} }

func NewDecimal(v *Decimal) Value { return Value{Kind: KindDecimal, Decimal: v} }

func NewMemory(v ConfigMemory) Value { return Value{Kind: KindMemory, Memory: v} }

// NewDateTime wraps a `std::datetime` wire value: microseconds,
// signed, relative to 2000-01-01T00:00:00Z.
func NewDateTime(microsSinceY2K int64) Value {
	return Value{Kind: KindDateTime, Int64: microsSinceY2K}
}

// NewLocalDateTime wraps a `cal::local_datetime` wire value:
// microseconds relative to 2000-01-01T00:00:00, with no timezone.
func NewLocalDateTime(micros int64) Value {
	return Value{Kind: KindLocalDateTime, Int64: micros}
}

// NewLocalDate wraps a `cal::local_date` wire value: whole days
// relative to 2000-01-01.
func NewLocalDate(daysSinceY2K int32) Value {
	return Value{Kind: KindLocalDate, Int64: int64(daysSinceY2K)}
}

// NewLocalTime wraps a `cal::local_time` wire value: microseconds
// since midnight.
func NewLocalTime(microsSinceMidnight int64) Value {
	return Value{Kind: KindLocalTime, Int64: microsSinceMidnight}
}

// NewDuration wraps a `std::duration` wire value: microseconds,
// signed, with no calendar component.
func NewDuration(micros int64) Value {
	return Value{Kind: KindDuration, Int64: micros}
}

func NewDateDuration(v DateDuration) Value {
	return Value{Kind: KindDateDuration, DateDuration: v}
}

func NewRelativeDuration(v RelativeDuration) Value {
	return Value{Kind: KindRelativeDuration, RelativeDuration: v}
}

func NewEnum(label string) Value { return Value{Kind: KindEnum, Str: label} }

func NewArray(elems []Value) Value { return Value{Kind: KindArray, Elements: elems} }

func NewSet(elems []Value) Value { return Value{Kind: KindSet, Elements: elems} }

func NewTuple(elems []Value) Value { return Value{Kind: KindTuple, Elements: elems} }

func NewNamedTuple(fields []NamedField) Value {
	return Value{Kind: KindNamedTuple, Fields: fields}
}

// NewObject builds an Object value. Fields are accessed by name with
// dotted syntax (obj.Field) and by index with bracket syntax
// (obj.Fields[i]); both index into the same Fields slice, in the
// order the shape descriptor declared them (spec.md §4.B).
func NewObject(fields []NamedField) Value { return Value{Kind: KindObject, Fields: fields} }

// NewSparseObject builds a SparseObject value: like Object, but only
// the fields the server actually sent are present in Fields (an
// input-shape cardinality of zero for a field means "omitted", not
// "null").
func NewSparseObject(fields []NamedField) Value {
	return Value{Kind: KindSparseObject, Fields: fields}
}

func NewVector(v []float32) Value { return Value{Kind: KindVector, Vector: v} }

func NewSparseVector(v SparseVector) Value { return Value{Kind: KindVector, SparseVector: v} }

// NewRange builds a Range value. An empty range (lower == upper with
// both bounds exclusive, or either collapsed against the other) must
// be built with empty=true and nil bounds; Range's sole invariant is
// that Empty implies both bounds are absent (spec.md §4.B "Range").
func NewRange(lower, upper *Value, incLower, incUpper, empty bool) Value {
	if empty {
		return Value{Kind: KindRange, RangeEmpty: true}
	}
	return Value{
		Kind:          KindRange,
		RangeLower:    lower,
		RangeUpper:    upper,
		RangeIncLower: incLower,
		RangeIncUpper: incUpper,
	}
}

// NewMultiRange builds a MultiRange value from its component Range
// values (each built with NewRange).
func NewMultiRange(ranges []Value) Value {
	return Value{Kind: KindMultiRange, Elements: ranges}
}

// Field looks up a NamedTuple/Object/SparseObject field by name,
// implementing Value's dotted-access rule. The second return is
// false if no field with that name is present.
func (v Value) Field(name string) (Value, bool) {
	for _, f := range v.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}
