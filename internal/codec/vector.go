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

// pgvector scalar codecs: `vector` (float32 elements), `halfvec`
// (float16 elements) and `sparsevec` (float32 elements, nonzero only,
// ascending index order). The teacher has no equivalent of any of
// these; the wire layout here follows spec.md §4.D's literal byte
// contract rather than any file in the example pack.
package codec

import (
	"fmt"
	"math"

	"github.com/gel-io/gelwire/gelval"
	"github.com/gel-io/gelwire/internal/buff"
)

func decodeVector(r *buff.Reader) (gelval.Value, error) {
	dims := int(r.PopUint16())
	r.Discard(2) // reserved
	elems := make([]float32, dims)
	for i := range elems {
		elems[i] = r.PopFloat32()
	}
	return gelval.NewVector(elems), nil
}

func encodeVector(w *buff.Writer, v []float32) error {
	if len(v) > math.MaxUint16 {
		return fmt.Errorf("vector: %v dimensions exceeds %v", len(v), math.MaxUint16)
	}
	w.BeginBytes()
	w.PushUint16(uint16(len(v)))
	w.PushUint16(0) // reserved
	for _, f := range v {
		w.PushFloat32(f)
	}
	w.EndBytes()
	return nil
}

func decodeHalfVec(r *buff.Reader) (gelval.Value, error) {
	dims := int(r.PopUint16())
	r.Discard(2) // reserved
	elems := make([]float32, dims)
	for i := range elems {
		elems[i] = halfToFloat32(r.PopUint16())
	}
	return gelval.NewVector(elems), nil
}

func encodeHalfVec(w *buff.Writer, v []float32) error {
	if len(v) > math.MaxUint16 {
		return fmt.Errorf("halfvec: %v dimensions exceeds %v", len(v), math.MaxUint16)
	}
	w.BeginBytes()
	w.PushUint16(uint16(len(v)))
	w.PushUint16(0) // reserved
	for _, f := range v {
		w.PushUint16(float32ToHalf(f))
	}
	w.EndBytes()
	return nil
}

func decodeSparseVec(r *buff.Reader) (gelval.Value, error) {
	dims := int(r.PopUint32())
	nnz := int(r.PopUint32())
	r.Discard(4) // reserved

	indices := make([]uint32, nnz)
	for i := range indices {
		indices[i] = r.PopUint32()
	}

	values := make([]float32, nnz)
	for i := range values {
		values[i] = r.PopFloat32()
	}

	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			return gelval.Value{}, fmt.Errorf(
				"sparsevec: indices must be strictly ascending, got %v "+
					"after %v", indices[i], indices[i-1])
		}
	}

	return gelval.NewSparseVector(gelval.SparseVector{
		Dimensions: dims, Indices: indices, Values: values,
	}), nil
}

func encodeSparseVec(w *buff.Writer, v gelval.SparseVector) error {
	if len(v.Indices) != len(v.Values) {
		return fmt.Errorf(
			"sparsevec: %v indices but %v values", len(v.Indices), len(v.Values))
	}

	w.BeginBytes()
	w.PushUint32(uint32(v.Dimensions))
	w.PushUint32(uint32(len(v.Indices)))
	w.PushUint32(0) // reserved
	for _, idx := range v.Indices {
		w.PushUint32(idx)
	}
	for _, val := range v.Values {
		w.PushFloat32(val)
	}
	w.EndBytes()
	return nil
}

// halfToFloat32 and float32ToHalf implement IEEE 754 binary16 <->
// binary32 conversion. The bit manipulation computes what Jeroen van
// der Zijp's half-float conversion tables encode (float32ToHalf
// truncates the mantissa rather than rounding it, and turns values
// too large for binary16 into infinity), without the lookup tables:
// at this call volume the branch-based version is simple to verify
// and fast enough, and avoids shipping two 64KiB tables for a single
// scalar family.
func halfToFloat32(h uint16) float32 {
	sign := uint32(h&0x8000) << 16
	exp := uint32(h&0x7c00) >> 10
	mant := uint32(h & 0x03ff)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// subnormal: normalize
		e := -1
		for mant&0x0400 == 0 {
			mant <<= 1
			e++
		}
		mant &= 0x03ff
		exp32 := uint32(127 - 15 - e)
		return math.Float32frombits(sign | exp32<<23 | mant<<13)
	case 0x1f:
		return math.Float32frombits(sign | 0xff<<23 | mant<<13)
	default:
		exp32 := exp - 15 + 127
		return math.Float32frombits(sign | exp32<<23 | mant<<13)
	}
}

func float32ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint(14 - exp)
		return sign | uint16(mant>>shift)
	case exp >= 0x1f:
		if (bits>>23)&0xff == 0xff && mant != 0 {
			return sign | 0x7e00 // NaN stays NaN
		}
		return sign | 0x7c00
	default:
		return sign | uint16(exp)<<10 | uint16(mant>>13)
	}
}
