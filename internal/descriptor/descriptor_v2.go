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

package descriptor

import (
	"fmt"

	"github.com/gel-io/gelwire/internal/buff"
)

// popModern parses the protocol >= 2.0 descriptor stream: every entry
// is length-prefixed (so an unrecognized kind can still be skipped by
// byte count alone) and carries a type name, an ancestor list and a
// schema-defined flag; Object/Compound/SQLRecord additionally exist
// as dedicated kinds the legacy stream folds into Object/Tuple.
func popModern(r *buff.Reader) (Descriptor, error) {
	var descriptors []Descriptor

	for !r.Finished() {
		entryLen := r.PopUint32()
		entry := r.PopSlice(entryLen)

		desc, err := popModernEntry(entry, descriptors)
		if err != nil {
			return Descriptor{}, err
		}
		descriptors = append(descriptors, desc)
	}

	if len(descriptors) == 0 {
		return Descriptor{Kind: Tuple, ID: Zero}, nil
	}
	return descriptors[len(descriptors)-1], nil
}

func popModernEntry(
	r *buff.Reader, descriptors []Descriptor,
) (desc Descriptor, err error) {
	defer buff.Recover(&err)

	typ := Kind(r.PopUint8())
	id := r.PopUUID()

	switch typ {
	case Set:
		return Descriptor{Kind: Set, ID: id, Fields: []*Field{
			{Desc: descriptors[r.PopUint16()]},
		}}, nil

	case Object:
		r.PopUint8()  // schema_defined
		r.PopUint16() // type
		fields, err := modernObjectFields(r, descriptors, false)
		if err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Kind: Object, ID: id, SchemaDefined: true,
			Fields: fields}, nil

	case Scalar:
		name := r.PopString()
		r.PopUint8() // schema_defined
		ancestors := modernScalarFields(r, descriptors, false)
		return Descriptor{Kind: Scalar, ID: id, Name: name,
			SchemaDefined: true, Ancestors: ancestors}, nil

	case Tuple:
		name := r.PopString()
		r.PopUint8() // schema_defined
		ancestors, fields := modernIndexedFields(r, descriptors)
		return Descriptor{Kind: Tuple, ID: id, Name: name,
			SchemaDefined: true, Ancestors: ancestors, Fields: fields}, nil

	case NamedTuple:
		name := r.PopString()
		r.PopUint8() // schema_defined
		ancestors, fields := modernNamedTupleFields(r, descriptors)
		return Descriptor{Kind: NamedTuple, ID: id, Name: name,
			SchemaDefined: true, Ancestors: ancestors, Fields: fields}, nil

	case Array:
		name := r.PopString()
		r.PopUint8() // schema_defined
		ancestors := modernScalarFields(r, descriptors, false)
		fields := []*Field{{Desc: descriptors[r.PopUint16()]}}
		if err := assertArrayDimensions(r); err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Kind: Array, ID: id, Name: name,
			SchemaDefined: true, Ancestors: ancestors, Fields: fields}, nil

	case Enum:
		name := r.PopString()
		r.PopUint8() // schema_defined
		ancestors := modernScalarFields(r, descriptors, false)
		discardEnumMemberNames(r)
		return Descriptor{Kind: Enum, ID: id, Name: name,
			SchemaDefined: true, Ancestors: ancestors}, nil

	case InputShape:
		fields, err := modernObjectFields(r, descriptors, true)
		if err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Kind: InputShape, ID: id, SchemaDefined: true,
			Fields: fields}, nil

	case Range:
		name := r.PopString()
		r.PopUint8() // schema_defined
		ancestors := modernScalarFields(r, descriptors, false)
		fields := []*Field{{Desc: descriptors[r.PopUint16()]}}
		return Descriptor{Kind: Range, ID: id, Name: name,
			SchemaDefined: true, Ancestors: ancestors, Fields: fields}, nil

	case ObjectShape:
		name := r.PopString()
		r.PopUint8() // schema_defined
		return Descriptor{Kind: ObjectShape, ID: id, Name: name,
			SchemaDefined: true}, nil

	case Compound:
		name := r.PopString()
		r.PopUint8() // schema_defined
		op := r.PopUint8()
		var union bool
		switch op {
		case 0x01:
			union = true
		case 0x02:
			union = false
		default:
			return Descriptor{}, fmt.Errorf(
				"unexpected compound operation type: %v", op)
		}
		fields := modernScalarFields(r, descriptors, union)
		return Descriptor{Kind: Compound, ID: id, Name: name,
			SchemaDefined: true, Fields: fields}, nil

	case MultiRange:
		name := r.PopString()
		r.PopUint8() // schema_defined
		ancestors := modernScalarFields(r, descriptors, false)
		fields := []*Field{{
			Desc: Descriptor{Kind: Range, Fields: []*Field{
				{Desc: descriptors[r.PopUint16()]},
			}},
		}}
		return Descriptor{Kind: MultiRange, ID: id, Name: name,
			SchemaDefined: true, Ancestors: ancestors, Fields: fields}, nil

	case SQLRecord:
		return Descriptor{Kind: SQLRecord, ID: id,
			Fields: sqlRecordFields(r, descriptors)}, nil

	default:
		if typ >= 0x80 {
			return Descriptor{}, nil // unknown annotation, already skipped by length
		}
		return Descriptor{}, fmt.Errorf(
			"unknown descriptor type 0x%x", byte(typ))
	}
}

func modernScalarFields(
	r *buff.Reader, descriptors []Descriptor, union bool,
) []*Field {
	n := int(r.PopUint16())
	fields := make([]*Field, n)
	for i := 0; i < n; i++ {
		fields[i] = &Field{Desc: descriptors[r.PopUint16()], Union: union}
	}
	return fields
}

func modernIndexedFields(
	r *buff.Reader, descriptors []Descriptor,
) ([]*Field, []*Field) {
	n := int(r.PopUint16())
	ancestors := make([]*Field, n)
	for i := 0; i < n; i++ {
		ancestors[i] = &Field{Name: fmt.Sprint(i), Desc: descriptors[r.PopUint16()]}
	}

	n = int(r.PopUint16())
	fields := make([]*Field, n)
	for i := 0; i < n; i++ {
		fields[i] = &Field{Name: fmt.Sprint(i), Desc: descriptors[r.PopUint16()]}
	}

	return ancestors, fields
}

func modernNamedTupleFields(
	r *buff.Reader, descriptors []Descriptor,
) ([]*Field, []*Field) {
	n := int(r.PopUint16())
	ancestors := make([]*Field, n)
	for i := 0; i < n; i++ {
		ancestors[i] = &Field{Name: fmt.Sprint(i), Desc: descriptors[r.PopUint16()]}
	}

	n = int(r.PopUint16())
	fields := make([]*Field, n)
	for i := 0; i < n; i++ {
		fields[i] = &Field{Name: r.PopString(), Desc: descriptors[r.PopUint16()]}
	}

	return ancestors, fields
}

func modernObjectFields(
	r *buff.Reader, descriptors []Descriptor, input bool,
) ([]*Field, error) {
	n := int(r.PopUint16())
	fields := make([]*Field, n)

	for i := 0; i < n; i++ {
		var required bool
		flags := r.PopUint32()
		card := r.PopUint8()
		switch card {
		case 0x6f, 0x6d: // 'o' AtMostOne, 'm' Many
			required = false
		case 0x41, 0x4d: // 'A' One, 'M' AtLeastOne
			required = true
		default:
			return nil, fmt.Errorf("unexpected cardinality: 0x%x", card)
		}
		fields[i] = &Field{
			Name:           r.PopString(),
			Desc:           descriptors[r.PopUint16()],
			Required:       required,
			IsImplicit:     flags&shapeFlagImplicit != 0,
			IsLinkProperty: flags&shapeFlagLinkProp != 0,
			IsLink:         flags&shapeFlagLink != 0,
		}
		if !input {
			r.PopUint16() // source_type
		}
	}

	return fields, nil
}

func sqlRecordFields(r *buff.Reader, descriptors []Descriptor) []*Field {
	n := int(r.PopUint16())
	fields := make([]*Field, n)
	for i := 0; i < n; i++ {
		fields[i] = &Field{
			Name:     r.PopString(),
			Desc:     descriptors[r.PopUint16()],
			Required: true,
		}
	}
	return fields
}
