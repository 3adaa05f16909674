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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gel-io/gelwire/internal/buff"
)

func TestLegacyObjectFieldsDecodesLinkFlags(t *testing.T) {
	w := buff.NewWriter(nil)
	w.PushUint16(2) // field count

	w.PushUint8(uint8(shapeFlagLink)) // field 0: a link
	w.PushString("author")
	w.PushUint16(0)

	w.PushUint8(uint8(shapeFlagLinkProp)) // field 1: a link property
	w.PushString("@since")
	w.PushUint16(0)

	r := buff.SimpleReader(w.Unwrap())
	fields, err := legacyObjectFields(r, []Descriptor{{Kind: BaseScalar}})
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "author", fields[0].Name)
	assert.True(t, fields[0].IsLink)
	assert.False(t, fields[0].IsLinkProperty)

	assert.Equal(t, "@since", fields[1].Name)
	assert.True(t, fields[1].IsLinkProperty)
	assert.False(t, fields[1].IsLink)
}

func TestLegacyObjectFieldsPlainProperty(t *testing.T) {
	w := buff.NewWriter(nil)
	w.PushUint16(1)
	w.PushUint8(0)
	w.PushString("name")
	w.PushUint16(0)

	r := buff.SimpleReader(w.Unwrap())
	fields, err := legacyObjectFields(r, []Descriptor{{Kind: BaseScalar}})
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.False(t, fields[0].IsLink)
	assert.False(t, fields[0].IsLinkProperty)
	assert.False(t, fields[0].IsImplicit)
}

func TestModernObjectFieldsDecodesLinkFlags(t *testing.T) {
	w := buff.NewWriter(nil)
	w.PushUint16(1) // field count

	w.PushUint32(shapeFlagLink | shapeFlagImplicit)
	w.PushUint8('A') // One
	w.PushString("author")
	w.PushUint16(0)
	w.PushUint16(0) // source_type, since input=false

	r := buff.SimpleReader(w.Unwrap())
	fields, err := modernObjectFields(r, []Descriptor{{Kind: BaseScalar}}, false)
	require.NoError(t, err)
	require.Len(t, fields, 1)

	assert.Equal(t, "author", fields[0].Name)
	assert.True(t, fields[0].Required)
	assert.True(t, fields[0].IsLink)
	assert.True(t, fields[0].IsImplicit)
	assert.False(t, fields[0].IsLinkProperty)
}

func TestModernObjectFieldsInputShapeSkipsSourceType(t *testing.T) {
	w := buff.NewWriter(nil)
	w.PushUint16(1)
	w.PushUint32(0)
	w.PushUint8('o') // AtMostOne
	w.PushString("name")
	w.PushUint16(0)

	r := buff.SimpleReader(w.Unwrap())
	fields, err := modernObjectFields(r, []Descriptor{{Kind: BaseScalar}}, true)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.False(t, fields[0].Required)
	assert.True(t, r.Finished())
}
