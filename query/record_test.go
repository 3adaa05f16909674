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

package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gel-io/gelwire/gelval"
)

func TestRecordDescriptorLookupMatchesPosition(t *testing.T) {
	d, err := NewRecordDescriptor(
		[]string{"id", "name", "owner"},
		[]FieldKind{FieldProperty, FieldProperty, FieldLink},
	)
	require.NoError(t, err)

	for pos, name := range []string{"id", "name", "owner"} {
		got := d.Lookup(name)
		require.True(t, got.Found)
		assert.Equal(t, pos, got.Pos)
	}
}

func TestRecordDescriptorIDPos(t *testing.T) {
	withID, err := NewRecordDescriptor([]string{"id", "name"}, nil)
	require.NoError(t, err)
	pos, ok := withID.IDPos()
	assert.True(t, ok)
	assert.Equal(t, 0, pos)

	withoutID, err := NewRecordDescriptor([]string{"name"}, nil)
	require.NoError(t, err)
	_, ok = withoutID.IDPos()
	assert.False(t, ok)
}

func TestRecordDescriptorLookupMissingName(t *testing.T) {
	d, err := NewRecordDescriptor([]string{"name"}, nil)
	require.NoError(t, err)
	assert.False(t, d.Lookup("missing").Found)
}

func TestRecordDescriptorRejectsDuplicateNames(t *testing.T) {
	_, err := NewRecordDescriptor([]string{"name", "name"}, nil)
	assert.Error(t, err)
}

func TestRecordDescriptorRejectsMismatchedKindsLength(t *testing.T) {
	_, err := NewRecordDescriptor([]string{"a", "b"}, []FieldKind{FieldProperty})
	assert.Error(t, err)
}

func TestRecordDescriptorDefaultsKindToProperty(t *testing.T) {
	d, err := NewRecordDescriptor([]string{"a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, FieldProperty, d.Lookup("a").Kind)
}

func TestDescribeRecordClassifiesFieldKinds(t *testing.T) {
	v := gelval.NewObject([]gelval.NamedField{
		{Name: "id", Value: gelval.NewInt64(1)},
		{Name: "title", Value: gelval.NewStr("hello")},
		{Name: "author", Value: gelval.NewObject(nil), IsLink: true},
		{Name: "@since", Value: gelval.NewInt64(2020), IsLinkProp: true},
	})

	d, err := DescribeRecord(v)
	require.NoError(t, err)

	assert.Equal(t, FieldProperty, d.Lookup("id").Kind)
	assert.Equal(t, FieldProperty, d.Lookup("title").Kind)
	assert.Equal(t, FieldLink, d.Lookup("author").Kind)
	assert.Equal(t, FieldLinkProperty, d.Lookup("@since").Kind)

	pos, ok := d.IDPos()
	assert.True(t, ok)
	assert.Equal(t, 0, pos)
}

func TestDescribeRecordRejectsDuplicateFieldNames(t *testing.T) {
	v := gelval.NewObject([]gelval.NamedField{
		{Name: "a", Value: gelval.NewInt64(1)},
		{Name: "a", Value: gelval.NewInt64(2)},
	})
	_, err := DescribeRecord(v)
	assert.Error(t, err)
}
