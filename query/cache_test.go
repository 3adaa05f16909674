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
)

func TestStatementCacheObserveThenGet(t *testing.T) {
	c := newStatementCache()
	fp := fingerprint{Command: "select 1"}

	_, ok := c.getCapabilities(fp)
	assert.False(t, ok)

	c.observe(fp, 0)
	got, ok := c.getCapabilities(fp)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), got)
}

func TestStatementCacheDDLInvalidatesEveryEntry(t *testing.T) {
	c := newStatementCache()
	readOnly := fingerprint{Command: "select 1"}
	mutation := fingerprint{Command: "insert Foo"}

	c.observe(readOnly, 0)
	c.observe(mutation, 0x4)

	c.observe(fingerprint{Command: "alter type Foo"}, capabilitiesDDL)

	_, ok := c.getCapabilities(readOnly)
	assert.False(t, ok)
	_, ok = c.getCapabilities(mutation)
	assert.False(t, ok)
}

func TestStatementCacheDistinguishesFingerprintsByOutputFormat(t *testing.T) {
	c := newStatementCache()
	binary := fingerprint{Command: "select 1", OutputFormat: 'b'}
	json := fingerprint{Command: "select 1", OutputFormat: 'j'}

	c.observe(binary, 0)
	_, ok := c.getCapabilities(json)
	assert.False(t, ok)
}
