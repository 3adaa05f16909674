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

func TestLogWarningsNeverFails(t *testing.T) {
	assert.NoError(t, LogWarnings([]string{"a", "b"}))
	assert.NoError(t, LogWarnings(nil))
}

func TestWarningsAsErrorsOnEmptyIsNil(t *testing.T) {
	assert.NoError(t, WarningsAsErrors(nil))
}

func TestWarningsAsErrorsJoinsMessages(t *testing.T) {
	err := WarningsAsErrors([]string{"deprecated syntax", "implicit cast"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "deprecated syntax")
	assert.Contains(t, err.Error(), "implicit cast")
}
