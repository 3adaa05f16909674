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

package gelerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionConflictIsRetryable(t *testing.T) {
	err := NewTransactionSerializationError("could not serialize access")

	require.NotNil(t, err)
	assert.True(t, err.HasTag(ShouldRetry))
	assert.False(t, err.HasTag(ShouldReconnect))
	assert.True(t, err.Category(TransactionSerializationError))
}

func TestClientConnectionFailedTemporarilyWrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewClientConnectionFailedTemporarily(cause)

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, err.HasTag(ShouldRetry))
	assert.True(t, err.HasTag(ShouldReconnect))
	assert.Equal(
		t,
		"ClientConnectionFailedTemporarilyError: dial tcp: connection refused",
		err.Error(),
	)
}

func TestUnexpectedEndOfFrameUnwraps(t *testing.T) {
	cause := errors.New("need 4 bytes, have 1")
	err := NewUnexpectedEndOfFrame(cause)

	require.NotNil(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, err.Category(ProtocolError))
}

func TestRemapLegacyCode(t *testing.T) {
	assert.Equal(t, uint32(0x05_03_01_01), RemapLegacyCode(0x05_03_00_01))
	assert.Equal(t, uint32(0x05_03_01_02), RemapLegacyCode(0x05_03_00_02))
	assert.Equal(t, uint32(0x03_01_00_01), RemapLegacyCode(0x03_01_00_01))
}

func TestFromCode(t *testing.T) {
	samples := []struct {
		code uint32
		cat  ErrorCategory
		tag  ErrorTag
	}{
		{0x05_03_00_01, TransactionSerializationError, ShouldRetry},
		{0x05_03_00_02, TransactionDeadlockError, ShouldRetry},
		{0x03_01_00_01, UnsupportedProtocolVersion, ""},
		{0x04_00_00_00, ResultCardinalityMismatchError, ""},
	}

	for _, s := range samples {
		err := FromCode(s.code, "boom")
		require.NotNil(t, err)
		assert.True(t, err.Category(s.cat))
		if s.tag != "" {
			assert.True(t, err.HasTag(s.tag))
		}
	}
}

func TestUnknownCodeBecomesGenericProtocolError(t *testing.T) {
	err := FromCode(0xff_ff_ff_ff, "mystery error")
	require.NotNil(t, err)
	assert.True(t, err.Category(ProtocolError))
	assert.Equal(t, "ProtocolError: mystery error", err.Error())
}
