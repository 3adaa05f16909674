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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gel-io/gelwire/gelerr"
	"github.com/gel-io/gelwire/gelval"
	"github.com/gel-io/gelwire/internal/message"
	"github.com/gel-io/gelwire/protocol"
)

func TestReadOnlyRetryAllowedForUnobservedQuery(t *testing.T) {
	err := gelerr.NewTransactionConflictError("conflict")
	assert.True(t, readOnlyRetryAllowed(err, 0, false))
}

func TestReadOnlyRetryAllowedForKnownReadOnlyQuery(t *testing.T) {
	err := gelerr.NewClientConnectionFailedTemporarily(errTest("reset"))
	assert.True(t, readOnlyRetryAllowed(err, 0, true))
}

func TestReadOnlyRetryDeniedForMutationOnNetworkError(t *testing.T) {
	err := gelerr.NewClientConnectionFailedTemporarily(errTest("reset"))
	assert.False(t, readOnlyRetryAllowed(err, 0x4, true))
}

func TestReadOnlyRetryAllowedForMutationOnConflict(t *testing.T) {
	err := gelerr.NewTransactionConflictError("conflict")
	assert.True(t, readOnlyRetryAllowed(err, 0x4, true))
}

func TestReadOnlyRetryDeniedForNonRetryableError(t *testing.T) {
	err := gelerr.NewInterfaceError("bad call")
	assert.False(t, readOnlyRetryAllowed(err, 0, false))
}

func TestExecutionContextRejectsRequiredSingleWithNoResult(t *testing.T) {
	x := &ExecutionContext{
		cache: newStatementCache(), retry: NewRetryOptions(),
		ExpectOne: true, RequiredOne: true,
	}
	_, err := x.Execute(context.Background(), protocol.Query{
		Command: "insert Foo", ExpectedCardinality: message.NoResult,
	})
	gelErr, ok := err.(gelerr.Error)
	assert.True(t, ok)
	assert.True(t, gelErr.Category(gelerr.InterfaceError))
}

func TestExecutionContextSingleOnEmptyResult(t *testing.T) {
	x := &ExecutionContext{cache: newStatementCache(), retry: NewRetryOptions()}
	_, ok := x.Single(&protocol.Result{}, message.FormatBinary)
	assert.False(t, ok)
}

func TestExecutionContextSingleOnOneRow(t *testing.T) {
	x := &ExecutionContext{cache: newStatementCache(), retry: NewRetryOptions()}
	v, ok := x.Single(
		&protocol.Result{Data: []gelval.Value{gelval.NewInt64(1)}},
		message.FormatBinary,
	)
	assert.True(t, ok)
	assert.Equal(t, int64(1), v.Int64)
}

func TestExecutionContextSingleOnEmptyResultUnderJSONFormat(t *testing.T) {
	x := &ExecutionContext{cache: newStatementCache(), retry: NewRetryOptions()}
	v, ok := x.Single(&protocol.Result{}, message.FormatJSON)
	require.True(t, ok)
	assert.Equal(t, []byte("null"), v.Bytes)
}
