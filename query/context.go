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
	"time"

	"github.com/gel-io/gelwire/gelerr"
	"github.com/gel-io/gelwire/gelval"
	"github.com/gel-io/gelwire/internal/message"
	"github.com/gel-io/gelwire/protocol"
)

// ExecutionContext issues queries against one connection, tracking
// the capabilities a command was last observed to need so the retry
// loop can tell a read-only query from a mutation (spec.md §4.I
// "Execution cache & context", grounded on the teacher's
// transactableConn.granularFlow).
type ExecutionContext struct {
	conn  *protocol.Conn
	cache *statementCache
	retry RetryOptions

	// ExpectOne and RequiredOne implement single()/assert_single()
	// client-side semantics (spec.md §4.I): ExpectOne collapses the
	// row list to a single value, RequiredOne additionally forbids
	// zero rows.
	ExpectOne   bool
	RequiredOne bool

	// Warnings receives the compiler warnings attached to a
	// successful query. Defaults to LogWarnings; set to
	// WarningsAsErrors or a custom handler to change that, and to nil
	// to discard warnings entirely.
	Warnings WarningHandler
}

// NewExecutionContext builds an ExecutionContext over conn. retry
// must come from NewRetryOptions() (possibly customized).
func NewExecutionContext(conn *protocol.Conn, retry RetryOptions) *ExecutionContext {
	if !retry.fromFactory {
		panic("RetryOptions not created with NewRetryOptions() is not valid")
	}
	return &ExecutionContext{
		conn: conn, cache: newStatementCache(), retry: retry,
		Warnings: LogWarnings,
	}
}

// Execute runs q, retrying the whole Parse+Execute cycle when the
// failure is retryable: a read-only query (capabilities == 0, or
// never yet observed) retries on any ShouldRetry-tagged error; a
// mutation query retries only on a transaction conflict, since it may
// already have taken effect on the server (spec.md §4.I "Retryable
// transaction loop").
func (x *ExecutionContext) Execute(ctx context.Context, q protocol.Query) (*protocol.Result, error) {
	if x.ExpectOne && x.RequiredOne && q.ExpectedCardinality == message.NoResult {
		return nil, gelerr.NewInterfaceError(
			"query cannot be executed with single() as it does not return any data")
	}

	fp := fingerprint{
		Command:             q.Command,
		OutputFormat:        q.OutputFormat,
		ExpectedCardinality: q.ExpectedCardinality,
		InputLanguage:       q.InputLanguage,
	}

	var result *protocol.Result
	var err error
	for attempt := 1; ; attempt++ {
		result, err = x.attempt(ctx, q, fp)
		if err == nil {
			if x.ExpectOne && x.RequiredOne && len(result.Data) == 0 {
				return nil, gelerr.NewNoDataError(
					"query returned no data for a required single result")
			}
			return result, nil
		}

		gelErr, ok := err.(gelerr.Error)
		if !ok {
			return nil, err
		}
		capabilities, observed := x.cache.getCapabilities(fp)
		if !readOnlyRetryAllowed(gelErr, capabilities, observed) {
			return nil, err
		}

		rule, rerr := x.retry.ruleForError(gelErr)
		if rerr != nil {
			return nil, err
		}
		if attempt >= rule.attempts {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(rule.backoff(attempt)):
		}
	}
}

// readOnlyRetryAllowed decides whether the whole query is retryable:
// a read-only command (capabilities == 0, or never yet observed) may
// retry on any ShouldRetry-tagged error; a mutation only retries when
// the error is specifically a transaction conflict, since it may
// already have taken effect on the server (spec.md §4.I "Read-only
// queries are always retryable", grounded on the teacher's
// granularFlow capability check).
func readOnlyRetryAllowed(err gelerr.Error, capabilities uint64, observed bool) bool {
	if !err.HasTag(gelerr.ShouldRetry) {
		return false
	}
	if observed && capabilities != 0 {
		return err.Category(gelerr.TransactionConflictError)
	}
	return true
}

func (x *ExecutionContext) attempt(
	ctx context.Context, q protocol.Query, fp fingerprint,
) (*protocol.Result, error) {
	codecs, err := x.conn.Parse(ctx, q)
	if err != nil {
		return nil, err
	}

	result, err := x.conn.Execute(ctx, q, codecs)
	if err != nil {
		return nil, err
	}
	x.cache.observe(fp, result.Capabilities)

	if len(result.Warnings) > 0 && x.Warnings != nil {
		if werr := x.Warnings(result.Warnings); werr != nil {
			return nil, werr
		}
	}
	return result, nil
}

// Single collapses r's rows under ExpectOne/RequiredOne rules: it
// returns the first row when there is at least one. checkCardinality
// rejects more than one row upstream only when the server reported a
// One or AtMostOne cardinality; for any other cardinality the rows
// after the first are ignored here (spec.md §4.I "expect-one=true,
// zero rows, required-one=false"). Zero rows with
// RequiredOne false is not an error, but its shape depends on format:
// under output format JSON the wire already encodes "no rows" as the
// JSON literal null rather than omitting the row entirely, so Single
// returns that literal to match; every other format returns ok=false,
// the absent value, matching spec.md §8's cardinality-enforcement
// scenario.
func (x *ExecutionContext) Single(
	r *protocol.Result, format message.OutputFormat,
) (value gelval.Value, ok bool) {
	if len(r.Data) > 0 {
		return r.Data[0], true
	}
	if format == message.FormatJSON {
		return gelval.NewJSON([]byte("null")), true
	}
	return gelval.Value{}, false
}

// TxBlock is user code run inside a transaction. Returning a non-nil
// error rolls the transaction back; the block may be invoked more
// than once if the transaction conflicts and the retry policy allows
// another attempt (spec.md §4.H "Retryable transaction loop").
type TxBlock func(ctx context.Context, tx *Tx) error

// Tx is an ExecutionContext scoped to one transaction attempt. Unlike
// the top-level ExecutionContext, a statement inside a transaction is
// never retried on its own: a conflict can only be resolved by
// retrying the entire block from BEGIN.
type Tx struct {
	conn *protocol.Conn
}

// Execute runs q without the granular per-statement retry ExecutionContext
// applies; a failure here propagates to RunTx, which decides whether
// to retry the whole block.
func (tx *Tx) Execute(ctx context.Context, q protocol.Query) (*protocol.Result, error) {
	codecs, err := tx.conn.Parse(ctx, q)
	if err != nil {
		return nil, err
	}
	return tx.conn.Execute(ctx, q, codecs)
}

func (tx *Tx) start(ctx context.Context) error {
	_, err := tx.Execute(ctx, protocol.Query{Command: "start transaction"})
	return err
}

func (tx *Tx) commit(ctx context.Context) error {
	_, err := tx.Execute(ctx, protocol.Query{Command: "commit"})
	return err
}

func (tx *Tx) rollback(ctx context.Context) error {
	_, err := tx.Execute(ctx, protocol.Query{Command: "rollback"})
	return err
}

// RunTx runs action inside a transaction, retrying the entire
// start/action/commit cycle when the failure is a ShouldRetry'd
// transaction error (spec.md §4.H, grounded on the teacher's
// transactableConn.tx). action's own errors roll the transaction back
// and are retried only when they carry the ShouldRetry tag.
func (x *ExecutionContext) RunTx(ctx context.Context, action TxBlock) error {
	var err error
	for attempt := 1; ; attempt++ {
		tx := &Tx{conn: x.conn}

		if err = tx.start(ctx); err != nil {
			goto retryCheck
		}

		err = action(ctx, tx)
		if err == nil {
			if err = tx.commit(ctx); err == nil {
				return nil
			}
			goto retryCheck
		}

		if rbErr := tx.rollback(ctx); rbErr != nil {
			if _, ok := rbErr.(gelerr.Error); !ok {
				return rbErr
			}
		}

	retryCheck:
		gelErr, ok := err.(gelerr.Error)
		if !ok || !gelErr.HasTag(gelerr.ShouldRetry) {
			return err
		}

		rule, rerr := x.retry.ruleForError(gelErr)
		if rerr != nil {
			return err
		}
		if attempt >= rule.attempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rule.backoff(attempt)):
		}
	}
}
