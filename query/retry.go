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

// Package query builds on protocol to add the pieces a caller
// actually wants from a query API: a fingerprint-keyed cache of the
// capabilities each command was last observed with, cardinality
// enforcement, and a retryable transaction loop (spec.md §4.I
// "Execution context"). The cache holds no codecs, so every execution
// still sends Parse before Execute.
package query

import (
	"fmt"
	"math"
	"time"

	"github.com/gel-io/gelwire/gelerr"
	"github.com/gel-io/gelwire/internal/snc"
)

var rnd = snc.NewRand()

// RetryBackoff returns how long to wait after the nth attempt before
// retrying a transaction.
type RetryBackoff func(attempt int) time.Duration

// defaultBackoff is exponential with jitter: 2^attempt * 100ms, plus
// up to 100ms of jitter so a fleet of clients retrying the same
// conflict doesn't retry in lockstep (spec.md §4.I "Backoff").
func defaultBackoff(attempt int) time.Duration {
	backoff := math.Pow(2.0, float64(attempt)) * 100.0
	jitter := rnd.Float64() * 100.0
	return time.Duration(backoff+jitter) * time.Millisecond
}

// RetryCondition is a scenario that can cause a transaction to be
// retried, each configurable with its own RetryRule.
type RetryCondition int

const (
	// TxConflict is a server-reported TransactionConflictError
	// (serialization failure or deadlock).
	TxConflict RetryCondition = iota
	// NetworkError is a connection failure tagged ShouldRetry.
	NetworkError
)

// RetryRule controls how many times, and how long to wait between,
// attempts at a retryable transaction.
type RetryRule struct {
	fromFactory bool
	attempts    int
	backoff     RetryBackoff
}

// NewRetryRule returns the default RetryRule: 3 attempts, exponential
// backoff with jitter.
func NewRetryRule() RetryRule {
	return RetryRule{fromFactory: true, attempts: 3, backoff: defaultBackoff}
}

// WithAttempts returns a copy of r with its attempt count changed.
func (r RetryRule) WithAttempts(attempts int) RetryRule {
	if attempts < 1 {
		panic(fmt.Sprintf("RetryRule attempts must be greater than 0, got %v", attempts))
	}
	r.attempts = attempts
	return r
}

// WithBackoff returns a copy of r with its backoff function changed.
func (r RetryRule) WithBackoff(fn RetryBackoff) RetryRule {
	if fn == nil {
		panic("the backoff function must not be nil")
	}
	r.backoff = fn
	return r
}

// RetryOptions configures retry behavior per RetryCondition. Build one
// with NewRetryOptions.
type RetryOptions struct {
	fromFactory bool
	txConflict  RetryRule
	network     RetryRule
}

// NewRetryOptions returns the default RetryOptions: NewRetryRule()
// applied to every condition.
func NewRetryOptions() RetryOptions {
	return RetryOptions{fromFactory: true}.WithDefault(NewRetryRule())
}

// WithDefault sets rule for every condition.
func (o RetryOptions) WithDefault(rule RetryRule) RetryOptions {
	if !rule.fromFactory {
		panic("RetryRule not created with NewRetryRule() is not valid")
	}
	o.txConflict = rule
	o.network = rule
	return o
}

// WithCondition sets rule for one specific condition.
func (o RetryOptions) WithCondition(condition RetryCondition, rule RetryRule) RetryOptions {
	if !rule.fromFactory {
		panic("RetryRule not created with NewRetryRule() is not valid")
	}
	switch condition {
	case TxConflict:
		o.txConflict = rule
	case NetworkError:
		o.network = rule
	default:
		panic(fmt.Sprintf("unexpected retry condition: %v", condition))
	}
	return o
}

func (o RetryOptions) ruleForError(err gelerr.Error) (RetryRule, error) {
	switch {
	case err.Category(gelerr.TransactionConflictError),
		err.Category(gelerr.TransactionSerializationError),
		err.Category(gelerr.TransactionDeadlockError):
		return o.txConflict, nil
	case err.HasTag(gelerr.ShouldRetry):
		return o.network, nil
	default:
		return RetryRule{}, fmt.Errorf("error is not retryable: %w", err)
	}
}
