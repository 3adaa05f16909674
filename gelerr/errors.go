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

// Package gelerr is the error taxonomy described in spec.md §7: a
// small set of named error kinds, each with a tag set (SHOULD_RETRY,
// SHOULD_RECONNECT) and a category, so callers can branch on behavior
// instead of on error strings.
package gelerr

// ErrorTag marks a behavioral hint a caller can act on without
// knowing the concrete error kind.
type ErrorTag string

const (
	// ShouldRetry marks errors the retryable transaction loop
	// (spec.md §4.I) may retry without asking the user.
	ShouldRetry ErrorTag = "SHOULD_RETRY"
	// ShouldReconnect marks errors that invalidate the connection;
	// the caller must reconnect before issuing another command.
	ShouldReconnect ErrorTag = "SHOULD_RECONNECT"
)

// ErrorCategory is a coarse error classification, named the way the
// wire protocol's error codes group (spec.md §6 "Error taxonomy").
type ErrorCategory string

const (
	ProtocolError                  ErrorCategory = "errors::ProtocolError"
	UnsupportedProtocolVersion     ErrorCategory = "errors::UnsupportedProtocolVersionError"
	UnsupportedDescriptor          ErrorCategory = "errors::TypeSpecNotFoundError"
	InputDataError                 ErrorCategory = "errors::InputDataError"
	ParameterTypeMismatchError     ErrorCategory = "errors::ParameterTypeMismatchError"
	ResultCardinalityMismatchError ErrorCategory = "errors::ResultCardinalityMismatchError"
	QueryArgumentError             ErrorCategory = "errors::QueryArgumentError"
	InvalidArgumentError           ErrorCategory = "errors::InvalidArgumentError"
	InterfaceError                 ErrorCategory = "errors::InterfaceError"
	NoDataError                    ErrorCategory = "errors::NoDataError"
	ClientConnectionError          ErrorCategory = "errors::ClientConnectionError"
	ClientConnectionClosedError    ErrorCategory = "errors::ClientConnectionClosedError"
	ClientConnectionFailedTempErr  ErrorCategory = "errors::ClientConnectionFailedTemporarilyError"
	ClientConnectionTimeoutError   ErrorCategory = "errors::ClientConnectionTimeoutError"
	TransactionConflictError       ErrorCategory = "errors::TransactionConflictError"
	TransactionSerializationError  ErrorCategory = "errors::TransactionSerializationError"
	TransactionDeadlockError       ErrorCategory = "errors::TransactionDeadlockError"
	AuthenticationError            ErrorCategory = "errors::AuthenticationError"
)

// Error is implemented by every error this module returns from the
// wire protocol or its surrounding machinery. Category and HasTag let
// callers branch on behavior rather than matching concrete types.
type Error interface {
	error
	Unwrap() error
	HasTag(tag ErrorTag) bool
	Category(cat ErrorCategory) bool
}

// base is embedded by every concrete error kind below; it carries the
// message, the wrapped cause, and the kind's fixed category/tag set.
type base struct {
	kind string
	cat  ErrorCategory
	tags []ErrorTag
	msg  string
	err  error
}

func (e *base) Error() string {
	if e.err != nil {
		return e.kind + ": " + e.err.Error()
	}
	return e.kind + ": " + e.msg
}

func (e *base) Unwrap() error { return e.err }

func (e *base) Category(c ErrorCategory) bool { return e.cat == c }

func (e *base) HasTag(tag ErrorTag) bool {
	for _, t := range e.tags {
		if t == tag {
			return true
		}
	}
	return false
}

func newf(kind string, cat ErrorCategory, tags []ErrorTag, msg string) *base {
	return &base{kind: kind, cat: cat, tags: tags, msg: msg}
}

func wrap(kind string, cat ErrorCategory, tags []ErrorTag, err error) *base {
	return &base{kind: kind, cat: cat, tags: tags, err: err}
}
