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

// NewProtocolError reports a malformed or out-of-sequence message that
// is not one of the more specific parse errors below.
func NewProtocolError(msg string) Error {
	return newf("ProtocolError", ProtocolError, nil, msg)
}

// NewUnsupportedProtocolVersion reports a server handshake reply whose
// negotiated version falls outside [protover.Min, protover.Max].
func NewUnsupportedProtocolVersion(msg string) Error {
	return newf("UnsupportedProtocolVersionError", UnsupportedProtocolVersion, nil, msg)
}

// NewUnsupportedDescriptor reports a type descriptor tag the codec
// registry's builder does not recognize.
func NewUnsupportedDescriptor(msg string) Error {
	return newf("UnsupportedDescriptorError", UnsupportedDescriptor, nil, msg)
}

// NewUnexpectedEndOfFrame wraps a short read: a Pop* call needed more
// bytes than the current message frame had left.
func NewUnexpectedEndOfFrame(err error) Error {
	return wrap("UnexpectedEndOfFrameError", ProtocolError, nil, err)
}

// NewTrailingData reports bytes left over in a frame after decoding
// the value that frame was supposed to contain in full.
func NewTrailingData(msg string) Error {
	return newf("TrailingDataError", ProtocolError, nil, msg)
}

// NewClientConnectionClosed reports that the connection was closed,
// gracefully or otherwise, and is no longer usable.
func NewClientConnectionClosed(err error) Error {
	return wrap("ClientConnectionClosedError", ClientConnectionClosedError,
		[]ErrorTag{ShouldReconnect}, err)
}

// NewClientConnectionFailedTemporarily reports a dial or handshake
// failure that a caller may retry against the same address.
func NewClientConnectionFailedTemporarily(err error) Error {
	return wrap("ClientConnectionFailedTemporarilyError", ClientConnectionFailedTempErr,
		[]ErrorTag{ShouldRetry, ShouldReconnect}, err)
}

// NewTimeout reports a context deadline or explicit timeout expiring
// while waiting on the wire.
func NewTimeout(err error) Error {
	return wrap("ClientConnectionTimeoutError", ClientConnectionTimeoutError,
		[]ErrorTag{ShouldRetry, ShouldReconnect}, err)
}

// NewNoDataError reports that a query expecting exactly one result
// (expect_one) produced zero rows.
func NewNoDataError(msg string) Error {
	return newf("NoDataError", NoDataError, nil, msg)
}

// NewResultCardinalityMismatch reports that a query declared to
// return at most one row (required_one / AtMostOne) produced more
// than one.
func NewResultCardinalityMismatch(msg string) Error {
	return newf("ResultCardinalityMismatchError", ResultCardinalityMismatchError, nil, msg)
}

// NewParameterTypeMismatch reports that the server's expected input
// descriptor does not match the arguments the caller supplied.
func NewParameterTypeMismatch(msg string) Error {
	return newf("ParameterTypeMismatchError", ParameterTypeMismatchError, nil, msg)
}

// NewQueryArgumentError reports a caller-supplied argument the
// current cached input codec cannot encode (wrong count, wrong
// shape, nil for a required parameter).
func NewQueryArgumentError(msg string) Error {
	return newf("QueryArgumentError", QueryArgumentError, nil, msg)
}

// NewInvalidArgumentError reports a malformed call into this module's
// own API (e.g. a negative fetch size), independent of the wire
// protocol.
func NewInvalidArgumentError(msg string) Error {
	return newf("InvalidArgumentError", InvalidArgumentError, nil, msg)
}

// NewInterfaceError reports a misuse of this module's API, such as
// calling a method on an already-closed handle.
func NewInterfaceError(msg string) Error {
	return newf("InterfaceError", InterfaceError, nil, msg)
}

// NewTransactionConflictError reports a server-side serialization
// conflict inside an open transaction; retryable per spec.md §4.I.
func NewTransactionConflictError(msg string) Error {
	return newf("TransactionConflictError", TransactionConflictError,
		[]ErrorTag{ShouldRetry}, msg)
}

// NewTransactionSerializationError is the TransactionConflictError
// subtype the server reports for a serialization failure.
func NewTransactionSerializationError(msg string) Error {
	return newf("TransactionSerializationError", TransactionSerializationError,
		[]ErrorTag{ShouldRetry}, msg)
}

// NewTransactionDeadlockError is the TransactionConflictError subtype
// the server reports for a detected deadlock.
func NewTransactionDeadlockError(msg string) Error {
	return newf("TransactionDeadlockError", TransactionDeadlockError,
		[]ErrorTag{ShouldRetry}, msg)
}

// NewServerProofMismatch reports that the SCRAM server signature did
// not match what the handshake computed locally; the server may not
// be who it claims to be.
func NewServerProofMismatch(msg string) Error {
	return newf("ProtocolError", AuthenticationError, nil, msg)
}

// NewNoSupportedSaslMechanism reports that the server's handshake
// offered no mechanism this client implements (only SCRAM-SHA-256 is
// supported).
func NewNoSupportedSaslMechanism(msg string) Error {
	return newf("ProtocolError", AuthenticationError, nil, msg)
}

// legacyCodeRemap maps pre-3.0 numeric error codes to their modern
// equivalent (spec.md §6 "Legacy error code remapping"), so callers
// decoding an ErrorResponse from an older server land on the same
// category regardless of protocol generation.
var legacyCodeRemap = map[uint32]uint32{
	0x05_03_00_01: 0x05_03_01_01, // TransactionSerializationError
	0x05_03_00_02: 0x05_03_01_02, // TransactionDeadlockError
}

// RemapLegacyCode translates a pre-3.0 error code to its modern
// equivalent, returning code unchanged if no remapping applies.
func RemapLegacyCode(code uint32) uint32 {
	if remapped, ok := legacyCodeRemap[code]; ok {
		return remapped
	}
	return code
}

// FromCode builds the Error for a numeric ErrorResponse code
// (spec.md §6), after legacy remapping. Only the codes this module's
// taxonomy distinguishes are special cased; anything else becomes a
// generic ProtocolError carrying msg so callers always get an Error,
// never a bare string.
func FromCode(code uint32, msg string) Error {
	code = RemapLegacyCode(code)

	switch code {
	case 0x03_01_00_01:
		return NewUnsupportedProtocolVersion(msg)
	case 0x05_03_00_00, 0x05_03_01_00:
		return NewTransactionConflictError(msg)
	case 0x05_03_01_01:
		return NewTransactionSerializationError(msg)
	case 0x05_03_01_02:
		return NewTransactionDeadlockError(msg)
	case 0x04_00_00_00:
		return NewResultCardinalityMismatch(msg)
	case 0x04_00_01_00:
		return NewParameterTypeMismatch(msg)
	default:
		return NewProtocolError(msg)
	}
}
