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

// Package message defines the wire message type tags (spec.md §6).
// Each message begins with its tag followed by a big-endian uint32
// length covering all remaining bytes.
package message

// Type is a wire message type tag.
type Type uint8

// Messages sent by the client.
const (
	ClientHandshake                   Type = 'V'
	AuthenticationSASLInitialResponse Type = 'p'
	AuthenticationSASLResponse        Type = 'r'
	Parse                             Type = 'P'
	Execute                           Type = 'O'
	Sync                              Type = 'S'
	Flush                             Type = 'H'
	Terminate                         Type = 'X'
	Dump                              Type = '>'
	Restore                           Type = '<'
	RestoreBlock                      Type = '='
	RestoreEOF                        Type = '.'

	// legacy (protocol 0.x) only
	DescribeStatement Type = 'D'
	LegacyExecute     Type = 'E'
	ExecuteScript     Type = 'Q'
)

// Messages sent by the server.
const (
	ServerHandshake           Type = 'v'
	Authentication            Type = 'R'
	ServerKeyData             Type = 'K'
	ParameterStatus           Type = 'S'
	StatementDataDescription  Type = 'T'
	StateDataDescription      Type = 's'
	Data                      Type = 'D'
	CommandComplete           Type = 'C'
	ReadyForCommand           Type = 'Z'
	ErrorResponse             Type = 'E'
	LogMessage                Type = 'L'
	DumpHeader                Type = '@'
	DumpBlock                 Type = '='
	RestoreReady              Type = '+'
)

// Authentication sub-status codes carried in the Authentication
// message's first uint32.
const (
	AuthStatusOK                uint32 = 0x0
	AuthStatusSASL              uint32 = 0xa
	AuthStatusSASLContinue      uint32 = 0xb
	AuthStatusSASLFinal         uint32 = 0xc
)

// TransactionStatus codes carried as the last byte of ReadyForCommand.
type TransactionStatus uint8

const (
	// TxIdle means no transaction is in progress.
	TxIdle TransactionStatus = 'I'
	// TxInTransaction means a transaction is open and healthy.
	TxInTransaction TransactionStatus = 'T'
	// TxInError means a transaction is open but has failed; only
	// ROLLBACK is accepted until it ends.
	TxInError TransactionStatus = 'E'
)

// Cardinality is the result cardinality code (spec.md §6).
type Cardinality uint8

const (
	NoResult   Cardinality = 'n'
	AtMostOne  Cardinality = 'o'
	One        Cardinality = 'A'
	Many       Cardinality = 'm'
	AtLeastOne Cardinality = 'M'
)

// OutputFormat is the result encoding requested of the server.
type OutputFormat uint8

const (
	FormatBinary      OutputFormat = 'b'
	FormatJSON        OutputFormat = 'j'
	FormatJSONElement OutputFormat = 'J'
	FormatNone        OutputFormat = 'n'
)

// InputLanguage selects the query language of the command text
// (protocol >= 3.0 only).
type InputLanguage uint8

const (
	LangEdgeQL InputLanguage = 'E'
	LangSQL    InputLanguage = 'S'
)
