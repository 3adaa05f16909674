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
	"errors"
	"log"
)

// WarningHandler processes the warnings a query's CommandComplete
// carried (spec.md §9 "Annotations & headers"). Returning a non-nil
// error fails the call that produced the warnings as if the query
// itself had errored.
type WarningHandler func(warnings []string) error

// LogWarnings is a WarningHandler that logs each warning through the
// standard logger and never fails the call.
func LogWarnings(warnings []string) error {
	for _, w := range warnings {
		log.Println("gelwire warning:", w)
	}
	return nil
}

// WarningsAsErrors is a WarningHandler that joins every warning into a
// single error instead of logging it.
func WarningsAsErrors(warnings []string) error {
	if len(warnings) == 0 {
		return nil
	}
	errs := make([]error, len(warnings))
	for i, w := range warnings {
		errs[i] = errors.New(w)
	}
	return errors.Join(errs...)
}
