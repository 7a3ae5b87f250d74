// Copyright 2024 the docete Authors.
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

package expression

import (
	"github.com/pingcap/errors"
)

// Plan-time errors are returned while a function class builds a signature,
// before any row is processed. Row-time errors are returned from
// evaluation and propagate to the caller unrecovered.
var (
	// ErrFunctionNotExists is returned when an unknown function name is
	// looked up. Plan time.
	ErrFunctionNotExists = errors.New("function does not exist")

	// errIncorrectParameterCount is returned when the argument count is
	// outside the function's accepted range. Plan time.
	errIncorrectParameterCount = errors.New("incorrect parameter count")

	// ErrEscapeNotConstant is returned when a LIKE escape argument is not
	// a plan-time constant. Plan time.
	ErrEscapeNotConstant = errors.New("ESCAPE expression must be a plan-time constant")

	// ErrEscapeInvalid is returned when a LIKE escape argument is not
	// exactly one character. Plan time.
	ErrEscapeInvalid = errors.New("ESCAPE expression must be exactly one character")

	// ErrRegexp wraps a pattern that failed to compile as a regular
	// expression. Row time, except for constant LIKE patterns whose
	// translation fails at plan time.
	ErrRegexp = errors.New("invalid regular expression")

	// ErrInvalidGroupIndex is returned when a capturing-group index is
	// outside the pattern's declared group range. Row time.
	ErrInvalidGroupIndex = errors.New("capturing group index out of range")

	// ErrInvalidReplacement is returned when a replacement template ends
	// with a dangling '$' or '\'. Row time.
	ErrInvalidReplacement = errors.New("invalid replacement template")
)
