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

package stringutil

import (
	"regexp"
	"strings"

	"github.com/pingcap/errors"
)

// DefaultEscape is the escape character used by LIKE when none is given.
const DefaultEscape = '\\'

// ErrInvalidEscapeSequence is returned when the escape character precedes
// anything other than '_', '%' or the escape character itself, or when the
// pattern ends with a dangling escape character.
var ErrInvalidEscapeSequence = errors.New("invalid escape sequence in LIKE pattern")

// EscapeLikePattern translates a SQL LIKE pattern into the body of a
// regular expression. '_' matches exactly one character and '%' matches
// zero or more; the escape character followed by '_', '%' or itself
// stands for that character literally. Everything else is quoted so regex
// metacharacters in the pattern match themselves.
//
// The caller anchors the returned body and applies match flags.
func EscapeLikePattern(pattern string, escape rune) (string, error) {
	var sb strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == escape:
			if i+1 >= len(runes) {
				return "", errors.Annotatef(ErrInvalidEscapeSequence, "pattern %q ends with the escape character", pattern)
			}
			next := runes[i+1]
			if next != '_' && next != '%' && next != escape {
				return "", errors.Annotatef(ErrInvalidEscapeSequence, "the escape character precedes %q in pattern %q", string(next), pattern)
			}
			sb.WriteString(regexp.QuoteMeta(string(next)))
			i++
		case r == '_':
			sb.WriteString(".")
		case r == '%':
			sb.WriteString(".*")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return sb.String(), nil
}
