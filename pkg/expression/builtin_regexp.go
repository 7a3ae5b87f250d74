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
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pingcap/errors"

	"github.com/docete/spark/pkg/types"
)

var (
	_ functionClass = &splitFunctionClass{}
	_ functionClass = &regexpReplaceFunctionClass{}
	_ functionClass = &regexpExtractFunctionClass{}
	_ functionClass = &regexpExtractAllFunctionClass{}
	_ functionClass = &regexpInstrFunctionClass{}
	_ functionClass = &regexpCountFunctionClass{}
	_ functionClass = &regexpSubstrFunctionClass{}
)

var (
	_ builtinFunc = &builtinSplitSig{}
	_ builtinFunc = &builtinRegexpReplaceSig{}
	_ builtinFunc = &builtinRegexpExtractSig{}
	_ builtinFunc = &builtinRegexpExtractAllSig{}
	_ builtinFunc = &builtinRegexpInstrSig{}
	_ builtinFunc = &builtinRegexpCountSig{}
	_ builtinFunc = &builtinRegexpSubstrSig{}
)

// regexpScratch memoizes the matcher built for the pattern text most
// recently seen by one evaluation stream. Any different pattern value
// invalidates and replaces it. The scratch is mutated on every call and
// owned by exactly one signature instance or compiled step; it must never
// be shared between streams.
type regexpScratch struct {
	pattern string
	re      *regexp.Regexp

	// compilations counts matcher rebuilds; tests observe it.
	compilations int
}

func (s *regexpScratch) get(pat string) (*regexp.Regexp, error) {
	if s.re != nil && s.pattern == pat {
		return s.re, nil
	}
	s.compilations++
	re, err := regexp.Compile(pat)
	if err != nil {
		return nil, errors.Annotatef(ErrRegexp, "%v", err)
	}
	s.pattern, s.re = pat, re
	return re, nil
}

// checkGroupIndex validates a capturing-group index against the pattern.
// It runs only once a match was found, so a bad index over a non-matching
// subject still yields the no-match result.
func checkGroupIndex(re *regexp.Regexp, idx int64) error {
	if idx < 0 || idx > int64(re.NumSubexp()) {
		return errors.Annotatef(ErrInvalidGroupIndex, "group %d, pattern has %d capturing groups", idx, re.NumSubexp())
	}
	return nil
}

type splitFunctionClass struct {
	baseFunctionClass
}

func (c *splitFunctionClass) getFunction(args []Expression) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	bf := newBaseBuiltinFunc(args, types.NewFieldType(types.TypeStringArray))
	return &builtinSplitSig{bf}, nil
}

type builtinSplitSig struct {
	baseBuiltinFunc
}

func (b *builtinSplitSig) clone() builtinFunc {
	newSig := &builtinSplitSig{}
	newSig.cloneFrom(&b.baseBuiltinFunc)
	return newSig
}

// splitString cuts subject at every match of the pattern. A positive
// limit caps the number of elements and leaves the tail unsplit; any
// other limit splits everywhere and keeps trailing empty strings.
func splitString(subject, pat string, limit int64) (d types.Datum, err error) {
	// No cross-call caching here: split goes through a direct library
	// call every time, whether or not the pattern is foldable.
	re, err := regexp.Compile(pat)
	if err != nil {
		return d, errors.Annotatef(ErrRegexp, "%v", err)
	}
	n := -1
	if limit > 0 {
		n = int(limit)
	}
	d.SetStringSlice(re.Split(subject, n))
	return d, nil
}

func (b *builtinSplitSig) eval(row []types.Datum) (d types.Datum, err error) {
	subject, isNull, err := b.evalStringArg(0, row)
	if isNull || err != nil {
		return d, err
	}
	pat, isNull, err := b.evalStringArg(1, row)
	if isNull || err != nil {
		return d, err
	}
	limit := int64(-1)
	if len(b.args) == 3 {
		limit, isNull, err = b.evalIntArg(2, row)
		if isNull || err != nil {
			return d, err
		}
	}
	return splitString(subject, pat, limit)
}

func (b *builtinSplitSig) compile(_ *compiler, args []evalStep) (evalStep, error) {
	nargs := len(b.args)
	return func(row []types.Datum) (d types.Datum, err error) {
		subject, isNull, err := runString(args[0], row)
		if isNull || err != nil {
			return d, err
		}
		pat, isNull, err := runString(args[1], row)
		if isNull || err != nil {
			return d, err
		}
		limit := int64(-1)
		if nargs == 3 {
			limit, isNull, err = runInt(args[2], row)
			if isNull || err != nil {
				return d, err
			}
		}
		return splitString(subject, pat, limit)
	}, nil
}

type regexpReplaceFunctionClass struct {
	baseFunctionClass
}

func (c *regexpReplaceFunctionClass) getFunction(args []Expression) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	bf := newBaseBuiltinFunc(args, types.NewFieldType(types.TypeString))
	return &builtinRegexpReplaceSig{baseBuiltinFunc: bf}, nil
}

// replaceScratch extends the pattern memo with the prepared form of the
// replacement text last seen, invalidated independently of the pattern,
// and the output buffer reused across calls.
type replaceScratch struct {
	regexpScratch
	replacement string
	template    string
	prepared    bool
	buf         []byte
}

func (s *replaceScratch) templateFor(repl string) (string, error) {
	if s.prepared && s.replacement == repl {
		return s.template, nil
	}
	tmpl, err := prepareReplacement(repl)
	if err != nil {
		return "", err
	}
	s.replacement, s.template, s.prepared = repl, tmpl, true
	return tmpl, nil
}

// prepareReplacement translates a replacement string with Java-style
// back-references into a regexp expansion template: `$N` becomes `${N}`,
// a backslash escapes the next character, and a bare `$` without digits
// is an error.
func prepareReplacement(repl string) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(repl); {
		switch repl[i] {
		case '\\':
			if i+1 >= len(repl) {
				return "", errors.Annotatef(ErrInvalidReplacement, "%q ends with a dangling backslash", repl)
			}
			if repl[i+1] == '$' {
				sb.WriteString("$$")
			} else {
				sb.WriteByte(repl[i+1])
			}
			i += 2
		case '$':
			j := i + 1
			for j < len(repl) && repl[j] >= '0' && repl[j] <= '9' {
				j++
			}
			if j == i+1 {
				return "", errors.Annotatef(ErrInvalidReplacement, "%q has a '$' without a group number", repl)
			}
			sb.WriteString("${")
			sb.WriteString(repl[i+1 : j])
			sb.WriteString("}")
			i = j
		default:
			sb.WriteByte(repl[i])
			i++
		}
	}
	return sb.String(), nil
}

// replaceAll expands tmpl for every non-overlapping match of re in
// subject, left to right, and appends the unmatched tail verbatim. The
// scratch buffer is cleared and reused, not reallocated.
func replaceAll(s *replaceScratch, re *regexp.Regexp, subject, tmpl string) string {
	matches := re.FindAllStringSubmatchIndex(subject, -1)
	if len(matches) == 0 {
		return subject
	}
	s.buf = s.buf[:0]
	last := 0
	for _, m := range matches {
		s.buf = append(s.buf, subject[last:m[0]]...)
		s.buf = re.ExpandString(s.buf, tmpl, subject, m)
		last = m[1]
	}
	s.buf = append(s.buf, subject[last:]...)
	return string(s.buf)
}

type builtinRegexpReplaceSig struct {
	baseBuiltinFunc
	scratch replaceScratch
}

func (b *builtinRegexpReplaceSig) clone() builtinFunc {
	// The scratch starts empty: caches never cross evaluation streams.
	newSig := &builtinRegexpReplaceSig{}
	newSig.cloneFrom(&b.baseBuiltinFunc)
	return newSig
}

func regexpReplace(s *replaceScratch, subject, pat, repl string) (d types.Datum, err error) {
	re, err := s.get(pat)
	if err != nil {
		return d, err
	}
	tmpl, err := s.templateFor(repl)
	if err != nil {
		return d, err
	}
	d.SetString(replaceAll(s, re, subject, tmpl))
	return d, nil
}

// eval evaluates `regexp_replace(subject, pattern, replacement)`.
func (b *builtinRegexpReplaceSig) eval(row []types.Datum) (d types.Datum, err error) {
	subject, isNull, err := b.evalStringArg(0, row)
	if isNull || err != nil {
		return d, err
	}
	pat, isNull, err := b.evalStringArg(1, row)
	if isNull || err != nil {
		return d, err
	}
	repl, isNull, err := b.evalStringArg(2, row)
	if isNull || err != nil {
		return d, err
	}
	return regexpReplace(&b.scratch, subject, pat, repl)
}

func (b *builtinRegexpReplaceSig) compile(c *compiler, args []evalStep) (evalStep, error) {
	scratch := &replaceScratch{}
	c.registerState(scratch)
	return func(row []types.Datum) (d types.Datum, err error) {
		subject, isNull, err := runString(args[0], row)
		if isNull || err != nil {
			return d, err
		}
		pat, isNull, err := runString(args[1], row)
		if isNull || err != nil {
			return d, err
		}
		repl, isNull, err := runString(args[2], row)
		if isNull || err != nil {
			return d, err
		}
		return regexpReplace(scratch, subject, pat, repl)
	}, nil
}

type regexpExtractFunctionClass struct {
	baseFunctionClass
}

func (c *regexpExtractFunctionClass) getFunction(args []Expression) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	bf := newBaseBuiltinFunc(args, types.NewFieldType(types.TypeString))
	return &builtinRegexpExtractSig{baseBuiltinFunc: bf}, nil
}

// extractGroup returns the text of capturing group idx in the first match
// of re. No match at all, or an optional group that did not participate
// in the match, yields empty text rather than null.
func extractGroup(re *regexp.Regexp, subject string, idx int64) (d types.Datum, err error) {
	loc := re.FindStringSubmatchIndex(subject)
	if loc == nil {
		d.SetString("")
		return d, nil
	}
	if err := checkGroupIndex(re, idx); err != nil {
		return d, err
	}
	start, end := loc[2*idx], loc[2*idx+1]
	if start < 0 {
		d.SetString("")
		return d, nil
	}
	d.SetString(subject[start:end])
	return d, nil
}

type builtinRegexpExtractSig struct {
	baseBuiltinFunc
	scratch regexpScratch
}

func (b *builtinRegexpExtractSig) clone() builtinFunc {
	newSig := &builtinRegexpExtractSig{}
	newSig.cloneFrom(&b.baseBuiltinFunc)
	return newSig
}

// eval evaluates `regexp_extract(subject, pattern[, idx])`.
func (b *builtinRegexpExtractSig) eval(row []types.Datum) (d types.Datum, err error) {
	subject, isNull, err := b.evalStringArg(0, row)
	if isNull || err != nil {
		return d, err
	}
	pat, isNull, err := b.evalStringArg(1, row)
	if isNull || err != nil {
		return d, err
	}
	idx := int64(1)
	if len(b.args) == 3 {
		idx, isNull, err = b.evalIntArg(2, row)
		if isNull || err != nil {
			return d, err
		}
	}
	re, err := b.scratch.get(pat)
	if err != nil {
		return d, err
	}
	return extractGroup(re, subject, idx)
}

func (b *builtinRegexpExtractSig) compile(c *compiler, args []evalStep) (evalStep, error) {
	scratch := &regexpScratch{}
	c.registerState(scratch)
	nargs := len(b.args)
	return func(row []types.Datum) (d types.Datum, err error) {
		subject, isNull, err := runString(args[0], row)
		if isNull || err != nil {
			return d, err
		}
		pat, isNull, err := runString(args[1], row)
		if isNull || err != nil {
			return d, err
		}
		idx := int64(1)
		if nargs == 3 {
			idx, isNull, err = runInt(args[2], row)
			if isNull || err != nil {
				return d, err
			}
		}
		re, err := scratch.get(pat)
		if err != nil {
			return d, err
		}
		return extractGroup(re, subject, idx)
	}, nil
}

type regexpExtractAllFunctionClass struct {
	baseFunctionClass
}

func (c *regexpExtractAllFunctionClass) getFunction(args []Expression) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	bf := newBaseBuiltinFunc(args, types.NewFieldType(types.TypeStringArray))
	return &builtinRegexpExtractAllSig{baseBuiltinFunc: bf}, nil
}

// extractAllGroups collects group idx from every non-overlapping match,
// left to right. No matches yields an empty array, not null.
func extractAllGroups(re *regexp.Regexp, subject string, idx int64) (d types.Datum, err error) {
	matches := re.FindAllStringSubmatchIndex(subject, -1)
	if len(matches) == 0 {
		d.SetStringSlice([]string{})
		return d, nil
	}
	if err := checkGroupIndex(re, idx); err != nil {
		return d, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		start, end := m[2*idx], m[2*idx+1]
		if start < 0 {
			out = append(out, "")
		} else {
			out = append(out, subject[start:end])
		}
	}
	d.SetStringSlice(out)
	return d, nil
}

type builtinRegexpExtractAllSig struct {
	baseBuiltinFunc
	scratch regexpScratch
}

func (b *builtinRegexpExtractAllSig) clone() builtinFunc {
	newSig := &builtinRegexpExtractAllSig{}
	newSig.cloneFrom(&b.baseBuiltinFunc)
	return newSig
}

// eval evaluates `regexp_extract_all(subject, pattern[, idx])`.
func (b *builtinRegexpExtractAllSig) eval(row []types.Datum) (d types.Datum, err error) {
	subject, isNull, err := b.evalStringArg(0, row)
	if isNull || err != nil {
		return d, err
	}
	pat, isNull, err := b.evalStringArg(1, row)
	if isNull || err != nil {
		return d, err
	}
	idx := int64(1)
	if len(b.args) == 3 {
		idx, isNull, err = b.evalIntArg(2, row)
		if isNull || err != nil {
			return d, err
		}
	}
	re, err := b.scratch.get(pat)
	if err != nil {
		return d, err
	}
	return extractAllGroups(re, subject, idx)
}

func (b *builtinRegexpExtractAllSig) compile(c *compiler, args []evalStep) (evalStep, error) {
	scratch := &regexpScratch{}
	c.registerState(scratch)
	nargs := len(b.args)
	return func(row []types.Datum) (d types.Datum, err error) {
		subject, isNull, err := runString(args[0], row)
		if isNull || err != nil {
			return d, err
		}
		pat, isNull, err := runString(args[1], row)
		if isNull || err != nil {
			return d, err
		}
		idx := int64(1)
		if nargs == 3 {
			idx, isNull, err = runInt(args[2], row)
			if isNull || err != nil {
				return d, err
			}
		}
		re, err := scratch.get(pat)
		if err != nil {
			return d, err
		}
		return extractAllGroups(re, subject, idx)
	}, nil
}

type regexpInstrFunctionClass struct {
	baseFunctionClass
}

func (c *regexpInstrFunctionClass) getFunction(args []Expression) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	bf := newBaseBuiltinFunc(args, types.NewFieldType(types.TypeLonglong))
	return &builtinRegexpInstrSig{baseBuiltinFunc: bf}, nil
}

// instrPosition returns the 1-based character position of the first
// match, or 0 when there is none.
func instrPosition(re *regexp.Regexp, subject string) (d types.Datum, err error) {
	loc := re.FindStringIndex(subject)
	if loc == nil {
		d.SetInt64(0)
		return d, nil
	}
	d.SetInt64(int64(utf8.RuneCountInString(subject[:loc[0]])) + 1)
	return d, nil
}

type builtinRegexpInstrSig struct {
	baseBuiltinFunc
	scratch regexpScratch
}

func (b *builtinRegexpInstrSig) clone() builtinFunc {
	newSig := &builtinRegexpInstrSig{}
	newSig.cloneFrom(&b.baseBuiltinFunc)
	return newSig
}

// eval evaluates `regexp_instr(subject, pattern)`.
func (b *builtinRegexpInstrSig) eval(row []types.Datum) (d types.Datum, err error) {
	subject, isNull, err := b.evalStringArg(0, row)
	if isNull || err != nil {
		return d, err
	}
	pat, isNull, err := b.evalStringArg(1, row)
	if isNull || err != nil {
		return d, err
	}
	re, err := b.scratch.get(pat)
	if err != nil {
		return d, err
	}
	return instrPosition(re, subject)
}

func (b *builtinRegexpInstrSig) compile(c *compiler, args []evalStep) (evalStep, error) {
	scratch := &regexpScratch{}
	c.registerState(scratch)
	return func(row []types.Datum) (d types.Datum, err error) {
		subject, isNull, err := runString(args[0], row)
		if isNull || err != nil {
			return d, err
		}
		pat, isNull, err := runString(args[1], row)
		if isNull || err != nil {
			return d, err
		}
		re, err := scratch.get(pat)
		if err != nil {
			return d, err
		}
		return instrPosition(re, subject)
	}, nil
}

type regexpCountFunctionClass struct {
	baseFunctionClass
}

func (c *regexpCountFunctionClass) getFunction(args []Expression) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	bf := newBaseBuiltinFunc(args, types.NewFieldType(types.TypeLonglong))
	return &builtinRegexpCountSig{baseBuiltinFunc: bf}, nil
}

type builtinRegexpCountSig struct {
	baseBuiltinFunc
	scratch regexpScratch
}

func (b *builtinRegexpCountSig) clone() builtinFunc {
	newSig := &builtinRegexpCountSig{}
	newSig.cloneFrom(&b.baseBuiltinFunc)
	return newSig
}

func countMatches(re *regexp.Regexp, subject string) (d types.Datum, err error) {
	d.SetInt64(int64(len(re.FindAllStringIndex(subject, -1))))
	return d, nil
}

// eval evaluates `regexp_count(subject, pattern)`.
func (b *builtinRegexpCountSig) eval(row []types.Datum) (d types.Datum, err error) {
	subject, isNull, err := b.evalStringArg(0, row)
	if isNull || err != nil {
		return d, err
	}
	pat, isNull, err := b.evalStringArg(1, row)
	if isNull || err != nil {
		return d, err
	}
	re, err := b.scratch.get(pat)
	if err != nil {
		return d, err
	}
	return countMatches(re, subject)
}

func (b *builtinRegexpCountSig) compile(c *compiler, args []evalStep) (evalStep, error) {
	scratch := &regexpScratch{}
	c.registerState(scratch)
	return func(row []types.Datum) (d types.Datum, err error) {
		subject, isNull, err := runString(args[0], row)
		if isNull || err != nil {
			return d, err
		}
		pat, isNull, err := runString(args[1], row)
		if isNull || err != nil {
			return d, err
		}
		re, err := scratch.get(pat)
		if err != nil {
			return d, err
		}
		return countMatches(re, subject)
	}, nil
}

type regexpSubstrFunctionClass struct {
	baseFunctionClass
}

func (c *regexpSubstrFunctionClass) getFunction(args []Expression) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	bf := newBaseBuiltinFunc(args, types.NewFieldType(types.TypeString))
	return &builtinRegexpSubstrSig{baseBuiltinFunc: bf}, nil
}

type builtinRegexpSubstrSig struct {
	baseBuiltinFunc
	scratch regexpScratch
}

func (b *builtinRegexpSubstrSig) clone() builtinFunc {
	newSig := &builtinRegexpSubstrSig{}
	newSig.cloneFrom(&b.baseBuiltinFunc)
	return newSig
}

// substrMatch returns the text of the first match, or null when there is
// none. This is deliberately different from regexp_extract, which maps
// "no match" to empty text.
func substrMatch(re *regexp.Regexp, subject string) (d types.Datum, err error) {
	loc := re.FindStringIndex(subject)
	if loc == nil {
		return d, nil
	}
	d.SetString(subject[loc[0]:loc[1]])
	return d, nil
}

// eval evaluates `regexp_substr(subject, pattern)`.
func (b *builtinRegexpSubstrSig) eval(row []types.Datum) (d types.Datum, err error) {
	subject, isNull, err := b.evalStringArg(0, row)
	if isNull || err != nil {
		return d, err
	}
	pat, isNull, err := b.evalStringArg(1, row)
	if isNull || err != nil {
		return d, err
	}
	re, err := b.scratch.get(pat)
	if err != nil {
		return d, err
	}
	return substrMatch(re, subject)
}

func (b *builtinRegexpSubstrSig) compile(c *compiler, args []evalStep) (evalStep, error) {
	scratch := &regexpScratch{}
	c.registerState(scratch)
	return func(row []types.Datum) (d types.Datum, err error) {
		subject, isNull, err := runString(args[0], row)
		if isNull || err != nil {
			return d, err
		}
		pat, isNull, err := runString(args[1], row)
		if isNull || err != nil {
			return d, err
		}
		re, err := scratch.get(pat)
		if err != nil {
			return d, err
		}
		return substrMatch(re, subject)
	}, nil
}
