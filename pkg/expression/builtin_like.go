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
	"unicode/utf8"

	"github.com/coregx/coregex"
	"github.com/pingcap/errors"
	"go.uber.org/zap"

	"github.com/docete/spark/pkg/types"
	"github.com/docete/spark/pkg/util/logutil"
	"github.com/docete/spark/pkg/util/stringutil"
)

var (
	_ functionClass = &likeFunctionClass{}
	_ functionClass = &rlikeFunctionClass{}
)

var (
	_ builtinFunc = &builtinLikeSig{}
	_ builtinFunc = &builtinRegexpSig{}
)

// memoizedMatcher is the constant-pattern compilation policy: the matcher
// is built once when the signature is constructed and reused for every
// row, interpreted or compiled. A remembered compile failure is raised on
// every row that reaches it, and a null constant pattern makes every row
// null. The struct is immutable after construction, which is what allows
// clones and compiled steps to share it.
type memoizedMatcher struct {
	re   *coregex.Regex
	err  error
	null bool
}

func (m *memoizedMatcher) match(val string) (d types.Datum, err error) {
	if m.null {
		return d, nil
	}
	if m.err != nil {
		return d, m.err
	}
	d.SetInt64(boolToInt64(m.re.MatchString(val)))
	return d, nil
}

type likeFunctionClass struct {
	baseFunctionClass
	caseInsensitive bool
}

func (c *likeFunctionClass) getFunction(args []Expression) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	escape := rune(stringutil.DefaultEscape)
	if len(args) == 3 {
		var err error
		escape, err = extractEscape(args[2], c.funcName)
		if err != nil {
			return nil, errors.Trace(err)
		}
	}
	bf := newBaseBuiltinFunc(args, types.NewFieldType(types.TypeBoolean))
	sig := &builtinLikeSig{baseBuiltinFunc: bf, escape: escape, caseInsensitive: c.caseInsensitive}
	if args[1].ConstItem() {
		d, err := args[1].Eval(nil)
		if err != nil {
			return nil, errors.Trace(err)
		}
		m := &memoizedMatcher{}
		if d.IsNull() {
			m.null = true
		} else {
			// Translation errors in a constant pattern are plan-time
			// errors; translation output always compiles.
			m.re, m.err = compileLike(d.GetString(), escape, c.caseInsensitive)
			if m.err != nil {
				return nil, errors.Trace(m.err)
			}
		}
		sig.memorized = m
	}
	return sig, nil
}

// extractEscape validates a LIKE escape argument: it must be a plan-time
// constant of exactly one character.
func extractEscape(arg Expression, funcName string) (rune, error) {
	if !arg.ConstItem() {
		return 0, errors.Annotatef(ErrEscapeNotConstant, "in function %s", funcName)
	}
	d, err := arg.Eval(nil)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if d.IsNull() {
		return 0, errors.Annotatef(ErrEscapeInvalid, "in function %s", funcName)
	}
	s := d.GetString()
	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.Annotatef(ErrEscapeInvalid, "got %q in function %s", s, funcName)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// compileLike translates a LIKE pattern and compiles the anchored matcher.
// The whole subject must match, and '%' spans newlines.
func compileLike(pattern string, escape rune, caseInsensitive bool) (*coregex.Regex, error) {
	body, err := stringutil.EscapeLikePattern(pattern, escape)
	if err != nil {
		return nil, errors.Trace(err)
	}
	flags := "(?s)"
	if caseInsensitive {
		flags = "(?is)"
	}
	re, err := coregex.Compile(flags + "^(?:" + body + ")$")
	if err != nil {
		return nil, errors.Annotatef(ErrRegexp, "%v", err)
	}
	return re, nil
}

type builtinLikeSig struct {
	baseBuiltinFunc
	escape          rune
	caseInsensitive bool

	// memorized is set when the pattern operand is foldable; otherwise
	// the pattern is translated and compiled for every row.
	memorized *memoizedMatcher
}

func (b *builtinLikeSig) clone() builtinFunc {
	newSig := &builtinLikeSig{escape: b.escape, caseInsensitive: b.caseInsensitive, memorized: b.memorized}
	newSig.cloneFrom(&b.baseBuiltinFunc)
	return newSig
}

// eval evaluates `subject LIKE pattern [ESCAPE esc]` for one row.
func (b *builtinLikeSig) eval(row []types.Datum) (d types.Datum, err error) {
	val, isNull, err := b.evalStringArg(0, row)
	if isNull || err != nil {
		return d, err
	}
	if b.memorized != nil {
		return b.memorized.match(val)
	}
	pat, isNull, err := b.evalStringArg(1, row)
	if isNull || err != nil {
		return d, err
	}
	re, err := compileLike(pat, b.escape, b.caseInsensitive)
	if err != nil {
		return d, errors.Trace(err)
	}
	d.SetInt64(boolToInt64(re.MatchString(val)))
	return d, nil
}

func (b *builtinLikeSig) compile(c *compiler, args []evalStep) (evalStep, error) {
	subject := args[0]
	if b.memorized != nil {
		idx := c.registerState(b.memorized)
		return func(row []types.Datum) (d types.Datum, err error) {
			val, isNull, err := runString(subject, row)
			if isNull || err != nil {
				return d, err
			}
			return c.state(idx).(*memoizedMatcher).match(val)
		}, nil
	}
	pattern := args[1]
	escape, caseInsensitive := b.escape, b.caseInsensitive
	return func(row []types.Datum) (d types.Datum, err error) {
		val, isNull, err := runString(subject, row)
		if isNull || err != nil {
			return d, err
		}
		pat, isNull, err := runString(pattern, row)
		if isNull || err != nil {
			return d, err
		}
		re, err := compileLike(pat, escape, caseInsensitive)
		if err != nil {
			return d, errors.Trace(err)
		}
		d.SetInt64(boolToInt64(re.MatchString(val)))
		return d, nil
	}, nil
}

type rlikeFunctionClass struct {
	baseFunctionClass
}

func (c *rlikeFunctionClass) getFunction(args []Expression) (builtinFunc, error) {
	if err := c.verifyArgs(args); err != nil {
		return nil, err
	}
	bf := newBaseBuiltinFunc(args, types.NewFieldType(types.TypeBoolean))
	sig := &builtinRegexpSig{baseBuiltinFunc: bf}
	if args[1].ConstItem() {
		d, err := args[1].Eval(nil)
		if err != nil {
			return nil, errors.Trace(err)
		}
		m := &memoizedMatcher{}
		if d.IsNull() {
			m.null = true
		} else {
			m.re, m.err = compileRegexpMatcher(d.GetString())
			if m.err != nil {
				// A malformed constant pattern is a row-time error: it
				// fails every row that reaches it, not the plan.
				logutil.BgLogger().Warn("constant pattern failed to compile, error deferred to evaluation",
					zap.String("func", c.funcName),
					zap.String("pattern", d.GetString()),
					zap.Error(m.err))
			}
		}
		sig.memorized = m
	}
	return sig, nil
}

func compileRegexpMatcher(pat string) (*coregex.Regex, error) {
	re, err := coregex.Compile(pat)
	if err != nil {
		return nil, errors.Annotatef(ErrRegexp, "%v", err)
	}
	return re, nil
}

type builtinRegexpSig struct {
	baseBuiltinFunc
	memorized *memoizedMatcher
}

func (b *builtinRegexpSig) clone() builtinFunc {
	newSig := &builtinRegexpSig{memorized: b.memorized}
	newSig.cloneFrom(&b.baseBuiltinFunc)
	return newSig
}

// eval evaluates `subject RLIKE pattern`. The search is unanchored: any
// matching substring is enough.
func (b *builtinRegexpSig) eval(row []types.Datum) (d types.Datum, err error) {
	val, isNull, err := b.evalStringArg(0, row)
	if isNull || err != nil {
		return d, err
	}
	if b.memorized != nil {
		return b.memorized.match(val)
	}
	pat, isNull, err := b.evalStringArg(1, row)
	if isNull || err != nil {
		return d, err
	}
	re, err := compileRegexpMatcher(pat)
	if err != nil {
		return d, errors.Trace(err)
	}
	d.SetInt64(boolToInt64(re.MatchString(val)))
	return d, nil
}

func (b *builtinRegexpSig) compile(c *compiler, args []evalStep) (evalStep, error) {
	subject := args[0]
	if b.memorized != nil {
		idx := c.registerState(b.memorized)
		return func(row []types.Datum) (d types.Datum, err error) {
			val, isNull, err := runString(subject, row)
			if isNull || err != nil {
				return d, err
			}
			return c.state(idx).(*memoizedMatcher).match(val)
		}, nil
	}
	pattern := args[1]
	return func(row []types.Datum) (d types.Datum, err error) {
		val, isNull, err := runString(subject, row)
		if isNull || err != nil {
			return d, err
		}
		pat, isNull, err := runString(pattern, row)
		if isNull || err != nil {
			return d, err
		}
		re, err := compileRegexpMatcher(pat)
		if err != nil {
			return d, errors.Trace(err)
		}
		d.SetInt64(boolToInt64(re.MatchString(val)))
		return d, nil
	}, nil
}
