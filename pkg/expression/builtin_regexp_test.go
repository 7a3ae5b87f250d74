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
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"

	"github.com/docete/spark/pkg/parser/ast"
	"github.com/docete/spark/pkg/types"
)

func strRow(vals ...string) []types.Datum {
	row := make([]types.Datum, 0, len(vals))
	for _, v := range vals {
		row = append(row, types.NewStringDatum(v))
	}
	return row
}

func TestSplit(t *testing.T) {
	tests := []struct {
		subject string
		pattern string
		limit   int64
		want    []string
	}{
		{"a,b,c", ",", -1, []string{"a", "b", "c"}},
		{"a,b,c", ",", 0, []string{"a", "b", "c"}},
		{"a,b,c", ",", 2, []string{"a", "b,c"}},
		{"a,b,c", ",", 1, []string{"a,b,c"}},
		{"a,b,c", ",", 10, []string{"a", "b", "c"}},
		// Trailing empty strings are kept when the limit is not positive.
		{"a,b,,", ",", -1, []string{"a", "b", "", ""}},
		{"a,b,,", ",", 3, []string{"a", "b", ","}},
		{"one1two2three", "[0-9]", -1, []string{"one", "two", "three"}},
		{"oneAtwoBthreeC", "[ABC]", -1, []string{"one", "two", "three", ""}},
		{"oneAtwoBthreeC", "[ABC]", 2, []string{"one", "twoBthreeC"}},
		{"oneAtwoBthree", "[AB]", 2, []string{"one", "twoBthree"}},
		{"", ",", -1, []string{""}},
		{"abc", ",", -1, []string{"abc"}},
		{",a,", ",", -1, []string{"", "a", ""}},
	}
	for _, tt := range tests {
		f, err := NewFunction(ast.Split, strCol("s", 0), NewStringConstant(tt.pattern), NewIntConstant(tt.limit))
		require.NoError(t, err)
		d, err := f.Eval([]types.Datum{types.NewStringDatum(tt.subject)})
		require.NoError(t, err)
		require.Equal(t, tt.want, d.GetStringSlice(), "split(%q, %q, %d)", tt.subject, tt.pattern, tt.limit)
	}
}

func TestSplitTwoArgs(t *testing.T) {
	f, err := NewFunction(ast.Split, strCol("s", 0), NewStringConstant(","))
	require.NoError(t, err)
	d, err := f.Eval(strRow("a,b,,"))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "", ""}, d.GetStringSlice())
}

func TestSplitErrorsAndNulls(t *testing.T) {
	f, err := NewFunction(ast.Split, strCol("s", 0), strCol("p", 1))
	require.NoError(t, err)

	_, err = f.Eval(strRow("abc", "("))
	require.Error(t, err)
	require.Equal(t, ErrRegexp, errors.Cause(err))

	d, err := f.Eval([]types.Datum{{}, types.NewStringDatum(",")})
	require.NoError(t, err)
	require.True(t, d.IsNull())

	d, err = f.Eval([]types.Datum{types.NewStringDatum("a,b"), {}})
	require.NoError(t, err)
	require.True(t, d.IsNull())

	g, err := NewFunction(ast.Split, strCol("s", 0), NewStringConstant(","), NewNullConstant(types.TypeLonglong))
	require.NoError(t, err)
	d, err = g.Eval(strRow("a,b"))
	require.NoError(t, err)
	require.True(t, d.IsNull())
}

func TestRegexpReplace(t *testing.T) {
	tests := []struct {
		subject     string
		pattern     string
		replacement string
		want        string
	}{
		{"100-200", `\d+`, "num", "num-num"},
		{"100-200", `(\d+)-(\d+)`, "$2-$1", "200-100"},
		{"100-200", `(\d+)`, "[$1]", "[100]-[200]"},
		{"abc", "b", "$0$0", "abbc"},
		{"abc", "x", "y", "abc"},
		{"", "x", "y", ""},
		{"abc", "", "-", "-a-b-c-"},
		// Backslash escapes the next character.
		{"abc", "b", `\$`, "a$c"},
		{"abc", "b", `\n`, "anc"},
		{"abc", "b", `\\`, `a\c`},
		// An optional group that did not match expands to empty text.
		{"ac", "a(b)?c", "<$1>", "<>"},
		{"日本語", "本", "國", "日國語"},
	}
	for _, tt := range tests {
		f, err := NewFunction(ast.RegexpReplace, strCol("s", 0), NewStringConstant(tt.pattern), NewStringConstant(tt.replacement))
		require.NoError(t, err)
		d, err := f.Eval(strRow(tt.subject))
		require.NoError(t, err)
		require.Equal(t, tt.want, d.GetString(), "regexp_replace(%q, %q, %q)", tt.subject, tt.pattern, tt.replacement)
	}
}

func TestRegexpReplaceInvalidTemplate(t *testing.T) {
	for _, repl := range []string{"$", "a$", "$x", `abc\`} {
		f, err := NewFunction(ast.RegexpReplace, strCol("s", 0), NewStringConstant("a"), NewStringConstant(repl))
		require.NoError(t, err)
		_, err = f.Eval(strRow("abc"))
		require.Error(t, err, "replacement %q", repl)
		require.Equal(t, ErrInvalidReplacement, errors.Cause(err), "replacement %q", repl)
	}
}

func TestRegexpReplaceNullPropagation(t *testing.T) {
	f, err := NewFunction(ast.RegexpReplace, strCol("s", 0), strCol("p", 1), strCol("r", 2))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		row := strRow("abc", "b", "x")
		row[i].SetNull()
		d, err := f.Eval(row)
		require.NoError(t, err)
		require.True(t, d.IsNull(), "null argument %d", i)
	}
}

func TestRegexpExtract(t *testing.T) {
	tests := []struct {
		subject string
		pattern string
		idx     int64
		want    string
	}{
		{"100-200", `(\d+)-(\d+)`, 1, "100"},
		{"100-200", `(\d+)-(\d+)`, 2, "200"},
		{"100-200", `(\d+)-(\d+)`, 0, "100-200"},
		// No match yields empty text, not null.
		{"foo", `(\d+)`, 1, ""},
		// An optional group that did not participate yields empty text.
		{"ac", "(a)(b)?", 2, ""},
		{"a1 b2", `([a-z])(\d)`, 2, "1"},
		{"", "()", 1, ""},
	}
	for _, tt := range tests {
		f, err := NewFunction(ast.RegexpExtract, strCol("s", 0), NewStringConstant(tt.pattern), NewIntConstant(tt.idx))
		require.NoError(t, err)
		d, err := f.Eval(strRow(tt.subject))
		require.NoError(t, err)
		require.False(t, d.IsNull())
		require.Equal(t, tt.want, d.GetString(), "regexp_extract(%q, %q, %d)", tt.subject, tt.pattern, tt.idx)
	}
}

func TestRegexpExtractDefaultIndex(t *testing.T) {
	f, err := NewFunction(ast.RegexpExtract, strCol("s", 0), NewStringConstant(`(\d+)-(\d+)`))
	require.NoError(t, err)
	d, err := f.Eval(strRow("100-200"))
	require.NoError(t, err)
	require.Equal(t, "100", d.GetString())
}

func TestRegexpExtractGroupIndexErrors(t *testing.T) {
	// The index is checked only once a match is found.
	f, err := NewFunction(ast.RegexpExtract, strCol("s", 0), NewStringConstant(`(\d+)`), NewIntConstant(5))
	require.NoError(t, err)

	d, err := f.Eval(strRow("no digits here"))
	require.NoError(t, err)
	require.Equal(t, "", d.GetString())

	_, err = f.Eval(strRow("42"))
	require.Error(t, err)
	require.Equal(t, ErrInvalidGroupIndex, errors.Cause(err))

	g, err := NewFunction(ast.RegexpExtract, strCol("s", 0), NewStringConstant(`(\d+)`), NewIntConstant(-1))
	require.NoError(t, err)
	_, err = g.Eval(strRow("42"))
	require.Error(t, err)
	require.Equal(t, ErrInvalidGroupIndex, errors.Cause(err))
}

func TestRegexpExtractAll(t *testing.T) {
	tests := []struct {
		subject string
		pattern string
		idx     int64
		want    []string
	}{
		{"a1b2c3", `([a-z])(\d)`, 2, []string{"1", "2", "3"}},
		{"a1b2c3", `([a-z])(\d)`, 1, []string{"a", "b", "c"}},
		{"a1b2c3", `[a-z]\d`, 0, []string{"a1", "b2", "c3"}},
		{"no digits", `(\d+)`, 1, []string{}},
		{"ac abc", "a(b)?c", 1, []string{"", "b"}},
	}
	for _, tt := range tests {
		f, err := NewFunction(ast.RegexpExtractAll, strCol("s", 0), NewStringConstant(tt.pattern), NewIntConstant(tt.idx))
		require.NoError(t, err)
		d, err := f.Eval(strRow(tt.subject))
		require.NoError(t, err)
		require.Equal(t, tt.want, d.GetStringSlice(), "regexp_extract_all(%q, %q, %d)", tt.subject, tt.pattern, tt.idx)
	}
}

func TestRegexpInstr(t *testing.T) {
	tests := []struct {
		subject string
		pattern string
		want    int64
	}{
		{"abc", "b", 2},
		{"abc", "^a", 1},
		{"abc", "c$", 3},
		{"abc", "x", 0},
		{"", "x", 0},
		{"abcabc", "bc", 2},
		// Positions count characters, not bytes.
		{"日本語", "語", 3},
		{"héllo", "l", 3},
	}
	for _, tt := range tests {
		f, err := NewFunction(ast.RegexpInstr, strCol("s", 0), NewStringConstant(tt.pattern))
		require.NoError(t, err)
		d, err := f.Eval(strRow(tt.subject))
		require.NoError(t, err)
		require.Equal(t, tt.want, d.GetInt64(), "regexp_instr(%q, %q)", tt.subject, tt.pattern)
	}
}

func TestRegexpCount(t *testing.T) {
	tests := []struct {
		subject string
		pattern string
		want    int64
	}{
		{"aAbA", "[aA]", 3},
		{"abcabc", "abc", 2},
		{"abc", "x", 0},
		{"aaa", "aa", 1},
		{"100-200-300", `\d+`, 3},
	}
	for _, tt := range tests {
		f, err := NewFunction(ast.RegexpCount, strCol("s", 0), NewStringConstant(tt.pattern))
		require.NoError(t, err)
		d, err := f.Eval(strRow(tt.subject))
		require.NoError(t, err)
		require.Equal(t, tt.want, d.GetInt64(), "regexp_count(%q, %q)", tt.subject, tt.pattern)
	}
}

func TestRegexpSubstr(t *testing.T) {
	f, err := NewFunction(ast.RegexpSubstr, strCol("s", 0), NewStringConstant(`\d+`))
	require.NoError(t, err)

	d, err := f.Eval(strRow("100-200"))
	require.NoError(t, err)
	require.Equal(t, "100", d.GetString())

	// No match yields null, unlike regexp_extract.
	d, err = f.Eval(strRow("no digits"))
	require.NoError(t, err)
	require.True(t, d.IsNull())
}

func TestRegexpScratchMemoization(t *testing.T) {
	f, err := NewFunction(ast.RegexpExtract, strCol("s", 0), strCol("p", 1), NewIntConstant(0))
	require.NoError(t, err)
	sig := f.(*ScalarFunction).function.(*builtinRegexpExtractSig)

	eval := func(s, p string) string {
		d, err := f.Eval(strRow(s, p))
		require.NoError(t, err)
		return d.GetString()
	}

	require.Equal(t, "1", eval("a1", `\d`))
	require.Equal(t, "2", eval("b2", `\d`))
	require.Equal(t, "3", eval("c3", `\d`))
	require.Equal(t, 1, sig.scratch.compilations)

	// A different pattern value invalidates the memo.
	require.Equal(t, "b", eval("b2", `[a-z]`))
	require.Equal(t, 2, sig.scratch.compilations)

	// Returning to the first pattern compiles again: only the last value
	// is remembered.
	require.Equal(t, "2", eval("b2", `\d`))
	require.Equal(t, 3, sig.scratch.compilations)
}

func TestRegexpScratchConstPattern(t *testing.T) {
	f, err := NewFunction(ast.RegexpCount, strCol("s", 0), NewStringConstant("a"))
	require.NoError(t, err)
	sig := f.(*ScalarFunction).function.(*builtinRegexpCountSig)

	for _, s := range []string{"abc", "aaa", "xyz"} {
		_, err := f.Eval(strRow(s))
		require.NoError(t, err)
	}
	require.Equal(t, 1, sig.scratch.compilations)
}

func TestRegexpScratchNotSharedByClone(t *testing.T) {
	f, err := NewFunction(ast.RegexpInstr, strCol("s", 0), NewStringConstant("b"))
	require.NoError(t, err)
	_, err = f.Eval(strRow("abc"))
	require.NoError(t, err)
	require.Equal(t, 1, f.(*ScalarFunction).function.(*builtinRegexpInstrSig).scratch.compilations)

	g := f.Clone()
	cloned := g.(*ScalarFunction).function.(*builtinRegexpInstrSig)
	require.Equal(t, 0, cloned.scratch.compilations)

	d, err := g.Eval(strRow("abc"))
	require.NoError(t, err)
	require.Equal(t, int64(2), d.GetInt64())
	require.Equal(t, 1, cloned.scratch.compilations)
}

func TestReplaceTemplateMemoization(t *testing.T) {
	f, err := NewFunction(ast.RegexpReplace, strCol("s", 0), strCol("p", 1), strCol("r", 2))
	require.NoError(t, err)
	sig := f.(*ScalarFunction).function.(*builtinRegexpReplaceSig)

	eval := func(s, p, r string) string {
		d, err := f.Eval(strRow(s, p, r))
		require.NoError(t, err)
		return d.GetString()
	}

	require.Equal(t, "x-x", eval("100-200", `(\d+)`, "x"))
	tmpl := sig.scratch.template
	require.Equal(t, "x", eval("100-200", `(\d+)-(\d+)`, "x"))
	// The pattern changed but the replacement did not, so the prepared
	// template is reused.
	require.Equal(t, tmpl, sig.scratch.template)
	require.Equal(t, 2, sig.scratch.compilations)

	require.Equal(t, "<100>-<200>", eval("100-200", `(\d+)`, "<$1>"))
	require.Equal(t, "<${1}>", sig.scratch.template)
	require.Equal(t, 3, sig.scratch.compilations)
}
