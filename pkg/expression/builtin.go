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

	"github.com/docete/spark/pkg/parser/ast"
	"github.com/docete/spark/pkg/types"
)

// baseBuiltinFunc is contained in every struct that implements the
// builtinFunc interface.
type baseBuiltinFunc struct {
	args []Expression
	tp   *types.FieldType
}

func newBaseBuiltinFunc(args []Expression, tp *types.FieldType) baseBuiltinFunc {
	return baseBuiltinFunc{args: args, tp: tp}
}

func (b *baseBuiltinFunc) getArgs() []Expression {
	return b.args
}

func (b *baseBuiltinFunc) getRetTp() *types.FieldType {
	return b.tp
}

// evalStringArg evaluates the idx-th argument for row and unwraps it as a
// string together with its null flag.
func (b *baseBuiltinFunc) evalStringArg(idx int, row []types.Datum) (string, bool, error) {
	d, err := b.args[idx].Eval(row)
	if err != nil {
		return "", false, errors.Trace(err)
	}
	if d.IsNull() {
		return "", true, nil
	}
	return d.GetString(), false, nil
}

// evalIntArg evaluates the idx-th argument for row and unwraps it as an
// int64 together with its null flag.
func (b *baseBuiltinFunc) evalIntArg(idx int, row []types.Datum) (int64, bool, error) {
	d, err := b.args[idx].Eval(row)
	if err != nil {
		return 0, false, errors.Trace(err)
	}
	if d.IsNull() {
		return 0, true, nil
	}
	return d.GetInt64(), false, nil
}

// equal only checks the arguments. The function name is checked by
// ScalarFunction.Equal.
func (b *baseBuiltinFunc) equal(fun builtinFunc) bool {
	funArgs := fun.getArgs()
	if len(funArgs) != len(b.args) {
		return false
	}
	for i := range b.args {
		if !b.args[i].Equal(funArgs[i]) {
			return false
		}
	}
	return true
}

// cloneFrom deep-copies the shared parts of a signature. Callers copy any
// immutable memoized state themselves; mutable scratch caches always start
// empty in the clone so they never cross evaluation streams.
func (b *baseBuiltinFunc) cloneFrom(from *baseBuiltinFunc) {
	b.args = make([]Expression, 0, len(from.args))
	for _, arg := range from.args {
		b.args = append(b.args, arg.Clone())
	}
	b.tp = from.tp.Clone()
}

// builtinFunc stands for a particular function signature.
type builtinFunc interface {
	// eval does interpreted evaluation for the given row.
	eval(row []types.Datum) (types.Datum, error)
	// compile assembles the signature's compiled-execution step. args are
	// the already-compiled operand steps; state initialized during
	// assembly is registered with c so it lives outside the per-row loop.
	compile(c *compiler, args []evalStep) (evalStep, error)
	// getArgs returns the argument expressions.
	getArgs() []Expression
	// getRetTp returns the signature's result type.
	getRetTp() *types.FieldType
	// equal checks if this function equals another function.
	equal(builtinFunc) bool
	// clone copies the signature for another evaluation stream.
	clone() builtinFunc
}

// baseFunctionClass is contained in every struct that implements the
// functionClass interface.
type baseFunctionClass struct {
	funcName string
	minArgs  int
	maxArgs  int
}

func (b *baseFunctionClass) verifyArgs(args []Expression) error {
	l := len(args)
	if l < b.minArgs || (b.maxArgs != -1 && l > b.maxArgs) {
		return errors.Annotatef(errIncorrectParameterCount, "function %s", b.funcName)
	}
	return nil
}

// functionClass builds a validated signature from argument expressions.
// All plan-time checks happen here, before any row is processed.
type functionClass interface {
	getFunction(args []Expression) (builtinFunc, error)
}

// funcs holds all registered builtin functions.
var funcs = map[string]functionClass{
	ast.Like:  &likeFunctionClass{baseFunctionClass{ast.Like, 2, 3}, false},
	ast.Ilike: &likeFunctionClass{baseFunctionClass{ast.Ilike, 2, 3}, true},

	// RLIKE and REGEXP are the same operator under two spellings.
	ast.RLike:  &rlikeFunctionClass{baseFunctionClass{ast.RLike, 2, 2}},
	ast.Regexp: &rlikeFunctionClass{baseFunctionClass{ast.Regexp, 2, 2}},

	ast.Split:            &splitFunctionClass{baseFunctionClass{ast.Split, 2, 3}},
	ast.RegexpReplace:    &regexpReplaceFunctionClass{baseFunctionClass{ast.RegexpReplace, 3, 3}},
	ast.RegexpExtract:    &regexpExtractFunctionClass{baseFunctionClass{ast.RegexpExtract, 2, 3}},
	ast.RegexpExtractAll: &regexpExtractAllFunctionClass{baseFunctionClass{ast.RegexpExtractAll, 2, 3}},
	ast.RegexpInstr:      &regexpInstrFunctionClass{baseFunctionClass{ast.RegexpInstr, 2, 2}},
	ast.RegexpCount:      &regexpCountFunctionClass{baseFunctionClass{ast.RegexpCount, 2, 2}},
	ast.RegexpSubstr:     &regexpSubstrFunctionClass{baseFunctionClass{ast.RegexpSubstr, 2, 2}},
}

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
