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
	"go.uber.org/zap"

	"github.com/docete/spark/pkg/types"
	"github.com/docete/spark/pkg/util/logutil"
)

// evalStep is the compiled form of one expression node: it produces the
// node's value for the current row. Steps are assembled once per
// execution stream and then run inside the host's row loop.
type evalStep func(row []types.Datum) (types.Datum, error)

// compiler assembles an expression tree into evalSteps. Its state arena
// holds values initialized during assembly that must live outside the
// per-row loop: matchers compiled from foldable patterns and the scratch
// caches owned by the compiled stream.
type compiler struct {
	states []any
}

func (c *compiler) registerState(v any) int {
	c.states = append(c.states, v)
	return len(c.states) - 1
}

func (c *compiler) state(idx int) any {
	return c.states[idx]
}

func (c *compiler) compileExpr(expr Expression) (evalStep, error) {
	switch x := expr.(type) {
	case *Constant:
		v := x.Value
		return func(_ []types.Datum) (types.Datum, error) {
			return v, nil
		}, nil
	case *Column:
		idx := x.Index
		return func(row []types.Datum) (types.Datum, error) {
			return row[idx], nil
		}, nil
	case *ScalarFunction:
		args := make([]evalStep, 0, len(x.GetArgs()))
		for _, arg := range x.GetArgs() {
			step, err := c.compileExpr(arg)
			if err != nil {
				return nil, errors.Trace(err)
			}
			args = append(args, step)
		}
		return x.function.compile(c, args)
	default:
		return nil, errors.Errorf("cannot compile expression of type %T", expr)
	}
}

// CompiledExpr is the executable form of an expression, behaviorally
// identical to interpreted evaluation. It owns scratch state created
// fresh at assembly, so a CompiledExpr is bound to a single evaluation
// stream exactly like the expression it was compiled from.
type CompiledExpr struct {
	expr Expression
	c    *compiler
	run  evalStep
}

// Compile assembles expr for compiled execution. Matchers for foldable
// patterns are materialized here, outside the per-row loop; dynamic
// patterns keep compiling inside their step.
func Compile(expr Expression) (*CompiledExpr, error) {
	c := &compiler{}
	run, err := c.compileExpr(expr)
	if err != nil {
		return nil, errors.Trace(err)
	}
	logutil.BgLogger().Debug("assembled compiled expression",
		zap.String("expr", expr.String()),
		zap.Int("states", len(c.states)))
	return &CompiledExpr{expr: expr, c: c, run: run}, nil
}

// Run evaluates the compiled expression for one row.
func (ce *CompiledExpr) Run(row []types.Datum) (types.Datum, error) {
	return ce.run(row)
}

// String implements the fmt.Stringer interface.
func (ce *CompiledExpr) String() string {
	return ce.expr.String()
}

// stateCount is used by tests to assert what was materialized at
// assembly time.
func (ce *CompiledExpr) stateCount() int {
	return len(ce.c.states)
}

// runString executes a compiled operand step and unwraps its result as a
// string together with its null flag.
func runString(step evalStep, row []types.Datum) (string, bool, error) {
	d, err := step(row)
	if err != nil {
		return "", false, errors.Trace(err)
	}
	if d.IsNull() {
		return "", true, nil
	}
	return d.GetString(), false, nil
}

// runInt executes a compiled operand step and unwraps its result as an
// int64 together with its null flag.
func runInt(step evalStep, row []types.Datum) (int64, bool, error) {
	d, err := step(row)
	if err != nil {
		return 0, false, errors.Trace(err)
	}
	if d.IsNull() {
		return 0, true, nil
	}
	return d.GetInt64(), false, nil
}
