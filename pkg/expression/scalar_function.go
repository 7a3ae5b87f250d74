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
	"strings"

	"github.com/pingcap/errors"

	"github.com/docete/spark/pkg/types"
)

// ScalarFunction is an operator node wrapping a validated builtin
// signature. The signature may own scratch caches, so a ScalarFunction
// belongs to exactly one evaluation stream; see Expression.
type ScalarFunction struct {
	FuncName string
	function builtinFunc
}

// NewFunction looks funcName up in the registry and builds a validated
// signature over args. Plan-time errors (unknown function, wrong argument
// count, invalid escape) are raised here.
func NewFunction(funcName string, args ...Expression) (Expression, error) {
	name := strings.ToLower(funcName)
	fc, ok := funcs[name]
	if !ok {
		return nil, errors.Annotatef(ErrFunctionNotExists, "%s", funcName)
	}
	f, err := fc.getFunction(args)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &ScalarFunction{FuncName: name, function: f}, nil
}

// GetArgs returns the function's argument expressions.
func (sf *ScalarFunction) GetArgs() []Expression {
	return sf.function.getArgs()
}

// String implements the fmt.Stringer interface.
func (sf *ScalarFunction) String() string {
	var sb strings.Builder
	sb.WriteString(sf.FuncName)
	sb.WriteString("(")
	for i, arg := range sf.GetArgs() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(arg.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Eval implements the Expression interface.
func (sf *ScalarFunction) Eval(row []types.Datum) (types.Datum, error) {
	return sf.function.eval(row)
}

// GetType implements the Expression interface.
func (sf *ScalarFunction) GetType() *types.FieldType {
	return sf.function.getRetTp()
}

// Clone implements the Expression interface.
func (sf *ScalarFunction) Clone() Expression {
	return &ScalarFunction{FuncName: sf.FuncName, function: sf.function.clone()}
}

// Equal implements the Expression interface.
func (sf *ScalarFunction) Equal(e Expression) bool {
	other, ok := e.(*ScalarFunction)
	if !ok {
		return false
	}
	if sf.FuncName != other.FuncName {
		return false
	}
	return sf.function.equal(other.function)
}

// ConstItem implements the Expression interface. Pattern-matching
// operators never fold themselves, even over constant operands.
func (sf *ScalarFunction) ConstItem() bool {
	return false
}
