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
	"fmt"

	"github.com/docete/spark/pkg/types"
)

// Expression represents a scalar expression evaluated one row at a time.
//
// Expressions are immutable once built, except for the per-signature
// scratch caches inside ScalarFunction. Those caches tie an instance to a
// single evaluation stream: an Expression must not be evaluated from more
// than one goroutine at a time. Parallel streams evaluate their own
// Clones.
type Expression interface {
	fmt.Stringer

	// Eval evaluates the expression for one row. A null result is a
	// null Datum, not an error.
	Eval(row []types.Datum) (types.Datum, error)

	// GetType returns the static result type.
	GetType() *types.FieldType

	// Clone copies the expression for use by another evaluation stream.
	Clone() Expression

	// Equal checks whether two expressions are structurally equal.
	Equal(e Expression) bool

	// ConstItem reports whether the expression's value is known before
	// any row is processed.
	ConstItem() bool
}

// Column resolves to one slot of the input row.
type Column struct {
	ColName string
	RetType *types.FieldType

	// Index is the slot of the column in the input row.
	Index int
}

// String implements the fmt.Stringer interface.
func (col *Column) String() string {
	if col.ColName != "" {
		return col.ColName
	}
	return fmt.Sprintf("col_%d", col.Index)
}

// Eval implements the Expression interface.
func (col *Column) Eval(row []types.Datum) (types.Datum, error) {
	return row[col.Index], nil
}

// GetType implements the Expression interface.
func (col *Column) GetType() *types.FieldType {
	return col.RetType
}

// Clone implements the Expression interface.
func (col *Column) Clone() Expression {
	newCol := *col
	return &newCol
}

// Equal implements the Expression interface.
func (col *Column) Equal(e Expression) bool {
	other, ok := e.(*Column)
	if !ok {
		return false
	}
	return col.Index == other.Index && col.ColName == other.ColName
}

// ConstItem implements the Expression interface.
func (col *Column) ConstItem() bool {
	return false
}

// Constant holds a value known at plan time.
type Constant struct {
	Value   types.Datum
	RetType *types.FieldType
}

// NewStringConstant creates a Constant holding a string.
func NewStringConstant(s string) *Constant {
	return &Constant{
		Value:   types.NewStringDatum(s),
		RetType: types.NewFieldType(types.TypeString),
	}
}

// NewIntConstant creates a Constant holding an int64.
func NewIntConstant(i int64) *Constant {
	return &Constant{
		Value:   types.NewIntDatum(i),
		RetType: types.NewFieldType(types.TypeLonglong),
	}
}

// NewNullConstant creates a Constant holding the null value of type tp.
func NewNullConstant(tp byte) *Constant {
	return &Constant{
		Value:   types.Datum{},
		RetType: types.NewFieldType(tp),
	}
}

// String implements the fmt.Stringer interface.
func (c *Constant) String() string {
	if c.Value.IsNull() {
		return "NULL"
	}
	return fmt.Sprintf("%v", c.Value.GetValue())
}

// Eval implements the Expression interface.
func (c *Constant) Eval(_ []types.Datum) (types.Datum, error) {
	return c.Value, nil
}

// GetType implements the Expression interface.
func (c *Constant) GetType() *types.FieldType {
	return c.RetType
}

// Clone implements the Expression interface.
func (c *Constant) Clone() Expression {
	con := *c
	return &con
}

// Equal implements the Expression interface.
func (c *Constant) Equal(e Expression) bool {
	other, ok := e.(*Constant)
	if !ok {
		return false
	}
	if c.Value.Kind() != other.Value.Kind() {
		return false
	}
	return fmt.Sprint(c.Value.GetValue()) == fmt.Sprint(other.Value.GetValue())
}

// ConstItem implements the Expression interface.
func (c *Constant) ConstItem() bool {
	return true
}
