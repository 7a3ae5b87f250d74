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

package types

// Static type tags. TypeBoolean values are represented at runtime as
// KindInt64 datums holding 0 or 1.
const (
	TypeUnspecified byte = iota
	TypeBoolean
	TypeLonglong
	TypeString
	TypeStringArray
)

// NotNullFlag marks a field that can never hold the null value. None of
// the pattern-matching operators set it: any null operand makes their
// result null.
const NotNullFlag uint = 1

// FieldType describes the static type of an expression.
type FieldType struct {
	Tp   byte
	Flag uint
}

// NewFieldType creates a FieldType with the given type tag.
func NewFieldType(tp byte) *FieldType {
	return &FieldType{Tp: tp}
}

// Nullable reports whether values of this type may be null.
func (ft *FieldType) Nullable() bool {
	return ft.Flag&NotNullFlag == 0
}

// Clone returns a copy of the FieldType.
func (ft *FieldType) Clone() *FieldType {
	ret := *ft
	return &ret
}
