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

import "fmt"

// Kind constants for Datum. Boolean results are carried as KindInt64 with
// the values 0 and 1; the static type is still TypeBoolean.
const (
	KindNull byte = iota
	KindInt64
	KindString
	KindStringSlice
)

// Datum is a single runtime value together with its null flag. The zero
// Datum is the null value.
type Datum struct {
	k  byte
	i  int64
	s  string
	ss []string
}

// Kind returns the kind of the datum.
func (d *Datum) Kind() byte {
	return d.k
}

// IsNull reports whether the datum is the null value.
func (d *Datum) IsNull() bool {
	return d.k == KindNull
}

// GetInt64 gets the int64 value. The caller must know the datum holds one.
func (d *Datum) GetInt64() int64 {
	return d.i
}

// SetInt64 sets the datum to an int64 value.
func (d *Datum) SetInt64(i int64) {
	d.k = KindInt64
	d.i = i
}

// GetString gets the string value.
func (d *Datum) GetString() string {
	return d.s
}

// SetString sets the datum to a string value.
func (d *Datum) SetString(s string) {
	d.k = KindString
	d.s = s
}

// GetStringSlice gets the []string value.
func (d *Datum) GetStringSlice() []string {
	return d.ss
}

// SetStringSlice sets the datum to a []string value.
func (d *Datum) SetStringSlice(ss []string) {
	d.k = KindStringSlice
	d.ss = ss
}

// SetNull resets the datum to the null value.
func (d *Datum) SetNull() {
	*d = Datum{}
}

// GetValue returns the held value boxed in an interface, or nil for null.
func (d *Datum) GetValue() any {
	switch d.k {
	case KindInt64:
		return d.i
	case KindString:
		return d.s
	case KindStringSlice:
		return d.ss
	default:
		return nil
	}
}

// SetValue sets the datum from a Go value. It panics on unsupported types;
// values reach this layer already validated by the type checker.
func (d *Datum) SetValue(val any) {
	switch x := val.(type) {
	case nil:
		d.SetNull()
	case bool:
		if x {
			d.SetInt64(1)
		} else {
			d.SetInt64(0)
		}
	case int:
		d.SetInt64(int64(x))
	case int64:
		d.SetInt64(x)
	case string:
		d.SetString(x)
	case []string:
		d.SetStringSlice(x)
	default:
		panic(fmt.Sprintf("unsupported datum value type %T", val))
	}
}

// NewDatum creates a new Datum from a Go value.
func NewDatum(val any) (d Datum) {
	d.SetValue(val)
	return d
}

// NewIntDatum creates a new Datum from an int64 value.
func NewIntDatum(i int64) (d Datum) {
	d.SetInt64(i)
	return d
}

// NewStringDatum creates a new Datum from a string value.
func NewStringDatum(s string) (d Datum) {
	d.SetString(s)
	return d
}

// NewStringSliceDatum creates a new Datum from a []string value.
func NewStringSliceDatum(ss []string) (d Datum) {
	d.SetStringSlice(ss)
	return d
}
