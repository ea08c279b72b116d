// Package cartocss implements a CartoCSS-like cascading stylesheet language
// for vector-tile maps: value/color types, an expression AST with partial
// evaluation, three-valued selector predicates, a stylesheet parser, a
// specificity-based cascade compiler, and a translator into Mapnik-style
// symbolizer rules.
package cartocss

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindColor
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindColor:
		return "color"
	case KindString:
		return "string"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a tagged union over {null, bool, int, float, Color, string,
// list-of-Value}, represented as an explicit kind tag plus associated
// data.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	c    Color
	s    string
	list []Value
}

// Null is the zero Value.
var Null = Value{}

func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func ColorVal(c Color) Value { return Value{kind: KindColor, c: c} }
func Str(s string) Value    { return Value{kind: KindString, s: s} }
func List(vs []Value) Value { return Value{kind: KindList, list: vs} }

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) Bool() bool       { return v.b }
func (v Value) Int() int64       { return v.i }
func (v Value) Color() Color     { return v.c }
func (v Value) Str() string      { return v.s }
func (v Value) List() []Value    { return v.list }

// Float64 returns the numeric value, promoting an int to float.
func (v Value) Float64() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}

// String renders the value the way CartoCSS stringifies it inside string
// concatenation and the url() function.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindColor:
		return v.c.String()
	case KindString:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("<value kind=%d>", v.kind)
	}
}

// Equal implements per-variant equality; cross-variant equality (other than
// the int/float numeric promotion) is always false.
func (v Value) Equal(o Value) bool {
	switch {
	case v.kind == o.kind:
		switch v.kind {
		case KindNull:
			return true
		case KindBool:
			return v.b == o.b
		case KindInt:
			return v.i == o.i
		case KindFloat:
			return v.f == o.f
		case KindColor:
			return v.c == o.c
		case KindString:
			return v.s == o.s
		case KindList:
			if len(v.list) != len(o.list) {
				return false
			}
			for i := range v.list {
				if !v.list[i].Equal(o.list[i]) {
					return false
				}
			}
			return true
		}
	case v.kind == KindInt && o.kind == KindFloat:
		return float64(v.i) == o.f
	case v.kind == KindFloat && o.kind == KindInt:
		return v.f == float64(o.i)
	}
	return false
}

// isNumeric reports whether the value is an int or float.
func (v Value) isNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }
