package filter

import (
	"fmt"
	"strconv"
)

// Literal is a single user-supplied value: a string or a number.
// Numbers keep their decimal text so integers never pass through float64.
type Literal struct {
	text  string
	isNum bool
}

// String creates a text literal.
func String(s string) Literal { return Literal{text: s} }

// Number creates a numeric literal.
func Number(f float64) Literal {
	return Literal{text: strconv.FormatFloat(f, 'f', -1, 64), isNum: true}
}

// ParseNumber creates a numeric literal from its decimal text (e.g. a json.Number).
func ParseNumber(s string) (Literal, error) {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return Literal{}, fmt.Errorf("invalid number %q", s)
	}
	return Literal{text: s, isNum: true}, nil
}

// IsNumber reports whether the literal was supplied as a number.
func (l Literal) IsNumber() bool { return l.isNum }

// Text returns the literal's textual form.
func (l Literal) Text() string { return l.text }

// Shape is the arity class of a condition value.
type Shape int

// Value shapes.
const (
	ShapeScalar Shape = iota + 1
	ShapeRange
	ShapeList
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeRange:
		return "range"
	case ShapeList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is the tagged variant Scalar | Range | List.
type Value struct {
	shape Shape
	items []Literal
}

// Scalar wraps a single literal.
func Scalar(l Literal) Value { return Value{shape: ShapeScalar, items: []Literal{l}} }

// Range wraps an ordered [start, end] pair. The pair is kept as given.
func Range(start, end Literal) Value { return Value{shape: ShapeRange, items: []Literal{start, end}} }

// List wraps an ordered list of literals.
func List(items ...Literal) Value {
	cp := make([]Literal, len(items))
	copy(cp, items)
	return Value{shape: ShapeList, items: cp}
}

// Shape returns the arity class.
func (v Value) Shape() Shape { return v.shape }

// Items returns a copy of the literals in order.
func (v Value) Items() []Literal {
	cp := make([]Literal, len(v.items))
	copy(cp, v.items)
	return cp
}

// Len returns the number of literals.
func (v Value) Len() int { return len(v.items) }
