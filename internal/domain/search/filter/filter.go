package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
)

// Operator is a comparison operator of a leaf condition.
type Operator string

// Condition operators.
const (
	Eq      Operator = "="
	NotEq   Operator = "!="
	In      Operator = "IN"
	NotIn   Operator = "NOT IN"
	Like    Operator = "LIKE"
	Gt      Operator = ">"
	Lt      Operator = "<"
	Gte     Operator = ">="
	Lte     Operator = "<="
	Between Operator = "BETWEEN"
)

var operators = map[Operator]struct{}{
	Eq: {}, NotEq: {}, In: {}, NotIn: {}, Like: {}, Gt: {}, Lt: {}, Gte: {}, Lte: {}, Between: {},
}

// ParseOperator normalizes case and inner whitespace ("not  in" -> NOT IN).
func ParseOperator(s string) (Operator, bool) {
	op := Operator(strings.ToUpper(strings.Join(strings.Fields(s), " ")))
	if _, ok := operators[op]; !ok {
		return "", false
	}
	return op, true
}

// IsValid checks if the operator is supported.
func (o Operator) IsValid() bool {
	_, ok := operators[o]
	return ok
}

func (o Operator) isOrdering() bool {
	return o == Gt || o == Lt || o == Gte || o == Lte || o == Between
}

var operatorOrder = []Operator{Eq, NotEq, In, NotIn, Like, Gt, Lt, Gte, Lte, Between}

// OperatorsFor lists the operators a field of the given kind accepts, in display order.
func OperatorsFor(k field.Kind) []Operator {
	out := make([]Operator, 0, len(operatorOrder))
	for _, op := range operatorOrder {
		if op == Like && !k.SupportsLike() {
			continue
		}
		if op.isOrdering() && !k.SupportsOrdering() {
			continue
		}
		out = append(out, op)
	}
	return out
}

// GroupOperator combines the children of a group.
type GroupOperator string

// Group operators.
const (
	And GroupOperator = "AND"
	Or  GroupOperator = "OR"
	// Not negates the conjunction of its children.
	Not GroupOperator = "NOT"
)

// ParseGroupOperator accepts AND, OR and NOT in any case.
func ParseGroupOperator(s string) (GroupOperator, bool) {
	op := GroupOperator(strings.ToUpper(strings.TrimSpace(s)))
	if !op.IsValid() {
		return "", false
	}
	return op, true
}

// IsValid checks if the group operator is supported.
func (o GroupOperator) IsValid() bool {
	return o == And || o == Or || o == Not
}

// Node is either a Condition or a Group.
type Node interface {
	node()
}

// Condition is a validated leaf predicate. Its bound arguments are already
// normalized to the field kind: string for text, date and yes/no, int64 for integer.
type Condition struct {
	field field.Field
	op    Operator
	shape Shape
	args  []any
}

func (Condition) node() {}

// NewCondition checks operator arity and value kind, and normalizes the value.
// A lone scalar given to IN / NOT IN becomes a one-element list.
func NewCondition(f field.Field, op Operator, v Value) (Condition, error) {
	if f.IsZero() {
		return Condition{}, fmt.Errorf("field is required")
	}
	if !op.IsValid() {
		return Condition{}, fmt.Errorf("unsupported operator %q", op)
	}
	if op == Like && !f.Kind().SupportsLike() {
		return Condition{}, fmt.Errorf("operator LIKE is not supported for %s field %q", f.Kind(), f.Name())
	}
	if op.isOrdering() && !f.Kind().SupportsOrdering() {
		return Condition{}, fmt.Errorf("operator %s is not supported for %s field %q", op, f.Kind(), f.Name())
	}

	items, shape, err := shapeFor(op, v)
	if err != nil {
		return Condition{}, fmt.Errorf("field %q: %w", f.Name(), err)
	}

	args := make([]any, len(items))
	for i, l := range items {
		a, err := coerce(f, op, l)
		if err != nil {
			return Condition{}, err
		}
		args[i] = a
	}
	if op == Like {
		args[0] = "%" + args[0].(string) + "%"
	}

	return Condition{field: f, op: op, shape: shape, args: args}, nil
}

func shapeFor(op Operator, v Value) ([]Literal, Shape, error) {
	items := v.Items()
	switch op {
	case In, NotIn:
		switch v.Shape() {
		case ShapeScalar:
			return items, ShapeList, nil
		case ShapeList:
			if len(items) == 0 {
				return nil, 0, fmt.Errorf("operator %s requires at least one value", op)
			}
			return items, ShapeList, nil
		default:
			return nil, 0, fmt.Errorf("operator %s requires a list value, got %s", op, v.Shape())
		}
	case Between:
		if v.Shape() == ShapeScalar || v.Shape() == 0 || len(items) != 2 {
			return nil, 0, fmt.Errorf("operator BETWEEN requires exactly 2 values, got %s of %d", v.Shape(), len(items))
		}
		return items, ShapeRange, nil
	default:
		if v.Shape() != ShapeScalar {
			return nil, 0, fmt.Errorf("operator %s requires a single value, got %s", op, v.Shape())
		}
		return items, ShapeScalar, nil
	}
}

// coerce normalizes one literal to the field kind. LIKE on a date matches a
// fragment such as "2024-05", so only comparisons require a full date.
func coerce(f field.Field, op Operator, l Literal) (any, error) {
	switch f.Kind() {
	case field.Integer:
		return coerceInteger(f, l)
	case field.Date:
		if op == Like {
			return strings.TrimSpace(l.Text()), nil
		}
		if l.IsNumber() {
			return nil, fmt.Errorf("field %q expects a date (YYYY-MM-DD), got number %s", f.Name(), l.Text())
		}
		s := strings.TrimSpace(l.Text())
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return nil, fmt.Errorf("field %q expects a date (YYYY-MM-DD), got %q", f.Name(), l.Text())
		}
		return s, nil
	case field.YesNo:
		switch strings.ToLower(strings.TrimSpace(l.Text())) {
		case "yes":
			return "Yes", nil
		case "no":
			return "No", nil
		}
		return nil, fmt.Errorf("field %q expects \"Yes\" or \"No\", got %q", f.Name(), l.Text())
	default:
		return l.Text(), nil
	}
}

func coerceInteger(f field.Field, l Literal) (any, error) {
	s := strings.TrimSpace(l.Text())
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	fl, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(fl, 0) || math.IsNaN(fl) {
		return nil, fmt.Errorf("field %q expects an integer, got %q", f.Name(), l.Text())
	}
	if fl != math.Trunc(fl) || fl >= math.MaxInt64 || fl < math.MinInt64 {
		return nil, fmt.Errorf("field %q expects an integer, got %s", f.Name(), l.Text())
	}
	return int64(fl), nil
}

// Field returns the catalogue field.
func (c Condition) Field() field.Field { return c.field }

// Operator returns the comparison operator.
func (c Condition) Operator() Operator { return c.op }

// Shape returns the normalized value shape.
func (c Condition) Shape() Shape { return c.shape }

// Args returns a copy of the normalized bound arguments in order.
func (c Condition) Args() []any {
	cp := make([]any, len(c.args))
	copy(cp, c.args)
	return cp
}

// IsZero reports whether c was not built by NewCondition.
func (c Condition) IsZero() bool { return c.field.IsZero() }

// Group is an immutable boolean combination of conditions and groups.
type Group struct {
	op       GroupOperator
	children []Node
}

func (Group) node() {}

// NewGroup validates and creates a Group. Children are copied.
func NewGroup(op GroupOperator, children ...Node) (Group, error) {
	if !op.IsValid() {
		return Group{}, fmt.Errorf("unsupported group operator %q", op)
	}
	cp := make([]Node, len(children))
	for i, ch := range children {
		switch n := ch.(type) {
		case Condition:
			if n.IsZero() {
				return Group{}, fmt.Errorf("child %d: condition is not initialized", i)
			}
		case Group:
			if !n.op.IsValid() {
				return Group{}, fmt.Errorf("child %d: group is not initialized", i)
			}
		default:
			return Group{}, fmt.Errorf("child %d: unsupported node %T", i, ch)
		}
		cp[i] = ch
	}
	return Group{op: op, children: cp}, nil
}

// Empty returns an AND group with no children (matches everything).
func Empty() Group { return Group{op: And} }

// Operator returns the boolean operator.
func (g Group) Operator() GroupOperator {
	if g.op == "" {
		return And
	}
	return g.op
}

// Children returns a copy of the children in order.
func (g Group) Children() []Node {
	cp := make([]Node, len(g.children))
	copy(cp, g.children)
	return cp
}

// IsEmpty reports whether the group has no children.
func (g Group) IsEmpty() bool { return len(g.children) == 0 }

// Size returns the number of nodes in the tree, the group itself included.
func (g Group) Size() int {
	n := 1
	for _, ch := range g.children {
		if sub, ok := ch.(Group); ok {
			n += sub.Size()
		} else {
			n++
		}
	}
	return n
}
