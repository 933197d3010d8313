// Package query compiles filter trees into parameterized SQL and assembles
// the page, count and export statements that share one compiled WHERE fragment.
package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/kailas-cloud/techsearch/internal/domain/search/filter"
)

// Compiled is SQL text with positional "?" placeholders and its arguments,
// in placeholder order.
type Compiled struct {
	SQL  string
	Args []any
}

// Placeholders counts the "?" markers in the SQL text.
func (c Compiled) Placeholders() int { return strings.Count(c.SQL, "?") }

// ToSql makes a compiled fragment usable as a squirrel predicate.
func (c Compiled) ToSql() (string, []any, error) { return c.SQL, c.Args, nil }

const sqlTrue = "1=1"

// Condition renders one leaf as a squirrel predicate: "<field> <op> ...".
func Condition(c filter.Condition) (sq.Sqlizer, error) {
	if c.IsZero() {
		return nil, fmt.Errorf("condition is not initialized")
	}
	col := c.Field().Name()
	args := c.Args()

	switch c.Operator() {
	case filter.In, filter.NotIn:
		if len(args) == 0 {
			return nil, fmt.Errorf("field %q: operator %s requires at least one value", col, c.Operator())
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
		return sq.Expr(fmt.Sprintf("%s %s (%s)", col, c.Operator(), marks), args...), nil
	case filter.Between:
		if len(args) != 2 {
			return nil, fmt.Errorf("field %q: operator BETWEEN requires exactly 2 values", col)
		}
		return sq.Expr(col+" BETWEEN ? AND ?", args...), nil
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("field %q: operator %s requires a single value", col, c.Operator())
	}
	switch c.Operator() {
	case filter.Eq:
		return sq.Eq{col: args[0]}, nil
	case filter.NotEq:
		return sq.Expr(col+" != ?", args[0]), nil
	case filter.Gt:
		return sq.Gt{col: args[0]}, nil
	case filter.Lt:
		return sq.Lt{col: args[0]}, nil
	case filter.Gte:
		return sq.GtOrEq{col: args[0]}, nil
	case filter.Lte:
		return sq.LtOrEq{col: args[0]}, nil
	case filter.Like:
		return sq.Like{col: args[0]}, nil
	default:
		return nil, fmt.Errorf("field %q: unsupported operator %q", col, c.Operator())
	}
}

// CompileCondition compiles one leaf into "<field> <op> ..." and its arguments.
func CompileCondition(c filter.Condition) (Compiled, error) {
	pred, err := Condition(c)
	if err != nil {
		return Compiled{}, err
	}
	return render(pred)
}

// CompileGroup compiles a filter tree into a WHERE fragment (without the
// WHERE keyword). The input is never modified; every call returns fresh
// slices, so the result is safe to share across statements.
//
// AND/OR join children with their operator. NOT negates the conjunction
// of its children: NOT (a AND b). Nested groups are parenthesized.
// Groups without conditions anywhere below them are dropped from their
// parent; if nothing is left at the top the fragment is "1=1".
func CompileGroup(g filter.Group) (Compiled, error) {
	pred, err := compileGroup(g)
	if err != nil {
		return Compiled{}, err
	}
	if pred == nil {
		return Compiled{SQL: sqlTrue}, nil
	}
	return render(pred)
}

// compileGroup returns nil when the group holds no condition.
func compileGroup(g filter.Group) (sq.Sqlizer, error) {
	children := g.Children()
	parts := make([]sq.Sqlizer, 0, len(children))
	for i, ch := range children {
		var pred sq.Sqlizer
		var err error
		switch n := ch.(type) {
		case filter.Condition:
			pred, err = Condition(n)
		case filter.Group:
			pred, err = compileGroup(n)
			if pred != nil {
				pred = sq.Expr("(?)", pred)
			}
		default:
			err = fmt.Errorf("unsupported node %T", ch)
		}
		if err != nil {
			return nil, fmt.Errorf("conditions[%d]: %w", i, err)
		}
		if pred != nil {
			parts = append(parts, pred)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}

	j := junction{sep: " AND ", parts: parts}
	switch g.Operator() {
	case filter.Or:
		j.sep = " OR "
	case filter.Not:
		return sq.Expr("NOT (?)", j), nil
	}
	return j, nil
}

// junction joins predicates with sep and no outer parentheses.
type junction struct {
	sep   string
	parts []sq.Sqlizer
}

func (j junction) ToSql() (string, []any, error) {
	sqls := make([]string, 0, len(j.parts))
	var args []any
	for _, p := range j.parts {
		s, a, err := p.ToSql()
		if err != nil {
			return "", nil, err
		}
		sqls = append(sqls, s)
		args = append(args, a...)
	}
	return strings.Join(sqls, j.sep), args, nil
}

func render(pred sq.Sqlizer) (Compiled, error) {
	sql, args, err := pred.ToSql()
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{SQL: sql, Args: append([]any(nil), args...)}, nil
}
