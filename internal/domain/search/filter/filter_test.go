package filter

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
)

func mustField(t *testing.T, name string) field.Field {
	t.Helper()
	f, ok := field.Lookup(name)
	if !ok {
		t.Fatalf("unknown field %q", name)
	}
	return f
}

func mustNumber(t *testing.T, s string) Literal {
	t.Helper()
	l, err := ParseNumber(s)
	if err != nil {
		t.Fatalf("ParseNumber(%q): %v", s, err)
	}
	return l
}

// --- Operator parsing ---

func TestParseOperator(t *testing.T) {
	tests := []struct {
		in   string
		want Operator
		ok   bool
	}{
		{"=", Eq, true},
		{"!=", NotEq, true},
		{"in", In, true},
		{"not  in", NotIn, true},
		{" NOT IN ", NotIn, true},
		{"like", Like, true},
		{"between", Between, true},
		{">=", Gte, true},
		{"<>", "", false},
		{"", "", false},
		{"; DROP", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseOperator(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseOperator(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseGroupOperator(t *testing.T) {
	for _, s := range []string{"and", "OR", " Not "} {
		if _, ok := ParseGroupOperator(s); !ok {
			t.Errorf("ParseGroupOperator(%q) should succeed", s)
		}
	}
	if _, ok := ParseGroupOperator("XOR"); ok {
		t.Error("XOR should be rejected")
	}
}

// --- Condition arity ---

func TestNewCondition_Scalar(t *testing.T) {
	c, err := NewCondition(mustField(t, field.TechName), Eq, Scalar(String("React")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Shape() != ShapeScalar {
		t.Errorf("shape = %v", c.Shape())
	}
	if !reflect.DeepEqual(c.Args(), []any{"React"}) {
		t.Errorf("args = %v", c.Args())
	}
}

func TestNewCondition_ScalarRejectsList(t *testing.T) {
	for _, op := range []Operator{Eq, NotEq, Gt, Lt, Gte, Lte, Like} {
		_, err := NewCondition(mustField(t, field.Country), op, List(String("US")))
		if err == nil {
			t.Errorf("%s: expected error for list value", op)
		}
	}
}

func TestNewCondition_InWrapsScalar(t *testing.T) {
	c, err := NewCondition(mustField(t, field.Country), In, Scalar(String("US")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Shape() != ShapeList {
		t.Errorf("shape = %v, want list", c.Shape())
	}
	if !reflect.DeepEqual(c.Args(), []any{"US"}) {
		t.Errorf("args = %v", c.Args())
	}
}

func TestNewCondition_InKeepsOrder(t *testing.T) {
	c, err := NewCondition(mustField(t, field.Country), NotIn, List(String("US"), String("CA"), String("MX")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(c.Args(), []any{"US", "CA", "MX"}) {
		t.Errorf("args = %v", c.Args())
	}
}

func TestNewCondition_InEmptyList(t *testing.T) {
	_, err := NewCondition(mustField(t, field.Country), In, List())
	if err == nil {
		t.Fatal("expected error for empty IN list")
	}
	if !strings.Contains(err.Error(), "at least one") {
		t.Errorf("error = %q", err)
	}
}

func TestNewCondition_Between(t *testing.T) {
	f := mustField(t, field.Spend)
	c, err := NewCondition(f, Between, List(mustNumber(t, "500"), mustNumber(t, "100")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// No implicit min/max reordering.
	if !reflect.DeepEqual(c.Args(), []any{int64(500), int64(100)}) {
		t.Errorf("args = %v", c.Args())
	}
	if c.Shape() != ShapeRange {
		t.Errorf("shape = %v", c.Shape())
	}

	c, err = NewCondition(f, Between, Range(Number(1), Number(2)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(c.Args(), []any{int64(1), int64(2)}) {
		t.Errorf("args = %v", c.Args())
	}
}

func TestNewCondition_BetweenArity(t *testing.T) {
	f := mustField(t, field.Spend)
	tests := []struct {
		name string
		v    Value
	}{
		{"scalar", Scalar(Number(1))},
		{"one", List(Number(1))},
		{"three", List(Number(1), Number(2), Number(3))},
		{"zero value", Value{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCondition(f, Between, tt.v); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewCondition_Like(t *testing.T) {
	c, err := NewCondition(mustField(t, field.CompanyName), Like, Scalar(String("acme")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(c.Args(), []any{"%acme%"}) {
		t.Errorf("args = %v", c.Args())
	}
}

// --- Kind coercion ---

func TestNewCondition_IntegerField(t *testing.T) {
	f := mustField(t, field.Spend)
	tests := []struct {
		name    string
		lit     Literal
		want    any
		wantErr bool
	}{
		{"number", Number(1500), int64(1500), false},
		{"numeric string", String(" 42 "), int64(42), false},
		{"exponent", mustNumber(t, "1e3"), int64(1000), false},
		{"fraction", Number(1.5), nil, true},
		{"text", String("abc"), nil, true},
		{"empty", String(""), nil, true},
		{"huge", mustNumber(t, "1e30"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCondition(f, Gt, Scalar(tt.lit))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got args %v", c.Args())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Args()[0] != tt.want {
				t.Errorf("arg = %#v, want %#v", c.Args()[0], tt.want)
			}
		})
	}
}

func TestNewCondition_DateField(t *testing.T) {
	f := mustField(t, field.FirstIndexed)
	if _, err := NewCondition(f, Gte, Scalar(String("2023-01-31"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewCondition(f, Gte, Scalar(String("31/01/2023"))); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if _, err := NewCondition(f, Gte, Scalar(Number(20230131))); err == nil {
		t.Error("expected error for numeric date")
	}
}

func TestNewCondition_LikeOnDateFragment(t *testing.T) {
	f := mustField(t, field.FirstIndexed)
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"year and month", Scalar(String("2024-05")), "%2024-05%"},
		{"year as number", Scalar(Number(2024)), "%2024%"},
		{"full date", Scalar(String(" 2024-05-01 ")), "%2024-05-01%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCondition(f, Like, tt.v)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Args()[0] != tt.want {
				t.Errorf("arg = %#v, want %#v", c.Args()[0], tt.want)
			}
		})
	}

	if _, err := NewCondition(f, Eq, Scalar(String("2024-05"))); err == nil {
		t.Error("expected error for partial date outside LIKE")
	}
}

func TestNewCondition_YesNoField(t *testing.T) {
	f := mustField(t, field.Premium)
	c, err := NewCondition(f, Eq, Scalar(String("yes")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Args()[0] != "Yes" {
		t.Errorf("arg = %v, want Yes", c.Args()[0])
	}
	if _, err := NewCondition(f, Eq, Scalar(String("maybe"))); err == nil {
		t.Error("expected error for non yes/no value")
	}
	if _, err := NewCondition(f, Gt, Scalar(String("Yes"))); err == nil {
		t.Error("expected error for ordering operator on yes/no field")
	}
	if _, err := NewCondition(f, Like, Scalar(String("Y"))); err == nil {
		t.Error("expected error for LIKE on yes/no field")
	}
}

func TestNewCondition_TextAcceptsNumbers(t *testing.T) {
	c, err := NewCondition(mustField(t, field.PostalCode), Eq, Scalar(mustNumber(t, "90210")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Args()[0] != "90210" {
		t.Errorf("arg = %#v", c.Args()[0])
	}
}

func TestNewCondition_LikeOnInteger(t *testing.T) {
	if _, err := NewCondition(mustField(t, field.Spend), Like, Scalar(Number(1))); err == nil {
		t.Fatal("expected error for LIKE on integer field")
	}
}

func TestNewCondition_ZeroField(t *testing.T) {
	if _, err := NewCondition(field.Field{}, Eq, Scalar(String("x"))); err == nil {
		t.Fatal("expected error for zero field")
	}
}

func TestCondition_ArgsIsCopy(t *testing.T) {
	c, _ := NewCondition(mustField(t, field.Country), In, List(String("US"), String("CA")))
	args := c.Args()
	args[0] = "XX"
	if c.Args()[0] != "US" {
		t.Error("Args() must return a copy")
	}
}

// --- Groups ---

func TestNewGroup(t *testing.T) {
	c, _ := NewCondition(mustField(t, field.Country), Eq, Scalar(String("US")))
	inner, err := NewGroup(Or, c, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := NewGroup(And, c, inner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Operator() != And || len(g.Children()) != 2 {
		t.Errorf("unexpected group %+v", g)
	}
	if g.Size() != 5 {
		t.Errorf("Size() = %d, want 5", g.Size())
	}
}

func TestNewGroup_Invalid(t *testing.T) {
	if _, err := NewGroup("XOR"); err == nil {
		t.Error("expected error for bad operator")
	}
	if _, err := NewGroup(And, Condition{}); err == nil {
		t.Error("expected error for zero condition")
	}
	if _, err := NewGroup(And, Group{}); err == nil {
		t.Error("expected error for zero group")
	}
}

func TestNewGroup_ChildrenCopied(t *testing.T) {
	c, _ := NewCondition(mustField(t, field.Country), Eq, Scalar(String("US")))
	children := []Node{c}
	g, _ := NewGroup(And, children...)
	children[0] = Empty()
	if _, ok := g.Children()[0].(Condition); !ok {
		t.Error("group must not alias the caller's slice")
	}
}

func TestEmpty(t *testing.T) {
	g := Empty()
	if !g.IsEmpty() || g.Operator() != And {
		t.Errorf("unexpected empty group %+v", g)
	}
	if (Group{}).Operator() != And {
		t.Error("zero group should report AND")
	}
}

func TestOperatorsFor(t *testing.T) {
	tests := []struct {
		kind field.Kind
		want []Operator
	}{
		{field.Text, []Operator{Eq, NotEq, In, NotIn, Like, Gt, Lt, Gte, Lte, Between}},
		{field.Integer, []Operator{Eq, NotEq, In, NotIn, Gt, Lt, Gte, Lte, Between}},
		{field.YesNo, []Operator{Eq, NotEq, In, NotIn}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := OperatorsFor(tt.kind); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("OperatorsFor(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}
