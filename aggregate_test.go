package ember

import "testing"

func TestBinOpArithmetic(t *testing.T) {
	row := rowWith(1, map[string]Value{"a": Double(10), "b": Double(4)})
	cases := []struct {
		op   string
		want float64
	}{
		{"+", 14},
		{"-", 6},
		{"*", 40},
		{"/", 2.5},
	}
	for _, c := range cases {
		expr := BinOp{Op: c.op, Left: FieldRef{Name: "a"}, Right: FieldRef{Name: "b"}}
		v, err := expr.Eval(row)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.op, err)
		}
		if v.Double != c.want {
			t.Fatalf("%s: got %v, want %v", c.op, v.Double, c.want)
		}
	}
}

func TestBinOpDivisionByZero(t *testing.T) {
	row := rowWith(1, map[string]Value{"a": Double(1), "b": Double(0)})
	expr := BinOp{Op: "/", Left: FieldRef{Name: "a"}, Right: FieldRef{Name: "b"}}
	_, err := expr.Eval(row)
	if err == nil || !IsKind(err, Expression) {
		t.Fatalf("expected Expression error on division by zero, got %v", err)
	}
}

func TestBinOpComparison(t *testing.T) {
	row := rowWith(1, map[string]Value{"a": Double(10), "b": Double(4)})
	expr := BinOp{Op: ">", Left: FieldRef{Name: "a"}, Right: FieldRef{Name: "b"}}
	v, err := expr.Eval(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Bool {
		t.Fatalf("expected 10 > 4 to be true")
	}
}

func TestBinOpBoolean(t *testing.T) {
	row := NewRow(1, 0)
	expr := BinOp{Op: "&&", Left: Lit{V: Bool(true)}, Right: Lit{V: Bool(false)}}
	v, err := expr.Eval(row)
	if err != nil || v.Bool {
		t.Fatalf("expected true && false = false, got %v, err=%v", v.Bool, err)
	}
}

func TestBinOpEquality(t *testing.T) {
	row := rowWith(1, map[string]Value{"status": String("ok")})
	expr := BinOp{Op: "==", Left: FieldRef{Name: "status"}, Right: Lit{V: String("ok")}}
	v, err := expr.Eval(row)
	if err != nil || !v.Bool {
		t.Fatalf("expected status == \"ok\" to be true, got %v, err=%v", v, err)
	}
}

func TestFuncCallUpperLower(t *testing.T) {
	row := rowWith(1, map[string]Value{"name": String("Hello")})
	upper := FuncCall{Name: "upper", Args: []Expr{FieldRef{Name: "name"}}}
	v, err := upper.Eval(row)
	if err != nil || v.Str != "HELLO" {
		t.Fatalf("upper() = %q, %v; want HELLO", v.Str, err)
	}
	lower := FuncCall{Name: "lower", Args: []Expr{FieldRef{Name: "name"}}}
	v, err = lower.Eval(row)
	if err != nil || v.Str != "hello" {
		t.Fatalf("lower() = %q, %v; want hello", v.Str, err)
	}
}

func TestFuncCallExists(t *testing.T) {
	row := rowWith(1, map[string]Value{"present": String("x")})
	call := FuncCall{Name: "exists", Args: []Expr{FieldRef{Name: "present"}}}
	v, err := call.Eval(row)
	if err != nil || !v.Bool {
		t.Fatalf("exists(present) = %v, %v; want true", v, err)
	}
	call = FuncCall{Name: "exists", Args: []Expr{FieldRef{Name: "missing"}}}
	v, err = call.Eval(row)
	if err != nil || v.Bool {
		t.Fatalf("exists(missing) = %v, %v; want false", v, err)
	}
}

func TestFuncCallFormat(t *testing.T) {
	row := NewRow(1, 0)
	call := FuncCall{
		Name: "format",
		Args: []Expr{Lit{V: String("%s likes %s")}, Lit{V: String("alice")}, Lit{V: String("go")}},
	}
	v, err := call.Eval(row)
	if err != nil || v.Str != "alice likes go" {
		t.Fatalf("format() = %q, %v; want %q", v.Str, err, "alice likes go")
	}
}

func TestApplyAndFilterSteps(t *testing.T) {
	rows := []*Row{
		rowWith(1, map[string]Value{"price": Double(50)}),
		rowWith(2, map[string]Value{"price": Double(150)}),
	}
	apply := &ApplyStep{Expr: BinOp{Op: "*", Left: FieldRef{Name: "price"}, Right: Lit{V: Double(1.1)}}, As: "with_tax"}
	applied := apply.Build(&fakeResultProcessor{rows: rows}, nil)

	filter := &FilterStep{Expr: BinOp{Op: ">", Left: FieldRef{Name: "with_tax"}, Right: Lit{V: Double(100)}}}
	filtered := filter.Build(applied, nil)

	var got []int
	for {
		row, err := filtered.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if row == nil {
			break
		}
		got = append(got, row.DocID)
	}
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("got %v, want [2]", got)
	}
}
