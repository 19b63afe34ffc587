package ember

import "strings"

// ═══════════════════════════════════════════════════════════════════════════════
// AGGREGATION PLAN
// ═══════════════════════════════════════════════════════════════════════════════
// An AggregatePlan is an ordered list of AggregateSteps (LOAD, APPLY,
// FILTER, GROUPBY, SORTBY, LIMIT) each of which builds its own
// ResultProcessor stage over its upstream, the same Load/Apply/Filter/Group/
// Arrange/Limit pipeline spec.md §4.11 describes. APPLY/FILTER expressions
// are a reduced, Go-native analogue of original_source's expression AST
// (exprast.c): arithmetic, comparison, boolean operators, field references,
// literals, and a handful of functions (upper, lower, format, exists) —
// enough to drive APPLY/FILTER without porting that file's full function
// registry, which is out of scope (spec.md §1: tokenization/stemming/
// pluggable collaborators).
// ═══════════════════════════════════════════════════════════════════════════════

// AggregateStep builds one stage of a result-processor chain.
type AggregateStep interface {
	Build(upstream ResultProcessor, spec *IndexSpec) ResultProcessor
}

// AggregatePlan is an ordered sequence of steps plus cursor chunking.
type AggregatePlan struct {
	Steps     []AggregateStep
	ChunkSize int
}

// ─── LOAD ───────────────────────────────────────────────────────────────────

// LoadStep pulls named fields into each row ahead of APPLY/FILTER/GROUPBY.
type LoadStep struct{ Fields []string }

func (s *LoadStep) Build(upstream ResultProcessor, spec *IndexSpec) ResultProcessor {
	return NewResultsLoader(upstream, spec, s.Fields)
}

// ─── APPLY ──────────────────────────────────────────────────────────────────

// ApplyStep computes Expr and stores it under As in every row.
type ApplyStep struct {
	Expr Expr
	As   string
}

func (s *ApplyStep) Build(upstream ResultProcessor, spec *IndexSpec) ResultProcessor {
	return &rpApply{upstream: upstream, step: s}
}

type rpApply struct {
	upstream ResultProcessor
	step     *ApplyStep
}

func (r *rpApply) Next() (*Row, error) {
	row, err := r.upstream.Next()
	if err != nil || row == nil {
		return row, err
	}
	v, err := r.step.Expr.Eval(row)
	if err != nil {
		return nil, err
	}
	row.Set(r.step.As, v)
	return row, nil
}

// ─── FILTER ─────────────────────────────────────────────────────────────────

// FilterStep drops rows where Expr does not evaluate truthy.
type FilterStep struct{ Expr Expr }

func (s *FilterStep) Build(upstream ResultProcessor, spec *IndexSpec) ResultProcessor {
	return &rpFilter{upstream: upstream, step: s}
}

type rpFilter struct {
	upstream ResultProcessor
	step     *FilterStep
}

func (r *rpFilter) Next() (*Row, error) {
	for {
		row, err := r.upstream.Next()
		if err != nil || row == nil {
			return row, err
		}
		v, err := r.step.Expr.Eval(row)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			return row, nil
		}
	}
}

func truthy(v Value) bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindDouble:
		return v.Double != 0
	case KindString, KindStatus:
		return v.Str != ""
	case KindNull:
		return false
	default:
		return true
	}
}

// ─── LIMIT / SORTBY (aggregate-context wrappers over the core stages) ──────

// LimitStep caps the number of rows an aggregate pipeline passes downstream.
type LimitStep struct{ Offset, Count int }

func (s *LimitStep) Build(upstream ResultProcessor, spec *IndexSpec) ResultProcessor {
	return NewRPPager(upstream, s.Offset, s.Count)
}

// SortByStep orders rows by one or more fields, each independently
// ascending or descending, the Go-native analogue of SORTBY's
// `field ASC|DESC [field ASC|DESC ...]` clause.
type SortByStep struct {
	By  []SortKey
	Max int // 0 means unbounded
}

func (s *SortByStep) Build(upstream ResultProcessor, spec *IndexSpec) ResultProcessor {
	cap := s.Max
	if cap == 0 {
		cap = 1 << 20
	}
	return NewRPSorter(upstream, cap, s.By, spec)
}

// ═══════════════════════════════════════════════════════════════════════════════
// EXPRESSION AST
// ═══════════════════════════════════════════════════════════════════════════════

// Expr is a node of the APPLY/FILTER expression tree.
type Expr interface {
	Eval(row *Row) (Value, error)
}

// Lit is a literal value.
type Lit struct{ V Value }

func (l Lit) Eval(*Row) (Value, error) { return l.V, nil }

// FieldRef reads a named field from the row.
type FieldRef struct{ Name string }

func (f FieldRef) Eval(row *Row) (Value, error) {
	v, ok := row.Get(f.Name)
	if !ok {
		return Null(), nil
	}
	return v, nil
}

// BinOp applies a binary arithmetic, comparison, or boolean operator.
type BinOp struct {
	Op    string // + - * / % == != < <= > >= && ||
	Left  Expr
	Right Expr
}

func (b BinOp) Eval(row *Row) (Value, error) {
	l, err := b.Left.Eval(row)
	if err != nil {
		return Value{}, err
	}
	r, err := b.Right.Eval(row)
	if err != nil {
		return Value{}, err
	}
	switch b.Op {
	case "&&":
		return Bool(truthy(l) && truthy(r)), nil
	case "||":
		return Bool(truthy(l) || truthy(r)), nil
	case "==":
		return Bool(valueEqual(l, r)), nil
	case "!=":
		return Bool(!valueEqual(l, r)), nil
	}
	lf, lok := numericValue(l)
	rf, rok := numericValue(r)
	switch b.Op {
	case "<", "<=", ">", ">=":
		if !lok || !rok {
			return Bool(false), nil
		}
		switch b.Op {
		case "<":
			return Bool(lf < rf), nil
		case "<=":
			return Bool(lf <= rf), nil
		case ">":
			return Bool(lf > rf), nil
		default:
			return Bool(lf >= rf), nil
		}
	case "+", "-", "*", "/", "%":
		if !lok || !rok {
			return Null(), NewError(Expression, "arithmetic on non-numeric value")
		}
		switch b.Op {
		case "+":
			return Double(lf + rf), nil
		case "-":
			return Double(lf - rf), nil
		case "*":
			return Double(lf * rf), nil
		case "/":
			if rf == 0 {
				return Null(), NewError(Expression, "division by zero")
			}
			return Double(lf / rf), nil
		default:
			if rf == 0 {
				return Null(), NewError(Expression, "modulo by zero")
			}
			return Double(float64(int64(lf) % int64(rf))), nil
		}
	}
	return Value{}, NewError(Expression, "unknown operator %q", b.Op)
}

func numericValue(v Value) (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindDouble:
		return v.Double, true
	default:
		return 0, false
	}
}

func valueEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		af, aok := numericValue(a)
		bf, bok := numericValue(b)
		if aok && bok {
			return af == bf
		}
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.Int == b.Int
	case KindDouble:
		return a.Double == b.Double
	case KindString, KindStatus:
		return a.Str == b.Str
	case KindBool:
		return a.Bool == b.Bool
	case KindNull:
		return true
	default:
		return false
	}
}

// FuncCall applies a builtin function (upper, lower, format, exists) to its
// arguments.
type FuncCall struct {
	Name string
	Args []Expr
}

func (f FuncCall) Eval(row *Row) (Value, error) {
	args := make([]Value, len(f.Args))
	for i, a := range f.Args {
		v, err := a.Eval(row)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	switch strings.ToLower(f.Name) {
	case "upper":
		if len(args) != 1 {
			return Value{}, NewError(Expression, "upper() takes 1 argument")
		}
		return String(strings.ToUpper(args[0].String())), nil
	case "lower":
		if len(args) != 1 {
			return Value{}, NewError(Expression, "lower() takes 1 argument")
		}
		return String(strings.ToLower(args[0].String())), nil
	case "format":
		if len(args) == 0 {
			return String(""), nil
		}
		parts := make([]string, 0, len(args))
		for _, a := range args[1:] {
			parts = append(parts, a.String())
		}
		out := args[0].Str
		for _, p := range parts {
			out = strings.Replace(out, "%s", p, 1)
		}
		return String(out), nil
	case "exists":
		if len(args) != 1 {
			return Value{}, NewError(Expression, "exists() takes 1 argument")
		}
		return Bool(args[0].Kind != KindNull), nil
	default:
		return Value{}, NewError(Expression, "unknown function %q", f.Name)
	}
}
