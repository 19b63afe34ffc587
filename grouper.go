package ember

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// GROUPER AND REDUCERS
// ═══════════════════════════════════════════════════════════════════════════════
// GROUPBY collects rows sharing the same key tuple and reduces each group
// down to one output row, with one column per reducer. The Reducer interface is
// intentionally small — Add/Finalize — so new reducers compose without the
// grouper needing to know about them, mirroring the open reducer registry
// original_source/src/aggregate/aggregate.h's pipeline request parsing
// draws from (COUNT, COUNT_DISTINCT, SUM, AVG, MIN, MAX, TOLIST,
// FIRST_VALUE).
// ═══════════════════════════════════════════════════════════════════════════════

// Reducer accumulates one output column across every row of a group.
type Reducer interface {
	Add(row *Row)
	Finalize() Value
	Name() string
}

// GroupStep is an AggregateStep that groups rows by a field tuple and
// applies one or more reducer factories per group.
type GroupStep struct {
	By        []string
	Reducers  []func() Reducer
	OutNames  []string
}

func (g *GroupStep) Build(upstream ResultProcessor, spec *IndexSpec) ResultProcessor {
	return &rpGrouper{upstream: upstream, step: g}
}

type rpGrouper struct {
	upstream ResultProcessor
	step     *GroupStep

	groups  map[string][]Reducer
	order   []string
	keys    map[string][]Value
	pos     int
	built   bool
}

func (g *rpGrouper) groupKey(row *Row) (string, []Value) {
	keyVals := make([]Value, len(g.step.By))
	var sb []byte
	for i, field := range g.step.By {
		v, _ := row.Get(field)
		keyVals[i] = v
		sb = append(sb, []byte(v.String())...)
		sb = append(sb, 0)
	}
	return string(sb), keyVals
}

func (g *rpGrouper) build() error {
	g.groups = make(map[string][]Reducer)
	g.keys = make(map[string][]Value)
	for {
		row, err := g.upstream.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		key, keyVals := g.groupKey(row)
		reducers, ok := g.groups[key]
		if !ok {
			reducers = make([]Reducer, len(g.step.Reducers))
			for i, factory := range g.step.Reducers {
				reducers[i] = factory()
			}
			g.groups[key] = reducers
			g.keys[key] = keyVals
			g.order = append(g.order, key)
		}
		for _, r := range reducers {
			r.Add(row)
		}
	}
	g.built = true
	return nil
}

func (g *rpGrouper) Next() (*Row, error) {
	if !g.built {
		if err := g.build(); err != nil {
			return nil, err
		}
	}
	if g.pos >= len(g.order) {
		return nil, nil
	}
	key := g.order[g.pos]
	g.pos++
	row := NewRow(0, 0)
	for i, field := range g.step.By {
		row.Set(field, g.keys[key][i])
	}
	for i, r := range g.groups[key] {
		name := r.Name()
		if i < len(g.step.OutNames) && g.step.OutNames[i] != "" {
			name = g.step.OutNames[i]
		}
		row.Set(name, r.Finalize())
	}
	return row, nil
}

// ─── concrete reducers ──────────────────────────────────────────────────────

type countReducer struct{ n int64 }

func NewCountReducer() Reducer { return &countReducer{} }
func (r *countReducer) Add(*Row)       { r.n++ }
func (r *countReducer) Finalize() Value { return Int(r.n) }
func (r *countReducer) Name() string    { return "count" }

type countDistinctReducer struct {
	field string
	seen  map[string]struct{}
}

func NewCountDistinctReducer(field string) func() Reducer {
	return func() Reducer { return &countDistinctReducer{field: field, seen: make(map[string]struct{})} }
}
func (r *countDistinctReducer) Add(row *Row) {
	if v, ok := row.Get(r.field); ok {
		r.seen[v.String()] = struct{}{}
	}
}
func (r *countDistinctReducer) Finalize() Value { return Int(int64(len(r.seen))) }
func (r *countDistinctReducer) Name() string    { return "count_distinct_" + r.field }

type sumReducer struct {
	field string
	total float64
}

func NewSumReducer(field string) func() Reducer {
	return func() Reducer { return &sumReducer{field: field} }
}
func (r *sumReducer) Add(row *Row) { r.total += numericFieldValue(row, r.field) }
func (r *sumReducer) Finalize() Value { return Double(r.total) }
func (r *sumReducer) Name() string    { return "sum_" + r.field }

type avgReducer struct {
	field string
	total float64
	n     int64
}

func NewAvgReducer(field string) func() Reducer {
	return func() Reducer { return &avgReducer{field: field} }
}
func (r *avgReducer) Add(row *Row) {
	r.total += numericFieldValue(row, r.field)
	r.n++
}
func (r *avgReducer) Finalize() Value {
	if r.n == 0 {
		return Double(0)
	}
	return Double(r.total / float64(r.n))
}
func (r *avgReducer) Name() string { return "avg_" + r.field }

type minMaxReducer struct {
	field   string
	wantMax bool
	val     float64
	seen    bool
}

func NewMinReducer(field string) func() Reducer {
	return func() Reducer { return &minMaxReducer{field: field} }
}
func NewMaxReducer(field string) func() Reducer {
	return func() Reducer { return &minMaxReducer{field: field, wantMax: true} }
}
func (r *minMaxReducer) Add(row *Row) {
	v := numericFieldValue(row, r.field)
	if !r.seen || (r.wantMax && v > r.val) || (!r.wantMax && v < r.val) {
		r.val, r.seen = v, true
	}
}
func (r *minMaxReducer) Finalize() Value { return Double(r.val) }
func (r *minMaxReducer) Name() string {
	if r.wantMax {
		return "max_" + r.field
	}
	return "min_" + r.field
}

type toListReducer struct {
	field string
	vals  []Value
	seen  map[string]struct{}
}

func NewToListReducer(field string) func() Reducer {
	return func() Reducer { return &toListReducer{field: field, seen: make(map[string]struct{})} }
}
func (r *toListReducer) Add(row *Row) {
	v, ok := row.Get(r.field)
	if !ok {
		return
	}
	key := v.String()
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	r.vals = append(r.vals, v)
}
func (r *toListReducer) Finalize() Value {
	sort.Slice(r.vals, func(i, j int) bool { return r.vals[i].String() < r.vals[j].String() })
	return Array(r.vals...)
}
func (r *toListReducer) Name() string { return "tolist_" + r.field }

type firstValueReducer struct {
	field string
	val   Value
	seen  bool
}

func NewFirstValueReducer(field string) func() Reducer {
	return func() Reducer { return &firstValueReducer{field: field} }
}
func (r *firstValueReducer) Add(row *Row) {
	if r.seen {
		return
	}
	if v, ok := row.Get(r.field); ok {
		r.val, r.seen = v, true
	}
}
func (r *firstValueReducer) Finalize() Value { return r.val }
func (r *firstValueReducer) Name() string    { return "first_" + r.field }

func numericFieldValue(row *Row, field string) float64 {
	v, ok := row.Get(field)
	if !ok {
		return 0
	}
	switch v.Kind {
	case KindInt:
		return float64(v.Int)
	case KindDouble:
		return v.Double
	default:
		return 0
	}
}
