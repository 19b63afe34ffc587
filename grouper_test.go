package ember

import "testing"

// fakeResultProcessor replays a fixed slice of rows, the simplest possible
// upstream for testing a single stage in isolation.
type fakeResultProcessor struct {
	rows []*Row
	pos  int
}

func (f *fakeResultProcessor) Next() (*Row, error) {
	if f.pos >= len(f.rows) {
		return nil, nil
	}
	row := f.rows[f.pos]
	f.pos++
	return row, nil
}

func rowWith(docID int, fields map[string]Value) *Row {
	r := NewRow(docID, 1.0)
	for k, v := range fields {
		r.Set(k, v)
	}
	return r
}

func TestGrouperCountByField(t *testing.T) {
	rows := []*Row{
		rowWith(1, map[string]Value{"category": String("a"), "price": Double(10)}),
		rowWith(2, map[string]Value{"category": String("a"), "price": Double(20)}),
		rowWith(3, map[string]Value{"category": String("b"), "price": Double(5)}),
	}
	step := &GroupStep{
		By:       []string{"category"},
		Reducers: []func() Reducer{NewCountReducer, NewSumReducer("price")},
	}
	g := step.Build(&fakeResultProcessor{rows: rows}, nil)

	results := map[string][2]float64{}
	for {
		row, err := g.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if row == nil {
			break
		}
		cat, _ := row.Get("category")
		count, _ := row.Get("count")
		sum, _ := row.Get("sum_price")
		results[cat.Str] = [2]float64{float64(count.Int), sum.Double}
	}

	if results["a"][0] != 2 || results["a"][1] != 30 {
		t.Fatalf("category a = %v, want count=2 sum=30", results["a"])
	}
	if results["b"][0] != 1 || results["b"][1] != 5 {
		t.Fatalf("category b = %v, want count=1 sum=5", results["b"])
	}
}

func TestGrouperMinMaxAvg(t *testing.T) {
	rows := []*Row{
		rowWith(1, map[string]Value{"g": String("x"), "v": Double(3)}),
		rowWith(2, map[string]Value{"g": String("x"), "v": Double(7)}),
		rowWith(3, map[string]Value{"g": String("x"), "v": Double(5)}),
	}
	step := &GroupStep{
		By:       []string{"g"},
		Reducers: []func() Reducer{NewMinReducer("v"), NewMaxReducer("v"), NewAvgReducer("v")},
	}
	g := step.Build(&fakeResultProcessor{rows: rows}, nil)

	row, err := g.Next()
	if err != nil || row == nil {
		t.Fatalf("expected a result row, err=%v", err)
	}
	minV, _ := row.Get("min_v")
	maxV, _ := row.Get("max_v")
	avgV, _ := row.Get("avg_v")
	if minV.Double != 3 || maxV.Double != 7 || avgV.Double != 5 {
		t.Fatalf("min/max/avg = %v/%v/%v, want 3/7/5", minV.Double, maxV.Double, avgV.Double)
	}

	if row2, err := g.Next(); err != nil || row2 != nil {
		t.Fatalf("expected exhaustion after one group, got %v, %v", row2, err)
	}
}

func TestCountDistinctReducer(t *testing.T) {
	factory := NewCountDistinctReducer("tag")
	r := factory()
	r.Add(rowWith(1, map[string]Value{"tag": String("a")}))
	r.Add(rowWith(2, map[string]Value{"tag": String("b")}))
	r.Add(rowWith(3, map[string]Value{"tag": String("a")}))
	if got := r.Finalize(); got.Int != 2 {
		t.Fatalf("count_distinct = %d, want 2", got.Int)
	}
}

func TestToListReducerDedupsAndSorts(t *testing.T) {
	factory := NewToListReducer("v")
	r := factory()
	r.Add(rowWith(1, map[string]Value{"v": String("banana")}))
	r.Add(rowWith(2, map[string]Value{"v": String("apple")}))
	r.Add(rowWith(3, map[string]Value{"v": String("banana")}))

	got := r.Finalize()
	if len(got.Arr) != 2 {
		t.Fatalf("expected 2 distinct values, got %v", got.Arr)
	}
	if got.Arr[0].Str != "apple" || got.Arr[1].Str != "banana" {
		t.Fatalf("expected sorted [apple banana], got %v", got.Arr)
	}
}

func TestFirstValueReducer(t *testing.T) {
	factory := NewFirstValueReducer("v")
	r := factory()
	r.Add(rowWith(1, map[string]Value{"v": String("first")}))
	r.Add(rowWith(2, map[string]Value{"v": String("second")}))
	if got := r.Finalize(); got.Str != "first" {
		t.Fatalf("first_value = %q, want %q", got.Str, "first")
	}
}
