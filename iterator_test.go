package ember

import "testing"

func drain(it Iterator) []int {
	var out []int
	for {
		v, ok := it.Read()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestBitmapIterator_Read(t *testing.T) {
	it := NewIDsIterator([]int{3, 1, 2})
	got := drain(it)
	want := []int{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestUnion(t *testing.T) {
	a := NewIDsIterator([]int{1, 3, 5})
	b := NewIDsIterator([]int{2, 3, 6})
	got := drain(NewUnion(a, b))
	want := []int{1, 2, 3, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name string
		sets [][]int
		want []int
	}{
		{"simple overlap", [][]int{{1, 2, 3, 4}, {2, 4, 6}}, []int{2, 4}},
		{"no overlap", [][]int{{1, 2}, {3, 4}}, nil},
		{"three-way", [][]int{{1, 2, 3}, {2, 3, 4}, {3, 4, 5}}, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iters := make([]Iterator, len(tt.sets))
			for i, s := range tt.sets {
				iters[i] = NewIDsIterator(s)
			}
			got := drain(NewIntersect(iters...))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestNot(t *testing.T) {
	universe := NewIDsIterator([]int{1, 2, 3, 4, 5})
	excl := NewIDsIterator([]int{2, 4})
	got := drain(NewNot(universe, excl))
	want := []int{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIntersectSkipTo(t *testing.T) {
	a := NewIDsIterator([]int{1, 2, 3, 4, 5, 6})
	b := NewIDsIterator([]int{3, 4, 5, 6, 7})
	it := NewIntersect(a, b)
	v, ok := it.SkipTo(4)
	if !ok || v != 4 {
		t.Fatalf("SkipTo(4) = %d, %v; want 4, true", v, ok)
	}
	v, ok = it.Read()
	if !ok || v != 5 {
		t.Fatalf("Read() = %d, %v; want 5, true", v, ok)
	}
}
