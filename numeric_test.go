package ember

import "testing"

func drainBitmap(t *testing.T, it Iterator) []int {
	t.Helper()
	return drain(it)
}

func TestNumericIndexRange(t *testing.T) {
	idx := NewNumericIndex()
	idx.Add(1, 10)
	idx.Add(2, 20)
	idx.Add(3, 30)
	idx.Add(4, 20)

	got := drainBitmap(t, NewBitmapIterator(idx.Range(15, 25, false, false)))
	want := []int{2, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestNumericIndexExclusive(t *testing.T) {
	idx := NewNumericIndex()
	idx.Add(1, 10)
	idx.Add(2, 20)
	idx.Add(3, 30)

	got := drainBitmap(t, NewBitmapIterator(idx.Range(10, 30, true, true)))
	want := []int{2}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNumericIndexRemove(t *testing.T) {
	idx := NewNumericIndex()
	idx.Add(1, 5)
	idx.Add(2, 5)
	idx.Remove(1)

	if _, ok := idx.Value(1); ok {
		t.Fatalf("expected value removed for doc 1")
	}
	got := drainBitmap(t, NewBitmapIterator(idx.Range(0, 10, false, false)))
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("got %v, want [2]", got)
	}
}

func TestNumericIndexValue(t *testing.T) {
	idx := NewNumericIndex()
	idx.Add(7, 3.14)
	v, ok := idx.Value(7)
	if !ok || v != 3.14 {
		t.Fatalf("Value(7) = %v, %v; want 3.14, true", v, ok)
	}
	if _, ok := idx.Value(99); ok {
		t.Fatalf("Value(99) should not exist")
	}
}
