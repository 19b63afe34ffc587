package ember

import "container/heap"

// ═══════════════════════════════════════════════════════════════════════════════
// BOUNDED MIN-MAX HEAP
// ═══════════════════════════════════════════════════════════════════════════════
// rowHeap backs RPSorter: it retains only the top N rows seen so far by
// keeping a min-heap of size at most N+1 (original_source's RPSorter grows
// its heap to N+1 before evicting the weakest element, rather than capping
// at exactly N, so a tie at the boundary is resolved by one extra compare
// rather than silently dropped).
// ═══════════════════════════════════════════════════════════════════════════════

// lessFunc reports whether a should sort before b.
type lessFunc func(a, b *Row) bool

type rowHeap struct {
	rows []*Row
	less lessFunc
}

func (h *rowHeap) Len() int            { return len(h.rows) }
func (h *rowHeap) Less(i, j int) bool  { return h.less(h.rows[j], h.rows[i]) } // inverted: root is the weakest row
func (h *rowHeap) Swap(i, j int)       { h.rows[i], h.rows[j] = h.rows[j], h.rows[i] }
func (h *rowHeap) Push(x any)          { h.rows = append(h.rows, x.(*Row)) }
func (h *rowHeap) Pop() any {
	old := h.rows
	n := len(old)
	item := old[n-1]
	h.rows = old[:n-1]
	return item
}

// boundedHeap keeps only the strongest `capacity` rows pushed into it,
// growing to capacity+1 before evicting the weakest.
type boundedHeap struct {
	h        *rowHeap
	capacity int
}

func newBoundedHeap(capacity int, less lessFunc) *boundedHeap {
	h := &rowHeap{less: less}
	heap.Init(h)
	return &boundedHeap{h: h, capacity: capacity}
}

// Push offers a row to the heap, evicting the current weakest row if the
// heap is already at capacity and the new row is stronger.
func (b *boundedHeap) Push(row *Row) {
	heap.Push(b.h, row)
	if b.h.Len() > b.capacity {
		heap.Pop(b.h)
	}
}

// Drain empties the heap into a slice ordered strongest-first.
func (b *boundedHeap) Drain() []*Row {
	n := b.h.Len()
	out := make([]*Row, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = heap.Pop(b.h).(*Row)
	}
	return out
}
