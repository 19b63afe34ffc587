package ember

import (
	"sort"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ITERATOR ALGEBRA
// ═══════════════════════════════════════════════════════════════════════════════
// Every query node evaluates to an Iterator: a sorted stream of document ids
// satisfying a Read/SkipTo/Rewind contract. Combinators (union, intersect,
// not, optional, wildcard, ids, empty) compose iterators into larger ones
// without materializing intermediate result sets, the same algebra
// original_source's IndexIterator/UnionContext/IntersectContext implement in
// C and bleve's Searcher interface implements in Go.
// ═══════════════════════════════════════════════════════════════════════════════

// Iterator is a sorted, deduplicated stream of document ids.
type Iterator interface {
	// Read advances to and returns the next document id. The second return
	// value is false once the iterator is exhausted.
	Read() (int, bool)
	// SkipTo advances to the first document id >= target, returning it. If
	// the iterator is exhausted before reaching target, ok is false.
	SkipTo(target int) (docID int, ok bool)
	// Rewind resets the iterator to before its first element.
	Rewind()
	// Len estimates the number of document ids the iterator yields, used by
	// NewIntersect to order intersection operands cheapest-first.
	Len() int
}

// ─── bitmapIterator ─────────────────────────────────────────────────────────

// bitmapIterator adapts a roaring.Bitmap (numeric range, tag postings, geo
// radius, global filters) to the Iterator contract.
type bitmapIterator struct {
	bm   *roaring.Bitmap
	it   roaring.IntPeekable
}

// NewBitmapIterator wraps a roaring bitmap as an Iterator.
func NewBitmapIterator(bm *roaring.Bitmap) Iterator {
	return &bitmapIterator{bm: bm, it: bm.Iterator()}
}

func (b *bitmapIterator) Read() (int, bool) {
	if !b.it.HasNext() {
		return 0, false
	}
	return int(b.it.Next()), true
}

func (b *bitmapIterator) SkipTo(target int) (int, bool) {
	b.it.AdvanceIfNeeded(uint32(target))
	if !b.it.HasNext() {
		return 0, false
	}
	return int(b.it.Next()), true
}

func (b *bitmapIterator) Rewind() {
	b.it = b.bm.Iterator()
}

func (b *bitmapIterator) Len() int {
	return int(b.bm.GetCardinality())
}

// ─── termIterator ───────────────────────────────────────────────────────────

// termIterator walks a single term's postings at document granularity,
// backed by the per-field InvertedIndex's hybrid bitmap storage. When the
// term has rolled over into blocks (see block.go), SkipTo/Rewind/Read run
// against the BlockedPostingList instead, so a skip lands via the blocks'
// binary search rather than the bitmap's own cursor; the bitmap remains the
// fallback for a term with no populated block list (a term absent from the
// index, whose bitmap is empty).
type termIterator struct {
	token string
	idx   *InvertedIndex
	bm    *roaring.Bitmap
	list  *BlockedPostingList
	inner Iterator
}

// NewTermIterator builds a document-granularity iterator over a term's
// postings in a TEXT field index.
func NewTermIterator(idx *InvertedIndex, token string) Iterator {
	idx.mu.Lock()
	bm := idx.DocBitmaps[token]
	list := idx.Blocks[token]
	idx.mu.Unlock()
	if bm == nil {
		bm = roaring.NewBitmap()
	}
	t := &termIterator{token: token, idx: idx, bm: bm, list: list}
	t.Rewind()
	return t
}

func (t *termIterator) Read() (int, bool)       { return t.inner.Read() }
func (t *termIterator) SkipTo(x int) (int, bool) { return t.inner.SkipTo(x) }
func (t *termIterator) Len() int                 { return t.inner.Len() }

func (t *termIterator) Rewind() {
	if t.list != nil && t.list.NumBlocks() > 0 {
		t.inner = newBlockIterator(t.list)
		return
	}
	t.inner = NewBitmapIterator(t.bm)
}

// ─── idsIterator ────────────────────────────────────────────────────────────

// NewIDsIterator builds an iterator over an explicit, caller-supplied set of
// document ids (the `ids` query node: an inline allow-list).
func NewIDsIterator(ids []int) Iterator {
	bm := roaring.New()
	for _, id := range ids {
		bm.Add(uint32(id))
	}
	return NewBitmapIterator(bm)
}

// NewEmptyIterator returns an iterator that yields nothing, the identity
// element for union and the absorbing element for intersect.
func NewEmptyIterator() Iterator {
	return NewBitmapIterator(roaring.NewBitmap())
}

// NewWildcardIterator returns every live document in the table, used for `*`
// queries and as NOT's universe.
func NewWildcardIterator(table *DocTable) Iterator {
	bm := roaring.New()
	table.mu.RLock()
	for id, meta := range table.byID {
		if meta.Flags&DocFlagDeleted == 0 {
			bm.Add(uint32(id))
		}
	}
	table.mu.RUnlock()
	return NewBitmapIterator(bm)
}

// ─── union ──────────────────────────────────────────────────────────────────

type unionIterator struct {
	children []Iterator
	heads    []int
	valid    []bool
}

// NewUnion returns an iterator over the sorted union of its children (an OR
// node, or a prefix/fuzzy expansion's set of matched terms).
func NewUnion(children ...Iterator) Iterator {
	u := &unionIterator{children: children, heads: make([]int, len(children)), valid: make([]bool, len(children))}
	u.Rewind()
	return u
}

func (u *unionIterator) Rewind() {
	for i, c := range u.children {
		c.Rewind()
		v, ok := c.Read()
		u.heads[i], u.valid[i] = v, ok
	}
}

func (u *unionIterator) Read() (int, bool) {
	min := -1
	for i, ok := range u.valid {
		if ok && (min == -1 || u.heads[i] < min) {
			min = u.heads[i]
		}
	}
	if min == -1 {
		return 0, false
	}
	for i, ok := range u.valid {
		if ok && u.heads[i] == min {
			v, next := u.children[i].Read()
			u.heads[i], u.valid[i] = v, next
		}
	}
	return min, true
}

func (u *unionIterator) SkipTo(target int) (int, bool) {
	for i, ok := range u.valid {
		if ok && u.heads[i] < target {
			v, next := u.children[i].SkipTo(target)
			u.heads[i], u.valid[i] = v, next
		}
	}
	return u.Read()
}

func (u *unionIterator) Len() int {
	total := 0
	for _, c := range u.children {
		total += c.Len()
	}
	return total
}

// ─── intersect ──────────────────────────────────────────────────────────────

type intersectIterator struct {
	children []Iterator
	inOrder  bool // phrase/slop constraint applied by caller, not here
	heads    []int
	valid    []bool
	next     int
}

// NewIntersect returns an iterator over documents present in every child (an
// AND node, or implicit multi-term conjunction).
func NewIntersect(children ...Iterator) Iterator {
	sort.SliceStable(children, func(i, j int) bool { return children[i].Len() < children[j].Len() })
	return &intersectIterator{
		children: children,
		heads:    make([]int, len(children)),
		valid:    make([]bool, len(children)),
	}
}

func (x *intersectIterator) Rewind() {
	for i, c := range x.children {
		c.Rewind()
		x.valid[i] = false
	}
	x.next = 0
}

func (x *intersectIterator) Read() (int, bool) {
	return x.SkipTo(x.next)
}

// head returns the cached head for child i if it is already known to sit at
// or past target, otherwise fetches a fresh one via SkipTo. Caching this way
// means a child is only ever asked to skip to a given candidate once, so its
// cursor (a roaring bitmap iterator, which only moves forward) is never
// re-queried at a position it has already advanced past.
func (x *intersectIterator) head(i, target int) (int, bool) {
	if x.valid[i] && x.heads[i] >= target {
		return x.heads[i], true
	}
	v, ok := x.children[i].SkipTo(target)
	x.heads[i], x.valid[i] = v, ok
	return v, ok
}

// SkipTo advances every child to the smallest document id >= target that all
// children agree on, the standard skip-list intersection zipper.
func (x *intersectIterator) SkipTo(target int) (int, bool) {
	if len(x.children) == 0 {
		return 0, false
	}
	cand := target
	for {
		matched := 0
		for i := range x.children {
			v, ok := x.head(i, cand)
			if !ok {
				return 0, false
			}
			if v == cand {
				matched++
				continue
			}
			cand = v
			matched = 1
		}
		if matched == len(x.children) {
			// every child's cached head is exactly cand: consume it by
			// invalidating the cache, so the next call fetches fresh heads.
			for i := range x.valid {
				x.valid[i] = false
			}
			x.next = cand + 1
			return cand, true
		}
	}
}

func (x *intersectIterator) Len() int {
	min := -1
	for _, c := range x.children {
		if min == -1 || c.Len() < min {
			min = c.Len()
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

// ─── not ────────────────────────────────────────────────────────────────────

type notIterator struct {
	universe Iterator
	excluded Iterator
	exHead   int  // excluded's last fetched id
	exValid  bool // exHead holds a fetched id
	exDone   bool // excluded is exhausted
}

// NewNot returns an iterator over documents in universe but not in excluded,
// mirroring a NOT query node evaluated against the wildcard universe.
func NewNot(universe, excluded Iterator) Iterator {
	return &notIterator{universe: universe, excluded: excluded}
}

func (n *notIterator) Rewind() {
	n.universe.Rewind()
	n.excluded.Rewind()
	n.exValid, n.exDone = false, false
}

// isExcluded reports whether v is in excluded. As in intersectIterator.head,
// the excluded child's last head is cached, so its forward-only cursor is
// never asked to skip to an id it has already returned.
func (n *notIterator) isExcluded(v int) bool {
	if !n.exDone && (!n.exValid || n.exHead < v) {
		n.exHead, n.exValid = n.excluded.SkipTo(v)
		n.exDone = !n.exValid
	}
	return n.exValid && n.exHead == v
}

func (n *notIterator) Read() (int, bool) {
	for {
		v, ok := n.universe.Read()
		if !ok {
			return 0, false
		}
		if n.isExcluded(v) {
			continue
		}
		return v, true
	}
}

func (n *notIterator) SkipTo(target int) (int, bool) {
	v, ok := n.universe.SkipTo(target)
	if !ok {
		return 0, false
	}
	if n.isExcluded(v) {
		return n.Read()
	}
	return v, true
}

func (n *notIterator) Len() int {
	return n.universe.Len()
}

// ─── optional ───────────────────────────────────────────────────────────────

// optionalIterator wraps a child so that it never disqualifies a result (an
// OPTIONAL node contributes to scoring when present but is not required for
// a match); it is typically combined via union rather than intersect.
type optionalIterator struct {
	child Iterator
}

// NewOptional marks child as an optional contributor: callers union it
// rather than intersect it so its absence never excludes a document.
func NewOptional(child Iterator) Iterator {
	return &optionalIterator{child: child}
}

func (o *optionalIterator) Read() (int, bool)       { return o.child.Read() }
func (o *optionalIterator) SkipTo(t int) (int, bool) { return o.child.SkipTo(t) }
func (o *optionalIterator) Rewind()                  { o.child.Rewind() }
func (o *optionalIterator) Len() int                 { return o.child.Len() }
