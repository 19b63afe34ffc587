package ember

import (
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// NUMERIC RANGE INDEX
// ═══════════════════════════════════════════════════════════════════════════════
// Generalizes the teacher's hybrid-bitmap idea (index.go's DocBitmaps) from a
// term → bitmap map to a value → bitmap map kept sorted by value, so a range
// query resolves to a binary-search bracket plus a bitmap union rather than a
// linear value scan. This plays the role of RediSearch's numeric range tree
// without needing that tree's rebalancing machinery: roaring bitmaps already
// give near-O(1) union/intersection over whatever buckets a range touches.
// ═══════════════════════════════════════════════════════════════════════════════

type numericBucket struct {
	value  float64
	bitmap *roaring.Bitmap
}

// NumericIndex indexes one NUMERIC field across all documents.
type NumericIndex struct {
	mu      sync.RWMutex
	buckets []numericBucket // sorted by value
	byValue map[float64]*roaring.Bitmap
	byDoc   map[int]float64
}

// NewNumericIndex creates an empty numeric range index.
func NewNumericIndex() *NumericIndex {
	return &NumericIndex{
		byValue: make(map[float64]*roaring.Bitmap),
		byDoc:   make(map[int]float64),
	}
}

// Add records that docID carries the given numeric value.
func (n *NumericIndex) Add(docID int, value float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	bm, ok := n.byValue[value]
	if !ok {
		bm = roaring.NewBitmap()
		n.byValue[value] = bm
		i := sort.Search(len(n.buckets), func(i int) bool { return n.buckets[i].value >= value })
		n.buckets = append(n.buckets, numericBucket{})
		copy(n.buckets[i+1:], n.buckets[i:])
		n.buckets[i] = numericBucket{value: value, bitmap: bm}
	}
	bm.Add(uint32(docID))
	n.byDoc[docID] = value
}

// Remove undoes a previous Add for docID.
func (n *NumericIndex) Remove(docID int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	value, ok := n.byDoc[docID]
	if !ok {
		return
	}
	if bm, ok := n.byValue[value]; ok {
		bm.Remove(uint32(docID))
	}
	delete(n.byDoc, docID)
}

// Range returns the bitmap of documents whose value falls in [min, max],
// with exclusivity flags mirroring FT.SEARCH's "(min" / "(max" syntax.
func (n *NumericIndex) Range(min, max float64, minExclusive, maxExclusive bool) *roaring.Bitmap {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := roaring.NewBitmap()
	lo := sort.Search(len(n.buckets), func(i int) bool { return n.buckets[i].value >= min })
	for i := lo; i < len(n.buckets); i++ {
		v := n.buckets[i].value
		if v > max || (maxExclusive && v == max) {
			break
		}
		if minExclusive && v == min {
			continue
		}
		out.Or(n.buckets[i].bitmap)
	}
	return out
}

// Value returns the numeric value stored for a document, for Apply/sort
// field loading.
func (n *NumericIndex) Value(docID int) (float64, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.byDoc[docID]
	return v, ok
}
