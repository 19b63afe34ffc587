package ember

import (
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// TAG INDEX
// ═══════════════════════════════════════════════════════════════════════════════
// A TAG field holds a small set of exact-match labels (categories, statuses)
// rather than free text: no stemming or stopword removal, just case folding
// and splitting on a configurable separator. Each distinct tag value gets its
// own roaring.Bitmap of document ids, exactly the "document-level storage"
// half of the teacher's hybrid inverted index, generalized from term
// postings to tag postings.
// ═══════════════════════════════════════════════════════════════════════════════

// TagIndex indexes one TAG field across all documents.
type TagIndex struct {
	mu        sync.RWMutex
	separator byte
	postings  map[string]*roaring.Bitmap
	byDoc     map[int][]string
	dict      *TermDict
}

// NewTagIndex creates an empty tag index using sep to split multi-valued
// tag strings.
func NewTagIndex(sep byte) *TagIndex {
	return &TagIndex{
		separator: sep,
		postings:  make(map[string]*roaring.Bitmap),
		byDoc:     make(map[int][]string),
		dict:      NewTermDict(),
	}
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Add splits raw on the index's separator and records each tag against docID.
func (t *TagIndex) Add(docID int, raw string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tags := strings.Split(raw, string(t.separator))
	for _, tag := range tags {
		tag = normalizeTag(tag)
		if tag == "" {
			continue
		}
		bm, ok := t.postings[tag]
		if !ok {
			bm = roaring.NewBitmap()
			t.postings[tag] = bm
			t.dict.Add(tag)
		}
		bm.Add(uint32(docID))
		t.byDoc[docID] = append(t.byDoc[docID], tag)
	}
}

// Remove undoes a previous Add for docID.
func (t *TagIndex) Remove(docID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, tag := range t.byDoc[docID] {
		if bm, ok := t.postings[tag]; ok {
			bm.Remove(uint32(docID))
		}
	}
	delete(t.byDoc, docID)
}

// Match returns the bitmap of documents carrying the given tag.
func (t *TagIndex) Match(tag string) *roaring.Bitmap {
	t.mu.RLock()
	defer t.mu.RUnlock()
	bm, ok := t.postings[normalizeTag(tag)]
	if !ok {
		return roaring.NewBitmap()
	}
	return bm.Clone()
}

// MatchAny unions the bitmaps of several tags, for `{tag1|tag2}` queries.
func (t *TagIndex) MatchAny(tags []string) *roaring.Bitmap {
	out := roaring.NewBitmap()
	for _, tag := range tags {
		out.Or(t.Match(tag))
	}
	return out
}

// Tags returns the tags recorded for a document, used by the loader and
// highlighter to reconstruct a row's TAG field.
func (t *TagIndex) Tags(docID int) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.byDoc[docID]...)
}
