package ember

import (
	"sync"
)

// ═══════════════════════════════════════════════════════════════════════════════
// DOCUMENT METADATA TABLE
// ═══════════════════════════════════════════════════════════════════════════════
// DocTable is the spec's document-metadata table: the mapping between a
// caller-supplied external key ("user:42", a URL, ...) and the small dense
// integer document id every other component (inverted index, numeric range
// tree, tag index) actually indexes on, plus the small set of per-document
// flags and the stored payload a loader needs to reconstruct a result row.
//
// Grounded on original_source/src/indexer.c's makeDocumentId/doAssignIds: ids
// are assigned monotonically and never reused, so a dropped document's id
// stays in the table, flagged deleted, rather than being reassigned to a new
// document.
// ═══════════════════════════════════════════════════════════════════════════════

// DocFlags records per-document bookkeeping bits.
type DocFlags uint8

const (
	DocFlagNone     DocFlags = 0
	DocFlagDeleted  DocFlags = 1 << iota
)

// DocMeta is the metadata table's entry for one document.
type DocMeta struct {
	ID      int
	Key     string
	Flags   DocFlags
	Payload map[string]Value
}

// DocTable maps external keys to internal document ids and back.
type DocTable struct {
	mu       sync.RWMutex
	byKey    map[string]int
	byID     map[int]*DocMeta
	nextID   int
	numDocs  int
	numDead  int
}

// NewDocTable creates an empty metadata table. Document ids start at 1 so 0
// can be reserved as "no document" by callers that want a sentinel.
func NewDocTable() *DocTable {
	return &DocTable{
		byKey:  make(map[string]int),
		byID:   make(map[int]*DocMeta),
		nextID: 1,
	}
}

// GetID returns the internal id for an external key.
func (t *DocTable) GetID(key string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byKey[key]
	return id, ok
}

// Get returns the metadata entry for a document id.
func (t *DocTable) Get(id int) (*DocMeta, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.byID[id]
	return m, ok
}

// Add registers a new external key, returning its freshly assigned id, or
// a DocExists error if the key is already present (callers that want upsert
// semantics should Delete first).
func (t *DocTable) Add(key string, payload map[string]Value) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.byKey[key]; exists {
		return 0, NewError(DocExists, "document %q already exists", key)
	}
	id := t.nextID
	t.nextID++
	t.byKey[key] = id
	t.byID[id] = &DocMeta{ID: id, Key: key, Payload: payload}
	t.numDocs++
	return id, nil
}

// PopByKey atomically fetches and deletes the document under key, returning
// its metadata (including the payload a REPLACE can merge from) and whether
// it existed. Equivalent to Get(GetID(key)) followed by Delete(key), but
// without the intervening window where another caller could observe the
// entry mid-replace.
func (t *DocTable) PopByKey(key string) (*DocMeta, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.byKey[key]
	if !ok {
		return nil, false
	}
	meta := t.byID[id]
	if meta.Flags&DocFlagDeleted != 0 {
		return nil, false
	}
	meta.Flags |= DocFlagDeleted
	delete(t.byKey, key)
	t.numDocs--
	t.numDead++
	return meta, true
}

// Delete marks a document as deleted and releases its key. The id is never
// reused, per makeDocumentId's monotonic contract; adding the same key again
// assigns a fresh id.
func (t *DocTable) Delete(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.byKey[key]
	if !ok {
		return NewError(DocNotFound, "document %q not found", key)
	}
	meta := t.byID[id]
	if meta.Flags&DocFlagDeleted != 0 {
		return NewError(DocNotFound, "document %q not found", key)
	}
	meta.Flags |= DocFlagDeleted
	delete(t.byKey, key)
	t.numDocs--
	t.numDead++
	return nil
}

// Exists reports whether id refers to a live (non-deleted) document.
func (t *DocTable) Exists(id int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.byID[id]
	return ok && m.Flags&DocFlagDeleted == 0
}

// Stats is an introspection snapshot, mirroring IndexSpec::stats in
// original_source/indexer.c.
type Stats struct {
	NumDocuments int
	NumDeleted   int
}

// Stats returns a point-in-time snapshot of the table's size.
func (t *DocTable) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Stats{NumDocuments: t.numDocs, NumDeleted: t.numDead}
}
