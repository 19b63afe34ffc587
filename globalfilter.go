package ember

import "github.com/RoaringBitmap/roaring"

// ═══════════════════════════════════════════════════════════════════════════════
// GLOBAL FILTERS
// ═══════════════════════════════════════════════════════════════════════════════
// A global filter restricts a query-AST search to a pre-computed set of
// document ids ahead of full evaluation, the way QAST_SetGlobalFilters lets
// a caller hand the query engine an externally-computed id list (e.g. from a
// key-prefix scan) to intersect against. These helpers build that id-list
// node with QueryBuilder's bitmap-level AllOf/AnyOf/TermExcluding instead of
// going through the query-AST parser, then SetGlobalFilter wraps it onto the
// caller's query root.
// ═══════════════════════════════════════════════════════════════════════════════

// GlobalFilterAllOf builds a global filter node matching documents that
// contain every one of terms in the given TEXT field.
func (s *IndexSpec) GlobalFilterAllOf(field string, terms ...string) (*QueryNode, error) {
	idx, ok := s.TextIndex(field)
	if !ok {
		return nil, NewError(NoOption, "field %q is not a TEXT field", field)
	}
	return NewIDsNode(bitmapIDs(AllOf(idx, terms...))...), nil
}

// GlobalFilterAnyOf builds a global filter node matching documents that
// contain any one of terms in the given TEXT field.
func (s *IndexSpec) GlobalFilterAnyOf(field string, terms ...string) (*QueryNode, error) {
	idx, ok := s.TextIndex(field)
	if !ok {
		return nil, NewError(NoOption, "field %q is not a TEXT field", field)
	}
	return NewIDsNode(bitmapIDs(AnyOf(idx, terms...))...), nil
}

// GlobalFilterExcluding builds a global filter node matching documents that
// contain include but not exclude in the given TEXT field.
func (s *IndexSpec) GlobalFilterExcluding(field, include, exclude string) (*QueryNode, error) {
	idx, ok := s.TextIndex(field)
	if !ok {
		return nil, NewError(NoOption, "field %q is not a TEXT field", field)
	}
	return NewIDsNode(bitmapIDs(TermExcluding(idx, include, exclude))...), nil
}

// GlobalFilterPhrase builds a global filter node matching documents
// containing the exact phrase in the given TEXT field, using QueryBuilder's
// skip-list-backed Phrase matching.
func (s *IndexSpec) GlobalFilterPhrase(field, phrase string) (*QueryNode, error) {
	idx, ok := s.TextIndex(field)
	if !ok {
		return nil, NewError(NoOption, "field %q is not a TEXT field", field)
	}
	bm := NewQueryBuilder(idx).Phrase(phrase).Execute()
	return NewIDsNode(bitmapIDs(bm)...), nil
}

func bitmapIDs(bm *roaring.Bitmap) []int {
	if bm == nil {
		return nil
	}
	ids := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, int(it.Next()))
	}
	return ids
}
