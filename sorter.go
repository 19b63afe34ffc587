package ember

// ═══════════════════════════════════════════════════════════════════════════════
// RPSorter
// ═══════════════════════════════════════════════════════════════════════════════
// RPSorter accumulates every row its upstream produces into a bounded
// min-max heap sized to the number of rows the caller could ever need
// (offset+limit), then drains it strongest-first on the first Next call.
// This mirrors original_source's RPSorter: sorting is a full-accumulate
// barrier stage, not a streaming one, because a correct top-K requires
// having seen every candidate before any row can be declared safe to emit.
//
// SORTASCMAP_MAXFIELDS in original_source lets SORTBY name up to 8 fields
// each with its own ascending/descending bit; SortKey/[]SortKey is the
// Go-native analogue of that bitmap-plus-field-list pair. Every comparison
// falls through the key list in order and, if every key ties (or a key is
// absent from a row), breaks the tie by ascending DocID so sort order is
// always deterministic.
// ═══════════════════════════════════════════════════════════════════════════════

// SortKey names one field (or, for Field == "", the row's score) to sort by
// and the direction to sort it in.
type SortKey struct {
	Field string
	Desc  bool
}

// rpSorter sorts rows by one or more SortKeys, falling back to ascending
// DocID to break ties.
type rpSorter struct {
	upstream ResultProcessor
	capacity int
	keys     []SortKey
	spec     *IndexSpec

	drained []*Row
	pos     int
	filled  bool
}

// NewRPSorter builds a sorter stage retaining at most capacity rows. An
// empty keys list sorts by score, descending.
func NewRPSorter(upstream ResultProcessor, capacity int, keys []SortKey, spec *IndexSpec) ResultProcessor {
	if capacity < 1 {
		capacity = 1
	}
	if len(keys) == 0 {
		keys = []SortKey{{Field: "", Desc: true}}
	}
	return &rpSorter{upstream: upstream, capacity: capacity, keys: keys, spec: spec}
}

func (s *rpSorter) lessFunc() lessFunc {
	return func(a, b *Row) bool {
		for _, k := range s.keys {
			av, aok := sortValue(a, k.Field)
			bv, bok := sortValue(b, k.Field)
			if !aok || !bok || av == bv {
				continue
			}
			if k.Desc {
				return av > bv
			}
			return av < bv
		}
		return a.DocID < b.DocID
	}
}

// sortValue returns a row's numeric value for field, or its score when
// field is empty.
func sortValue(r *Row, field string) (float64, bool) {
	if field == "" {
		return r.Score, true
	}
	v, ok := r.Get(field)
	if !ok {
		return 0, false
	}
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindDouble:
		return v.Double, true
	default:
		return 0, false
	}
}

func (s *rpSorter) fill() error {
	bh := newBoundedHeap(s.capacity, s.lessFunc())
	for {
		row, err := s.upstream.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		bh.Push(row)
	}
	s.drained = bh.Drain()
	s.filled = true
	return nil
}

func (s *rpSorter) Next() (*Row, error) {
	if !s.filled {
		if err := s.fill(); err != nil {
			return nil, err
		}
	}
	if s.pos >= len(s.drained) {
		return nil, nil
	}
	row := s.drained[s.pos]
	s.pos++
	return row, nil
}
