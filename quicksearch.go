package ember

// RankMode selects which single-field ranking algorithm QuickSearch uses.
type RankMode int

const (
	// RankBM25Mode scores candidates with BM25 (relevance-by-term-importance).
	RankBM25Mode RankMode = iota
	// RankProximityMode scores candidates by how close the query terms
	// appear together (RankProximity's "smaller distance, higher score").
	RankProximityMode
)

// QuickSearch runs a bare term/phrase string against one TEXT field's
// InvertedIndex directly, bypassing the query-AST/evaluator path entirely:
// a convenience surface for simple lookups that don't need the full node
// grammar, the Go analogue of issuing a search with a plain query string
// instead of building a QueryNode tree by hand.
func (s *IndexSpec) QuickSearch(field, query string, mode RankMode, maxResults int) ([]Match, error) {
	idx, ok := s.TextIndex(field)
	if !ok {
		return nil, NewError(NoOption, "field %q is not a TEXT field", field)
	}
	switch mode {
	case RankProximityMode:
		return idx.RankProximity(query, maxResults), nil
	default:
		return idx.RankBM25(query, maxResults), nil
	}
}
