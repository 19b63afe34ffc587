package ember

import "strconv"

// ═══════════════════════════════════════════════════════════════════════════════
// SCORER
// ═══════════════════════════════════════════════════════════════════════════════
// Scorer assigns a relevance score to a matched document, generalizing the
// teacher's single-field RankBM25 into a multi-field-aware scorer that the
// result-processor chain can swap out (RPScorer's pluggable scorer function
// in original_source/src/result_processor.c).
// ═══════════════════════════════════════════════════════════════════════════════

// ScoreExplain records how a score was derived, for EXPLAINSCORE-style
// introspection.
type ScoreExplain struct {
	Summary  string
	Children []*ScoreExplain
}

// Scorer computes a document's relevance score for a query, optionally
// explaining its derivation.
type Scorer interface {
	Score(spec *IndexSpec, docID int, root *QueryNode, explain bool) (float64, *ScoreExplain)
}

// BM25Scorer scores a document against a query's term/phrase leaves, summing
// the BM25 contribution of every indexed TEXT field in the schema, each
// multiplied by that field's schema weight. The nodes' query-time Weight
// attribute is not applied to the score.
type BM25Scorer struct{}

func (BM25Scorer) Score(spec *IndexSpec, docID int, root *QueryNode, explain bool) (float64, *ScoreExplain) {
	terms := collectTerms(root)
	if len(terms) == 0 {
		return 0, nil
	}
	var total float64
	var children []*ScoreExplain
	for _, f := range spec.Schema.Fields {
		if f.Type != TextField {
			continue
		}
		idx, ok := spec.TextIndex(f.Name)
		if !ok {
			continue
		}
		fieldScore := idx.calculateBM25Score(docID, terms) * f.Weight
		total += fieldScore
		if explain {
			children = append(children, &ScoreExplain{Summary: fieldKindExplain(f.Name, fieldScore)})
		}
	}
	var ex *ScoreExplain
	if explain {
		ex = &ScoreExplain{Summary: "bm25 sum over matched fields", Children: children}
	}
	return total, ex
}

func fieldKindExplain(field string, score float64) string {
	return field + ": " + strconv.FormatFloat(score, 'g', -1, 64)
}

func collectTerms(n *QueryNode) []string {
	if n == nil {
		return nil
	}
	switch n.Type {
	case NodeTerm:
		return []string{n.Term}
	case NodePhrase:
		return append([]string(nil), n.Terms...)
	case NodeUnion, NodeIntersect:
		var out []string
		for _, c := range n.Children {
			out = append(out, collectTerms(c)...)
		}
		return out
	case NodeNot:
		return nil // excluded terms don't contribute to scoring
	case NodeOptional:
		return collectTerms(n.Child)
	default:
		return nil
	}
}
