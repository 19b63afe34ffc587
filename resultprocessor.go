package ember

// ═══════════════════════════════════════════════════════════════════════════════
// RESULT-PROCESSOR CHAIN
// ═══════════════════════════════════════════════════════════════════════════════
// The chain is a pull-based pipeline: each stage's Next pulls from its
// upstream as many times as it needs before producing (or declining to
// produce) a row. This mirrors original_source/src/result_processor.c's
// ResultProcessor/QITR_GetResult contract (RP_OK / RP_EOF), collapsed here
// to a (row, error) pair where io.EOF-style exhaustion is represented by a
// nil row and a nil error.
// ═══════════════════════════════════════════════════════════════════════════════

// ResultProcessor pulls rows from an upstream stage, transforms or filters
// them, and yields them to its downstream caller one at a time.
type ResultProcessor interface {
	// Next returns the next row, or (nil, nil) once the chain is exhausted.
	Next() (*Row, error)
}

// rpIndexIterator is the root of every chain: it walks the evaluated
// Iterator and, for each matching document, scores it and emits a Row. This
// is RPIndexIterator in original_source.
type rpIndexIterator struct {
	spec   *IndexSpec
	it     Iterator
	root   *QueryNode
	scorer Scorer
}

// NewRPIndexIterator builds the chain's root stage.
func NewRPIndexIterator(spec *IndexSpec, it Iterator, root *QueryNode, scorer Scorer) ResultProcessor {
	if scorer == nil {
		scorer = BM25Scorer{}
	}
	return &rpIndexIterator{spec: spec, it: it, root: root, scorer: scorer}
}

func (r *rpIndexIterator) Next() (*Row, error) {
	for {
		doc, ok := r.it.Read()
		if !ok {
			return nil, nil
		}
		// TEXT postings of deleted documents stay in place; skip them here.
		if r.spec != nil && !r.spec.docs.Exists(doc) {
			continue
		}
		score, explain := r.scorer.Score(r.spec, doc, r.root, false)
		row := NewRow(doc, score)
		row.Explain = explain
		return row, nil
	}
}

// rpScorer re-scores rows using an alternate Scorer, used when a query
// supplies a SCORER override distinct from the chain's default.
type rpScorer struct {
	upstream ResultProcessor
	spec     *IndexSpec
	root     *QueryNode
	scorer   Scorer
	explain  bool
}

// NewRPScorer wraps upstream, replacing each row's score.
func NewRPScorer(upstream ResultProcessor, spec *IndexSpec, root *QueryNode, scorer Scorer, explain bool) ResultProcessor {
	return &rpScorer{upstream: upstream, spec: spec, root: root, scorer: scorer, explain: explain}
}

func (r *rpScorer) Next() (*Row, error) {
	row, err := r.upstream.Next()
	if err != nil || row == nil {
		return row, err
	}
	score, explain := r.scorer.Score(r.spec, row.DocID, r.root, r.explain)
	row.Score = score
	row.Explain = explain
	return row, nil
}

// DrainAll pulls rows from chain until it is exhausted, keeping at most limit
// of them, and returns the kept rows along with the total number of rows the
// chain produced.
func DrainAll(chain ResultProcessor, limit int) ([]*Row, int, error) {
	var rows []*Row
	count := 0
	for {
		row, err := chain.Next()
		if err != nil {
			return rows, count, err
		}
		if row == nil {
			break
		}
		count++
		if len(rows) < limit {
			rows = append(rows, row)
		}
	}
	return rows, count, nil
}

// BuildResultChain assembles the stages a Search call needs: score → sort →
// page → load → (optionally) highlight.
func BuildResultChain(spec *IndexSpec, it Iterator, req *SearchRequest) ResultProcessor {
	var chain ResultProcessor = NewRPIndexIterator(spec, it, req.Root, req.Scorer)
	chain = NewRPSorter(chain, req.Offset+req.Limit, req.SortBy, spec)
	chain = NewRPPager(chain, req.Offset, req.Limit)
	chain = NewResultsLoader(chain, spec, req.ReturnFields)
	if req.Highlight != nil {
		if req.Highlight.Terms == nil {
			req.Highlight.Terms = collectTerms(req.Root)
		}
		chain = NewHighlighter(chain, spec, req.Highlight)
	}
	return chain
}

// BuildAggregateChain assembles the stages an Aggregate call needs: each
// AggregateStep contributes its own stage, built by its Build method.
func BuildAggregateChain(spec *IndexSpec, it Iterator, plan *AggregatePlan) ResultProcessor {
	var chain ResultProcessor = NewRPIndexIterator(spec, it, nil, BM25Scorer{})
	for _, step := range plan.Steps {
		chain = step.Build(chain, spec)
	}
	return chain
}
