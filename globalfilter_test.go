package ember

import "testing"

func TestGlobalFilterAllOfRestrictsSearch(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "quick brown fox", 10, "animal")
	addTestDoc(t, spec, "doc:2", "quick silver market", 20, "finance")
	addTestDoc(t, spec, "doc:3", "brown bear market", 30, "animal")

	filter, err := spec.GlobalFilterAllOf("body", "quick", "brown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := spec.Search(&SearchRequest{Root: NewWildcardNode(), GlobalFilter: filter, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected 1 match for quick+brown, got %d (%v)", result.Total, result.Rows)
	}
}

func TestGlobalFilterAnyOfRestrictsSearch(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "cat lover", 10, "animal")
	addTestDoc(t, spec, "doc:2", "dog lover", 20, "animal")
	addTestDoc(t, spec, "doc:3", "fish lover", 30, "animal")

	filter, err := spec.GlobalFilterAnyOf("body", "cat", "dog")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := spec.Search(&SearchRequest{Root: NewWildcardNode(), GlobalFilter: filter, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("expected 2 matches for cat-or-dog, got %d", result.Total)
	}
}

func TestGlobalFilterExcludingRestrictsSearch(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "python snake", 10, "animal")
	addTestDoc(t, spec, "doc:2", "python programming", 20, "tech")

	filter, err := spec.GlobalFilterExcluding("body", "python", "snake")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := spec.Search(&SearchRequest{Root: NewWildcardNode(), GlobalFilter: filter, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected 1 match for python-excluding-snake, got %d", result.Total)
	}
}

func TestGlobalFilterUnknownFieldErrors(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	if _, err := spec.GlobalFilterAllOf("nope", "x"); !IsKind(err, NoOption) {
		t.Fatalf("expected NoOption error for unknown field, got %v", err)
	}
}

func TestQuickSearchBM25(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "machine learning machine learning", 10, "tech")
	addTestDoc(t, spec, "doc:2", "machine only", 20, "tech")

	matches, err := spec.QuickSearch("body", "machine learning", RankBM25Mode, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("expected at least one match")
	}
	if matches[0].DocID != 1 {
		t.Fatalf("expected doc1 to rank first, got %d", matches[0].DocID)
	}
}

func TestQuickSearchProximity(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "machine learning is great", 10, "tech")
	addTestDoc(t, spec, "doc:2", "machine code data learning far apart", 20, "tech")

	matches, err := spec.QuickSearch("body", "machine learning", RankProximityMode, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	var score1, score2 float64
	for _, m := range matches {
		switch m.DocID {
		case 1:
			score1 = m.Score
		case 2:
			score2 = m.Score
		}
	}
	if score1 <= score2 {
		t.Fatalf("expected doc1 (closer terms) to score higher: doc1=%v doc2=%v", score1, score2)
	}
}

func TestQuickSearchUnknownFieldErrors(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	if _, err := spec.QuickSearch("nope", "x", RankBM25Mode, 10); !IsKind(err, NoOption) {
		t.Fatalf("expected NoOption error for unknown field, got %v", err)
	}
}
