package ember

import "testing"

func TestCollectTerms(t *testing.T) {
	root := NewIntersectNode(
		NewTerm("alpha"),
		NewUnionNode(NewTerm("beta"), NewPhrase("gamma", "delta")),
		NewNotNode(NewTerm("excluded")),
	)
	got := collectTerms(root)
	want := map[string]bool{"alpha": true, "beta": true, "gamma": true, "delta": true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want terms %v", got, want)
	}
	for _, term := range got {
		if !want[term] {
			t.Fatalf("unexpected term %q in %v", term, got)
		}
	}
	for _, term := range got {
		if term == "excluded" {
			t.Fatalf("NOT child's term should not contribute to scoring")
		}
	}
}

func TestBM25ScorerScoresMatchedDocument(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "quick quick fox", 1, "a")
	addTestDoc(t, spec, "doc:2", "slow turtle", 2, "a")

	id1, _ := spec.docs.GetID("doc:1")
	id2, _ := spec.docs.GetID("doc:2")

	scorer := BM25Scorer{}
	score1, _ := scorer.Score(spec, id1, NewTerm("quick"), false)
	score2, _ := scorer.Score(spec, id2, NewTerm("quick"), false)

	if score1 <= 0 {
		t.Fatalf("expected positive score for matching document, got %v", score1)
	}
	if score2 != 0 {
		t.Fatalf("expected zero score for non-matching document, got %v", score2)
	}
}

func TestBM25ScorerExplain(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()
	addTestDoc(t, spec, "doc:1", "hello world", 1, "a")
	id1, _ := spec.docs.GetID("doc:1")

	scorer := BM25Scorer{}
	_, explain := scorer.Score(spec, id1, NewTerm("hello"), true)
	if explain == nil || explain.Summary == "" {
		t.Fatalf("expected non-nil explain with a summary when explain=true")
	}
}
