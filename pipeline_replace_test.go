package ember

import "testing"

func TestAddDocumentDuplicateKeyFails(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "hello world", 1, "x")
	err := spec.pipeline.AddDocument("doc:1", map[string]string{"body": "goodbye world"}, map[string]Value{"price": Double(2), "category": String("x")}, true)
	if !IsKind(err, DocExists) {
		t.Fatalf("expected DocExists error on duplicate add, got %v", err)
	}
}

func TestReplaceOverwritesPayload(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "hello world", 1, "x")
	err := spec.pipeline.AddDocumentWithOptions("doc:1",
		map[string]string{"body": "goodbye world"},
		map[string]Value{"price": Double(2), "category": String("y")},
		AddOptions{Replace: true}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, ok := spec.docs.GetID("doc:1")
	if !ok {
		t.Fatalf("expected doc:1 to exist after replace")
	}
	meta, ok := spec.docs.Get(id)
	if !ok {
		t.Fatalf("expected metadata for replaced doc")
	}
	if len(meta.Payload) != 3 {
		t.Fatalf("expected only the new payload's 3 fields, got %v", meta.Payload)
	}
	if meta.Payload["category"].Str != "y" {
		t.Fatalf("expected replaced category 'y', got %v", meta.Payload["category"])
	}

	result, err := spec.Search(&SearchRequest{Root: NewTag("category", "x"), Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 0 {
		t.Fatalf("expected 0 matches for old category after replace, got %d", result.Total)
	}
	result, err = spec.Search(&SearchRequest{Root: NewTag("category", "y"), Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected 1 match for new category after replace, got %d", result.Total)
	}
}

func TestReplacePartialMergesFields(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "hello world", 1, "x")
	err := spec.pipeline.AddDocumentWithOptions("doc:1", nil,
		map[string]Value{"price": Double(99)},
		AddOptions{Replace: true, Partial: true}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, ok := spec.docs.GetID("doc:1")
	if !ok {
		t.Fatalf("expected doc:1 to exist after partial replace")
	}
	meta, _ := spec.docs.Get(id)
	if meta.Payload["price"].Double != 99 {
		t.Fatalf("expected updated price 99, got %v", meta.Payload["price"])
	}
	if meta.Payload["category"].Str != "x" {
		t.Fatalf("expected category carried over from old payload, got %v", meta.Payload["category"])
	}
	if meta.Payload["body"].Str != "hello world" {
		t.Fatalf("expected body carried over from old payload, got %v", meta.Payload["body"])
	}

	// the carried-over category tag must still be searchable under the new id.
	result, err := spec.Search(&SearchRequest{Root: NewTag("category", "x"), Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected carried-over tag to remain searchable, got %d", result.Total)
	}
}

func TestReplaceWithoutPartialDropsUnlistedFields(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "hello world", 1, "x")
	err := spec.pipeline.AddDocumentWithOptions("doc:1",
		map[string]string{"body": "new text"},
		map[string]Value{"price": Double(5), "category": String("x")},
		AddOptions{Replace: true}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	matches, err := spec.QuickSearch("body", "hello", RankBM25Mode, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = matches // old posting for "hello" is orphaned under the dead id; the live doc no longer uses that word.

	result, err := spec.Search(&SearchRequest{Root: NewTerm("new"), Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected the new body text to be searchable, got %d", result.Total)
	}
}

func TestReplaceNoCreateFailsWhenMissing(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	err := spec.pipeline.AddDocumentWithOptions("doc:404",
		map[string]string{"body": "x"}, nil,
		AddOptions{Replace: true, NoCreate: true}, true)
	if !IsKind(err, DocNotFound) {
		t.Fatalf("expected DocNotFound for NOCREATE on missing doc, got %v", err)
	}
}

func TestReplaceNoSaveSkipsPayloadStorage(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	err := spec.pipeline.AddDocumentWithOptions("doc:1",
		map[string]string{"body": "searchable text"},
		map[string]Value{"price": Double(1), "category": String("x")},
		AddOptions{NoSave: true}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, ok := spec.docs.GetID("doc:1")
	if !ok {
		t.Fatalf("expected doc:1 to exist")
	}
	meta, _ := spec.docs.Get(id)
	if len(meta.Payload) != 0 {
		t.Fatalf("expected NOSAVE to store no payload, got %v", meta.Payload)
	}

	result, err := spec.Search(&SearchRequest{Root: NewTerm("searchable"), Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("expected NOSAVE doc to still be indexed and searchable, got %d", result.Total)
	}
}

func TestAddThenReplaceRoundTripReturnsOnlyNewPayload(t *testing.T) {
	spec := newTestSpec()
	defer spec.cursors.Stop()
	defer spec.pipeline.Close()

	addTestDoc(t, spec, "doc:1", "first body", 1, "a")
	err := spec.pipeline.AddDocumentWithOptions("doc:1",
		map[string]string{"body": "second body"},
		map[string]Value{"price": Double(2), "category": String("b")},
		AddOptions{Replace: true}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, ok := spec.docs.GetID("doc:1")
	if !ok {
		t.Fatalf("expected doc:1 to exist")
	}
	meta, _ := spec.docs.Get(id)
	if meta.Payload["body"].Str != "second body" || meta.Payload["category"].Str != "b" || meta.Payload["price"].Double != 2 {
		t.Fatalf("expected round-trip to return only new payload, got %v", meta.Payload)
	}
	if len(meta.Payload) != 3 {
		t.Fatalf("expected exactly the new call's 3 fields, got %d: %v", len(meta.Payload), meta.Payload)
	}
}
