package ember

import "testing"

func TestDocTableAddAndGet(t *testing.T) {
	table := NewDocTable()
	id, err := table.Add("doc:1", map[string]Value{"title": String("hello")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first id to be 1, got %d", id)
	}

	gotID, ok := table.GetID("doc:1")
	if !ok || gotID != id {
		t.Fatalf("GetID = %d, %v; want %d, true", gotID, ok, id)
	}

	meta, ok := table.Get(id)
	if !ok || meta.Key != "doc:1" {
		t.Fatalf("Get(%d) = %v, %v", id, meta, ok)
	}
}

func TestDocTableAddDuplicateKey(t *testing.T) {
	table := NewDocTable()
	if _, err := table.Add("doc:1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := table.Add("doc:1", nil)
	if err == nil || !IsKind(err, DocExists) {
		t.Fatalf("expected DocExists error, got %v", err)
	}
}

func TestDocTableDeleteAndIDsNeverReused(t *testing.T) {
	table := NewDocTable()
	id1, _ := table.Add("doc:1", nil)
	if err := table.Delete("doc:1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Exists(id1) {
		t.Fatalf("expected doc:1 to no longer exist after delete")
	}

	id2, err := table.Add("doc:2", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id2 == id1 {
		t.Fatalf("expected a fresh id, got reused id %d", id2)
	}

	// Re-adding under the same key after delete gets a brand new id too.
	id3, err := table.Add("doc:1", nil)
	if err != nil {
		t.Fatalf("unexpected error re-adding deleted key: %v", err)
	}
	if id3 == id1 {
		t.Fatalf("expected monotonic id assignment, got reused id %d", id3)
	}
}

func TestDocTableDeleteNotFound(t *testing.T) {
	table := NewDocTable()
	err := table.Delete("missing")
	if err == nil || !IsKind(err, DocNotFound) {
		t.Fatalf("expected DocNotFound error, got %v", err)
	}
}

func TestDocTableStats(t *testing.T) {
	table := NewDocTable()
	table.Add("a", nil)
	table.Add("b", nil)
	table.Delete("a")

	stats := table.Stats()
	if stats.NumDocuments != 1 || stats.NumDeleted != 1 {
		t.Fatalf("got %+v, want {NumDocuments:1 NumDeleted:1}", stats)
	}
}
