package ember

import (
	"testing"
	"time"
)

func TestCursorStoreReadChunksAndExhausts(t *testing.T) {
	store := NewCursorStore(time.Hour)
	defer store.Stop()

	rows := []*Row{NewRow(1, 0), NewRow(2, 0), NewRow(3, 0)}
	handle, err := store.New(&fakeResultProcessor{rows: rows}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, more, err := store.Read(handle.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !more || len(got) != 2 {
		t.Fatalf("first chunk: got %d rows, more=%v; want 2 rows, more=true", len(got), more)
	}

	got, more, err = store.Read(handle.ID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if more || len(got) != 1 {
		t.Fatalf("second chunk: got %d rows, more=%v; want 1 row, more=false", len(got), more)
	}

	if _, _, err := store.Read(handle.ID, 2); err != ErrCursorNotFound {
		t.Fatalf("expected ErrCursorNotFound after exhaustion, got %v", err)
	}
}

func TestCursorStoreDel(t *testing.T) {
	store := NewCursorStore(time.Hour)
	defer store.Stop()

	handle, err := store.New(&fakeResultProcessor{rows: []*Row{NewRow(1, 0)}}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.Del(handle.ID)
	if _, _, err := store.Read(handle.ID, 1); err != ErrCursorNotFound {
		t.Fatalf("expected ErrCursorNotFound after Del, got %v", err)
	}
}

func TestCursorStoreIdleReaper(t *testing.T) {
	store := NewCursorStore(30 * time.Millisecond)
	defer store.Stop()

	handle, err := store.New(&fakeResultProcessor{rows: []*Row{NewRow(1, 0), NewRow(2, 0)}}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(150 * time.Millisecond)

	if _, _, err := store.Read(handle.ID, 1); err != ErrCursorNotFound {
		t.Fatalf("expected reaper to have dropped the idle cursor, got %v", err)
	}
}
