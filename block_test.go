package ember

import "testing"

func TestBlockedPostingListRollsOverAtDocsPerBlock(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.DocsPerBlock = 3
	cfg.BytesPerBlock = 1 << 20 // large enough that only DocsPerBlock triggers rollover
	list := NewBlockedPostingList(cfg)

	for i := 1; i <= 7; i++ {
		list.Add(i)
	}

	if got, want := list.NumBlocks(), 3; got != want {
		t.Fatalf("NumBlocks() = %d, want %d", got, want)
	}
	if got, want := list.Len(), 7; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
}

func TestBlockedPostingListRollsOverAtBytesPerBlock(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.DocsPerBlock = 1000
	cfg.BytesPerBlock = 12 // 3 postings * 4 bytes each
	list := NewBlockedPostingList(cfg)

	for i := 1; i <= 4; i++ {
		list.Add(i)
	}

	if got, want := list.NumBlocks(), 2; got != want {
		t.Fatalf("NumBlocks() = %d, want %d", got, want)
	}
}

func TestBlockedPostingListFirstLastNumDocs(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.DocsPerBlock = 2
	cfg.BytesPerBlock = 1 << 20
	list := NewBlockedPostingList(cfg)

	for _, id := range []int{1, 2, 3, 4, 5} {
		list.Add(id)
	}

	if got, want := list.NumBlocks(), 3; got != want {
		t.Fatalf("NumBlocks() = %d, want %d", got, want)
	}
	wantFirst := []int{1, 3, 5}
	wantLast := []int{2, 4, 5}
	wantNum := []int{2, 2, 1}
	for i, b := range list.blocks {
		if b.FirstID != wantFirst[i] || b.LastID != wantLast[i] || b.NumDocs != wantNum[i] {
			t.Fatalf("block %d = {First:%d Last:%d Num:%d}, want {First:%d Last:%d Num:%d}",
				i, b.FirstID, b.LastID, b.NumDocs, wantFirst[i], wantLast[i], wantNum[i])
		}
	}
}

func TestBlockedPostingListAddIgnoresImmediateRepeat(t *testing.T) {
	cfg := DefaultEngineConfig()
	list := NewBlockedPostingList(cfg)

	list.Add(5)
	list.Add(5)
	list.Add(5)

	if got, want := list.Len(), 1; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
}

func TestBlockedPostingListSkipTo(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.DocsPerBlock = 3
	cfg.BytesPerBlock = 1 << 20
	list := NewBlockedPostingList(cfg)
	for _, id := range []int{1, 4, 9, 16, 25, 36, 49} {
		list.Add(id)
	}

	cases := []struct {
		target int
		want   int
		ok     bool
	}{
		{target: 0, want: 1, ok: true},
		{target: 4, want: 4, ok: true},
		{target: 5, want: 9, ok: true},
		{target: 17, want: 25, ok: true},
		{target: 36, want: 36, ok: true},
		{target: 50, want: 0, ok: false},
	}
	for _, tc := range cases {
		got, ok := list.SkipTo(tc.target)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("SkipTo(%d) = (%d, %v), want (%d, %v)", tc.target, got, ok, tc.want, tc.ok)
		}
	}
}

func TestBlockIteratorMatchesBlockedPostingList(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.DocsPerBlock = 2
	cfg.BytesPerBlock = 1 << 20
	list := NewBlockedPostingList(cfg)
	ids := []int{2, 3, 5, 8, 13, 21}
	for _, id := range ids {
		list.Add(id)
	}

	it := newBlockIterator(list)
	var got []int
	for {
		id, ok := it.Read()
		if !ok {
			break
		}
		got = append(got, id)
	}
	if len(got) != len(ids) {
		t.Fatalf("Read() produced %v, want %v", got, ids)
	}
	for i := range ids {
		if got[i] != ids[i] {
			t.Fatalf("Read() produced %v, want %v", got, ids)
		}
	}

	it.Rewind()
	id, ok := it.SkipTo(9)
	if !ok || id != 13 {
		t.Fatalf("SkipTo(9) = (%d, %v), want (13, true)", id, ok)
	}
	id, ok = it.Read()
	if !ok || id != 21 {
		t.Fatalf("Read() after SkipTo = (%d, %v), want (21, true)", id, ok)
	}

	if got, want := it.Len(), len(ids); got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
}

func TestInvertedIndexPopulatesBlocksOnIndex(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.DocsPerBlock = 2
	cfg.BytesPerBlock = 1 << 20
	idx := NewInvertedIndexWithConfig(cfg)

	for docID := 1; docID <= 5; docID++ {
		idx.Index(docID, "hello world")
	}

	list, ok := idx.Blocks["hello"]
	if !ok {
		t.Fatalf("expected a blocked posting list for %q", "hello")
	}
	if got, want := list.Len(), 5; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	if got, want := list.NumBlocks(), 3; got != want {
		t.Fatalf("NumBlocks() = %d, want %d", got, want)
	}
}

func TestTermIteratorUsesBlocksWhenPopulated(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.DocsPerBlock = 2
	cfg.BytesPerBlock = 1 << 20
	idx := NewInvertedIndexWithConfig(cfg)

	for docID := 1; docID <= 5; docID++ {
		idx.Index(docID, "hello world")
	}

	it := NewTermIterator(idx, "hello")
	ti, isTerm := it.(*termIterator)
	if !isTerm {
		t.Fatalf("expected *termIterator, got %T", it)
	}
	if _, isBlock := ti.inner.(*blockIterator); !isBlock {
		t.Fatalf("expected block-backed inner iterator, got %T", ti.inner)
	}

	var got []int
	for {
		id, ok := it.Read()
		if !ok {
			break
		}
		got = append(got, id)
	}
	if len(got) != 5 {
		t.Fatalf("Read() produced %v, want 5 ids", got)
	}
}
