package ember

import (
	"sync"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════════
// CURSOR PROTOCOL
// ═══════════════════════════════════════════════════════════════════════════════
// A Cursor holds a paused result-processor chain keyed by an opaque id, so a
// caller can page through a large aggregation across several round trips
// without holding the engine's lock for the whole query. Grounded on the
// same queue/mutex idiom the indexing pipeline uses (pipeline.go) rather
// than inventing a new concurrency primitive; the idle reaper is a ticking
// goroutine of its own (a Pipeline runs no timer: its worker waits on a
// condition variable).
// ═══════════════════════════════════════════════════════════════════════════════

// CursorHandle is the caller-visible identifier for a paused chain.
type CursorHandle struct {
	ID int64
}

type cursorEntry struct {
	chain     ResultProcessor
	chunkSize int
	lastUsed  time.Time
	exhausted bool
}

// CursorStore holds every live cursor for an IndexSpec.
type CursorStore struct {
	mu       sync.Mutex
	entries  map[int64]*cursorEntry
	nextID   int64
	maxIdle  time.Duration
	stopCh   chan struct{}
}

// NewCursorStore creates a cursor store and starts its idle reaper.
func NewCursorStore(maxIdle time.Duration) *CursorStore {
	s := &CursorStore{entries: make(map[int64]*cursorEntry), maxIdle: maxIdle, stopCh: make(chan struct{})}
	go s.reap()
	return s
}

// New registers a fresh chain under a new cursor id.
func (s *CursorStore) New(chain ResultProcessor, chunkSize int) (*CursorHandle, error) {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.entries[id] = &cursorEntry{chain: chain, chunkSize: chunkSize, lastUsed: time.Now()}
	return &CursorHandle{ID: id}, nil
}

// Read resumes the chain for up to count rows (or the cursor's configured
// chunk size, whichever is smaller), returning the rows and whether more
// remain.
func (s *CursorStore) Read(id int64, count int) ([]*Row, bool, error) {
	s.mu.Lock()
	entry, ok := s.entries[id]
	s.mu.Unlock()
	if !ok {
		return nil, false, ErrCursorNotFound
	}
	if count <= 0 || count > entry.chunkSize {
		count = entry.chunkSize
	}
	var rows []*Row
	for len(rows) < count {
		row, err := entry.chain.Next()
		if err != nil {
			return rows, false, err
		}
		if row == nil {
			entry.exhausted = true
			break
		}
		rows = append(rows, row)
	}
	entry.lastUsed = time.Now()
	if entry.exhausted {
		s.Del(id)
		return rows, false, nil
	}
	return rows, true, nil
}

// Del releases a cursor, abandoning whatever rows it had not yet produced.
func (s *CursorStore) Del(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Stop halts the idle reaper goroutine.
func (s *CursorStore) Stop() {
	close(s.stopCh)
}

func (s *CursorStore) reap() {
	ticker := time.NewTicker(s.maxIdle)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for id, e := range s.entries {
				if now.Sub(e.lastUsed) > s.maxIdle {
					delete(s.entries, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
