package ember

import "time"

// ═══════════════════════════════════════════════════════════════════════════════
// ENGINE CONFIGURATION
// ═══════════════════════════════════════════════════════════════════════════════
// Config is built once, at index-spec creation time, and treated as read-mostly
// for the rest of the spec's lifetime. It plays the role RSGlobalConfig plays in
// the C implementation: a small bag of tunables that every component reads but
// nothing mutates mid-flight.
// ═══════════════════════════════════════════════════════════════════════════════

// Config holds the tunables for an IndexSpec.
type Config struct {
	// MaxPrefixExpansions caps how many terms a prefix/fuzzy query node may
	// expand into before it is rejected with a TooManyResults error.
	MaxPrefixExpansions int

	// MinTermPrefix is the minimum number of literal characters a prefix query
	// must supply before the trie is walked (protects against "a*" scans).
	MinTermPrefix int

	// CursorMaxIdle is how long an aggregation cursor may sit unread before the
	// idle reaper releases it.
	CursorMaxIdle time.Duration

	// DocsPerBlock and BytesPerBlock bound how large a single inverted-index
	// posting block may grow before a new block is appended.
	DocsPerBlock   int
	BytesPerBlock  int

	// ConcurrentMode is carried in the config but read by no component: the
	// indexing pipeline and query evaluator lock the same way whatever its
	// value.
	ConcurrentMode bool

	// BulkDocs caps how many pending documents the indexing worker drains
	// into one batch; each batch is merged into the inverted index as soon as
	// it has been drained.
	BulkDocs int

	// MergeThrottleIterations mirrors the C indexer's quirk of yielding the
	// lock every fixed number of merge iterations rather than on a timer.
	MergeThrottleIterations int
}

// DefaultEngineConfig returns the engine's baseline tunables.
func DefaultEngineConfig() Config {
	return Config{
		MaxPrefixExpansions:     200,
		MinTermPrefix:           2,
		CursorMaxIdle:           10 * time.Second,
		DocsPerBlock:            100,
		BytesPerBlock:           1 << 16,
		ConcurrentMode:          true,
		BulkDocs:                1024,
		MergeThrottleIterations: 1000,
	}
}
