package ember

// ═══════════════════════════════════════════════════════════════════════════════
// FORWARD INDEX AND MERGE
// ═══════════════════════════════════════════════════════════════════════════════
// Grounded on original_source/src/indexer.c's ForwardIndexEntry/MergeHashTable/
// doMerge: rather than writing a document's tokens into the shared inverted
// index one document at a time, every document in a bulk batch first builds
// its own ForwardIndex (its tokens in position order), and the whole batch's
// forward indexes are grouped by term before any of them touch the inverted
// index. This turns N per-document lock/append passes into one pass per
// term across the whole batch, the same efficiency doMerge buys
// DocumentIndexer::Process.
// ═══════════════════════════════════════════════════════════════════════════════

// ForwardIndex is one document's analyzed tokens for one TEXT field, held
// only long enough to be merged into the field's InvertedIndex.
type ForwardIndex struct {
	DocID  int
	Tokens []string
}

// forwardIndexEntry is one document's position list for a single term,
// the unit doMerge groups by term across a whole bulk batch.
type forwardIndexEntry struct {
	docID     int
	positions []int
}

// mergeForwardIndexes groups batch's tokens by term, mirroring doMerge's
// MergeHashTable: every document's occurrences of a term are collected into
// one entry list before any of them are written into the inverted index.
func mergeForwardIndexes(batch []*ForwardIndex) map[string][]forwardIndexEntry {
	merged := make(map[string][]forwardIndexEntry)
	for _, fw := range batch {
		positions := make(map[string][]int)
		for pos, tok := range fw.Tokens {
			positions[tok] = append(positions[tok], pos)
		}
		for tok, pos := range positions {
			merged[tok] = append(merged[tok], forwardIndexEntry{docID: fw.DocID, positions: pos})
		}
	}
	return merged
}
