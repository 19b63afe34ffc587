package ember

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// BLOCKED POSTINGS
// ═══════════════════════════════════════════════════════════════════════════════
// A term's postings are split across fixed-size blocks instead of one flat
// list, the way original_source/src/inverted_index.c's IndexBlock/
// InvertedIndex rollover works: IndexBlock_Add appends to the current block
// until either Config.DocsPerBlock documents or roughly Config.BytesPerBlock
// bytes have accumulated, then InvertedIndex_AddBlock starts a new one.
// Each block tracks FirstID/LastID/NumDocs so a SkipTo can binary-search
// straight to the block that might hold the target instead of scanning every
// document id, mirroring the block-level skip the C implementation's
// IndexReader_SkipTo performs before falling back to a linear scan inside
// the located block.
// ═══════════════════════════════════════════════════════════════════════════════

// IndexBlock is one fixed-size run of a term's posting list.
type IndexBlock struct {
	FirstID int
	LastID  int
	NumDocs int
	ids     []int // ascending; document ids are assigned monotonically so
	// appends within a block are already in order.
}

func newIndexBlock() *IndexBlock {
	return &IndexBlock{}
}

func (b *IndexBlock) add(docID int) {
	if b.NumDocs == 0 {
		b.FirstID = docID
	}
	b.LastID = docID
	b.NumDocs++
	b.ids = append(b.ids, docID)
}

// approxBytes estimates a block's encoded size the way the C implementation's
// bytes-per-block rollover check does. The real encoder varint-deltas each
// posting; this is a flat per-posting estimate since blocks here hold plain
// ints rather than a compressed byte buffer.
func (b *IndexBlock) approxBytes() int {
	return b.NumDocs * 4
}

// BlockedPostingList is a term's posting list, split into IndexBlocks.
type BlockedPostingList struct {
	DocsPerBlock  int
	BytesPerBlock int
	blocks        []*IndexBlock
}

// NewBlockedPostingList builds an empty posting list with cfg's rollover
// thresholds.
func NewBlockedPostingList(cfg Config) *BlockedPostingList {
	docsPerBlock := cfg.DocsPerBlock
	if docsPerBlock <= 0 {
		docsPerBlock = 100
	}
	bytesPerBlock := cfg.BytesPerBlock
	if bytesPerBlock <= 0 {
		bytesPerBlock = 1 << 16
	}
	return &BlockedPostingList{DocsPerBlock: docsPerBlock, BytesPerBlock: bytesPerBlock}
}

// Add appends docID to the list's current block, rolling over to a new block
// once either rollover threshold is reached. Adding the same docID twice in a
// row is a no-op (mirrors the bitmap's own de-duplication for repeated
// occurrences of a term within one document).
func (p *BlockedPostingList) Add(docID int) {
	if n := len(p.blocks); n > 0 && p.blocks[n-1].LastID == docID && p.blocks[n-1].NumDocs > 0 {
		return
	}
	if len(p.blocks) == 0 {
		p.blocks = append(p.blocks, newIndexBlock())
	}
	last := p.blocks[len(p.blocks)-1]
	if last.NumDocs > 0 && (last.NumDocs >= p.DocsPerBlock || last.approxBytes() >= p.BytesPerBlock) {
		last = newIndexBlock()
		p.blocks = append(p.blocks, last)
	}
	last.add(docID)
}

// find locates the smallest indexed docID >= target, returning the block and
// in-block index it lives at.
func (p *BlockedPostingList) find(target int) (blockIdx, pos int, ok bool) {
	lo, hi := 0, len(p.blocks)
	for lo < hi {
		mid := (lo + hi) / 2
		if p.blocks[mid].LastID < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	for lo < len(p.blocks) {
		ids := p.blocks[lo].ids
		i := sort.SearchInts(ids, target)
		if i < len(ids) {
			return lo, i, true
		}
		lo++
	}
	return 0, 0, false
}

// SkipTo returns the smallest indexed docID >= target.
func (p *BlockedPostingList) SkipTo(target int) (int, bool) {
	blockIdx, pos, ok := p.find(target)
	if !ok {
		return 0, false
	}
	return p.blocks[blockIdx].ids[pos], true
}

// NumBlocks reports how many blocks the list has rolled over into.
func (p *BlockedPostingList) NumBlocks() int { return len(p.blocks) }

// Len reports the total number of documents across every block.
func (p *BlockedPostingList) Len() int {
	n := 0
	for _, b := range p.blocks {
		n += b.NumDocs
	}
	return n
}

// ─── blockIterator ──────────────────────────────────────────────────────────

// blockIterator walks a BlockedPostingList's blocks in order, implementing
// Iterator with a block-level binary-search SkipTo.
type blockIterator struct {
	list       *BlockedPostingList
	blockIdx   int
	posInBlock int
}

func newBlockIterator(list *BlockedPostingList) Iterator {
	return &blockIterator{list: list}
}

func (b *blockIterator) Read() (int, bool) {
	for b.blockIdx < len(b.list.blocks) {
		blk := b.list.blocks[b.blockIdx]
		if b.posInBlock < len(blk.ids) {
			id := blk.ids[b.posInBlock]
			b.posInBlock++
			return id, true
		}
		b.blockIdx++
		b.posInBlock = 0
	}
	return 0, false
}

func (b *blockIterator) SkipTo(target int) (int, bool) {
	blockIdx, pos, ok := b.list.find(target)
	if !ok {
		b.blockIdx = len(b.list.blocks)
		return 0, false
	}
	b.blockIdx, b.posInBlock = blockIdx, pos
	return b.Read()
}

func (b *blockIterator) Rewind() {
	b.blockIdx, b.posInBlock = 0, 0
}

func (b *blockIterator) Len() int { return b.list.Len() }
