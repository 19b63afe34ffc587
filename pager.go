package ember

// ═══════════════════════════════════════════════════════════════════════════════
// RPPager
// ═══════════════════════════════════════════════════════════════════════════════
// RPPager skips the first `offset` rows its upstream produces and yields at
// most `limit` after that, matching RPPager in original_source: paging is
// applied after sorting so OFFSET/LIMIT operate on the globally ranked
// result set rather than per-shard slices.
// ═══════════════════════════════════════════════════════════════════════════════

type rpPager struct {
	upstream ResultProcessor
	offset   int
	limit    int
	skipped  int
	emitted  int
}

// NewRPPager builds a paging stage.
func NewRPPager(upstream ResultProcessor, offset, limit int) ResultProcessor {
	return &rpPager{upstream: upstream, offset: offset, limit: limit}
}

func (p *rpPager) Next() (*Row, error) {
	if p.limit > 0 && p.emitted >= p.limit {
		return nil, nil
	}
	for p.skipped < p.offset {
		row, err := p.upstream.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, nil
		}
		p.skipped++
	}
	row, err := p.upstream.Next()
	if err != nil || row == nil {
		return nil, err
	}
	p.emitted++
	return row, nil
}
