package ember

// ═══════════════════════════════════════════════════════════════════════════════
// ResultsLoader
// ═══════════════════════════════════════════════════════════════════════════════
// The loader is the last stage before a row leaves the core: it pulls the
// caller's requested RETURN fields out of the spec's per-field stores via
// IndexSpec.Load, deferring that work until after sorting/paging so it only
// ever loads the rows that actually make it into the final page — exactly
// the ResultsLoader optimization in original_source/src/result_processor.c.
// ═══════════════════════════════════════════════════════════════════════════════

type resultsLoader struct {
	upstream ResultProcessor
	source   RowSource
	fields   []string
}

// NewResultsLoader builds a field-loading stage. If fields is empty, every
// schema field is loaded.
func NewResultsLoader(upstream ResultProcessor, source RowSource, fields []string) ResultProcessor {
	return &resultsLoader{upstream: upstream, source: source, fields: fields}
}

func (l *resultsLoader) Next() (*Row, error) {
	row, err := l.upstream.Next()
	if err != nil || row == nil {
		return row, err
	}
	fields := l.fields
	if len(fields) == 0 {
		if spec, ok := l.source.(*IndexSpec); ok {
			for _, f := range spec.Schema.Fields {
				fields = append(fields, f.Name)
			}
		}
	}
	if err := l.source.Load(row.DocID, fields, row); err != nil {
		return nil, err
	}
	return row, nil
}
