package ember

import (
	"log/slog"
	"sync"
)

// ═══════════════════════════════════════════════════════════════════════════════
// INDEX SPEC
// ═══════════════════════════════════════════════════════════════════════════════
// IndexSpec ties every component together: the Schema describing what fields
// exist, one per-field index per TEXT/NUMERIC/TAG/GEO field, the shared
// document-metadata table, the indexing pipeline that actually mutates all of
// the above, and the engine Config every component reads. This plays the
// role IndexSpec plays in original_source: the one object a Search or
// Aggregate call is issued against.
// ═══════════════════════════════════════════════════════════════════════════════

// IndexSpec is a single named full-text/aggregation index.
type IndexSpec struct {
	Name   string
	Schema *Schema
	Config Config

	mu       sync.RWMutex
	docs     *DocTable
	text     map[string]*InvertedIndex
	numeric  map[string]*NumericIndex
	tag      map[string]*TagIndex
	geo      map[string]*GeoIndex
	dict     map[string]*TermDict // per TEXT field term dictionary
	pipeline *Pipeline
	cursors  *CursorStore

	log *slog.Logger
}

// NewIndexSpec builds an IndexSpec over schema with the given config.
func NewIndexSpec(name string, schema *Schema, cfg Config) *IndexSpec {
	spec := &IndexSpec{
		Name:    name,
		Schema:  schema,
		Config:  cfg,
		docs:    NewDocTable(),
		text:    make(map[string]*InvertedIndex),
		numeric: make(map[string]*NumericIndex),
		tag:     make(map[string]*TagIndex),
		geo:     make(map[string]*GeoIndex),
		dict:    make(map[string]*TermDict),
		log:     slog.Default().With(slog.String("index", name)),
	}
	for _, f := range schema.Fields {
		switch f.Type {
		case TextField:
			spec.text[f.Name] = NewInvertedIndexWithConfig(cfg)
			spec.dict[f.Name] = NewTermDict()
		case NumericField:
			spec.numeric[f.Name] = NewNumericIndex()
		case TagField:
			spec.tag[f.Name] = NewTagIndex(f.Separator)
		case GeoField:
			spec.geo[f.Name] = NewGeoIndex()
		}
	}
	spec.pipeline = NewPipeline(spec)
	spec.cursors = NewCursorStore(cfg.CursorMaxIdle)
	return spec
}

// Stats returns a point-in-time snapshot of the spec's document count.
func (s *IndexSpec) Stats() Stats {
	return s.docs.Stats()
}

// TextIndex returns the per-field inverted index for a TEXT field.
func (s *IndexSpec) TextIndex(field string) (*InvertedIndex, bool) {
	idx, ok := s.text[field]
	return idx, ok
}

// NumericIndexFor returns the per-field numeric range index.
func (s *IndexSpec) NumericIndexFor(field string) (*NumericIndex, bool) {
	idx, ok := s.numeric[field]
	return idx, ok
}

// TagIndexFor returns the per-field tag index.
func (s *IndexSpec) TagIndexFor(field string) (*TagIndex, bool) {
	idx, ok := s.tag[field]
	return idx, ok
}

// GeoIndexFor returns the per-field geo index.
func (s *IndexSpec) GeoIndexFor(field string) (*GeoIndex, bool) {
	idx, ok := s.geo[field]
	return idx, ok
}

// Dict returns the term dictionary backing prefix/fuzzy expansion for a TEXT
// field.
func (s *IndexSpec) Dict(field string) (*TermDict, bool) {
	d, ok := s.dict[field]
	return d, ok
}

// Load implements RowSource by pulling each requested field's value for
// docID out of whichever per-field store holds it, backing ResultsLoader.
func (s *IndexSpec) Load(docID int, fields []string, row *Row) error {
	meta, ok := s.docs.Get(docID)
	if !ok {
		return NewError(DocNotFound, "document id %d not found", docID)
	}
	for _, name := range fields {
		if v, ok := meta.Payload[name]; ok {
			row.Set(name, v)
			continue
		}
		f, ok := s.Schema.Field(name)
		if !ok {
			continue
		}
		switch f.Type {
		case NumericField:
			if n, ok := s.numeric[name]; ok {
				if v, ok := n.Value(docID); ok {
					row.Set(name, Double(v))
				}
			}
		case TagField:
			if t, ok := s.tag[name]; ok {
				tags := t.Tags(docID)
				arr := make([]Value, len(tags))
				for i, tg := range tags {
					arr[i] = String(tg)
				}
				row.Set(name, Array(arr...))
			}
		case GeoField:
			if g, ok := s.geo[name]; ok {
				if p, ok := g.Point(docID); ok {
					row.Set(name, Array(Double(p.Lon), Double(p.Lat)))
				}
			}
		}
	}
	return nil
}

// Search resolves a query AST to a scored, paged, and loaded set of result
// rows: the external query-execute contract (spec §6's QEXEC surface).
func (s *IndexSpec) Search(req *SearchRequest) (*SearchResult, error) {
	queryRoot := req.Root
	if req.GlobalFilter != nil {
		queryRoot = SetGlobalFilter(req.Root, req.GlobalFilter)
	}
	root, err := Expand(queryRoot, s.dictForQuery(queryRoot), s.Config)
	if err != nil {
		return nil, err
	}
	it, err := Eval(root, s)
	if err != nil {
		return nil, err
	}
	chain := BuildResultChain(s, it, req)
	rows, total, err := DrainAll(chain, req.Limit+req.Offset+1)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Rows: rows, Total: total}, nil
}

// dictForQuery picks the term dictionary a prefix/fuzzy node in root expands
// against: the dictionary of the first TEXT field in the schema that has
// one. root is not inspected, so a node's field restriction does not change
// the choice.
func (s *IndexSpec) dictForQuery(root *QueryNode) *TermDict {
	for _, f := range s.Schema.Fields {
		if f.Type == TextField {
			if d, ok := s.dict[f.Name]; ok {
				return d
			}
		}
	}
	return NewTermDict()
}

// SearchRequest describes a query-execute call.
type SearchRequest struct {
	Root         *QueryNode
	GlobalFilter *QueryNode // optional pre-computed id-list node, ANDed onto Root
	Offset       int
	Limit        int
	SortBy       []SortKey
	ReturnFields []string
	Scorer       Scorer
	Highlight    *HighlightOptions
}

// SearchResult is the outcome of a Search call.
type SearchResult struct {
	Rows  []*Row
	Total int
}

// Aggregate runs an AggregatePlan over a query's matches, the external
// aggregate-execute contract.
func (s *IndexSpec) Aggregate(root *QueryNode, plan *AggregatePlan) (*CursorHandle, error) {
	it, err := Eval(root, s)
	if err != nil {
		return nil, err
	}
	chain := BuildAggregateChain(s, it, plan)
	return s.cursors.New(chain, plan.ChunkSize)
}
