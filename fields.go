package ember

// ═══════════════════════════════════════════════════════════════════════════════
// SCHEMA
// ═══════════════════════════════════════════════════════════════════════════════
// A Schema names the fields an IndexSpec indexes and how each one is stored.
// Field type names (Text/Numeric/Tag/Geo) and the weight/sortable/noindex
// knobs follow the FT.CREATE field-option vocabulary used across the
// RediSearch-client examples in the pack (redisearch-go, libredis).
// ═══════════════════════════════════════════════════════════════════════════════

// FieldType identifies how a field's values are indexed.
type FieldType int

const (
	TextField FieldType = iota
	NumericField
	TagField
	GeoField
)

func (t FieldType) String() string {
	switch t {
	case TextField:
		return "TEXT"
	case NumericField:
		return "NUMERIC"
	case TagField:
		return "TAG"
	case GeoField:
		return "GEO"
	default:
		return "UNKNOWN"
	}
}

// FieldSpec declares one field of a Schema.
type FieldSpec struct {
	Name      string
	Type      FieldType
	Weight    float64 // TEXT only; defaults to 1.0
	Sortable  bool
	NoIndex   bool // stored for retrieval/highlighting but not searchable
	Separator byte // TAG only; defaults to ','
}

// Schema is the ordered set of fields an IndexSpec understands.
type Schema struct {
	Fields []FieldSpec
	byName map[string]*FieldSpec
}

// NewSchema builds a Schema from field declarations, filling in defaults.
func NewSchema(fields ...FieldSpec) *Schema {
	s := &Schema{byName: make(map[string]*FieldSpec, len(fields))}
	for i := range fields {
		f := fields[i]
		if f.Type == TextField && f.Weight == 0 {
			f.Weight = 1.0
		}
		if f.Type == TagField && f.Separator == 0 {
			f.Separator = ','
		}
		s.Fields = append(s.Fields, f)
		s.byName[f.Name] = &s.Fields[len(s.Fields)-1]
	}
	return s
}

// Field looks up a field declaration by name.
func (s *Schema) Field(name string) (*FieldSpec, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// FieldMaskFor returns the bit (1<<index) assigned to a field, used by
// QueryNodeOptions.FieldMask to restrict a term/phrase node to a subset of
// TEXT fields. Fields beyond the first 64 share bit 63, matching the C
// implementation's t_fieldMask saturation behavior.
func (s *Schema) FieldMaskFor(name string) uint64 {
	for i, f := range s.Fields {
		if f.Name == name {
			if i >= 63 {
				return 1 << 63
			}
			return 1 << uint(i)
		}
	}
	return 0
}

// AllFieldsMask is the field mask matching every field, used as the default
// for nodes that were not given an explicit IN FIELDS clause.
const AllFieldsMask uint64 = ^uint64(0)
