package ember

import "strconv"

// ═══════════════════════════════════════════════════════════════════════════════
// QUERY AST
// ═══════════════════════════════════════════════════════════════════════════════
// Node variants and QueryNodeOptions fields are taken directly from
// original_source/src/query_node.h's QueryNodeType enum and
// QueryNodeOptions struct: every parsed query, whatever surface syntax
// produced it, becomes one of these node shapes before the evaluator ever
// sees it.
// ═══════════════════════════════════════════════════════════════════════════════

// NodeType identifies a QueryNode's shape.
type NodeType int

const (
	NodeTerm NodeType = iota
	NodePhrase
	NodeUnion
	NodeIntersect
	NodeNot
	NodeOptional
	NodeNumericRange
	NodeTag
	NodeGeo
	NodePrefix
	NodeFuzzy
	NodeWildcard
	NodeIDs
	NodeVerbatim // a node explicitly pinned against further Expand rewriting
)

// NodeOptions carries the per-node modifiers original_source's
// QueryNodeOptions struct groups together: which fields a term/phrase may
// match, how much it weighs in scoring, the maximum slop for phrase
// matching, whether phrase order must be preserved, and whether phonetic
// matching is requested.
type NodeOptions struct {
	FieldMask  uint64
	Weight     float64
	MaxSlop    int // -1 means unbounded
	InOrder    bool
	Phonetic   bool
}

// DefaultNodeOptions returns the baseline modifiers: all fields, weight 1,
// unlimited slop, order not enforced, phonetic off.
func DefaultNodeOptions() NodeOptions {
	return NodeOptions{FieldMask: AllFieldsMask, Weight: 1.0, MaxSlop: -1}
}

// QueryNode is one node of the query AST.
type QueryNode struct {
	Type    NodeType
	Opts    NodeOptions

	// NodeTerm / NodePrefix / NodeFuzzy / NodeWildcard
	Term     string
	MaxEdits int // NodeFuzzy only

	// NodePhrase
	Terms []string

	// NodeUnion / NodeIntersect
	Children []*QueryNode

	// NodeNot / NodeOptional
	Child *QueryNode

	// NodeNumericRange
	Field                    string
	Min, Max                 float64
	MinExclusive, MaxExclusive bool

	// NodeTag
	TagField string
	Tags     []string

	// NodeGeo
	GeoField string
	Center   GeoPoint
	Radius   float64
	Unit     GeoUnit

	// NodeIDs
	IDs []int
}

// NewTerm builds a single-term leaf node.
func NewTerm(term string) *QueryNode {
	return &QueryNode{Type: NodeTerm, Term: term, Opts: DefaultNodeOptions()}
}

// NewPhrase builds an ordered multi-term phrase node.
func NewPhrase(terms ...string) *QueryNode {
	opts := DefaultNodeOptions()
	opts.InOrder = true
	opts.MaxSlop = 0
	return &QueryNode{Type: NodePhrase, Terms: terms, Opts: opts}
}

// NewUnionNode builds an OR node over its children.
func NewUnionNode(children ...*QueryNode) *QueryNode {
	return &QueryNode{Type: NodeUnion, Children: children, Opts: DefaultNodeOptions()}
}

// NewIntersectNode builds an AND node over its children.
func NewIntersectNode(children ...*QueryNode) *QueryNode {
	return &QueryNode{Type: NodeIntersect, Children: children, Opts: DefaultNodeOptions()}
}

// NewNotNode negates child against the index's full document universe.
func NewNotNode(child *QueryNode) *QueryNode {
	return &QueryNode{Type: NodeNot, Child: child, Opts: DefaultNodeOptions()}
}

// NewOptionalNode marks child as a non-mandatory scoring contributor.
func NewOptionalNode(child *QueryNode) *QueryNode {
	return &QueryNode{Type: NodeOptional, Child: child, Opts: DefaultNodeOptions()}
}

// NewNumericRange builds a NUMERIC field range node.
func NewNumericRange(field string, min, max float64, minExcl, maxExcl bool) *QueryNode {
	return &QueryNode{Type: NodeNumericRange, Field: field, Min: min, Max: max,
		MinExclusive: minExcl, MaxExclusive: maxExcl, Opts: DefaultNodeOptions()}
}

// NewTag builds a TAG field match node over one or more tag values.
func NewTag(field string, tags ...string) *QueryNode {
	return &QueryNode{Type: NodeTag, TagField: field, Tags: tags, Opts: DefaultNodeOptions()}
}

// NewGeo builds a GEO field radius node.
func NewGeo(field string, center GeoPoint, radius float64, unit GeoUnit) *QueryNode {
	return &QueryNode{Type: NodeGeo, GeoField: field, Center: center, Radius: radius, Unit: unit, Opts: DefaultNodeOptions()}
}

// NewPrefix builds a prefix-expansion node ("hel*").
func NewPrefix(term string) *QueryNode {
	return &QueryNode{Type: NodePrefix, Term: term, Opts: DefaultNodeOptions()}
}

// NewFuzzy builds a fuzzy-expansion node ("%hello%", maxEdits typically 1-2).
func NewFuzzy(term string, maxEdits int) *QueryNode {
	return &QueryNode{Type: NodeFuzzy, Term: term, MaxEdits: maxEdits, Opts: DefaultNodeOptions()}
}

// NewWildcardNode builds a `*` match-everything node.
func NewWildcardNode() *QueryNode {
	return &QueryNode{Type: NodeWildcard, Opts: DefaultNodeOptions()}
}

// NewIDsNode builds an inline document-id allow-list node.
func NewIDsNode(ids ...int) *QueryNode {
	return &QueryNode{Type: NodeIDs, IDs: ids, Opts: DefaultNodeOptions()}
}

// SetFieldMask restricts n (and its subtree, for union/intersect) to the
// given set of fields, mirroring QueryNode_SetFieldMask's propagation down
// through AND/OR groups.
func SetFieldMask(n *QueryNode, mask uint64) {
	n.Opts.FieldMask = mask
	for _, c := range n.Children {
		SetFieldMask(c, mask)
	}
	if n.Child != nil {
		SetFieldMask(n.Child, mask)
	}
}

// SetGlobalFilter wraps root in an intersection with an externally-supplied
// filter node (a NUMERIC/TAG/GEO restriction applied ahead of full-text
// scoring), mirroring QAST_SetGlobalFilters.
func SetGlobalFilter(root *QueryNode, filter *QueryNode) *QueryNode {
	if root == nil {
		return filter
	}
	return NewIntersectNode(root, filter)
}

// attrNames lists the `=>{$key: value}` attribute keys original_source's
// query.c parser recognizes on any node.
var attrNames = map[string]bool{
	"weight":   true,
	"slop":     true,
	"inorder":  true,
	"phonetic": true,
}

// ApplyAttributes validates and applies a parsed `=>{$weight: 2.0, ...}`
// style attribute clause to every node of n's subtree, mirroring
// QueryNode_ApplyAttributes: an unrecognized key fails with NoOption, and an
// out-of-range value fails with Syntax. attrs keys are attribute names
// without the leading `$`.
func ApplyAttributes(n *QueryNode, attrs map[string]string) error {
	if n == nil {
		return nil
	}
	for key, val := range attrs {
		if !attrNames[key] {
			return NewError(NoOption, "unknown attribute %q", key)
		}
		switch key {
		case "weight":
			w, err := strconv.ParseFloat(val, 64)
			if err != nil || w < 0 {
				return NewError(Syntax, "weight %q out of range", val)
			}
			n.Opts.Weight = w
		case "slop":
			slop, err := strconv.Atoi(val)
			if err != nil || slop < -1 {
				return NewError(Syntax, "slop %q out of range", val)
			}
			n.Opts.MaxSlop = slop
		case "inorder":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return NewError(Syntax, "inorder %q is not a boolean", val)
			}
			n.Opts.InOrder = b
		case "phonetic":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return NewError(Syntax, "phonetic %q is not a boolean", val)
			}
			n.Opts.Phonetic = b
		}
	}
	for _, c := range n.Children {
		if err := ApplyAttributes(c, attrs); err != nil {
			return err
		}
	}
	if n.Child != nil {
		if err := ApplyAttributes(n.Child, attrs); err != nil {
			return err
		}
	}
	return nil
}

// Expand rewrites every NodePrefix/NodeFuzzy leaf in the tree into a
// NodeUnion of the literal terms a field's term dictionary holds, applying
// cfg's expansion cap. Non-expandable nodes and already-expanded subtrees
// (NodeVerbatim) pass through unchanged.
func Expand(n *QueryNode, dict *TermDict, cfg Config) (*QueryNode, error) {
	if n == nil {
		return nil, nil
	}
	switch n.Type {
	case NodePrefix:
		if len(n.Term) < cfg.MinTermPrefix {
			return nil, NewError(Syntax, "prefix %q shorter than minimum %d", n.Term, cfg.MinTermPrefix)
		}
		terms, err := dict.ExpandPrefix(n.Term, cfg.MaxPrefixExpansions)
		if err != nil {
			return nil, err
		}
		return expandedUnion(terms, n.Opts), nil
	case NodeFuzzy:
		terms, err := dict.ExpandFuzzy(n.Term, n.MaxEdits, cfg.MaxPrefixExpansions)
		if err != nil {
			return nil, err
		}
		return expandedUnion(terms, n.Opts), nil
	case NodeWildcard:
		return n, nil
	case NodeUnion, NodeIntersect:
		out := &QueryNode{Type: n.Type, Opts: n.Opts}
		for _, c := range n.Children {
			ec, err := Expand(c, dict, cfg)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, ec)
		}
		return out, nil
	case NodeNot, NodeOptional:
		ec, err := Expand(n.Child, dict, cfg)
		if err != nil {
			return nil, err
		}
		out := &QueryNode{Type: n.Type, Opts: n.Opts, Child: ec}
		return out, nil
	default:
		return n, nil
	}
}

func expandedUnion(terms []string, opts NodeOptions) *QueryNode {
	if len(terms) == 0 {
		return &QueryNode{Type: NodeUnion, Opts: opts}
	}
	children := make([]*QueryNode, len(terms))
	for i, t := range terms {
		children[i] = &QueryNode{Type: NodeTerm, Term: t, Opts: opts}
	}
	return &QueryNode{Type: NodeUnion, Children: children, Opts: opts}
}
