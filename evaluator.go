package ember

// ═══════════════════════════════════════════════════════════════════════════════
// QUERY EVALUATOR
// ═══════════════════════════════════════════════════════════════════════════════
// Eval walks a (post-Expand) QueryNode tree and produces the Iterator that
// implements it. Each node type maps onto the iterator algebra in
// iterator.go; NOT and OPTIONAL need the spec's document universe, and
// NUMERIC/TAG/GEO leaves resolve against their dedicated per-field index
// rather than a TEXT inverted index.
//
// Open Question (a) from spec.md §9 — whether a bare single-word query
// should take a fast path that skips general AST evaluation — is answered
// here without a separate fast path: evalTerm always builds one termIterator
// per TEXT field the node's FieldMask admits, so an IN FIELDS restriction is
// never dropped, and returns that iterator unwrapped when exactly one field
// qualifies. The node's Weight is not read here, and BM25Scorer does not
// apply it either.
// ═══════════════════════════════════════════════════════════════════════════════

// Eval resolves a query AST node to a document-id Iterator against spec.
func Eval(n *QueryNode, spec *IndexSpec) (Iterator, error) {
	if n == nil {
		return NewEmptyIterator(), nil
	}
	switch n.Type {
	case NodeTerm:
		return evalTerm(n, spec)
	case NodePhrase:
		return evalPhrase(n, spec)
	case NodeUnion:
		return evalChildren(n, spec, NewUnion)
	case NodeIntersect:
		return evalChildren(n, spec, NewIntersect)
	case NodeNot:
		inner, err := Eval(n.Child, spec)
		if err != nil {
			return nil, err
		}
		return NewNot(NewWildcardIterator(spec.docs), inner), nil
	case NodeOptional:
		inner, err := Eval(n.Child, spec)
		if err != nil {
			return nil, err
		}
		return NewUnion(NewWildcardIterator(spec.docs), NewOptional(inner)), nil
	case NodeNumericRange:
		idx, ok := spec.NumericIndexFor(n.Field)
		if !ok {
			return nil, NewError(NoOption, "field %q is not NUMERIC", n.Field)
		}
		return NewBitmapIterator(idx.Range(n.Min, n.Max, n.MinExclusive, n.MaxExclusive)), nil
	case NodeTag:
		idx, ok := spec.TagIndexFor(n.TagField)
		if !ok {
			return nil, NewError(NoOption, "field %q is not TAG", n.TagField)
		}
		return NewBitmapIterator(idx.MatchAny(n.Tags)), nil
	case NodeGeo:
		idx, ok := spec.GeoIndexFor(n.GeoField)
		if !ok {
			return nil, NewError(NoOption, "field %q is not GEO", n.GeoField)
		}
		return NewBitmapIterator(idx.Radius(n.Center, n.Radius, n.Unit)), nil
	case NodeWildcard:
		return NewWildcardIterator(spec.docs), nil
	case NodeIDs:
		return NewIDsIterator(n.IDs), nil
	case NodePrefix, NodeFuzzy:
		return nil, NewError(Generic, "prefix/fuzzy node reached evaluator unexpanded")
	default:
		return nil, NewError(Generic, "unknown query node type %d", n.Type)
	}
}

// evalTerm resolves a single term against every TEXT field its field mask
// includes, unioning per-field postings.
func evalTerm(n *QueryNode, spec *IndexSpec) (Iterator, error) {
	var unions []Iterator
	for i, f := range spec.Schema.Fields {
		if f.Type != TextField || f.NoIndex {
			continue
		}
		bit := uint64(1) << uint(i)
		if i >= 63 {
			bit = uint64(1) << 63
		}
		if n.Opts.FieldMask&bit == 0 {
			continue
		}
		idx, ok := spec.TextIndex(f.Name)
		if !ok {
			continue
		}
		unions = append(unions, NewTermIterator(idx, n.Term))
	}
	switch len(unions) {
	case 0:
		return NewEmptyIterator(), nil
	case 1:
		return unions[0], nil
	default:
		return NewUnion(unions...), nil
	}
}

// evalPhrase intersects the postings of every term in the phrase, then
// filters to documents where the per-field InvertedIndex's FindAllPhrases
// finds the terms as a consecutive, in-order run. The node's MaxSlop and
// InOrder options are not read, so every phrase is matched exactly.
func evalPhrase(n *QueryNode, spec *IndexSpec) (Iterator, error) {
	if len(n.Terms) == 0 {
		return NewEmptyIterator(), nil
	}
	var per []Iterator
	var textIdx *InvertedIndex
	for i, f := range spec.Schema.Fields {
		if f.Type != TextField || f.NoIndex {
			continue
		}
		bit := uint64(1) << uint(i)
		if i >= 63 {
			bit = uint64(1) << 63
		}
		if n.Opts.FieldMask&bit == 0 {
			continue
		}
		idx, ok := spec.TextIndex(f.Name)
		if !ok {
			continue
		}
		textIdx = idx
		var termIters []Iterator
		for _, t := range n.Terms {
			termIters = append(termIters, NewTermIterator(idx, t))
		}
		per = append(per, NewIntersect(termIters...))
	}
	if len(per) == 0 {
		return NewEmptyIterator(), nil
	}
	candidates := per[0]
	if len(per) > 1 {
		candidates = NewUnion(per...)
	}
	return &phraseIterator{candidates: candidates, terms: n.Terms, idx: textIdx}, nil
}

// phraseIterator filters a candidate doc-id stream down to documents that
// actually contain the phrase's terms as a consecutive run, using the
// per-field InvertedIndex's position-level FindAllPhrases.
type phraseIterator struct {
	candidates Iterator
	terms      []string
	idx        *InvertedIndex
}

func (p *phraseIterator) Read() (int, bool) {
	for {
		doc, ok := p.candidates.Read()
		if !ok {
			return 0, false
		}
		if p.matches(doc) {
			return doc, true
		}
	}
}

func (p *phraseIterator) SkipTo(target int) (int, bool) {
	doc, ok := p.candidates.SkipTo(target)
	if !ok {
		return 0, false
	}
	if p.matches(doc) {
		return doc, true
	}
	return p.Read()
}

func (p *phraseIterator) Rewind() { p.candidates.Rewind() }
func (p *phraseIterator) Len() int { return p.candidates.Len() }

func (p *phraseIterator) matches(doc int) bool {
	if p.idx == nil {
		return false
	}
	phrases := p.idx.FindAllPhrases(joinPhrase(p.terms), BOFDocument)
	for _, occ := range phrases {
		if len(occ) > 0 && occ[0].GetDocumentID() == doc {
			return true
		}
	}
	return false
}

func joinPhrase(terms []string) string {
	out := terms[0]
	for _, t := range terms[1:] {
		out += " " + t
	}
	return out
}

func evalChildren(n *QueryNode, spec *IndexSpec, combine func(...Iterator) Iterator) (Iterator, error) {
	iters := make([]Iterator, 0, len(n.Children))
	for _, c := range n.Children {
		it, err := Eval(c, spec)
		if err != nil {
			return nil, err
		}
		iters = append(iters, it)
	}
	if len(iters) == 0 {
		return NewEmptyIterator(), nil
	}
	return combine(iters...), nil
}
