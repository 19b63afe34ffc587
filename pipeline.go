package ember

import (
	"log/slog"
	"sync"
)

// ═══════════════════════════════════════════════════════════════════════════════
// INDEXING PIPELINE
// ═══════════════════════════════════════════════════════════════════════════════
// Pipeline is the single worker every IndexSpec runs its writes through,
// grounded directly on original_source/src/indexer.c's
// DocumentIndexer::Process/main/Add: documents are appended to a pending
// queue under a mutex, a condition variable wakes the single background
// worker, and the worker drains the queue in bulk (up to Config.BulkDocs at
// a time) rather than indexing one document per wakeup. Every document goes
// through the queue: AddDocument's blocking parameter only makes the caller
// wait until the worker has merged the document, and no document is indexed
// on the caller's goroutine.
// ═══════════════════════════════════════════════════════════════════════════════

type pendingDoc struct {
	key    string
	fields map[string]string // TEXT fields, raw text
	values map[string]Value  // NUMERIC/TAG/GEO/noindex fields, raw value
	opts   AddOptions
	done   chan error
}

// AddOptions mirrors FT.ADD/FT.REPLACE's REPLACE/PARTIAL/NOSAVE/NOCREATE
// flags from original_source/src/document.c's RSAddDocumentCtx options.
type AddOptions struct {
	// Replace allows AddDocument to overwrite a document that already
	// exists under key instead of failing with DocExists.
	Replace bool
	// Partial, combined with Replace, merges the new fields/values on top
	// of the existing document's stored payload instead of discarding it.
	Partial bool
	// NoSave indexes the document without retaining its field values for
	// later Load calls.
	NoSave bool
	// NoCreate, combined with Replace, fails with DocNotFound instead of
	// creating a new document when key doesn't already exist.
	NoCreate bool
}

// Pipeline is the indexing worker for one IndexSpec.
type Pipeline struct {
	spec *IndexSpec

	mu      sync.Mutex
	cond    *sync.Cond
	pending []*pendingDoc
	closed  bool
	wg      sync.WaitGroup
}

// NewPipeline creates a pipeline and starts its worker goroutine.
func NewPipeline(spec *IndexSpec) *Pipeline {
	p := &Pipeline{spec: spec}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(1)
	go p.run()
	return p
}

// AddDocument enqueues a document for indexing. If blocking is true, the
// call returns only after the document has actually been merged into every
// field index; otherwise it returns as soon as the document is queued.
func (p *Pipeline) AddDocument(key string, fields map[string]string, values map[string]Value, blocking bool) error {
	return p.AddDocumentWithOptions(key, fields, values, AddOptions{}, blocking)
}

// AddDocumentWithOptions enqueues a document for indexing under opts'
// REPLACE/PARTIAL/NOSAVE/NOCREATE semantics.
func (p *Pipeline) AddDocumentWithOptions(key string, fields map[string]string, values map[string]Value, opts AddOptions, blocking bool) error {
	doc := &pendingDoc{key: key, fields: fields, values: values, opts: opts}
	if blocking {
		doc.done = make(chan error, 1)
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrIndexDropped
	}
	p.pending = append(p.pending, doc)
	p.cond.Signal()
	p.mu.Unlock()
	if blocking {
		return <-doc.done
	}
	return nil
}

// run is the pipeline's single background worker: it wakes whenever
// documents are pending, drains up to Config.BulkDocs of them, and merges
// each into the spec's field indexes.
func (p *Pipeline) run() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.pending) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed && len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		bulkCap := p.spec.Config.BulkDocs
		if bulkCap <= 0 || bulkCap > len(p.pending) {
			bulkCap = len(p.pending)
		}
		batch := p.pending[:bulkCap]
		p.pending = p.pending[bulkCap:]
		p.mu.Unlock()

		// Assign every document in the batch its id and non-TEXT state
		// first, collecting each one's TEXT-field ForwardIndex rather than
		// writing it straight into the inverted index.
		forwardByField := make(map[string][]*ForwardIndex)
		errs := make([]error, len(batch))
		for i, doc := range batch {
			errs[i] = p.index(doc, forwardByField)
		}

		// Merge the whole batch's forward indexes into each field's
		// InvertedIndex in one pass per field, the bulk-merge step
		// DocumentIndexer::Process performs after a batch's documents have
		// ids assigned.
		for field, batchFwds := range forwardByField {
			idx, ok := p.spec.TextIndex(field)
			if !ok {
				continue
			}
			idx.MergeForward(batchFwds, p.spec.Config.MergeThrottleIterations)
		}

		for i, doc := range batch {
			if doc.done != nil {
				doc.done <- errs[i]
			}
		}
	}
}

// index assigns doc a document id and merges its NUMERIC/TAG/GEO state
// immediately; its TEXT fields are appended to forwardByField as
// ForwardIndexes instead of being written into the inverted index here, so
// the whole batch's text can be merged in bulk once every document in it has
// been processed (see run).
func (p *Pipeline) index(doc *pendingDoc, forwardByField map[string][]*ForwardIndex) error {
	existingID, exists := p.spec.docs.GetID(doc.key)
	if exists && !doc.opts.Replace {
		err := NewError(DocExists, "document %q already exists", doc.key)
		p.spec.log.Warn("document add failed", slog.String("key", doc.key), slog.Any("error", err))
		return err
	}
	if !exists && doc.opts.NoCreate {
		err := NewError(DocNotFound, "document %q not found (NOCREATE)", doc.key)
		p.spec.log.Warn("document replace failed", slog.String("key", doc.key), slog.Any("error", err))
		return err
	}

	// effectiveFields/effectiveValues are what actually gets (re)indexed:
	// doc's own fields/values, plus (for PARTIAL replace) whichever of the
	// old document's fields this call didn't override.
	effectiveFields := make(map[string]string, len(doc.fields))
	for k, v := range doc.fields {
		effectiveFields[k] = v
	}
	effectiveValues := make(map[string]Value, len(doc.values))
	for k, v := range doc.values {
		effectiveValues[k] = v
	}

	payload := make(map[string]Value, len(doc.values)+len(doc.fields))

	if exists {
		// REPLACE: pop the old entry under its key before indexing the new
		// one. TEXT postings for the old id are left for lazy-deletion (see
		// DeleteDocument), but its NUMERIC/TAG/GEO per-doc state must not
		// leak forward.
		old, ok := p.spec.docs.PopByKey(doc.key)
		if !ok {
			err := NewError(DocNotFound, "document %q not found", doc.key)
			p.spec.log.Warn("document replace failed", slog.String("key", doc.key), slog.Any("error", err))
			return err
		}
		p.removeFromValueIndexes(existingID)
		if doc.opts.Partial {
			for k, v := range old.Payload {
				payload[k] = v
				if _, overridden := effectiveFields[k]; overridden {
					continue
				}
				if _, overridden := effectiveValues[k]; overridden {
					continue
				}
				if f, ok := p.spec.Schema.Field(k); ok {
					if f.Type == TextField && v.Kind == KindString {
						effectiveFields[k] = v.Str
					} else if f.Type != TextField {
						effectiveValues[k] = v
					}
				}
			}
		}
	}
	for k, v := range doc.values {
		payload[k] = v
	}
	for k, v := range doc.fields {
		payload[k] = String(v)
	}
	if doc.opts.NoSave {
		payload = nil
	}

	docID, err := p.spec.docs.Add(doc.key, payload)
	if err != nil {
		p.spec.log.Warn("document add failed", slog.String("key", doc.key), slog.Any("error", err))
		return err
	}

	for name, text := range effectiveFields {
		f, ok := p.spec.Schema.Field(name)
		if !ok || f.Type != TextField || f.NoIndex {
			continue
		}
		if _, ok := p.spec.TextIndex(name); !ok {
			continue
		}
		tokens := Analyze(text)
		forwardByField[name] = append(forwardByField[name], &ForwardIndex{DocID: docID, Tokens: tokens})
		dict, ok := p.spec.Dict(name)
		if ok {
			for _, tok := range tokens {
				dict.Add(tok)
			}
		}
	}
	for name, v := range effectiveValues {
		f, ok := p.spec.Schema.Field(name)
		if !ok {
			continue
		}
		switch f.Type {
		case NumericField:
			if v.Kind != KindDouble && v.Kind != KindInt {
				continue
			}
			val := v.Double
			if v.Kind == KindInt {
				val = float64(v.Int)
			}
			if idx, ok := p.spec.NumericIndexFor(name); ok {
				idx.Add(docID, val)
			}
		case TagField:
			if idx, ok := p.spec.TagIndexFor(name); ok && v.Kind == KindString {
				idx.Add(docID, v.Str)
			}
		case GeoField:
			if idx, ok := p.spec.GeoIndexFor(name); ok && v.Kind == KindArray && len(v.Arr) == 2 {
				idx.Add(docID, GeoPoint{Lon: v.Arr[0].Double, Lat: v.Arr[1].Double})
			}
		}
	}

	p.spec.log.Info("document indexed", slog.String("key", doc.key), slog.Int("docID", docID))
	return nil
}

// DeleteDocument removes a document's id and scrubs it from every per-field
// store that carries per-document reverse-lookup state (NUMERIC/TAG/GEO).
// TEXT-field postings are left in place and resolved lazily against the
// metadata table's liveness flag, matching the teacher's lazy-deletion
// posture for the inverted index itself.
func (p *Pipeline) DeleteDocument(key string) error {
	id, ok := p.spec.docs.GetID(key)
	if !ok {
		return NewError(DocNotFound, "document %q not found", key)
	}
	if err := p.spec.docs.Delete(key); err != nil {
		return err
	}
	p.removeFromValueIndexes(id)
	return nil
}

// removeFromValueIndexes scrubs id from every per-field store that carries
// per-document reverse-lookup state (NUMERIC/TAG/GEO). TEXT-field postings
// are left in place and resolved lazily against the metadata table's
// liveness flag, matching the teacher's lazy-deletion posture for the
// inverted index itself.
func (p *Pipeline) removeFromValueIndexes(id int) {
	for _, n := range p.spec.numeric {
		n.Remove(id)
	}
	for _, t := range p.spec.tag {
		t.Remove(id)
	}
	for _, g := range p.spec.geo {
		g.Remove(id)
	}
}

// Close stops accepting new documents and waits for the worker to finish
// whatever is already queued.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
}
