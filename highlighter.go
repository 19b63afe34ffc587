package ember

import "strings"

// ═══════════════════════════════════════════════════════════════════════════════
// HIGHLIGHTER
// ═══════════════════════════════════════════════════════════════════════════════
// Grounded on original_source/src/highlight_processor.c: a field can be
// asked to Highlight (wrap matched terms in tags, in place) or Summarize
// (extract a bounded window of fragments around matches, joined by a
// separator), or both. When no term matches in the field, Summarize falls
// back to returning the field's first FragmentSize words — the same
// fragmentation-vs-trim fallback the C implementation performs.
// ═══════════════════════════════════════════════════════════════════════════════

// HighlightOptions configures which fields are highlighted/summarized and
// how.
type HighlightOptions struct {
	Fields       []string
	OpenTag      string
	CloseTag     string
	Summarize    bool
	FragmentSize int // words per fragment
	NumFragments int
	Separator    string
	Terms        []string // terms to highlight; filled in from the query AST
}

// DefaultHighlightOptions returns RediSearch's FT.SEARCH defaults.
func DefaultHighlightOptions(fields ...string) *HighlightOptions {
	return &HighlightOptions{
		Fields:       fields,
		OpenTag:      "<b>",
		CloseTag:     "</b>",
		FragmentSize: 20,
		NumFragments: 3,
		Separator:    "... ",
	}
}

type rpHighlighter struct {
	upstream ResultProcessor
	spec     *IndexSpec
	opts     *HighlightOptions
}

// NewHighlighter builds a highlighting stage.
func NewHighlighter(upstream ResultProcessor, spec *IndexSpec, opts *HighlightOptions) ResultProcessor {
	return &rpHighlighter{upstream: upstream, spec: spec, opts: opts}
}

func (h *rpHighlighter) Next() (*Row, error) {
	row, err := h.upstream.Next()
	if err != nil || row == nil {
		return row, err
	}
	terms := h.opts.Terms
	for _, field := range h.opts.Fields {
		v, ok := row.Get(field)
		if !ok || v.Kind != KindString {
			continue
		}
		text := v.Str
		if h.opts.Summarize {
			text = Summarize(text, terms, h.opts)
		} else {
			text = Highlight(text, terms, h.opts.OpenTag, h.opts.CloseTag)
		}
		row.Set(field, String(text))
	}
	return row, nil
}

// Highlight wraps every case-insensitive occurrence of any term in text with
// openTag/closeTag.
func Highlight(text string, terms []string, openTag, closeTag string) string {
	if len(terms) == 0 {
		return text
	}
	words := strings.Fields(text)
	termSet := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		termSet[strings.ToLower(t)] = struct{}{}
	}
	for i, w := range words {
		stripped := strings.ToLower(strings.Trim(w, ".,!?;:\"'"))
		if _, ok := termSet[stripped]; ok {
			words[i] = openTag + w + closeTag
		}
	}
	return strings.Join(words, " ")
}

// Summarize extracts fragments of FragmentSize words around term matches, up
// to NumFragments fragments, joined by Separator. If no matches are found,
// the field is returned trimmed to one fragment's worth of words, the same
// fallback
// original_source's Highlighter applies when fragmentation would otherwise
// produce nothing useful.
func Summarize(text string, terms []string, opts *HighlightOptions) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	termSet := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		termSet[strings.ToLower(t)] = struct{}{}
	}
	var fragments []string
	half := opts.FragmentSize / 2
	for i, w := range words {
		if len(fragments) >= opts.NumFragments {
			break
		}
		stripped := strings.ToLower(strings.Trim(w, ".,!?;:\"'"))
		if _, ok := termSet[stripped]; !ok {
			continue
		}
		start := max(0, i-half)
		end := min(len(words), start+opts.FragmentSize)
		frag := strings.Join(words[start:end], " ")
		if opts.OpenTag != "" {
			frag = Highlight(frag, terms, opts.OpenTag, opts.CloseTag)
		}
		fragments = append(fragments, frag)
	}
	if len(fragments) == 0 {
		end := min(len(words), opts.FragmentSize)
		return strings.Join(words[:end], " ")
	}
	return strings.Join(fragments, opts.Separator)
}
