package docpage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/huhu/rustdoc-relay/internal/index"
)

// ErrEmptySearchIndex reports an empty search-index payload.
var ErrEmptySearchIndex = errors.New("docpage: empty search-index payload")

// DecodeSearchIndex parses a rustdoc search-index payload into the crate
// → payload mapping. Three shapes have shipped over the years and all
// are accepted:
//
//	{"std": {...}, ...}                          plain JSON object
//	var searchIndex={...};initSearch(searchIndex)  single assignment
//	searchIndex["std"]={...};searchIndex["test"]=... per-crate assignments
func DecodeSearchIndex(data []byte) (index.SearchIndex, error) {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return nil, ErrEmptySearchIndex
	}

	if strings.HasPrefix(s, "{") {
		return decodeObject(s)
	}

	// The per-crate form opens with `var searchIndex={};`, so it has to
	// be recognized before the single-assignment form.
	if strings.Contains(s, `searchIndex["`) {
		return decodeAssignments(s)
	}

	pos := strings.Index(s, "searchIndex")
	if pos < 0 {
		return nil, fmt.Errorf("docpage: unrecognized search-index payload")
	}
	rest := strings.TrimLeft(s[pos+len("searchIndex"):], " \t")
	if after, ok := strings.CutPrefix(rest, "="); ok {
		return decodeObject(strings.TrimLeft(after, " \t"))
	}

	return nil, fmt.Errorf("docpage: unrecognized search-index payload")
}

// decodeObject decodes a single JSON object, tolerating trailing script
// text such as ";initSearch(searchIndex);".
func decodeObject(s string) (index.SearchIndex, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	var ix index.SearchIndex
	if err := dec.Decode(&ix); err != nil {
		return nil, fmt.Errorf("decode search index: %w", err)
	}
	if len(ix) == 0 {
		return nil, ErrEmptySearchIndex
	}
	return ix, nil
}

// decodeAssignments handles the per-crate `searchIndex["name"]=value;`
// form emitted by older rustdoc.
func decodeAssignments(s string) (index.SearchIndex, error) {
	const opener = `searchIndex["`
	ix := index.SearchIndex{}
	for {
		start := strings.Index(s, opener)
		if start < 0 {
			break
		}
		s = s[start+len(opener):]

		end := strings.Index(s, `"]`)
		if end < 0 {
			return nil, fmt.Errorf("docpage: unterminated crate name in search index")
		}
		name := s[:end]
		s = strings.TrimLeft(s[end+2:], " \t")

		after, ok := strings.CutPrefix(s, "=")
		if !ok {
			return nil, fmt.Errorf("docpage: missing assignment for crate %q", name)
		}
		after = strings.TrimLeft(after, " \t")

		dec := json.NewDecoder(strings.NewReader(after))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode payload for crate %q: %w", name, err)
		}
		ix[name] = raw
		s = after[dec.InputOffset():]
	}
	if len(ix) == 0 {
		return nil, ErrEmptySearchIndex
	}
	return ix, nil
}
