// Package index holds the search-index data model shared by the relay and
// the API server. Payloads are opaque: rustdoc owns their structure and
// this module never looks inside them.
package index

import "encoding/json"

// NightlyCrates are the crates shipped with the nightly toolchain docs
// that the extension consumes. Reduce emits exactly these keys and no
// others.
var NightlyCrates = []string{"std", "test", "proc_macro"}

// SearchIndex maps a crate name to its raw rustdoc search payload.
type SearchIndex map[string]json.RawMessage

// Reduce builds a fresh index containing only the nightly crates.
//
// Values are carried over by reference, not deep-copied. A crate missing
// from src still appears in the result with a nil payload, which
// marshals as JSON null; callers downstream treat null as "not shipped".
func Reduce(src SearchIndex) SearchIndex {
	reduced := make(SearchIndex, len(NightlyCrates))
	for _, name := range NightlyCrates {
		reduced[name] = src[name]
	}
	return reduced
}
