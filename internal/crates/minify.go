package crates

import (
	"sort"
	"strings"
)

// tokenChars are the suffix characters available for minify tokens. A
// token is '$' followed by one of these, so the artifact stays plain
// ASCII and JSON-safe.
const tokenChars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// escape marks a literal '$' in minified text.
const escape = "$$"

// minWordLen filters words too short to be worth a two-character token.
const minWordLen = 4

// wordCollector gathers the strings the minifier ranks: crate-name
// fragments and whole (capped) descriptions.
type wordCollector struct {
	words []string
}

func (w *wordCollector) collectCrateID(name string) {
	id := strings.ReplaceAll(name, "-", "_")
	for _, word := range strings.Split(strings.ToLower(id), "_") {
		if len(word) >= 3 {
			w.words = append(w.words, word)
		}
	}
}

func (w *wordCollector) collectDescription(desc string) {
	desc = strings.TrimSpace(desc)
	w.words = append(w.words, capRunes(desc, 100))
}

func capRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Minifier replaces frequent words with short tokens. The mapping it
// produces ships inside the artifact so the extension can expand
// entries back at load time.
type Minifier struct {
	mapping map[string]string // token -> word
	ordered []replacement     // longest-first for deterministic minify
}

type replacement struct {
	word  string
	token string
}

// NewMinifier ranks words by saved bytes (frequency times length) and
// assigns tokens to the top candidates.
func NewMinifier(words []string) *Minifier {
	freq := make(map[string]int, len(words))
	for _, word := range words {
		if len(word) >= minWordLen {
			freq[word]++
		}
	}

	type candidate struct {
		word string
		gain int
	}
	candidates := make([]candidate, 0, len(freq))
	for word, count := range freq {
		if count < 2 {
			continue
		}
		candidates = append(candidates, candidate{word, count * len(word)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].gain != candidates[j].gain {
			return candidates[i].gain > candidates[j].gain
		}
		return candidates[i].word < candidates[j].word
	})
	if len(candidates) > len(tokenChars) {
		candidates = candidates[:len(tokenChars)]
	}

	m := &Minifier{mapping: make(map[string]string, len(candidates))}
	for i, c := range candidates {
		token := "$" + string(tokenChars[i])
		m.mapping[token] = c.word
		m.ordered = append(m.ordered, replacement{word: c.word, token: token})
	}
	sort.Slice(m.ordered, func(i, j int) bool {
		if len(m.ordered[i].word) != len(m.ordered[j].word) {
			return len(m.ordered[i].word) > len(m.ordered[j].word)
		}
		return m.ordered[i].word < m.ordered[j].word
	})
	return m
}

// Mapping returns token → word, as serialized into the artifact.
func (m *Minifier) Mapping() map[string]string {
	return m.mapping
}

// Minify substitutes tokens for mapped words in a single left-to-right
// pass, so an emitted token can never be re-matched by a later word.
// Literal '$' is escaped so Expand can round-trip any input.
func (m *Minifier) Minify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
outer:
	for i := 0; i < len(s); {
		if s[i] == '$' {
			b.WriteString(escape)
			i++
			continue
		}
		for _, r := range m.ordered {
			if strings.HasPrefix(s[i:], r.word) {
				b.WriteString(r.token)
				i += len(r.word)
				continue outer
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// MinifyCrateID minifies a crate name the same way descriptions are
// minified.
func (m *Minifier) MinifyCrateID(name string) string {
	return m.Minify(name)
}

// Expand reverses Minify.
func (m *Minifier) Expand(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		next := s[i+1]
		if next == '$' {
			b.WriteByte('$')
			i++
			continue
		}
		if word, ok := m.mapping["$"+string(next)]; ok {
			b.WriteString(word)
			i++
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
