// Package dictionary implements the fixed-term glossary applied to source
// text before any LLM call: a flat JSON object mapping Japanese terms to
// their English renderings.
package dictionary

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Entry is a single glossary term pair.
type Entry struct {
	// Term is the Japanese source term.
	Term string
	// Replacement is the English rendering.
	Replacement string
}

// Dictionary holds glossary entries in file order. Substitution is applied
// in that order, once per entry; overlapping terms therefore produce
// order-dependent results. The glossary author controls the order via the
// file.
type Dictionary struct {
	entries []Entry
}

// Load reads a glossary from a flat JSON object file. Key order in the
// file is preserved.
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a flat JSON object, preserving key order. encoding/json
// maps discard order, so the object is walked token by token instead.
func Parse(data []byte) (*Dictionary, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing dictionary: expected JSON object, got %v", tok)
	}

	d := &Dictionary{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing dictionary key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing dictionary: non-string key %v", keyTok)
		}

		var val string
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("parsing dictionary value for %q: %w", key, err)
		}

		d.entries = append(d.entries, Entry{Term: key, Replacement: val})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing dictionary: %w", err)
	}

	return d, nil
}

// Len returns the number of glossary entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Apply substitutes every glossary term in text with its replacement,
// one entry at a time in file order. Side-effect free; no LLM call.
func (d *Dictionary) Apply(text string) string {
	if d == nil {
		return text
	}
	for _, e := range d.entries {
		text = strings.ReplaceAll(text, e.Term, e.Replacement)
	}
	return text
}

// Entries returns the glossary entries in file order.
func (d *Dictionary) Entries() []Entry {
	if d == nil {
		return nil
	}
	return d.entries
}
