package naming

import "strings"

// Table is a rule table mapping a raw name (or name part) to its replacement.
// When case-insensitive, keys are folded before both insertion and lookup.
type Table struct {
	entries map[string]string
	fold    bool
}

// NewTable creates an empty rule table.
func NewTable(caseInsensitive bool) *Table {
	return &Table{
		entries: make(map[string]string),
		fold:    caseInsensitive,
	}
}

// TableFromMap builds a table from an existing map. Keys that collide after
// folding keep an arbitrary winner, so callers that care about duplicates
// should use Add.
func TableFromMap(entries map[string]string, caseInsensitive bool) *Table {
	t := NewTable(caseInsensitive)
	for k, v := range entries {
		t.Set(k, v)
	}
	return t
}

// Add inserts key unless an equivalent key already exists.
// It reports whether the entry was added.
func (t *Table) Add(key, value string) bool {
	k := t.normalize(key)
	if _, exists := t.entries[k]; exists {
		return false
	}
	t.entries[k] = value
	return true
}

// Set inserts or replaces key.
func (t *Table) Set(key, value string) {
	t.entries[t.normalize(key)] = value
}

// Lookup returns the replacement for key. A nil table never matches.
func (t *Table) Lookup(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t.entries[t.normalize(key)]
	return v, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// CaseInsensitive reports whether the table folds keys.
func (t *Table) CaseInsensitive() bool {
	return t != nil && t.fold
}

func (t *Table) normalize(key string) string {
	if t.fold {
		return strings.ToLower(key)
	}
	return key
}
