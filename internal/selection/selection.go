// Package selection decides which named model elements are in scope for renaming.
package selection

import (
	"slices"

	"efrenamer/internal/setutil"
)

// Wildcard selects every name when present in either list.
const Wildcard = "*"

// Config lists the entity names and name prefixes to rename.
type Config struct {
	Entities []string `mapstructure:"entities"`
	Prefixes []string `mapstructure:"prefixes"`
}

// Filter is an allow-list over exact names and literal prefixes.
// Matching is always case-sensitive.
type Filter struct {
	exact    setutil.Set
	prefixes []string
	all      bool
}

// New builds a Filter. With both lists empty nothing is selected.
func New(cfg Config) *Filter {
	prefixes := setutil.Canonicalize(cfg.Prefixes)
	exact := setutil.New(cfg.Entities...)
	return &Filter{
		exact:    exact,
		prefixes: prefixes,
		all:      exact.Contains(Wildcard) || slices.Contains(prefixes, Wildcard),
	}
}

// IsSelected reports whether name is in scope.
func (f *Filter) IsSelected(name string) bool {
	if f.all {
		return true
	}
	if setutil.HasAnyPrefix(name, f.prefixes) {
		return true
	}
	return f.exact.Contains(name)
}

// SelectsAll reports whether a wildcard was configured.
func (f *Filter) SelectsAll() bool {
	return f.all
}

// SelectsNothing reports whether no name can ever be selected.
func (f *Filter) SelectsNothing() bool {
	return !f.all && len(f.exact) == 0 && len(f.prefixes) == 0
}
