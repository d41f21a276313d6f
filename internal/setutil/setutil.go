// Package setutil provides small helpers for string sets built from
// user-supplied lists.
package setutil

import "strings"

// Set is an unordered set of strings.
type Set map[string]struct{}

// New builds a set from values, skipping blanks after trimming.
func New(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether v is a member.
func (s Set) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Canonicalize trims values, drops blanks, and removes duplicates while keeping
// the order of first appearance.
func Canonicalize(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// HasAnyPrefix reports whether any of prefixes is a literal prefix of v.
func HasAnyPrefix(v string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	return false
}
