package naming

import "strings"

// Kind distinguishes class-like identifiers (entity types, sets) from
// member-like identifiers (properties, columns). The same raw string may
// resolve differently per kind.
type Kind int

const (
	// KindMember names a property or column.
	KindMember Kind = iota
	// KindClass names an entity type.
	KindClass
)

func (k Kind) String() string {
	if k == KindClass {
		return "class"
	}
	return "member"
}

func (k Kind) cachePrefix() string {
	if k == KindClass {
		return "*"
	}
	return "-"
}

// resolutionCache records every resolved (kind, raw name) pair for one run.
// Entries are never evicted or overwritten.
type resolutionCache struct {
	entries map[string]string
	fold    bool
}

func newResolutionCache(caseInsensitive bool) *resolutionCache {
	return &resolutionCache{
		entries: make(map[string]string),
		fold:    caseInsensitive,
	}
}

func (c *resolutionCache) key(kind Kind, raw string) string {
	k := kind.cachePrefix() + raw
	if c.fold {
		return strings.ToLower(k)
	}
	return k
}

func (c *resolutionCache) get(kind Kind, raw string) (string, bool) {
	v, ok := c.entries[c.key(kind, raw)]
	return v, ok
}

func (c *resolutionCache) put(kind Kind, raw, resolved string) {
	k := c.key(kind, raw)
	if _, exists := c.entries[k]; exists {
		return
	}
	c.entries[k] = resolved
}

func (c *resolutionCache) len() int {
	return len(c.entries)
}
