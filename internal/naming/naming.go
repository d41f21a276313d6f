package naming

import (
	"log/slog"
	"strings"
	"sync"
)

// Rules are the optional user-supplied rule tables. Either table may be nil.
type Rules struct {
	// Names maps a whole raw name to its final name.
	Names *Table
	// Parts maps a single "_"-delimited token to a name fragment.
	Parts *Table
	// CaseInsensitive folds resolution cache keys the same way the tables fold theirs.
	CaseInsensitive bool
}

// Observer is notified of every resolution; cached reports a cache hit.
type Observer interface {
	ObserveResolution(kind Kind, cached bool)
}

// Option customizes a Mapper.
type Option func(*Mapper)

// WithInflector replaces the default English inflector.
func WithInflector(inflector Inflector) Option {
	return func(m *Mapper) {
		m.inflector = inflector
	}
}

// WithObserver attaches a resolution observer.
func WithObserver(observer Observer) Option {
	return func(m *Mapper) {
		m.observer = observer
	}
}

// Mapper resolves raw identifiers to final identifiers. Every (kind, raw name)
// pair is resolved once per Mapper; later calls return the cached result so all
// references to one identifier agree across documents.
type Mapper struct {
	config    Config
	rules     Rules
	logger    *slog.Logger
	inflector Inflector
	observer  Observer

	mu    sync.Mutex
	cache *resolutionCache
}

// New creates a Mapper with the given configuration and rule tables.
func New(cfg Config, rules Rules, logger *slog.Logger, opts ...Option) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PluralMode == "" {
		cfg.PluralMode = PluralReplace
	}
	m := &Mapper{
		config: cfg,
		rules:  rules,
		logger: logger,
		cache:  newResolutionCache(rules.CaseInsensitive),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.inflector == nil {
		m.inflector = NewEnglishInflector(cfg.PluralOverrides)
	}
	return m
}

// Default returns a Mapper with default configuration and no rule tables.
func Default() *Mapper {
	return New(DefaultConfig(), Rules{}, nil)
}

// Resolve maps raw to its final name for the given kind.
func (m *Mapper) Resolve(raw string, kind Kind) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if resolved, ok := m.cache.get(kind, raw); ok {
		if m.observer != nil {
			m.observer.ObserveResolution(kind, true)
		}
		return resolved
	}

	resolved := m.apply(raw)
	m.logger.Info("name resolved",
		slog.String("raw", raw),
		slog.String("resolved", resolved),
		slog.String("kind", kind.String()),
	)
	m.cache.put(kind, raw, resolved)
	if m.observer != nil {
		m.observer.ObserveResolution(kind, false)
	}
	return resolved
}

// ResolveClass resolves an entity type name.
func (m *Mapper) ResolveClass(raw string) string {
	return m.Resolve(raw, KindClass)
}

// ResolveMember resolves a property or column name.
func (m *Mapper) ResolveMember(raw string) string {
	return m.Resolve(raw, KindMember)
}

// Plural resolves raw as a class name and derives the container (entity set)
// name from it. Names that already read as plural are kept.
// Example: "order" -> "Orders" (PluralReplace), "order" -> "OrderOrders" (PluralAppend)
func (m *Mapper) Plural(raw string) string {
	name := m.ResolveClass(raw)
	if m.inflector.IsPlural(name) {
		return name
	}
	plural := m.inflector.Pluralize(name)
	if m.config.PluralMode == PluralAppend {
		return name + plural
	}
	return plural
}

// Resolved returns the number of distinct resolutions recorded so far.
func (m *Mapper) Resolved() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.len()
}

// apply runs the rule chain: exact table, then part table, then default namer.
func (m *Mapper) apply(raw string) string {
	if mapped, ok := m.rules.Names.Lookup(raw); ok {
		return mapped
	}

	if m.rules.Parts != nil {
		var b strings.Builder
		for _, part := range strings.Split(raw, "_") {
			if mapped, ok := m.rules.Parts.Lookup(part); ok {
				b.WriteString(mapped)
				continue
			}
			if m.config.DefaultNamer {
				b.WriteString(DefaultName(part))
			}
		}
		return b.String()
	}

	if m.config.DefaultNamer {
		return DefaultName(raw)
	}
	return raw
}
