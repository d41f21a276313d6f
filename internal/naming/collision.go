package naming

import "log/slog"

// Collision describes two distinct raw names that resolved to the same final
// name within one scope.
type Collision struct {
	Scope    string
	Name     string
	Existing string
	Raw      string
}

// CollisionDetector tracks final names per scope and reports when a second,
// different raw name lands on a name already taken. Names are never altered:
// a collision leaves the document with duplicate names that the caller must
// fix through rule files.
type CollisionDetector struct {
	seen       map[string]map[string]string // scope → final name → raw name
	collisions []Collision
	logger     *slog.Logger
}

// NewCollisionDetector creates a new collision detector.
func NewCollisionDetector(logger *slog.Logger) *CollisionDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &CollisionDetector{
		seen:   make(map[string]map[string]string),
		logger: logger,
	}
}

// Register records that raw resolved to name within scope. It reports false
// and logs a warning when another raw name already resolved to name there.
// Registering the same raw name twice is not a collision.
func (c *CollisionDetector) Register(scope, name, raw string) bool {
	names := c.seen[scope]
	if names == nil {
		names = make(map[string]string)
		c.seen[scope] = names
	}

	existing, taken := names[name]
	if !taken {
		names[name] = raw
		return true
	}
	if existing == raw {
		return true
	}

	c.logger.Warn("naming collision detected",
		slog.String("scope", scope),
		slog.String("name", name),
		slog.String("existing_source", existing),
		slog.String("new_source", raw),
	)
	c.collisions = append(c.collisions, Collision{Scope: scope, Name: name, Existing: existing, Raw: raw})
	return false
}

// Collisions returns the collisions found so far, in detection order.
func (c *CollisionDetector) Collisions() []Collision {
	return c.collisions
}
