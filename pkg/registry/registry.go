// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Load reads and validates a registry file.
func Load(path string) (*EntityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw registry JSON against the document schema and
// decodes it.
func Parse(data []byte) (*EntityRegistry, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate registry: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("registry document invalid: %s", strings.Join(msgs, "; "))
	}

	var reg EntityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if err := reg.check(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// check enforces constraints the JSON schema cannot express.
func (r *EntityRegistry) check() error {
	seen := make(map[string]bool, len(r.Entities))
	for _, e := range r.Entities {
		name := strings.ToLower(e.Name)
		if seen[name] {
			return fmt.Errorf("duplicate entity %q", e.Name)
		}
		seen[name] = true
	}
	return nil
}

// Names returns the canonical (plural) names of all entities.
func (r *EntityRegistry) Names() []string {
	names := make([]string, 0, len(r.Entities))
	for _, e := range r.Entities {
		names = append(names, e.Name)
	}
	return names
}

// Lookup finds an entity by its plural or singular name, case-insensitive.
func (r *EntityRegistry) Lookup(name string) (*Entity, bool) {
	name = strings.ToLower(name)
	for i := range r.Entities {
		e := &r.Entities[i]
		if strings.ToLower(e.Name) == name || strings.ToLower(e.Singular) == name {
			return e, true
		}
	}
	return nil, false
}

// FilterKeyFor returns the filter key this entity declares for an
// identifier prefix, or false if the entity has no mapping for it.
func (e *Entity) FilterKeyFor(prefix string) (string, bool) {
	prefix = strings.ToUpper(prefix)
	for _, m := range e.Identifiers {
		if strings.ToUpper(m.Prefix) == prefix {
			return m.FilterKey, true
		}
	}
	return "", false
}

// HasStatus reports whether value is in this entity's status vocabulary.
func (e *Entity) HasStatus(value string) bool {
	value = strings.ToUpper(value)
	for _, s := range e.StatusValues {
		if strings.ToUpper(s) == value {
			return true
		}
	}
	return false
}

// HasFilter reports whether this entity declares the given filter key.
func (e *Entity) HasFilter(key string) bool {
	for _, f := range e.Filters {
		if f == key {
			return true
		}
	}
	return false
}

// Limit returns the entity's default limit, falling back to 50.
func (e *Entity) Limit() int {
	if e.DefaultLimit > 0 {
		return e.DefaultLimit
	}
	return 50
}

// SharedJoinKey returns the first join key both entities declare, used to
// correlate rows across entities, or false if they share none.
func SharedJoinKey(a, b *Entity) (string, bool) {
	for _, ka := range a.JoinKeys {
		for _, kb := range b.JoinKeys {
			if ka == kb {
				return ka, true
			}
		}
	}
	return "", false
}
