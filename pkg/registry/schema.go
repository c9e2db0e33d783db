// pkg/registry/schema.go
package registry

// EntityRegistry is the generated runtime metadata describing every
// queryable data product. New products appear here without code changes.
type EntityRegistry struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"lastUpdated"`
	Entities    []Entity `json:"entities"`
}

// Entity describes one queryable data product.
type Entity struct {
	Name         string             `json:"name"`     // plural form, canonical
	Singular     string             `json:"singular"` // matched in request text
	Description  string             `json:"description,omitempty"`
	Table        string             `json:"table,omitempty"`
	Filters      []string           `json:"filters"`
	Identifiers  []IdentifierMapping `json:"identifiers,omitempty"`
	StatusValues []string           `json:"statusValues,omitempty"`
	JoinKeys     []string           `json:"joinKeys,omitempty"`
	DefaultLimit int                `json:"defaultLimit,omitempty"`
}

// IdentifierMapping binds an identifier prefix (the alphabetic tag before
// the dash, e.g. ACC in ACC-1002) to the filter key this entity expects
// for it. The same prefix can map to different keys on different entities.
type IdentifierMapping struct {
	Prefix    string `json:"prefix"`
	FilterKey string `json:"filterKey"`
}

// documentSchema validates registry files before they are trusted.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "entities"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "lastUpdated": {"type": "string"},
    "entities": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "singular", "filters"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "singular": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "table": {"type": "string"},
          "filters": {"type": "array", "items": {"type": "string"}},
          "identifiers": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["prefix", "filterKey"],
              "properties": {
                "prefix": {"type": "string", "pattern": "^[A-Za-z]{2,8}$"},
                "filterKey": {"type": "string", "minLength": 1}
              }
            }
          },
          "statusValues": {"type": "array", "items": {"type": "string"}},
          "joinKeys": {"type": "array", "items": {"type": "string"}},
          "defaultLimit": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`
