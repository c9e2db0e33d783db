// internal/models/query.go
package models

import "time"

// TimeWindow is an absolute [From, To] pair in UTC.
type TimeWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// StructuredQuery is the normalized, entity-scoped query description sent
// to the data service. Filter keys are unique; when extraction produces the
// same key twice the last value wins.
type StructuredQuery struct {
	Entity  string            `json:"entity"`
	Filters map[string]string `json:"filters,omitempty"`
	Limit   int               `json:"limit,omitempty"`
	Window  *TimeWindow       `json:"window,omitempty"`
}

// SetFilter records a filter value, last write wins.
func (q *StructuredQuery) SetFilter(key, value string) {
	if q.Filters == nil {
		q.Filters = make(map[string]string)
	}
	q.Filters[key] = value
}

// Row is one opaque record returned by the data service.
type Row map[string]interface{}

// QueryResult is the success payload produced by either path.
type QueryResult struct {
	Rows    []Row  `json:"rows"`
	Path    string `json:"path"`
	Reason  string `json:"reason"`
	Queries int    `json:"queries"` // data service calls issued
}
