// Package monitoring collects per-request routing records. Sinks are
// injected into the router rather than reached through package state, so
// tests swap them freely and nothing hides behind a global collector.
package monitoring

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record captures one handled request. Records are append-only: every
// write gets a fresh unique ID and no record is ever updated in place.
type Record struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Path       string    `json:"path"`
	Reason     string    `json:"reason"`
	Request    string    `json:"request"`
	Entities   []string  `json:"entities,omitempty"`
	Score      float64   `json:"score"`
	DurationMS int64     `json:"durationMs"`
	Queries    int       `json:"queries"`
	Success    bool      `json:"success"`
	ErrorKind  string    `json:"errorKind,omitempty"`
}

// Sink receives routing records. Implementations must be safe for
// concurrent writers.
type Sink interface {
	Record(rec Record)
}

// stamp fills the fields every sink assigns the same way.
func stamp(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
}

// MemorySink keeps records in memory, mainly for tests and ad-hoc runs.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Record(rec Record) {
	stamp(&rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// Snapshot returns a copy of everything recorded so far.
func (s *MemorySink) Snapshot() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) Record(Record) {}
