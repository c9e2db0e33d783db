// internal/monitoring/file.go
package monitoring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"telecom-query-gateway/internal/common/logger"
)

// FileSink appends records as JSON lines. O_APPEND plus a mutex keeps
// concurrent writers from interleaving partial lines.
type FileSink struct {
	mu     sync.Mutex
	f      *os.File
	logger logger.Logger
}

func NewFileSink(path string, log logger.Logger) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create metrics dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open metrics file: %w", err)
	}
	return &FileSink{f: f, logger: log}, nil
}

func (s *FileSink) Record(rec Record) {
	stamp(&rec)
	line, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("failed to encode metrics record", map[string]interface{}{"error": err.Error()})
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.f.Write(line); err != nil {
		s.logger.Warn("failed to append metrics record", map[string]interface{}{"error": err.Error()})
	}
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}
