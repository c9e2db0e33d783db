// internal/agents/fast-query/config.go
package fastquery

import (
	"time"

	"telecom-query-gateway/internal/common/config"
)

// Config bounds the fast path: one short-deadline query, at most one retry.
type Config struct {
	QueryTimeout      time.Duration
	MaxRetries        int
	DefaultWindowDays int
}

func NewConfig(cfg config.FastPathConfig) *Config {
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &Config{
		QueryTimeout:      cfg.QueryTimeoutDuration(),
		MaxRetries:        retries,
		DefaultWindowDays: cfg.DefaultWindowDays,
	}
}
