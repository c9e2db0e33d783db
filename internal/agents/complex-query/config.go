// internal/agents/complex-query/config.go
package complexquery

import (
	"time"

	"telecom-query-gateway/internal/common/config"
)

// Config bounds the slow path. The defaults (45s, 2 iterations, 6 tool
// calls) are tuned empirically and deliberately configurable.
type Config struct {
	OverallTimeout time.Duration
	MaxIterations  int
	MaxToolCalls   int
}

func NewConfig(cfg config.SlowPathConfig) *Config {
	iterations := cfg.MaxIterations
	if iterations <= 0 {
		iterations = 2
	}
	calls := cfg.MaxToolCalls
	if calls <= 0 {
		calls = 6
	}
	return &Config{
		OverallTimeout: cfg.OverallTimeoutDuration(),
		MaxIterations:  iterations,
		MaxToolCalls:   calls,
	}
}
