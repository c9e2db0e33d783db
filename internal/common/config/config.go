// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Registry    RegistryConfig    `mapstructure:"registry"`
	DataService DataServiceConfig `mapstructure:"data_service"`
	FastPath    FastPathConfig    `mapstructure:"fast_path"`
	SlowPath    SlowPathConfig    `mapstructure:"slow_path"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// DataServiceConfig describes how the gateway reaches the data service
// tool channel. Transport is either "http" (streamable HTTP endpoint) or
// "stdio" (spawned server process).
type DataServiceConfig struct {
	Transport string   `mapstructure:"transport"`
	BaseURL   string   `mapstructure:"base_url"`
	Command   string   `mapstructure:"command"`
	Args      []string `mapstructure:"args"`
	Timeout   int      `mapstructure:"timeout"` // milliseconds, per call
}

// FastPathConfig bounds the single-query handler.
type FastPathConfig struct {
	QueryTimeout      int `mapstructure:"query_timeout"` // milliseconds
	MaxRetries        int `mapstructure:"max_retries"`
	DefaultWindowDays int `mapstructure:"default_window_days"`
}

// SlowPathConfig bounds the multi-step orchestration handler.
type SlowPathConfig struct {
	OverallTimeout int `mapstructure:"overall_timeout"` // milliseconds
	MaxIterations  int `mapstructure:"max_iterations"`
	MaxToolCalls   int `mapstructure:"max_tool_calls"`
}

// CacheConfig controls the optional classification cache. Disabled by
// default; classification is cheap enough that caching is an optimization.
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // milliseconds
}

type MonitoringConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	File    string `mapstructure:"file"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Duration helpers: all timeouts are configured in milliseconds.

func (s ServerConfig) ReadTimeoutDuration() time.Duration  { return msOrDefault(s.ReadTimeout, 10_000) }
func (s ServerConfig) WriteTimeoutDuration() time.Duration { return msOrDefault(s.WriteTimeout, 60_000) }
func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return msOrDefault(s.ShutdownTimeout, 10_000)
}

func (d DataServiceConfig) TimeoutDuration() time.Duration { return msOrDefault(d.Timeout, 5_000) }

func (f FastPathConfig) QueryTimeoutDuration() time.Duration {
	return msOrDefault(f.QueryTimeout, 5_000)
}

func (s SlowPathConfig) OverallTimeoutDuration() time.Duration {
	return msOrDefault(s.OverallTimeout, 45_000)
}

func (c CacheConfig) TTLDuration() time.Duration { return msOrDefault(c.TTL, 300_000) }

func msOrDefault(ms int, def int) time.Duration {
	if ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}
