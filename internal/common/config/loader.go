// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// Enable ENV override like GATEWAY_SERVER_ADDRESS.
	v.SetEnvPrefix("GATEWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	env := os.Getenv("GATEWAY_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env overlay is optional

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "telecom-query-gateway")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 10_000)
	v.SetDefault("server.write_timeout", 60_000)
	v.SetDefault("server.shutdown_timeout", 10_000)

	v.SetDefault("registry.path", "configs/entity-registry.json")

	v.SetDefault("data_service.transport", "http")
	v.SetDefault("data_service.base_url", "http://localhost:8000/mcp")
	v.SetDefault("data_service.timeout", 5_000)

	v.SetDefault("fast_path.query_timeout", 5_000)
	v.SetDefault("fast_path.max_retries", 1)
	v.SetDefault("fast_path.default_window_days", 90)

	v.SetDefault("slow_path.overall_timeout", 45_000)
	v.SetDefault("slow_path.max_iterations", 2)
	v.SetDefault("slow_path.max_tool_calls", 6)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.ttl", 300_000)

	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

func validateConfig(cfg *Config) error {
	if cfg.Registry.Path == "" {
		return fmt.Errorf("registry.path is required")
	}
	switch cfg.DataService.Transport {
	case "http":
		if cfg.DataService.BaseURL == "" {
			return fmt.Errorf("data_service.base_url is required for http transport")
		}
	case "stdio":
		if cfg.DataService.Command == "" {
			return fmt.Errorf("data_service.command is required for stdio transport")
		}
	default:
		return fmt.Errorf("data_service.transport must be http or stdio, got %q", cfg.DataService.Transport)
	}
	if cfg.SlowPath.MaxIterations <= 0 {
		return fmt.Errorf("slow_path.max_iterations must be positive")
	}
	if cfg.SlowPath.MaxToolCalls <= 0 {
		return fmt.Errorf("slow_path.max_tool_calls must be positive")
	}
	return nil
}

// loadEnvFile loads .env from the working directory or any parent that
// contains go.mod, so tools and tests behave the same from subdirectories.
func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
