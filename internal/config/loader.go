package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skillforge/treecache/internal/types"
)

// EnvSerializationMode is the single process-wide environment variable
// that overrides the configured serialization mode. It is read once at
// load time, never at runtime.
const EnvSerializationMode = "TREECACHE_SERIALIZATION_MODE"

// Load loads configuration from a JSON file.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a JSON file and applies
// environment overrides once.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	ApplyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies TREECACHE_* environment variables to cfg.
// Callers that build a Config in code rather than via Load should invoke
// this themselves before validation if they want the override behavior.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvSerializationMode); v != "" {
		cfg.Serialization.Mode = v
	}

	if v := os.Getenv("TREECACHE_NAMESPACE"); v != "" {
		cfg.Namespace = v
	}
	if v := os.Getenv("TREECACHE_DEFAULT_TTL"); v != "" {
		cfg.Defaults.TTL = parseDuration(v, cfg.Defaults.TTL)
	}

	if v := os.Getenv("TREECACHE_MEMORY_ENGINE"); v != "" {
		cfg.Memory.Engine = v
	}
	if v := os.Getenv("TREECACHE_MEMORY_MAX_SIZE_MB"); v != "" {
		cfg.Memory.MaxSizeMB = parseInt(v, cfg.Memory.MaxSizeMB)
	}

	if v := os.Getenv("TREECACHE_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v)
	}
	if v := os.Getenv("TREECACHE_REDIS_ADDRESS"); v != "" {
		cfg.Redis.Address = v
	}
	if v := os.Getenv("TREECACHE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = NewSecretString(v)
	}
	if v := os.Getenv("TREECACHE_REDIS_DB"); v != "" {
		cfg.Redis.DB = parseInt(v, cfg.Redis.DB)
	}
	if v := os.Getenv("TREECACHE_REDIS_KEY_PREFIX"); v != "" {
		cfg.Redis.KeyPrefix = v
	}
	if v := os.Getenv("TREECACHE_REDIS_ENABLE_TLS"); v != "" {
		cfg.Redis.EnableTLS = parseBool(v)
	}

	if v := os.Getenv("TREECACHE_CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("TREECACHE_CIRCUIT_BREAKER_FAILURE_THRESHOLD"); v != "" {
		cfg.CircuitBreaker.FailureThreshold = parseInt(v, cfg.CircuitBreaker.FailureThreshold)
	}
	if v := os.Getenv("TREECACHE_CIRCUIT_BREAKER_OPEN_DURATION"); v != "" {
		cfg.CircuitBreaker.OpenDuration = parseDuration(v, cfg.CircuitBreaker.OpenDuration)
	}

	if v := os.Getenv("TREECACHE_BULKHEAD_ENABLED"); v != "" {
		cfg.Bulkhead.Enabled = parseBool(v)
	}
	if v := os.Getenv("TREECACHE_BULKHEAD_MAX_CONCURRENT"); v != "" {
		cfg.Bulkhead.MaxConcurrent = parseInt(v, cfg.Bulkhead.MaxConcurrent)
	}

	if v := os.Getenv("TREECACHE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
		cfg.Metrics.DataDog.Enabled = true
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.DataDog.Port = parseInt(v, cfg.Metrics.DataDog.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.DataDog.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "env:"+v)
	}
}

// Validate checks if the configuration is valid. All validation happens
// here; no other component re-checks its configuration.
func (c *Config) Validate() error {
	if c.Defaults.TTL <= 0 {
		return types.NewConfigError("defaults.ttl", "must be positive")
	}

	if _, err := types.ParseMode(c.Serialization.Mode); err != nil {
		return types.NewConfigError("serialization.mode",
			fmt.Sprintf("must be %q or %q, got %q", "structured", "full", c.Serialization.Mode))
	}

	switch c.Memory.Engine {
	case EngineNative, EngineBounded:
	default:
		return types.NewConfigError("memory.engine",
			fmt.Sprintf("must be %q or %q, got %q", EngineNative, EngineBounded, c.Memory.Engine))
	}

	if c.Memory.Shards <= 0 || (c.Memory.Shards&(c.Memory.Shards-1)) != 0 {
		return types.NewConfigError("memory.shards", "must be a positive power of 2")
	}

	if c.Memory.Engine == EngineBounded {
		if c.Memory.MaxSizeMB <= 0 {
			return types.NewConfigError("memory.maxSizeMB", "must be positive")
		}
		if c.Memory.RetentionWindow <= 0 {
			return types.NewConfigError("memory.retentionWindow", "must be positive")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return types.NewConfigError("redis.address", "is required when redis is enabled")
		}
		if c.Redis.PoolSize <= 0 {
			return types.NewConfigError("redis.poolSize", "must be positive")
		}
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailureThreshold <= 0 {
			return types.NewConfigError("circuitBreaker.failureThreshold", "must be positive")
		}
		if c.CircuitBreaker.OpenDuration <= 0 {
			return types.NewConfigError("circuitBreaker.openDuration", "must be positive")
		}
	}

	if c.Bulkhead.Enabled && c.Bulkhead.MaxConcurrent <= 0 {
		return types.NewConfigError("bulkhead.maxConcurrent", "must be positive")
	}

	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

// parseDuration accepts Go duration syntax ("90s", "5m") or a bare
// number of seconds.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}
