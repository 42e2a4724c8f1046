// Package config provides configuration management for treecache.
package config

import (
	"time"

	"github.com/skillforge/treecache/internal/types"
)

// SecretString is a string type that redacts its value when marshaled to JSON.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Config contains all configuration for the treecache manager.
// It is loaded once at startup and treated as immutable afterwards.
type Config struct {
	// Namespace is prepended to every key before it reaches either tier.
	Namespace string `json:"namespace"`

	Serialization  SerializationConfig  `json:"serialization"`
	Memory         MemoryConfig         `json:"memory"`
	Redis          RedisConfig          `json:"redis"`
	Defaults       DefaultsConfig       `json:"defaults"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker"`
	Bulkhead       BulkheadConfig       `json:"bulkhead"`
	Metrics        MetricsConfig        `json:"metrics"`
	KeyValidation  KeyValidationConfig  `json:"keyValidation"`
}

// SerializationConfig selects the codec for distributed-tier payloads.
type SerializationConfig struct {
	// Mode is "structured" (strict JSON) or "full" (MessagePack). The
	// TREECACHE_SERIALIZATION_MODE environment variable, read once at
	// load time, takes precedence over this value.
	Mode string `json:"mode"`
}

// Memory tier engines.
const (
	// EngineNative stores native Go values in a sharded map. Required for
	// the degrade rule: the memory tier can hold values the codec cannot
	// encode.
	EngineNative = "native"
	// EngineBounded stores codec-encoded bytes in a size-capped bigcache
	// store. Values the codec cannot encode are rejected by this engine.
	EngineBounded = "bounded"
)

// MemoryConfig contains configuration for the memory tier.
type MemoryConfig struct {
	// Engine selects the tier implementation: EngineNative or EngineBounded.
	Engine string `json:"engine"`
	// Shards must be a power of two.
	Shards int `json:"shards"`

	// The remaining fields apply to the bounded engine only.
	MaxSizeMB       int           `json:"maxSizeMB"`
	MaxEntrySize    int           `json:"maxEntrySize"`
	CleanupInterval time.Duration `json:"cleanupInterval"`
	// RetentionWindow caps the physical lifetime of bounded-engine
	// entries regardless of their logical TTL.
	RetentionWindow time.Duration `json:"retentionWindow"`
}

// RedisConfig contains configuration for the Redis distributed backend.
type RedisConfig struct {
	Enabled             bool          `json:"enabled"`
	Address             string        `json:"address"`
	Password            SecretString  `json:"password"`
	DB                  int           `json:"db"`
	KeyPrefix           string        `json:"keyPrefix"`
	// DefaultTTL is the expiry applied when a write reaches the backend
	// without one, so entries never live forever in Redis.
	DefaultTTL          time.Duration `json:"defaultTTL"`
	PoolSize            int           `json:"poolSize"`
	MinIdleConns        int           `json:"minIdleConns"`
	DialTimeout         time.Duration `json:"dialTimeout"`
	ReadTimeout         time.Duration `json:"readTimeout"`
	WriteTimeout        time.Duration `json:"writeTimeout"`
	PoolTimeout         time.Duration `json:"poolTimeout"`
	HealthCheckInterval time.Duration `json:"healthCheckInterval"`
	EnableTLS           bool          `json:"enableTLS"`
	TLSSkipVerify       bool          `json:"tlsSkipVerify"`
}

// DefaultsConfig contains default values for cache operations.
type DefaultsConfig struct {
	// TTL is the default time-to-live applied when a Set carries no
	// explicit TTL. Must be positive.
	TTL time.Duration `json:"ttl"`
}

// CircuitBreakerConfig contains configuration for the circuit breaker
// guarding distributed-tier calls.
type CircuitBreakerConfig struct {
	Enabled             bool          `json:"enabled"`
	FailureThreshold    int           `json:"failureThreshold"`
	SuccessThreshold    int           `json:"successThreshold"`
	OpenDuration        time.Duration `json:"openDuration"`
	HalfOpenMaxRequests int           `json:"halfOpenMaxRequests"`
}

// BulkheadConfig contains configuration for the bulkhead limiting
// concurrent distributed-tier calls.
type BulkheadConfig struct {
	Enabled        bool          `json:"enabled"`
	MaxConcurrent  int           `json:"maxConcurrent"`
	MaxQueue       int           `json:"maxQueue"`
	AcquireTimeout time.Duration `json:"acquireTimeout"`
}

// MetricsConfig contains configuration for metrics publishing.
type MetricsConfig struct {
	Enabled         bool          `json:"enabled"`
	PublishInterval time.Duration `json:"publishInterval"`
	DataDog         DataDogConfig `json:"datadog"`
}

// DataDogConfig contains configuration for DataDog StatsD publishing.
type DataDogConfig struct {
	Enabled   bool     `json:"enabled"`
	AgentHost string   `json:"agentHost"`
	Port      int      `json:"port"`
	Prefix    string   `json:"prefix"`
	Tags      []string `json:"tags"`
}

// KeyValidationConfig contains configuration for cache key validation.
type KeyValidationConfig struct {
	Enabled           bool     `json:"enabled"`
	MaxKeyLength      int      `json:"maxKeyLength"`
	AllowEmpty        bool     `json:"allowEmpty"`
	AllowControlChars bool     `json:"allowControlChars"`
	AllowWhitespace   bool     `json:"allowWhitespace"`
	ReservedPrefixes  []string `json:"reservedPrefixes"`
}

// ToTypesConfig converts this config to a types.KeyValidationConfig.
func (c KeyValidationConfig) ToTypesConfig() types.KeyValidationConfig {
	return types.KeyValidationConfig{
		MaxKeyLength:      c.MaxKeyLength,
		AllowEmpty:        c.AllowEmpty,
		AllowControlChars: c.AllowControlChars,
		AllowWhitespace:   c.AllowWhitespace,
		ReservedPrefixes:  c.ReservedPrefixes,
	}
}

// SerializationMode parses the configured mode. Call Validate first;
// after validation this cannot fail.
func (c *Config) SerializationMode() (types.Mode, error) {
	return types.ParseMode(c.Serialization.Mode)
}
