package config

import "time"

// DefaultConfig returns a configuration with sensible defaults: native
// memory engine, distributed tier disabled, full serialization mode.
func DefaultConfig() *Config {
	return &Config{
		Namespace: "",
		Serialization: SerializationConfig{
			Mode: "full",
		},
		Memory: MemoryConfig{
			Engine:          EngineNative,
			Shards:          256,
			MaxSizeMB:       256,
			MaxEntrySize:    10 * 1024 * 1024, // 10MB
			CleanupInterval: 10 * time.Second,
			RetentionWindow: 24 * time.Hour,
		},
		Redis: RedisConfig{
			Enabled:             false,
			Address:             "localhost:6379",
			Password:            SecretString{},
			DB:                  0,
			KeyPrefix:           "",
			DefaultTTL:          time.Hour,
			PoolSize:            100,
			MinIdleConns:        10,
			DialTimeout:         5 * time.Second,
			ReadTimeout:         3 * time.Second,
			WriteTimeout:        3 * time.Second,
			PoolTimeout:         4 * time.Second,
			HealthCheckInterval: 5 * time.Second,
		},
		Defaults: DefaultsConfig{
			TTL: time.Hour,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			SuccessThreshold:    2,
			OpenDuration:        30 * time.Second,
			HalfOpenMaxRequests: 3,
		},
		Bulkhead: BulkheadConfig{
			Enabled:        true,
			MaxConcurrent:  100,
			MaxQueue:       50,
			AcquireTimeout: 100 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 10 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "treecache",
				Tags:      []string{},
			},
		},
		KeyValidation: KeyValidationConfig{
			Enabled:           true,
			MaxKeyLength:      1024,
			AllowEmpty:        false,
			AllowControlChars: false,
			AllowWhitespace:   true,
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests.
func ForTesting() *Config {
	return &Config{
		Namespace: "",
		Serialization: SerializationConfig{
			Mode: "full",
		},
		Memory: MemoryConfig{
			Engine:          EngineNative,
			Shards:          64,
			MaxSizeMB:       16,
			MaxEntrySize:    1024 * 1024, // 1MB
			CleanupInterval: time.Second,
			RetentionWindow: time.Minute,
		},
		Redis: RedisConfig{
			Enabled:             false,
			Address:             "localhost:6379",
			DefaultTTL:          time.Minute,
			PoolSize:            10,
			MinIdleConns:        1,
			DialTimeout:         time.Second,
			ReadTimeout:         time.Second,
			WriteTimeout:        time.Second,
			PoolTimeout:         time.Second,
			HealthCheckInterval: 0,
		},
		Defaults: DefaultsConfig{
			TTL: time.Minute,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:             false,
			FailureThreshold:    3,
			SuccessThreshold:    1,
			OpenDuration:        time.Second,
			HalfOpenMaxRequests: 1,
		},
		Bulkhead: BulkheadConfig{
			Enabled:        false,
			MaxConcurrent:  10,
			MaxQueue:       5,
			AcquireTimeout: 50 * time.Millisecond,
		},
		Metrics: MetricsConfig{
			Enabled:         false,
			PublishInterval: time.Second,
		},
		KeyValidation: KeyValidationConfig{
			Enabled:           true,
			MaxKeyLength:      1024,
			AllowEmpty:        false,
			AllowControlChars: false,
			AllowWhitespace:   true,
		},
	}
}

// ForTestingWithRedis returns a test config with the distributed tier enabled.
func ForTestingWithRedis(addr string) *Config {
	cfg := ForTesting()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = addr
	return cfg
}
