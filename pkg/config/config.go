package config

import "time"

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Session        SessionConfig        `mapstructure:"session"`
	Dialog         DialogConfig         `mapstructure:"dialog"`
	Classifier     CapabilityConfig     `mapstructure:"classifier"`
	Translator     CapabilityConfig     `mapstructure:"translator"`
	OpenAI         OpenAIConfig         `mapstructure:"openai"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Queue          QueueConfig          `mapstructure:"queue"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Transcripts    TranscriptsConfig    `mapstructure:"transcripts"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Prometheus     PrometheusConfig     `mapstructure:"prometheus"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	RateLimiting   RateLimitingConfig   `mapstructure:"rate_limiting"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Limits         LimitsConfig         `mapstructure:"limits"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SessionConfig selects where conversation state lives.
type SessionConfig struct {
	// Backend is memory or redis.
	Backend         string        `mapstructure:"backend"`
	ContextTTL      time.Duration `mapstructure:"context_ttl"`
	LanguageTTL     time.Duration `mapstructure:"language_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Shards          int           `mapstructure:"shards"`
}

type DialogConfig struct {
	GuardedTransitions bool `mapstructure:"guarded_transitions"`
}

// CapabilityConfig configures the classifier or translator backend.
type CapabilityConfig struct {
	// Provider is keyword, http or openai for the classifier and none, http or
	// openai for the translator.
	Provider string        `mapstructure:"provider"`
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type QueueConfig struct {
	// Driver is none, memory, nats or rabbitmq.
	Driver     string `mapstructure:"driver"`
	URL        string `mapstructure:"url"`
	Subject    string `mapstructure:"subject"`
	Group      string `mapstructure:"group"`
	BufferSize int    `mapstructure:"buffer_size"`
}

type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogLevel        string        `mapstructure:"log_level"`
}

type TranscriptsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateLimitingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	MinRequests      uint32        `mapstructure:"min_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold float64       `mapstructure:"failure_threshold"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}

// CacheConfig configures the translation cache.
type CacheConfig struct {
	// Backend is none, memory or redis.
	Backend         string        `mapstructure:"backend"`
	TranslationTTL  time.Duration `mapstructure:"translation_ttl"`
	MaxEntries      int           `mapstructure:"max_entries"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type LimitsConfig struct {
	MaxRequestBodySize int `mapstructure:"max_request_body_size"`
}
