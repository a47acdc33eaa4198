package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "concierge-webhook")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 5000)
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.context_ttl", 24*time.Hour)
	v.SetDefault("session.language_ttl", time.Duration(0))
	v.SetDefault("session.cleanup_interval", time.Minute)
	v.SetDefault("session.shards", 64)

	v.SetDefault("dialog.guarded_transitions", false)

	v.SetDefault("classifier.provider", "keyword")
	v.SetDefault("classifier.timeout", 5*time.Second)
	v.SetDefault("translator.provider", "none")
	v.SetDefault("translator.timeout", 5*time.Second)

	v.SetDefault("openai.model", "gpt-4o-mini")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("queue.driver", "none")
	v.SetDefault("queue.subject", "concierge.turns")
	v.SetDefault("queue.group", "transcripts")
	v.SetDefault("queue.buffer_size", 1024)

	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.log_level", "warn")

	v.SetDefault("opentelemetry.service_name", "concierge-webhook")
	v.SetDefault("opentelemetry.jaeger.endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 1.0)

	v.SetDefault("prometheus.enabled", true)
	v.SetDefault("prometheus.path", "/metrics")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("rate_limiting.enabled", true)
	v.SetDefault("rate_limiting.max_requests", 120)
	v.SetDefault("rate_limiting.window", time.Minute)

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.max_requests", 3)
	v.SetDefault("circuit_breaker.min_requests", 5)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.failure_threshold", 0.6)

	v.SetDefault("cors.enabled", true)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.translation_ttl", 24*time.Hour)
	v.SetDefault("cache.max_entries", 10000)
	v.SetDefault("cache.cleanup_interval", 5*time.Minute)

	v.SetDefault("limits.max_request_body_size", 64*1024)
}

// Load reads configs/config.yaml (if present) and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file; an empty path searches the
// default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath("/app/configs")
	}

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	_ = v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	_ = v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	_ = v.BindEnv("queue.url", "QUEUE_URL", "NATS_URL", "APP_QUEUE_URL")
	_ = v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY", "APP_OPENAI_API_KEY")
	_ = v.BindEnv("app.environment", "APP_ENVIRONMENT")
	_ = v.BindEnv("logging.level", "LOG_LEVEL", "APP_LOGGING_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unknown value %q (want one of %s)", field, value, strings.Join(allowed, ", "))
}

// Validate rejects unknown backends and missing settings they require.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port: %d out of range", c.HTTP.Port))
	}
	errs = append(errs,
		oneOf("session.backend", c.Session.Backend, "memory", "redis"),
		oneOf("classifier.provider", c.Classifier.Provider, "keyword", "http", "openai"),
		oneOf("translator.provider", c.Translator.Provider, "none", "http", "openai"),
		oneOf("queue.driver", c.Queue.Driver, "none", "memory", "nats", "rabbitmq"),
		oneOf("cache.backend", c.Cache.Backend, "none", "memory", "redis"),
		oneOf("logging.format", c.Logging.Format, "json", "console"),
	)

	if c.Classifier.Provider == "http" && c.Classifier.Endpoint == "" {
		errs = append(errs, errors.New("classifier.endpoint is required for the http provider"))
	}
	if c.Translator.Provider == "http" && c.Translator.Endpoint == "" {
		errs = append(errs, errors.New("translator.endpoint is required for the http provider"))
	}
	if (c.Classifier.Provider == "openai" || c.Translator.Provider == "openai") && c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("openai.api_key is required for the openai provider"))
	}
	if c.UsesRedis() && c.Redis.URL == "" {
		errs = append(errs, errors.New("redis.url is required for the redis backend"))
	}
	if (c.Queue.Driver == "nats" || c.Queue.Driver == "rabbitmq") && c.Queue.URL == "" {
		errs = append(errs, fmt.Errorf("queue.url is required for the %s driver", c.Queue.Driver))
	}
	if c.Transcripts.Enabled {
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required when transcripts are enabled"))
		}
		if c.Queue.Driver == "none" {
			errs = append(errs, errors.New("transcripts need a queue driver"))
		}
	}

	return errors.Join(errs...)
}

// UsesRedis reports whether any component is backed by Redis.
func (c *Config) UsesRedis() bool {
	return c.Session.Backend == "redis" || c.Cache.Backend == "redis"
}
