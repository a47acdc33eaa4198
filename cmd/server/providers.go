package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seu-repo/concierge-webhook/internal/adapter/ai/keyword"
	"github.com/seu-repo/concierge-webhook/internal/adapter/ai/libretranslate"
	"github.com/seu-repo/concierge-webhook/internal/adapter/ai/openai"
	"github.com/seu-repo/concierge-webhook/internal/adapter/ai/zeroshot"
	"github.com/seu-repo/concierge-webhook/internal/adapter/cache"
	"github.com/seu-repo/concierge-webhook/internal/adapter/session"
	"github.com/seu-repo/concierge-webhook/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/concierge-webhook/internal/ports"
	"github.com/seu-repo/concierge-webhook/pkg/config"
)

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}

func newSessionStore(cfg *config.Config, client *redis.Client, log *zap.Logger) ports.SessionStore {
	opts := session.Options{
		ContextTTL:      cfg.Session.ContextTTL,
		LanguageTTL:     cfg.Session.LanguageTTL,
		CleanupInterval: cfg.Session.CleanupInterval,
		Shards:          cfg.Session.Shards,
	}
	if cfg.Session.Backend == "redis" {
		return session.NewRedisStore(client, opts, log)
	}
	return session.NewMemoryStore(opts, log)
}

// newTranslationCache returns nil when caching is off.
func newTranslationCache(cfg config.CacheConfig, client *redis.Client, log *zap.Logger) ports.Cache {
	switch cfg.Backend {
	case "redis":
		return cache.NewRedisCache(client, "", log)
	case "memory":
		return cache.NewLocalCache(cfg.CleanupInterval, cfg.MaxEntries, log)
	default:
		return nil
	}
}

// capabilities builds the classifier and translator backends, each behind its
// own circuit breaker when breakers are enabled.
type capabilities struct {
	cfg      *config.Config
	breakers *circuitbreaker.Manager
	openai   *openai.Client
	log      *zap.Logger
}

func newCapabilities(cfg *config.Config, breakers *circuitbreaker.Manager, log *zap.Logger) (*capabilities, error) {
	c := &capabilities{cfg: cfg, breakers: breakers, log: log}

	if cfg.Classifier.Provider == "openai" || cfg.Translator.Provider == "openai" {
		timeout := cfg.Classifier.Timeout
		if cfg.Translator.Timeout > timeout {
			timeout = cfg.Translator.Timeout
		}
		client, err := openai.NewClient(openai.Options{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		c.openai = client
	}
	return c, nil
}

func (c *capabilities) classifier() ports.Classifier {
	var classifier ports.Classifier
	switch c.cfg.Classifier.Provider {
	case "http":
		classifier = zeroshot.NewClient(c.cfg.Classifier.Endpoint, c.cfg.Classifier.APIKey, c.cfg.Classifier.Timeout, c.log)
	case "openai":
		classifier = openai.NewClassifier(c.openai)
	default:
		// local matching cannot fail, so it is never wrapped
		return keyword.NewClassifier()
	}

	c.log.Info("Classifier configured", zap.String("provider", c.cfg.Classifier.Provider))
	if c.breakers == nil {
		return classifier
	}
	return circuitbreaker.NewClassifier(classifier, c.breakers.Get("classifier"))
}

// translator returns nil for the none provider.
func (c *capabilities) translator() ports.Translator {
	var translator ports.Translator
	switch c.cfg.Translator.Provider {
	case "http":
		translator = libretranslate.NewClient(c.cfg.Translator.Endpoint, c.cfg.Translator.APIKey, c.cfg.Translator.Timeout, c.log)
	case "openai":
		translator = openai.NewTranslator(c.openai)
	default:
		c.log.Info("Translation disabled, responses stay in the base language")
		return nil
	}

	c.log.Info("Translator configured", zap.String("provider", c.cfg.Translator.Provider))
	if c.breakers == nil {
		return translator
	}
	return circuitbreaker.NewTranslator(translator, c.breakers.Get("translator"))
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*redis.Client, error) {
	return cache.NewRedisClient(ctx, cache.ClientOptions{
		URL:          cfg.URL,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, log)
}
