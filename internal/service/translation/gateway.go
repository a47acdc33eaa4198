package translation

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/observability/telemetry"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.TranslationGateway = (*Gateway)(nil)

const (
	defaultTimeout  = 5 * time.Second
	defaultCacheTTL = 24 * time.Hour
)

// Gateway translates response text into the user's language. It never fails:
// any translator error yields the original text.
type Gateway struct {
	translator ports.Translator
	cache      ports.Cache
	timeout    time.Duration
	cacheTTL   time.Duration
	log        *zap.Logger
}

type Option func(*Gateway)

func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithCache stores successful translations for ttl. A nil cache disables caching.
func WithCache(c ports.Cache, ttl time.Duration) Option {
	return func(g *Gateway) {
		g.cache = c
		if ttl > 0 {
			g.cacheTTL = ttl
		}
	}
}

// NewGateway wraps translator. A nil translator passes every text through.
func NewGateway(translator ports.Translator, log *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		translator: translator,
		timeout:    defaultTimeout,
		cacheTTL:   defaultCacheTTL,
		log:        log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CacheKey is the cache key of text translated into lang.
func CacheKey(lang domain.Language, text string) string {
	return "translation:" + string(lang) + ":" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}

func (g *Gateway) Translate(ctx context.Context, text string, target domain.Language) string {
	if target.IsBase() || text == "" || g.translator == nil {
		return text
	}

	ctx, span := telemetry.StartSpan(ctx, "translation.Translate")
	defer span.End()
	span.SetAttributes(attribute.String("language", string(target)))

	key := CacheKey(target, text)
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, key); err == nil {
			telemetry.TranslationCacheHitsTotal.Inc()
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached
		}
	}

	translated, err := g.call(ctx, text, target)
	if err != nil {
		telemetry.TranslationFallbacksTotal.WithLabelValues(string(target)).Inc()
		span.RecordError(err)
		g.log.Warn("Translation failed, returning original text",
			zap.String("language", string(target)),
			zap.Error(err),
		)
		return text
	}

	if g.cache != nil {
		if err := g.cache.Set(ctx, key, translated, g.cacheTTL); err != nil {
			g.log.Debug("Failed to cache translation", zap.String("key", key), zap.Error(err))
		}
	}
	return translated
}

func (g *Gateway) call(ctx context.Context, text string, target domain.Language) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	out, err := g.translator.Translate(ctx, text, target)
	telemetry.CapabilityLatency.WithLabelValues("translator").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", &domain.TranslationError{Target: target, Err: err}
	}
	return out, nil
}
