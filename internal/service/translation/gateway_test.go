package translation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/mocks"
)

func TestTranslate_BaseLanguagePassThrough(t *testing.T) {
	tr := &mocks.MockTranslator{}
	g := NewGateway(tr, zap.NewNop())

	out := g.Translate(context.Background(), "Hello! How can I help you today?", domain.BaseLanguage)

	assert.Equal(t, "Hello! How can I help you today?", out)
	assert.Equal(t, 0, tr.Calls())
}

func TestTranslate_Success(t *testing.T) {
	tr := &mocks.MockTranslator{
		TranslateFunc: func(ctx context.Context, text string, target domain.Language) (string, error) {
			return "¡Hola!", nil
		},
	}
	g := NewGateway(tr, zap.NewNop())

	assert.Equal(t, "¡Hola!", g.Translate(context.Background(), "Hello!", "es"))
	assert.Equal(t, 1, tr.Calls())
}

func TestTranslate_FailureReturnsOriginal(t *testing.T) {
	tr := &mocks.MockTranslator{
		TranslateFunc: func(ctx context.Context, text string, target domain.Language) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	g := NewGateway(tr, zap.NewNop())

	assert.Equal(t, "Hello!", g.Translate(context.Background(), "Hello!", "fr"))
}

func TestTranslate_TimeoutReturnsOriginal(t *testing.T) {
	tr := &mocks.MockTranslator{
		TranslateFunc: func(ctx context.Context, text string, target domain.Language) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	g := NewGateway(tr, zap.NewNop(), WithTimeout(20*time.Millisecond))

	assert.Equal(t, "Hello!", g.Translate(context.Background(), "Hello!", "de"))
}

func TestTranslate_CachesSuccesses(t *testing.T) {
	tr := &mocks.MockTranslator{}
	cache := mocks.NewMockCache()
	g := NewGateway(tr, zap.NewNop(), WithCache(cache, time.Hour))
	ctx := context.Background()

	first := g.Translate(ctx, "Hello!", "it")
	second := g.Translate(ctx, "Hello!", "it")

	assert.Equal(t, "[it] Hello!", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, tr.Calls())

	g.Translate(ctx, "Hello!", "pt")
	assert.Equal(t, 2, tr.Calls())
}

func TestTranslate_FailuresAreNotCached(t *testing.T) {
	fail := true
	tr := &mocks.MockTranslator{
		TranslateFunc: func(ctx context.Context, text string, target domain.Language) (string, error) {
			if fail {
				return "", errors.New("down")
			}
			return "Hallo!", nil
		},
	}
	cache := mocks.NewMockCache()
	g := NewGateway(tr, zap.NewNop(), WithCache(cache, time.Hour))
	ctx := context.Background()

	assert.Equal(t, "Hello!", g.Translate(ctx, "Hello!", "de"))
	assert.Equal(t, 0, cache.Len())

	fail = false
	assert.Equal(t, "Hallo!", g.Translate(ctx, "Hello!", "de"))
}

func TestTranslate_CacheErrorsIgnored(t *testing.T) {
	tr := &mocks.MockTranslator{}
	cache := mocks.NewMockCache()
	cache.GetFunc = func(ctx context.Context, key string) (string, error) {
		return "", errors.New("connection refused")
	}
	cache.SetFunc = func(ctx context.Context, key string, value interface{}, exp time.Duration) error {
		return errors.New("connection refused")
	}
	g := NewGateway(tr, zap.NewNop(), WithCache(cache, time.Hour))

	assert.Equal(t, "[ja] Hello!", g.Translate(context.Background(), "Hello!", "ja"))
}

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("es", "Hello!")
	assert.Equal(t, k1, CacheKey("es", "Hello!"))
	assert.NotEqual(t, k1, CacheKey("fr", "Hello!"))
	assert.NotEqual(t, k1, CacheKey("es", "Goodbye!"))
	assert.Contains(t, k1, "translation:es:")
}

func TestTranslate_NoTranslatorPassesThrough(t *testing.T) {
	g := NewGateway(nil, zap.NewNop())

	assert.Equal(t, "Hello!", g.Translate(context.Background(), "Hello!", "fr"))
}
