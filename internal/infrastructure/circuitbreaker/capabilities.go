package circuitbreaker

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var (
	_ ports.Classifier = (*Classifier)(nil)
	_ ports.Translator = (*Translator)(nil)
)

// Classifier fails fast with gobreaker.ErrOpenState while its breaker is open.
type Classifier struct {
	next    ports.Classifier
	breaker *gobreaker.CircuitBreaker
}

func NewClassifier(next ports.Classifier, breaker *gobreaker.CircuitBreaker) *Classifier {
	return &Classifier{next: next, breaker: breaker}
}

func (c *Classifier) Classify(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
	return execute(ctx, c.breaker, func(ctx context.Context) ([]domain.Prediction, error) {
		return c.next.Classify(ctx, text, labels)
	})
}

// Translator fails fast with gobreaker.ErrOpenState while its breaker is open.
type Translator struct {
	next    ports.Translator
	breaker *gobreaker.CircuitBreaker
}

func NewTranslator(next ports.Translator, breaker *gobreaker.CircuitBreaker) *Translator {
	return &Translator{next: next, breaker: breaker}
}

func (t *Translator) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	return execute(ctx, t.breaker, func(ctx context.Context) (string, error) {
		return t.next.Translate(ctx, text, target)
	})
}
