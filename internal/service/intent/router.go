package intent

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/observability/telemetry"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.IntentRouter = (*Router)(nil)

const defaultTimeout = 5 * time.Second

// Guard reports whether an intent may be entered from the given context.
type Guard func(convo domain.ConversationContext) bool

// Guards maps an intent to the condition required to select it.
type Guards map[domain.Intent]Guard

// RequiresLastIntent allows a transition only right after prev.
func RequiresLastIntent(prev domain.Intent) Guard {
	return func(convo domain.ConversationContext) bool {
		return convo.LastIntent() == prev
	}
}

// DefaultGuards only lets a booking be cancelled right after one was requested.
func DefaultGuards() Guards {
	return Guards{
		domain.IntentCancelBooking: RequiresLastIntent(domain.IntentBook),
	}
}

// Router maps utterances to responses through the classifier capability.
type Router struct {
	classifier ports.Classifier
	candidates []domain.Intent
	timeout    time.Duration
	guards     Guards
	log        *zap.Logger
}

type Option func(*Router)

// WithTimeout bounds each classifier call.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithGuards enables guarded transitions. A nil table keeps routing flat.
func WithGuards(g Guards) Option {
	return func(r *Router) {
		r.guards = g
	}
}

func NewRouter(classifier ports.Classifier, log *zap.Logger, opts ...Option) *Router {
	r := &Router{
		classifier: classifier,
		candidates: domain.ClassifiableIntents,
		timeout:    defaultTimeout,
		log:        log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Classify ranks candidates for the utterance, highest confidence first.
// Labels the classifier invents are kept and resolve to IntentUnknown.
func (r *Router) Classify(ctx context.Context, utterance string, candidates []domain.Intent) ([]domain.RankedIntent, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	preds, err := r.classifier.Classify(ctx, utterance, domain.Strings(candidates))
	telemetry.CapabilityLatency.WithLabelValues("classifier").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, &domain.ClassificationError{Err: err}
	}
	if len(preds) == 0 {
		return nil, &domain.ClassificationError{Err: domain.ErrNoPrediction}
	}

	ranked := make([]domain.RankedIntent, len(preds))
	for i, p := range preds {
		in, _ := domain.ParseIntent(p.Label)
		ranked[i] = domain.RankedIntent{Intent: in, Label: p.Label, Confidence: p.Confidence}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	return ranked, nil
}

// Route picks the response for one utterance and returns it with the updated
// context. The input context is not modified. Classifier failures answer with
// the help response and leave last_intent as it was.
func (r *Router) Route(ctx context.Context, utterance string, convo domain.ConversationContext) (string, domain.ConversationContext) {
	ctx, span := telemetry.StartSpan(ctx, "intent.Route")
	defer span.End()

	next := convo.Clone()

	ranked, err := r.Classify(ctx, utterance, r.candidates)
	if err != nil {
		telemetry.ClassificationFailuresTotal.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		r.log.Warn("Intent classification failed, answering with help",
			zap.Error(err),
			zap.String("last_intent", string(convo.LastIntent())),
		)
		return domain.IntentHelp.Response(), next
	}

	chosen := r.choose(ranked, convo)
	if chosen.Intent == domain.IntentUnknown {
		r.log.Debug("Classifier label outside the intent set",
			zap.String("label", chosen.Label),
			zap.Float64("confidence", chosen.Confidence),
		)
	}

	span.SetAttributes(
		attribute.String("intent", string(chosen.Intent)),
		attribute.Float64("confidence", chosen.Confidence),
	)

	next.SetLastIntent(chosen.Intent)
	return chosen.Intent.Response(), next
}

func (r *Router) choose(ranked []domain.RankedIntent, convo domain.ConversationContext) domain.RankedIntent {
	if len(r.guards) == 0 {
		return ranked[0]
	}
	for _, c := range ranked {
		guard, ok := r.guards[c.Intent]
		if !ok || guard(convo) {
			return c
		}
	}
	return domain.RankedIntent{Intent: domain.IntentUnknown, Label: string(domain.IntentUnknown)}
}
