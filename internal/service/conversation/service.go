package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/observability/telemetry"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

type Service struct {
	store      ports.SessionStore
	router     ports.IntentRouter
	translator ports.TranslationGateway
	events     ports.EventPublisher
	log        *zap.Logger
}

// NewService wires a conversation service. events may be nil.
func NewService(
	store ports.SessionStore,
	router ports.IntentRouter,
	translator ports.TranslationGateway,
	events ports.EventPublisher,
	log *zap.Logger,
) ports.ConversationService {
	return &Service{
		store:      store,
		router:     router,
		translator: translator,
		events:     events,
		log:        log,
	}
}

func normalizeUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.AnonymousUserID
	}
	return userID
}

// HandleTurn routes one utterance for a user. Routing and the context write
// happen under the store's per-user update; translation runs after it.
// Result.Intent is last_intent as stored after the turn.
func (s *Service) HandleTurn(ctx context.Context, req ports.TurnRequest) (*ports.TurnResult, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "conversation.HandleTurn")
	defer span.End()

	userID := normalizeUserID(req.UserID)
	utterance := strings.TrimSpace(req.Utterance)
	if utterance == "" {
		telemetry.TurnsTotal.WithLabelValues("", "bad_request").Inc()
		return nil, fmt.Errorf("%w: empty utterance", domain.ErrBadRequest)
	}
	span.SetAttributes(attribute.String("user_id", userID))

	lang := s.store.GetLanguage(ctx, userID)

	var (
		text   string
		intent domain.Intent
		turn   int
	)
	err := s.store.UpdateContext(ctx, userID, func(convo domain.ConversationContext) domain.ConversationContext {
		var next domain.ConversationContext
		text, next = s.router.Route(ctx, utterance, convo)
		turn = next.IncrementTurnCount()
		intent = next.LastIntent()
		return next
	})
	if err != nil {
		telemetry.TurnsTotal.WithLabelValues("", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "context update failed")
		s.log.Error("Failed to update conversation context",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("handle turn: %w", err)
	}

	translated := s.translator.Translate(ctx, text, lang)

	result := &ports.TurnResult{
		Text:       translated,
		Intent:     intent,
		Language:   lang,
		TurnNumber: turn,
	}

	s.publish(ctx, domain.TurnEvent{
		ID:         uuid.New().String(),
		UserID:     userID,
		Utterance:  utterance,
		Intent:     intent,
		Response:   translated,
		Language:   lang,
		Translated: !lang.IsBase() && translated != text,
		TurnNumber: turn,
		OccurredAt: time.Now().UTC(),
	})

	telemetry.TurnsTotal.WithLabelValues(string(intent), "ok").Inc()
	telemetry.TurnLatency.Observe(time.Since(start).Seconds())
	span.SetAttributes(
		attribute.String("intent", string(intent)),
		attribute.String("language", string(lang)),
		attribute.Int("turn", turn),
	)

	s.log.Debug("Turn handled",
		zap.String("user_id", userID),
		zap.String("intent", string(intent)),
		zap.String("language", string(lang)),
		zap.Int("turn", turn),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (s *Service) publish(ctx context.Context, ev domain.TurnEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTurn(ctx, ev); err != nil {
		telemetry.EventPublishFailuresTotal.Inc()
		s.log.Warn("Failed to publish turn event",
			zap.String("user_id", ev.UserID),
			zap.String("event_id", ev.ID),
			zap.Error(err),
		)
	}
}

func (s *Service) SelectLanguage(ctx context.Context, userID, code string) (domain.Language, error) {
	userID = normalizeUserID(userID)

	if err := s.store.SetLanguage(ctx, userID, code); err != nil {
		if errors.Is(err, domain.ErrUnsupportedLanguage) {
			telemetry.LanguageSelectionsTotal.WithLabelValues("unsupported", "rejected").Inc()
			s.log.Info("Rejected language selection",
				zap.String("user_id", userID),
				zap.String("language", code),
			)
			return "", err
		}
		telemetry.LanguageSelectionsTotal.WithLabelValues(code, "error").Inc()
		s.log.Error("Failed to store language preference",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return "", fmt.Errorf("select language: %w", err)
	}

	lang := domain.Language(code)
	telemetry.LanguageSelectionsTotal.WithLabelValues(string(lang), "ok").Inc()
	s.log.Info("Language preference updated",
		zap.String("user_id", userID),
		zap.String("language", code),
	)
	return lang, nil
}

func (s *Service) Language(ctx context.Context, userID string) domain.Language {
	return s.store.GetLanguage(ctx, normalizeUserID(userID))
}
