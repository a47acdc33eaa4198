package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/adapter/queue"
	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/observability/telemetry"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.TranscriptService = (*Service)(nil)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100

	recordTimeout = 5 * time.Second
)

// Service persists turn events and serves conversation history.
type Service struct {
	repo ports.TranscriptRepository
	log  *zap.Logger
}

func NewService(repo ports.TranscriptRepository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Subscribe records every turn event published on subject.
func (s *Service) Subscribe(mq queue.MessageQueue, subject string) error {
	err := queue.SubscribeTurns(mq, subject, func(ev domain.TurnEvent) error {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		return s.Record(ctx, ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe transcripts: %w", err)
	}
	s.log.Info("Transcript recorder subscribed", zap.String("subject", subject))
	return nil
}

func (s *Service) Record(ctx context.Context, ev domain.TurnEvent) error {
	if ev.ID == "" || ev.UserID == "" {
		telemetry.TranscriptsRecordedTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%w: turn event without id or user", domain.ErrBadRequest)
	}

	turn := domain.TurnFromEvent(ev)
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Save(ctx, &turn); err != nil {
		telemetry.TranscriptsRecordedTotal.WithLabelValues("error").Inc()
		s.log.Error("Failed to record turn",
			zap.String("event_id", ev.ID),
			zap.String("user_id", ev.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("record turn %s: %w", ev.ID, err)
	}

	telemetry.TranscriptsRecordedTotal.WithLabelValues("ok").Inc()
	return nil
}

// History returns up to limit turns for the user, newest first. limit <= 0
// selects DefaultHistoryLimit; larger values are capped at MaxHistoryLimit.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]domain.Turn, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id required", domain.ErrBadRequest)
	}
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	turns, err := s.repo.FindByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history for %s: %w", userID, err)
	}
	if turns == nil {
		turns = []domain.Turn{}
	}
	return turns, nil
}
