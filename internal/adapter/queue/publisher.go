package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

// TurnsSubject carries one JSON-encoded domain.TurnEvent per completed turn.
const TurnsSubject = "concierge.turns"

var _ ports.EventPublisher = (*TurnPublisher)(nil)

type TurnPublisher struct {
	mq      MessageQueue
	subject string
	log     *zap.Logger
}

func NewTurnPublisher(mq MessageQueue, subject string, log *zap.Logger) *TurnPublisher {
	if subject == "" {
		subject = TurnsSubject
	}
	return &TurnPublisher{mq: mq, subject: subject, log: log}
}

func (p *TurnPublisher) PublishTurn(ctx context.Context, ev domain.TurnEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal turn event: %w", err)
	}
	if err := p.mq.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish turn event: %w", err)
	}
	return nil
}

// SubscribeTurns decodes turn events on subject and passes them to handle.
func SubscribeTurns(mq MessageQueue, subject string, handle func(domain.TurnEvent) error) error {
	if subject == "" {
		subject = TurnsSubject
	}
	return mq.Subscribe(subject, func(data []byte) error {
		var ev domain.TurnEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("decode turn event: %w", err)
		}
		return handle(ev)
	})
}
