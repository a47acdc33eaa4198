package ports

import (
	"context"

	"github.com/seu-repo/concierge-webhook/internal/domain"
)

// Classifier is the external intent-classification capability.
// Predictions need not be sorted.
type Classifier interface {
	Classify(ctx context.Context, text string, labels []string) ([]domain.Prediction, error)
}

// Translator is the external translation capability.
type Translator interface {
	Translate(ctx context.Context, text string, target domain.Language) (string, error)
}

// IntentRouter turns one utterance plus context into a response and an updated context.
type IntentRouter interface {
	Classify(ctx context.Context, utterance string, candidates []domain.Intent) ([]domain.RankedIntent, error)
	Route(ctx context.Context, utterance string, convo domain.ConversationContext) (string, domain.ConversationContext)
}

// TranslationGateway translates response text, never failing.
type TranslationGateway interface {
	Translate(ctx context.Context, text string, target domain.Language) string
}

// TurnRequest is one inbound conversational turn.
type TurnRequest struct {
	UserID    string
	Utterance string
}

// TurnResult is the outcome of a conversational turn.
type TurnResult struct {
	Text       string
	Intent     domain.Intent
	Language   domain.Language
	TurnNumber int
}

// ConversationService orchestrates turns and language selection.
type ConversationService interface {
	HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error)
	SelectLanguage(ctx context.Context, userID, code string) (domain.Language, error)
	Language(ctx context.Context, userID string) domain.Language
}

// TranscriptService exposes recorded turns.
type TranscriptService interface {
	Record(ctx context.Context, ev domain.TurnEvent) error
	History(ctx context.Context, userID string, limit int) ([]domain.Turn, error)
}

// EventPublisher publishes turn events for asynchronous consumers.
type EventPublisher interface {
	PublishTurn(ctx context.Context, ev domain.TurnEvent) error
}
