package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

// MockConversationService is a mock implementation of ports.ConversationService
type MockConversationService struct {
	HandleTurnFunc     func(ctx context.Context, req ports.TurnRequest) (*ports.TurnResult, error)
	SelectLanguageFunc func(ctx context.Context, userID, code string) (domain.Language, error)
	LanguageFunc       func(ctx context.Context, userID string) domain.Language
}

func (m *MockConversationService) HandleTurn(ctx context.Context, req ports.TurnRequest) (*ports.TurnResult, error) {
	if m.HandleTurnFunc != nil {
		return m.HandleTurnFunc(ctx, req)
	}
	return &ports.TurnResult{Text: domain.IntentHelp.Response(), Intent: domain.IntentHelp, Language: domain.BaseLanguage}, nil
}

func (m *MockConversationService) SelectLanguage(ctx context.Context, userID, code string) (domain.Language, error) {
	if m.SelectLanguageFunc != nil {
		return m.SelectLanguageFunc(ctx, userID, code)
	}
	return domain.ParseLanguage(code)
}

func (m *MockConversationService) Language(ctx context.Context, userID string) domain.Language {
	if m.LanguageFunc != nil {
		return m.LanguageFunc(ctx, userID)
	}
	return domain.BaseLanguage
}

// MockTranscriptService is a mock implementation of ports.TranscriptService
type MockTranscriptService struct {
	RecordFunc  func(ctx context.Context, ev domain.TurnEvent) error
	HistoryFunc func(ctx context.Context, userID string, limit int) ([]domain.Turn, error)
}

func (m *MockTranscriptService) Record(ctx context.Context, ev domain.TurnEvent) error {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, ev)
	}
	return nil
}

func (m *MockTranscriptService) History(ctx context.Context, userID string, limit int) ([]domain.Turn, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, userID, limit)
	}
	return []domain.Turn{}, nil
}

// MockEventPublisher records published turn events.
type MockEventPublisher struct {
	mu              sync.Mutex
	Events          []domain.TurnEvent
	PublishTurnFunc func(ctx context.Context, ev domain.TurnEvent) error
}

func (m *MockEventPublisher) PublishTurn(ctx context.Context, ev domain.TurnEvent) error {
	if m.PublishTurnFunc != nil {
		return m.PublishTurnFunc(ctx, ev)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

// Published returns a copy of the recorded events.
func (m *MockEventPublisher) Published() []domain.TurnEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TurnEvent(nil), m.Events...)
}
