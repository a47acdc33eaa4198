package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/concierge-webhook/internal/domain"
)

// MockTranscriptRepository is a mock implementation of ports.TranscriptRepository
type MockTranscriptRepository struct {
	mu               sync.Mutex
	Turns            []domain.Turn
	SaveFunc         func(ctx context.Context, turn *domain.Turn) error
	FindByUserIDFunc func(ctx context.Context, userID string, limit int) ([]domain.Turn, error)
}

func (m *MockTranscriptRepository) Save(ctx context.Context, turn *domain.Turn) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, turn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Turns = append(m.Turns, *turn)
	return nil
}

func (m *MockTranscriptRepository) FindByUserID(ctx context.Context, userID string, limit int) ([]domain.Turn, error) {
	if m.FindByUserIDFunc != nil {
		return m.FindByUserIDFunc(ctx, userID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Turn
	for i := len(m.Turns) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if m.Turns[i].UserID == userID {
			out = append(out, m.Turns[i])
		}
	}
	return out, nil
}

// Saved returns a copy of all saved turns.
func (m *MockTranscriptRepository) Saved() []domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Turn(nil), m.Turns...)
}

// MockSessionStore is a mock implementation of ports.SessionStore. Unset
// funcs behave like an empty store that accepts every write.
type MockSessionStore struct {
	GetContextFunc    func(ctx context.Context, userID string) domain.ConversationContext
	PutContextFunc    func(ctx context.Context, userID string, convo domain.ConversationContext)
	UpdateContextFunc func(ctx context.Context, userID string, fn func(domain.ConversationContext) domain.ConversationContext) error
	GetLanguageFunc   func(ctx context.Context, userID string) domain.Language
	SetLanguageFunc   func(ctx context.Context, userID string, code string) error
	PingFunc          func(ctx context.Context) error
}

func (m *MockSessionStore) GetContext(ctx context.Context, userID string) domain.ConversationContext {
	if m.GetContextFunc != nil {
		return m.GetContextFunc(ctx, userID)
	}
	return domain.NewConversationContext()
}

func (m *MockSessionStore) PutContext(ctx context.Context, userID string, convo domain.ConversationContext) {
	if m.PutContextFunc != nil {
		m.PutContextFunc(ctx, userID, convo)
	}
}

func (m *MockSessionStore) UpdateContext(ctx context.Context, userID string, fn func(domain.ConversationContext) domain.ConversationContext) error {
	if m.UpdateContextFunc != nil {
		return m.UpdateContextFunc(ctx, userID, fn)
	}
	fn(domain.NewConversationContext())
	return nil
}

func (m *MockSessionStore) GetLanguage(ctx context.Context, userID string) domain.Language {
	if m.GetLanguageFunc != nil {
		return m.GetLanguageFunc(ctx, userID)
	}
	return domain.BaseLanguage
}

func (m *MockSessionStore) SetLanguage(ctx context.Context, userID string, code string) error {
	if m.SetLanguageFunc != nil {
		return m.SetLanguageFunc(ctx, userID, code)
	}
	_, err := domain.ParseLanguage(code)
	return err
}

func (m *MockSessionStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockSessionStore) Close() error {
	return nil
}
