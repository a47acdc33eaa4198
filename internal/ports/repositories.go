package ports

import (
	"context"
	"time"

	"github.com/seu-repo/concierge-webhook/internal/domain"
)

// SessionStore holds per-user conversation context and language preference.
// Implementations must serialize UpdateContext calls for the same user while
// letting different users proceed independently.
type SessionStore interface {
	// GetContext returns the stored context or a fresh empty one.
	GetContext(ctx context.Context, userID string) domain.ConversationContext
	// PutContext replaces the stored context.
	PutContext(ctx context.Context, userID string, convo domain.ConversationContext)
	// UpdateContext atomically reads, transforms and stores the context.
	UpdateContext(ctx context.Context, userID string, fn func(domain.ConversationContext) domain.ConversationContext) error
	// GetLanguage returns the stored preference or domain.BaseLanguage.
	GetLanguage(ctx context.Context, userID string) domain.Language
	// SetLanguage stores a preference; unsupported codes fail with domain.ErrUnsupportedLanguage.
	SetLanguage(ctx context.Context, userID string, code string) error
	Ping(ctx context.Context) error
	Close() error
}

// Cache is a string key/value cache with per-entry expiration.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// TranscriptRepository persists conversation turns.
type TranscriptRepository interface {
	Save(ctx context.Context, turn *domain.Turn) error
	FindByUserID(ctx context.Context, userID string, limit int) ([]domain.Turn, error)
}
