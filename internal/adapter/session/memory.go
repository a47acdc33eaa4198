package session

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/observability/telemetry"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.SessionStore = (*MemoryStore)(nil)

const (
	defaultShards          = 64
	defaultCleanupInterval = time.Minute
)

// Options configures the session store backends.
type Options struct {
	// ContextTTL expires a conversation context after this much inactivity. Zero keeps it forever.
	ContextTTL time.Duration
	// LanguageTTL expires a language preference after this long. Zero keeps it forever.
	LanguageTTL time.Duration
	// CleanupInterval is how often the memory backend sweeps expired entries.
	CleanupInterval time.Duration
	// Shards is the number of map shards in the memory backend.
	Shards int
	// Now overrides the clock; tests only.
	Now func() time.Time
}

type contextEntry struct {
	convo     domain.ConversationContext
	touchedAt time.Time
}

type languageEntry struct {
	lang  domain.Language
	setAt time.Time
}

type shard struct {
	mu        sync.RWMutex
	contexts  map[string]contextEntry
	languages map[string]languageEntry
}

// MemoryStore is a process-local SessionStore. Map access is sharded by user
// id; UpdateContext is serialized per user through keyLocks.
type MemoryStore struct {
	shards    []*shard
	locks     *keyLocks
	opts      Options
	log       *zap.Logger
	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates an in-memory store and starts its expiry sweeper.
func NewMemoryStore(opts Options, log *zap.Logger) *MemoryStore {
	if opts.Shards <= 0 {
		opts.Shards = defaultShards
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &MemoryStore{
		shards: make([]*shard, opts.Shards),
		locks:  newKeyLocks(),
		opts:   opts,
		log:    log,
		stopCh: make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &shard{
			contexts:  make(map[string]contextEntry),
			languages: make(map[string]languageEntry),
		}
	}

	go s.cleanupLoop(opts.CleanupInterval)

	log.Info("In-memory session store initialized",
		zap.Int("shards", opts.Shards),
		zap.Duration("context_ttl", opts.ContextTTL),
		zap.Duration("language_ttl", opts.LanguageTTL),
	)
	return s
}

func (s *MemoryStore) shardFor(userID string) *shard {
	return s.shards[xxhash.Sum64String(userID)%uint64(len(s.shards))]
}

func (s *MemoryStore) GetContext(ctx context.Context, userID string) domain.ConversationContext {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	entry, ok := sh.contexts[userID]
	sh.mu.RUnlock()

	if !ok || s.contextExpired(entry, s.opts.Now()) {
		return domain.NewConversationContext()
	}
	return entry.convo.Clone()
}

func (s *MemoryStore) PutContext(ctx context.Context, userID string, convo domain.ConversationContext) {
	sh := s.shardFor(userID)
	entry := contextEntry{convo: convo.Clone(), touchedAt: s.opts.Now()}

	sh.mu.Lock()
	sh.contexts[userID] = entry
	sh.mu.Unlock()
}

func (s *MemoryStore) UpdateContext(ctx context.Context, userID string, fn func(domain.ConversationContext) domain.ConversationContext) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	next := fn(s.GetContext(ctx, userID))
	if next == nil {
		next = domain.NewConversationContext()
	}
	s.PutContext(ctx, userID, next)
	return nil
}

func (s *MemoryStore) GetLanguage(ctx context.Context, userID string) domain.Language {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	entry, ok := sh.languages[userID]
	sh.mu.RUnlock()

	if !ok || s.languageExpired(entry, s.opts.Now()) {
		return domain.BaseLanguage
	}
	return entry.lang
}

func (s *MemoryStore) SetLanguage(ctx context.Context, userID string, code string) error {
	lang, err := domain.ParseLanguage(code)
	if err != nil {
		return err
	}

	sh := s.shardFor(userID)
	sh.mu.Lock()
	sh.languages[userID] = languageEntry{lang: lang, setAt: s.opts.Now()}
	sh.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored conversation contexts, expired ones included
// until the next sweep.
func (s *MemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.contexts)
		sh.mu.RUnlock()
	}
	return n
}

func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopCh) })
	return nil
}

func (s *MemoryStore) contextExpired(e contextEntry, now time.Time) bool {
	return s.opts.ContextTTL > 0 && now.Sub(e.touchedAt) > s.opts.ContextTTL
}

func (s *MemoryStore) languageExpired(e languageEntry, now time.Time) bool {
	return s.opts.LanguageTTL > 0 && now.Sub(e.setAt) > s.opts.LanguageTTL
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup evicts expired contexts and language preferences and returns how many
// entries were removed.
func (s *MemoryStore) cleanup() int {
	now := s.opts.Now()
	expired := 0
	active := 0

	for _, sh := range s.shards {
		sh.mu.Lock()
		for userID, entry := range sh.contexts {
			if s.contextExpired(entry, now) {
				delete(sh.contexts, userID)
				expired++
			}
		}
		for userID, entry := range sh.languages {
			if s.languageExpired(entry, now) {
				delete(sh.languages, userID)
				expired++
			}
		}
		active += len(sh.contexts)
		sh.mu.Unlock()
	}

	telemetry.ActiveSessions.Set(float64(active))
	if expired > 0 {
		telemetry.SessionEvictionsTotal.Add(float64(expired))
		s.log.Debug("Session cleanup completed", zap.Int("expired_entries", expired))
	}
	return expired
}
