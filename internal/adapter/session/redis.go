package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/observability/telemetry"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.SessionStore = (*RedisStore)(nil)

const (
	contextKeyPrefix  = "session:context:"
	languageKeyPrefix = "session:language:"

	defaultMaxUpdateRetries = 5
)

// RedisStore is a SessionStore shared by every replica of the service.
// Updates from one process are serialized by keyLocks; updates racing across
// processes are caught by WATCH and retried.
type RedisStore struct {
	client     *redis.Client
	locks      *keyLocks
	opts       Options
	maxRetries uint64
	log        *zap.Logger
}

// NewRedisStore wraps an already connected client. Close does not close the client.
func NewRedisStore(client *redis.Client, opts Options, log *zap.Logger) *RedisStore {
	log.Info("Redis session store initialized",
		zap.Duration("context_ttl", opts.ContextTTL),
		zap.Duration("language_ttl", opts.LanguageTTL),
	)
	return &RedisStore{
		client:     client,
		locks:      newKeyLocks(),
		opts:       opts,
		maxRetries: defaultMaxUpdateRetries,
		log:        log,
	}
}

func contextKey(userID string) string {
	return contextKeyPrefix + userID
}

func languageKey(userID string) string {
	return languageKeyPrefix + userID
}

func (s *RedisStore) GetContext(ctx context.Context, userID string) domain.ConversationContext {
	convo, err := s.readContext(ctx, s.client, contextKey(userID))
	if err != nil {
		s.log.Warn("Failed to load conversation context, starting empty",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return domain.NewConversationContext()
	}
	return convo
}

func (s *RedisStore) PutContext(ctx context.Context, userID string, convo domain.ConversationContext) {
	data, err := json.Marshal(convo)
	if err != nil {
		s.log.Error("Failed to marshal conversation context", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, contextKey(userID), data, s.opts.ContextTTL).Err(); err != nil {
		s.log.Error("Failed to store conversation context", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *RedisStore) UpdateContext(ctx context.Context, userID string, fn func(domain.ConversationContext) domain.ConversationContext) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	key := contextKey(userID)
	txf := func(tx *redis.Tx) error {
		convo, err := s.readContext(ctx, tx, key)
		if err != nil {
			return err
		}

		next := fn(convo)
		if next == nil {
			next = domain.NewConversationContext()
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal context: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.opts.ContextTTL)
			return nil
		})
		return err
	}

	op := func() error {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			telemetry.SessionConflictsTotal.Inc()
			s.log.Debug("Concurrent context update detected, retrying", zap.String("user_id", userID))
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, s.maxRetries), ctx)); err != nil {
		return fmt.Errorf("update context for %s: %w", userID, err)
	}
	return nil
}

func (s *RedisStore) GetLanguage(ctx context.Context, userID string) domain.Language {
	code, err := s.client.Get(ctx, languageKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.BaseLanguage
	}
	if err != nil {
		s.log.Warn("Failed to load language preference, using base language",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return domain.BaseLanguage
	}

	lang, err := domain.ParseLanguage(code)
	if err != nil {
		s.log.Warn("Stored language preference is invalid", zap.String("user_id", userID), zap.String("language", code))
		return domain.BaseLanguage
	}
	return lang
}

func (s *RedisStore) SetLanguage(ctx context.Context, userID string, code string) error {
	lang, err := domain.ParseLanguage(code)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, languageKey(userID), string(lang), s.opts.LanguageTTL).Err(); err != nil {
		return fmt.Errorf("store language for %s: %w", userID, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return nil
}

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// readContext loads a context through c, which is either the client or a
// transaction. A missing key yields an empty context; undecodable data is
// logged and replaced.
func (s *RedisStore) readContext(ctx context.Context, c getter, key string) (domain.ConversationContext, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewConversationContext(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}

	convo := domain.NewConversationContext()
	if err := json.Unmarshal(data, &convo); err != nil {
		s.log.Warn("Discarding undecodable conversation context", zap.String("key", key), zap.Error(err))
		return domain.NewConversationContext(), nil
	}
	return convo, nil
}
