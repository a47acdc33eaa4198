package transcript

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/adapter/queue"
	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/mocks"
)

func TestRecord(t *testing.T) {
	repo := &mocks.MockTranscriptRepository{}
	svc := NewService(repo, zap.NewNop())

	err := svc.Record(context.Background(), domain.TurnEvent{
		ID:         "e1",
		UserID:     "u1",
		Utterance:  "hi",
		Intent:     domain.IntentGreeting,
		Response:   "Hello! How can I help you today?",
		Language:   "en",
		TurnNumber: 1,
	})
	require.NoError(t, err)

	saved := repo.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, "greeting", saved[0].Intent)
	assert.False(t, saved[0].CreatedAt.IsZero())
}

func TestRecord_Invalid(t *testing.T) {
	svc := NewService(&mocks.MockTranscriptRepository{}, zap.NewNop())

	err := svc.Record(context.Background(), domain.TurnEvent{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRecord_RepositoryError(t *testing.T) {
	repo := &mocks.MockTranscriptRepository{
		SaveFunc: func(ctx context.Context, turn *domain.Turn) error {
			return errors.New("connection reset")
		},
	}
	svc := NewService(repo, zap.NewNop())

	err := svc.Record(context.Background(), domain.TurnEvent{ID: "e1", UserID: "u1"})
	assert.Error(t, err)
}

func TestHistory_Limits(t *testing.T) {
	var gotLimit int
	repo := &mocks.MockTranscriptRepository{
		FindByUserIDFunc: func(ctx context.Context, userID string, limit int) ([]domain.Turn, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	svc := NewService(repo, zap.NewNop())
	ctx := context.Background()

	turns, err := svc.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Equal(t, DefaultHistoryLimit, gotLimit)

	_, err = svc.History(ctx, "u1", 1000)
	require.NoError(t, err)
	assert.Equal(t, MaxHistoryLimit, gotLimit)

	_, err = svc.History(ctx, "u1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, gotLimit)

	_, err = svc.History(ctx, " ", 7)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestSubscribe_RecordsPublishedTurns(t *testing.T) {
	repo := &mocks.MockTranscriptRepository{}
	svc := NewService(repo, zap.NewNop())
	mq := mocks.NewMockMessageQueue()

	require.NoError(t, svc.Subscribe(mq, queue.TurnsSubject))

	pub := queue.NewTurnPublisher(mq, queue.TurnsSubject, zap.NewNop())
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		require.NoError(t, pub.PublishTurn(context.Background(), domain.TurnEvent{
			ID:         fmt.Sprintf("e%d", i),
			UserID:     "u1",
			Intent:     domain.IntentBook,
			TurnNumber: i,
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	history, err := svc.History(context.Background(), "u1", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 3, history[0].TurnNumber)
	assert.Equal(t, 2, history[1].TurnNumber)
}
