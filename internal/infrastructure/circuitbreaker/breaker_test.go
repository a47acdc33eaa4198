package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/mocks"
)

func TestClassifier_TripsAfterFailures(t *testing.T) {
	m := NewManager(Settings{MinRequests: 3, FailureRatio: 0.5, Timeout: time.Hour}, zap.NewNop())
	inner := &mocks.MockClassifier{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
			return nil, errors.New("503")
		},
	}
	clf := NewClassifier(inner, m.Get("classifier"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := clf.Classify(ctx, "x", nil)
		require.Error(t, err)
		assert.False(t, IsCircuitOpen(err))
	}

	_, err := clf.Classify(ctx, "x", nil)
	assert.True(t, IsCircuitOpen(err))
	assert.Equal(t, 3, inner.Calls())
	assert.Equal(t, []string{"classifier"}, m.Open())
}

func TestClassifier_PassesResults(t *testing.T) {
	m := NewManager(Settings{}, zap.NewNop())
	clf := NewClassifier(mocks.RankFirst("book"), m.Get("classifier"))

	preds, err := clf.Classify(context.Background(), "x", []string{"book", "help"})
	require.NoError(t, err)
	assert.Equal(t, "book", preds[0].Label)
}

func TestTranslator_CancellationDoesNotTrip(t *testing.T) {
	m := NewManager(Settings{MinRequests: 1, FailureRatio: 0.1, Timeout: time.Hour}, zap.NewNop())
	inner := &mocks.MockTranslator{
		TranslateFunc: func(ctx context.Context, text string, target domain.Language) (string, error) {
			return "", ctx.Err()
		},
	}
	tr := NewTranslator(inner, m.Get("translator"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := tr.Translate(ctx, "Hello!", "es")
		assert.ErrorIs(t, err, context.Canceled)
	}

	assert.Empty(t, m.Open())
	assert.Equal(t, 3, inner.Calls())
}

func TestManager_GetReturnsSameBreaker(t *testing.T) {
	m := NewManager(Settings{}, zap.NewNop())

	assert.Same(t, m.Get("a"), m.Get("a"))
	m.Get("b")

	status := m.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "a", status[0].Name)
	assert.Equal(t, gobreaker.StateClosed.String(), status[0].State)
}
