package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/mocks"
)

func TestRoute_Greeting(t *testing.T) {
	r := NewRouter(mocks.RankFirst("greeting"), zap.NewNop())

	text, next := r.Route(context.Background(), "hi there", domain.NewConversationContext())

	assert.Equal(t, "Hello! How can I help you today?", text)
	assert.Equal(t, domain.IntentGreeting, next.LastIntent())
}

func TestRoute_DoesNotMutateInput(t *testing.T) {
	r := NewRouter(mocks.RankFirst("book"), zap.NewNop())
	convo := domain.ConversationContext{"last_intent": "greeting", "custom": "kept"}

	_, next := r.Route(context.Background(), "book a ticket", convo)

	assert.Equal(t, domain.IntentGreeting, convo.LastIntent())
	assert.Equal(t, domain.IntentBook, next.LastIntent())
	assert.Equal(t, "kept", next["custom"])
}

func TestRoute_UnknownLabel(t *testing.T) {
	r := NewRouter(mocks.RankFirst("weather"), zap.NewNop())

	text, next := r.Route(context.Background(), "will it rain?", nil)

	assert.Equal(t, "I'm not sure how to help with that.", text)
	assert.Equal(t, domain.IntentUnknown, next.LastIntent())
}

func TestRoute_ClassifierErrorKeepsLastIntent(t *testing.T) {
	clf := &mocks.MockClassifier{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
			return nil, errors.New("upstream 503")
		},
	}
	r := NewRouter(clf, zap.NewNop())
	convo := domain.ConversationContext{"last_intent": "book"}

	text, next := r.Route(context.Background(), "pay now", convo)

	assert.Equal(t, "How can I assist you?", text)
	assert.Equal(t, domain.IntentBook, next.LastIntent())
}

func TestRoute_EmptyRankingFallsBackToHelp(t *testing.T) {
	clf := &mocks.MockClassifier{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
			return []domain.Prediction{}, nil
		},
	}
	r := NewRouter(clf, zap.NewNop())

	text, next := r.Route(context.Background(), "hmm", domain.NewConversationContext())

	assert.Equal(t, "How can I assist you?", text)
	_, ok := next[domain.ContextKeyLastIntent]
	assert.False(t, ok)
}

func TestRoute_TimeoutFallsBackToHelp(t *testing.T) {
	clf := &mocks.MockClassifier{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	r := NewRouter(clf, zap.NewNop(), WithTimeout(20*time.Millisecond))

	start := time.Now()
	text, _ := r.Route(context.Background(), "hello", domain.NewConversationContext())

	assert.Equal(t, "How can I assist you?", text)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClassify_SortsByConfidence(t *testing.T) {
	clf := &mocks.MockClassifier{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
			return []domain.Prediction{
				{Label: "help", Confidence: 0.1},
				{Label: "payment", Confidence: 0.7},
				{Label: "book", Confidence: 0.2},
				{Label: "greeting", Confidence: 0.2},
			}, nil
		},
	}
	r := NewRouter(clf, zap.NewNop())

	ranked, err := r.Classify(context.Background(), "pay", domain.ClassifiableIntents)
	require.NoError(t, err)
	require.Len(t, ranked, 4)

	assert.Equal(t, domain.IntentPayment, ranked[0].Intent)
	// ties keep classifier order
	assert.Equal(t, domain.IntentBook, ranked[1].Intent)
	assert.Equal(t, domain.IntentGreeting, ranked[2].Intent)
	assert.Equal(t, domain.IntentHelp, ranked[3].Intent)
}

func TestClassify_PassesCandidateLabels(t *testing.T) {
	var got []string
	clf := &mocks.MockClassifier{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
			got = labels
			return []domain.Prediction{{Label: "book", Confidence: 1}}, nil
		},
	}
	r := NewRouter(clf, zap.NewNop())

	_, err := r.Classify(context.Background(), "x", []domain.Intent{domain.IntentBook, domain.IntentHelp})
	require.NoError(t, err)
	assert.Equal(t, []string{"book", "help"}, got)
}

func TestClassify_WrapsErrors(t *testing.T) {
	cause := errors.New("boom")
	clf := &mocks.MockClassifier{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
			return nil, cause
		},
	}
	r := NewRouter(clf, zap.NewNop())

	_, err := r.Classify(context.Background(), "x", domain.ClassifiableIntents)

	var cerr *domain.ClassificationError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, cause)
}

func TestRoute_Guards(t *testing.T) {
	ranking := func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
		return []domain.Prediction{
			{Label: "cancel_booking", Confidence: 0.8},
			{Label: "help", Confidence: 0.1},
		}, nil
	}

	t.Run("blocked without prior booking", func(t *testing.T) {
		r := NewRouter(&mocks.MockClassifier{ClassifyFunc: ranking}, zap.NewNop(), WithGuards(DefaultGuards()))

		text, next := r.Route(context.Background(), "cancel", domain.ConversationContext{"last_intent": "greeting"})

		assert.Equal(t, "How can I assist you?", text)
		assert.Equal(t, domain.IntentHelp, next.LastIntent())
	})

	t.Run("allowed after booking", func(t *testing.T) {
		r := NewRouter(&mocks.MockClassifier{ClassifyFunc: ranking}, zap.NewNop(), WithGuards(DefaultGuards()))

		text, next := r.Route(context.Background(), "cancel", domain.ConversationContext{"last_intent": "book"})

		assert.Equal(t, "Your booking has been cancelled.", text)
		assert.Equal(t, domain.IntentCancelBooking, next.LastIntent())
	})

	t.Run("no candidate passes", func(t *testing.T) {
		only := func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
			return []domain.Prediction{{Label: "cancel_booking", Confidence: 0.9}}, nil
		}
		r := NewRouter(&mocks.MockClassifier{ClassifyFunc: only}, zap.NewNop(), WithGuards(DefaultGuards()))

		text, next := r.Route(context.Background(), "cancel", domain.NewConversationContext())

		assert.Equal(t, "I'm not sure how to help with that.", text)
		assert.Equal(t, domain.IntentUnknown, next.LastIntent())
	})

	t.Run("flat routing ignores guards", func(t *testing.T) {
		r := NewRouter(&mocks.MockClassifier{ClassifyFunc: ranking}, zap.NewNop())

		text, _ := r.Route(context.Background(), "cancel", domain.NewConversationContext())

		assert.Equal(t, "Your booking has been cancelled.", text)
	})
}
