package keyword

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-repo/concierge-webhook/internal/domain"
)

func top(preds []domain.Prediction) domain.Prediction {
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Confidence > best.Confidence {
			best = p
		}
	}
	return best
}

func TestClassify(t *testing.T) {
	c := NewClassifier()
	labels := domain.Strings(domain.ClassifiableIntents)

	tests := []struct {
		utterance string
		want      string
	}{
		{"Hello there!", "greeting"},
		{"Good morning", "greeting"},
		{"I'd like to book two tickets", "book"},
		{"Can I pay by card?", "payment"},
		{"What options do you have", "show_options"},
		{"I need help", "help"},
		{"Please cancel my booking", "cancel_booking"},
		{"When is the museum open?", "museum_info"},
		{"xyzzy", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			preds, err := c.Classify(context.Background(), tt.utterance, labels)
			require.NoError(t, err)
			require.NotEmpty(t, preds)
			assert.Equal(t, tt.want, top(preds).Label)
		})
	}
}

func TestClassify_OnlyCandidateLabels(t *testing.T) {
	c := NewClassifier()

	preds, err := c.Classify(context.Background(), "hello, I want to book", []string{"book"})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "book", preds[0].Label)
	assert.InDelta(t, 1.0, preds[0].Confidence, 1e-9)
}

func TestClassify_WholeWordsOnly(t *testing.T) {
	c := NewClassifier()

	preds, err := c.Classify(context.Background(), "this is a thing", []string{"greeting"})
	require.NoError(t, err)
	assert.Equal(t, "unknown", top(preds).Label)
}

func TestClassify_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClassifier().Classify(ctx, "hello", []string{"greeting"})
	assert.ErrorIs(t, err, context.Canceled)
}
