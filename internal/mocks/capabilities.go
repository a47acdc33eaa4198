package mocks

import (
	"context"
	"sync/atomic"

	"github.com/seu-repo/concierge-webhook/internal/domain"
)

// MockClassifier is a mock implementation of ports.Classifier
type MockClassifier struct {
	ClassifyFunc func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error)
	calls        int64
}

// RankFirst returns a classifier that ranks label highest for every input.
func RankFirst(label string) *MockClassifier {
	return &MockClassifier{
		ClassifyFunc: func(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
			preds := []domain.Prediction{{Label: label, Confidence: 0.9}}
			for _, l := range labels {
				if l != label {
					preds = append(preds, domain.Prediction{Label: l, Confidence: 0.01})
				}
			}
			return preds, nil
		},
	}
}

func (m *MockClassifier) Classify(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text, labels)
	}
	return nil, nil
}

// Calls returns how many times Classify was invoked.
func (m *MockClassifier) Calls() int {
	return int(atomic.LoadInt64(&m.calls))
}

// MockTranslator is a mock implementation of ports.Translator
type MockTranslator struct {
	TranslateFunc func(ctx context.Context, text string, target domain.Language) (string, error)
	calls         int64
}

func (m *MockTranslator) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	atomic.AddInt64(&m.calls, 1)
	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text, target)
	}
	return "[" + string(target) + "] " + text, nil
}

// Calls returns how many times Translate was invoked.
func (m *MockTranslator) Calls() int {
	return int(atomic.LoadInt64(&m.calls))
}
