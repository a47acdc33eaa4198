package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.Classifier = (*Classifier)(nil)

const classifyPrompt = `You classify visitor messages for a museum booking assistant.
Candidate labels: %s.
Reply with a single JSON object mapping every candidate label to a probability between 0 and 1. Probabilities must sum to 1. No other text.`

// Classifier asks a chat model for a probability per candidate label.
type Classifier struct {
	*Client
}

func NewClassifier(c *Client) *Classifier {
	return &Classifier{Client: c}
}

func (c *Classifier) Classify(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
	out, err := c.complete(ctx, fmt.Sprintf(classifyPrompt, strings.Join(labels, ", ")), text)
	if err != nil {
		return nil, err
	}

	var scores map[string]float64
	if err := json.Unmarshal([]byte(stripFences(out)), &scores); err != nil {
		return nil, fmt.Errorf("openai: decode classification: %w", err)
	}

	preds := make([]domain.Prediction, 0, len(scores))
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if score, ok := scores[label]; ok {
			preds = append(preds, domain.Prediction{Label: label, Confidence: score})
			seen[label] = true
		}
	}
	for label, score := range scores {
		if !seen[label] {
			preds = append(preds, domain.Prediction{Label: label, Confidence: score})
		}
	}
	return preds, nil
}
