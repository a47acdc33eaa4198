package keyword

import (
	"context"
	"strings"
	"unicode"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.Classifier = (*Classifier)(nil)

type term struct {
	text   string
	weight float64
}

// defaultTerms are matched against the lower-cased utterance. Multi-word
// terms match as phrases; single words match whole tokens.
var defaultTerms = map[string][]term{
	string(domain.IntentGreeting): {
		{"hello", 1}, {"hi", 1}, {"hey", 1}, {"greetings", 1},
		{"good morning", 1}, {"good afternoon", 1}, {"good evening", 1},
	},
	string(domain.IntentBook): {
		{"book", 1}, {"booking", 1}, {"reserve", 1}, {"reservation", 1},
		{"ticket", 1}, {"tickets", 1},
	},
	string(domain.IntentPayment): {
		{"pay", 1}, {"payment", 1}, {"card", 1}, {"checkout", 1}, {"credit", 1},
	},
	string(domain.IntentShowOptions): {
		{"options", 1}, {"show", 1}, {"menu", 1}, {"choices", 1}, {"available", 1},
	},
	string(domain.IntentHelp): {
		{"help", 1}, {"assist", 1}, {"support", 1}, {"how do i", 1},
	},
	string(domain.IntentCancelBooking): {
		{"cancel", 2}, {"cancellation", 2}, {"refund", 1},
	},
	string(domain.IntentMuseumInfo): {
		{"museum", 1}, {"open", 1}, {"opening", 1}, {"hours", 1},
		{"exhibit", 1}, {"exhibition", 1}, {"closing", 1},
	},
}

// Classifier scores labels by weighted keyword hits. It needs no network and
// serves as the offline default.
type Classifier struct {
	terms map[string][]term
}

func NewClassifier() *Classifier {
	return &Classifier{terms: defaultTerms}
}

// Classify returns one prediction per candidate label with hits, confidences
// summing to 1. With no hits it returns a single zero-confidence
// prediction for domain.IntentUnknown.
func (c *Classifier) Classify(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := normalize(text)
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		tokens[tok] = struct{}{}
	}

	var total float64
	preds := make([]domain.Prediction, 0, len(labels))
	for _, label := range labels {
		var score float64
		for _, t := range c.terms[label] {
			if matches(t.text, normalized, tokens) {
				score += t.weight
			}
		}
		if score > 0 {
			preds = append(preds, domain.Prediction{Label: label, Confidence: score})
			total += score
		}
	}

	if total == 0 {
		return []domain.Prediction{{Label: string(domain.IntentUnknown), Confidence: 0}}, nil
	}
	for i := range preds {
		preds[i].Confidence /= total
	}
	return preds, nil
}

func matches(term, normalized string, tokens map[string]struct{}) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(" "+normalized+" ", " "+term+" ")
	}
	_, ok := tokens[term]
	return ok
}

// normalize lower-cases text and replaces everything but letters and digits
// with single spaces.
func normalize(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
