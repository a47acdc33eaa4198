package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.Translator = (*Translator)(nil)

const translatePrompt = `Translate the user's message from English into the language with ISO 639-1 code %q.
Reply with the translation only.`

type Translator struct {
	*Client
}

func NewTranslator(c *Client) *Translator {
	return &Translator{Client: c}
}

func (t *Translator) Translate(ctx context.Context, text string, target domain.Language) (string, error) {
	out, err := t.complete(ctx, fmt.Sprintf(translatePrompt, string(target)), text)
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", errors.New("openai: empty translation")
	}
	return out, nil
}
