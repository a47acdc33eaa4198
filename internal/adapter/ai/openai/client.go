package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// Options configures the chat-completion backed capabilities.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client runs single-shot chat completions for classification and translation.
type Client struct {
	client *openai.Client
	model  string
	log    *zap.Logger
}

func NewClient(opts Options, log *zap.Logger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai: API key not configured")
	}
	if opts.Model == "" {
		opts.Model = openai.ChatModelGPT4oMini
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// retries are left to the caller
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	client := openai.NewClient(reqOpts...)
	log.Info("OpenAI client initialized", zap.String("model", opts.Model))
	return &Client{client: &client, model: opts.Model, log: log}, nil
}

// complete sends a system and user message and returns the first choice's text.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       c.model,
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
