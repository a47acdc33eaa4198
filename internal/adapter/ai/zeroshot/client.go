package zeroshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

var _ ports.Classifier = (*Client)(nil)

// Client calls a zero-shot classification inference endpoint, such as a
// hosted facebook/bart-large-mnli pipeline.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(endpoint, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

type classifyRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters classifyParams `json:"parameters"`
}

type classifyParams struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

type classifyResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
	Error    string    `json:"error,omitempty"`
}

func (c *Client) Classify(ctx context.Context, text string, labels []string) ([]domain.Prediction, error) {
	payload, err := json.Marshal(classifyRequest{
		Inputs:     text,
		Parameters: classifyParams{CandidateLabels: labels},
	})
	if err != nil {
		return nil, fmt.Errorf("zeroshot: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("zeroshot: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("zeroshot: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("zeroshot: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("zeroshot: API error status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var result classifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("zeroshot: decode response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("zeroshot: %s", result.Error)
	}
	if len(result.Labels) != len(result.Scores) {
		return nil, fmt.Errorf("zeroshot: %d labels but %d scores", len(result.Labels), len(result.Scores))
	}

	preds := make([]domain.Prediction, len(result.Labels))
	for i, label := range result.Labels {
		preds[i] = domain.Prediction{Label: label, Confidence: result.Scores[i]}
	}

	c.log.Debug("Zero-shot classification completed", zap.Int("labels", len(preds)))
	return preds, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
