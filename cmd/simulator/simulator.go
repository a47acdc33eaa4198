package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seu-repo/concierge-webhook/internal/domain"
)

// SimulatorConfig describes one load run.
type SimulatorConfig struct {
	ServerURL   string
	Users       int
	Turns       int
	Concurrency int
	// Language is selected for every simulated user before its first turn.
	// Empty or "en" skips selection.
	Language string
	Timeout  time.Duration
	Seed     int64
}

// Utterances drive the simulated users, roughly one per intent.
var Utterances = []string{
	"hello there",
	"I want to book a ticket for tomorrow",
	"how do I pay for my order",
	"show me the options",
	"I need some help",
	"please cancel my booking",
	"when is the museum open",
	"tell me a joke",
}

type webhookRequest struct {
	UserID     string `json:"user_id"`
	QueryInput struct {
		Text struct {
			Text string `json:"text"`
		} `json:"text"`
	} `json:"queryInput"`
}

type webhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
	Error           string `json:"error"`
}

// Report summarizes a run.
type Report struct {
	Turns     int
	Failures  int
	Elapsed   time.Duration
	Latencies []time.Duration
	// Responses counts replies by intent when they can be recognized, by text otherwise.
	Responses map[string]int
}

// Percentile returns the p-th latency percentile, 0 < p <= 100.
func (r *Report) Percentile(p float64) time.Duration {
	if len(r.Latencies) == 0 {
		return 0
	}
	idx := int(float64(len(r.Latencies))*p/100+0.5) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(r.Latencies) {
		idx = len(r.Latencies) - 1
	}
	return r.Latencies[idx]
}

// Throughput is completed turns per second.
func (r *Report) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Turns-r.Failures) / r.Elapsed.Seconds()
}

type Simulator struct {
	config *SimulatorConfig
	client *fasthttp.Client
	labels map[string]string
	log    *zap.Logger

	mu     sync.Mutex
	report *Report
}

func NewSimulator(config *SimulatorConfig, log *zap.Logger) *Simulator {
	labels := make(map[string]string)
	for _, i := range append(append([]domain.Intent{}, domain.ClassifiableIntents...), domain.IntentUnknown) {
		labels[i.Response()] = i.String()
	}

	return &Simulator{
		config: config,
		client: &fasthttp.Client{
			Name:                "concierge-simulator",
			MaxConnsPerHost:     config.Concurrency,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		labels: labels,
		log:    log,
		report: &Report{Responses: make(map[string]int)},
	}
}

// Run drives Users users through Turns turns each, at most Concurrency users
// at a time. Turns of one user are sequential.
func (s *Simulator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for u := 0; u < s.config.Users; u++ {
		userID := fmt.Sprintf("sim-user-%04d", u)
		rng := rand.New(rand.NewSource(s.config.Seed + int64(u)))

		g.Go(func() error {
			return s.runUser(ctx, userID, rng)
		})
	}

	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.report.Elapsed = time.Since(start)
	sort.Slice(s.report.Latencies, func(i, j int) bool { return s.report.Latencies[i] < s.report.Latencies[j] })
	return s.report, err
}

func (s *Simulator) runUser(ctx context.Context, userID string, rng *rand.Rand) error {
	if s.config.Language != "" && s.config.Language != string(domain.BaseLanguage) {
		if err := s.selectLanguage(userID); err != nil {
			return fmt.Errorf("select language for %s: %w", userID, err)
		}
	}

	for t := 0; t < s.config.Turns; t++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		utterance := Utterances[rng.Intn(len(Utterances))]
		began := time.Now()
		text, err := s.turn(userID, utterance)
		s.record(time.Since(began), text, err)
		if err != nil {
			s.log.Debug("Turn failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return nil
}

func (s *Simulator) record(latency time.Duration, text string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.report.Turns++
	if err != nil {
		s.report.Failures++
		return
	}
	s.report.Latencies = append(s.report.Latencies, latency)

	key := text
	if label, ok := s.labels[text]; ok {
		key = label
	}
	s.report.Responses[key]++
}

func (s *Simulator) turn(userID, utterance string) (string, error) {
	var body webhookRequest
	body.UserID = userID
	body.QueryInput.Text.Text = utterance

	var out webhookResponse
	if err := s.post("/webhook", body, &out); err != nil {
		return "", err
	}
	return out.FulfillmentText, nil
}

func (s *Simulator) selectLanguage(userID string) error {
	var out webhookResponse
	return s.post("/select_language", map[string]string{
		"user_id":  userID,
		"language": s.config.Language,
	}, &out)
}

func (s *Simulator) post(path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.config.ServerURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	if err := s.client.DoTimeout(req, resp, s.config.Timeout); err != nil {
		return err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		var e webhookResponse
		_ = json.Unmarshal(resp.Body(), &e)
		return fmt.Errorf("status %d: %s", resp.StatusCode(), e.Error)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
