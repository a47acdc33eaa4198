package circuitbreaker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/observability/telemetry"
)

// Settings configures every breaker created by a Manager.
type Settings struct {
	// MaxRequests may pass while half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts; zero never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// MinRequests must be seen before FailureRatio is considered.
	MinRequests uint32
	// FailureRatio trips the breaker once reached.
	FailureRatio float64
}

func (s Settings) withDefaults() Settings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 3
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MinRequests == 0 {
		s.MinRequests = 5
	}
	if s.FailureRatio <= 0 || s.FailureRatio > 1 {
		s.FailureRatio = 0.6
	}
	return s
}

// BreakerStatus is a point-in-time view of one breaker.
type BreakerStatus struct {
	Name   string           `json:"name"`
	State  string           `json:"state"`
	Counts gobreaker.Counts `json:"counts"`
}

// Manager creates named gobreaker instances sharing one Settings.
type Manager struct {
	settings Settings
	breakers map[string]*gobreaker.CircuitBreaker
	mu       sync.RWMutex
	log      *zap.Logger
}

func NewManager(settings Settings, log *zap.Logger) *Manager {
	return &Manager{
		settings: settings.withDefaults(),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		log:      log,
	}
}

// Get returns the breaker for name, creating it on first use.
func (m *Manager) Get(name string) *gobreaker.CircuitBreaker {
	m.mu.RLock()
	cb, ok := m.breakers[name]
	m.mu.RUnlock()
	if ok {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cb, ok = m.breakers[name]; ok {
		return cb
	}

	s := m.settings
	cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			telemetry.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			m.log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	telemetry.CircuitBreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	m.breakers[name] = cb
	return cb
}

// Status returns the status of all breakers, sorted by name.
func (m *Manager) Status() []BreakerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]BreakerStatus, 0, len(m.breakers))
	for name, cb := range m.breakers {
		out = append(out, BreakerStatus{
			Name:   name,
			State:  cb.State().String(),
			Counts: cb.Counts(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Open returns the names of breakers currently open.
func (m *Manager) Open() []string {
	var open []string
	for _, s := range m.Status() {
		if s.State == gobreaker.StateOpen.String() {
			open = append(open, s.Name)
		}
	}
	return open
}

// IsCircuitOpen reports whether err was produced by a breaker rejecting the call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// execute runs fn through cb. Cancellation by the caller is returned but not
// counted against the dependency.
func execute[T any](ctx context.Context, cb *gobreaker.CircuitBreaker, fn func(context.Context) (T, error)) (T, error) {
	var (
		out      T
		canceled error
	)
	_, err := cb.Execute(func() (interface{}, error) {
		res, err := fn(ctx)
		if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
			canceled = err
			return nil, nil
		}
		out = res
		return nil, err
	})
	if canceled != nil {
		return out, canceled
	}
	return out, err
}
