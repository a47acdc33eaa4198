package health

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Status represents the health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

const checkTimeout = 5 * time.Second

// CheckResult represents the result of a health check
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status    Status    `json:"status"`
	Version   string    `json:"version,omitempty"`
	Uptime    string    `json:"uptime,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// Checker defines a health check function
type Checker func(ctx context.Context) CheckResult

// Service handles health checks
type Service struct {
	startTime time.Time
	version   string
	checkers  map[string]Checker
	log       *zap.Logger
	mu        sync.RWMutex
}

func NewService(version string, log *zap.Logger) *Service {
	return &Service{
		startTime: time.Now(),
		version:   version,
		checkers:  make(map[string]Checker),
		log:       log,
	}
}

// RegisterChecker registers a custom health checker
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
	s.log.Info("Registered health checker", zap.String("name", name))
}

// RegisterPing registers a checker around a ping func. A failing critical
// dependency makes the service unready; a failing optional one only degrades it.
func (s *Service) RegisterPing(name string, critical bool, ping func(ctx context.Context) error) {
	s.RegisterChecker(name, PingChecker(name, critical, ping, s.log))
}

// Health performs a basic liveness check
func (s *Service) Health(ctx context.Context) *HealthResponse {
	return &HealthResponse{
		Status:    StatusHealthy,
		Version:   s.version,
		Uptime:    time.Since(s.startTime).String(),
		Timestamp: time.Now(),
	}
}

// Ready runs every registered check concurrently.
func (s *Service) Ready(ctx context.Context) *ReadyResponse {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for k, v := range s.checkers {
		checkers[k] = v
	}
	s.mu.RUnlock()

	results := make(map[string]CheckResult, len(checkers))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			result := checker(checkCtx)

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}

	wg.Wait()

	overallStatus := StatusHealthy
	allReady := true

	for _, result := range results {
		if result.Status == StatusUnhealthy {
			overallStatus = StatusUnhealthy
			allReady = false
		} else if result.Status == StatusDegraded && overallStatus != StatusUnhealthy {
			overallStatus = StatusDegraded
		}
	}

	return &ReadyResponse{
		Ready:     allReady,
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    results,
	}
}

// PingChecker builds a Checker from a ping func.
func PingChecker(name string, critical bool, ping func(ctx context.Context) error, log *zap.Logger) Checker {
	return func(ctx context.Context) CheckResult {
		start := time.Now()
		err := ping(ctx)
		result := CheckResult{
			Name:      name,
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}

		if err != nil {
			result.Status = StatusDegraded
			if critical {
				result.Status = StatusUnhealthy
			}
			result.Message = fmt.Sprintf("ping failed: %v", err)
			log.Warn("Health check failed", zap.String("name", name), zap.Error(err))
			return result
		}

		result.Status = StatusHealthy
		result.Message = "connection ok"
		return result
	}
}

// OpenBreakersChecker reports degraded while any breaker listed by open is open.
func OpenBreakersChecker(open func() []string) Checker {
	return func(ctx context.Context) CheckResult {
		result := CheckResult{
			Name:      "circuit_breakers",
			Status:    StatusHealthy,
			Timestamp: time.Now(),
		}
		if names := open(); len(names) > 0 {
			result.Status = StatusDegraded
			result.Message = "open: " + strings.Join(names, ", ")
		}
		return result
	}
}
