package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ok(ctx context.Context) error { return nil }
func fail(ctx context.Context) error { return errors.New("connection refused") }

func TestReady(t *testing.T) {
	tests := []struct {
		name      string
		register  func(s *Service)
		wantReady bool
		want      Status
	}{
		{"no checks", func(s *Service) {}, true, StatusHealthy},
		{"all healthy", func(s *Service) {
			s.RegisterPing("session_store", true, ok)
			s.RegisterPing("database", false, ok)
		}, true, StatusHealthy},
		{"optional down", func(s *Service) {
			s.RegisterPing("session_store", true, ok)
			s.RegisterPing("database", false, fail)
		}, true, StatusDegraded},
		{"critical down", func(s *Service) {
			s.RegisterPing("session_store", true, fail)
			s.RegisterPing("database", false, fail)
		}, false, StatusUnhealthy},
		{"breaker open", func(s *Service) {
			s.RegisterChecker("circuit_breakers", OpenBreakersChecker(func() []string { return []string{"translator"} }))
		}, true, StatusDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService("test", zap.NewNop())
			tt.register(s)

			resp := s.Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestFiberHandler(t *testing.T) {
	s := NewService("1.2.3", zap.NewNop())
	s.RegisterPing("session_store", true, fail)

	app := fiber.New()
	NewFiberHandler(s).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "1.2.3", health.Version)

	resp, err = app.Test(httptest.NewRequest("GET", "/readyz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var ready ReadyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	assert.False(t, ready.Ready)
	assert.Contains(t, ready.Checks, "session_store")
}
