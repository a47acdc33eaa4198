package zeroshot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Inputs)
		assert.Equal(t, []string{"book", "greeting"}, req.Parameters.CandidateLabels)

		_ = json.NewEncoder(w).Encode(classifyResponse{
			Sequence: req.Inputs,
			Labels:   []string{"greeting", "book"},
			Scores:   []float64{0.93, 0.07},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second, zap.NewNop())
	preds, err := c.Classify(context.Background(), "hello", []string{"book", "greeting"})
	require.NoError(t, err)

	require.Len(t, preds, 2)
	assert.Equal(t, "greeting", preds[0].Label)
	assert.InDelta(t, 0.93, preds[0].Confidence, 1e-9)
}

func TestClassify_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"Model is currently loading"}`))
		}},
		{"error field", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"error":"bad input"}`))
		}},
		{"mismatched", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"labels":["a","b"],"scores":[1]}`))
		}},
		{"garbage", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, "", time.Second, zap.NewNop()).Classify(context.Background(), "x", []string{"a"})
			assert.Error(t, err)
		})
	}
}

func TestClassify_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, "", 5*time.Second, zap.NewNop()).Classify(ctx, "x", []string{"a"})
	assert.Error(t, err)
}
