package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/mocks"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

func newTestApp(convo ports.ConversationService, transcripts ports.TranscriptService) *fiber.App {
	log := zap.NewNop()
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})

	routes := Routes{
		Webhook:  NewWebhookHandler(convo, log),
		Language: NewLanguageHandler(convo, log),
	}
	if transcripts != nil {
		routes.History = NewHistoryHandler(transcripts, log)
	}
	Register(app, routes)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestWebhook_Success(t *testing.T) {
	// Arrange
	var got ports.TurnRequest
	svc := &mocks.MockConversationService{
		HandleTurnFunc: func(ctx context.Context, req ports.TurnRequest) (*ports.TurnResult, error) {
			got = req
			return &ports.TurnResult{Text: "Bonjour!", Intent: domain.IntentGreeting, Language: "fr"}, nil
		},
	}
	app := newTestApp(svc, nil)

	// Act
	code, body := doJSON(t, app, http.MethodPost, "/webhook",
		`{"user_id":"u1","queryInput":{"text":{"text":"hello there"}}}`)

	// Assert
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Bonjour!", body["fulfillmentText"])
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "hello there", got.Utterance)
}

func TestWebhook_MissingUserIsPassedThrough(t *testing.T) {
	var got ports.TurnRequest
	svc := &mocks.MockConversationService{
		HandleTurnFunc: func(ctx context.Context, req ports.TurnRequest) (*ports.TurnResult, error) {
			got = req
			return &ports.TurnResult{Text: "ok"}, nil
		},
	}
	app := newTestApp(svc, nil)

	code, _ := doJSON(t, app, http.MethodPost, "/webhook", `{"queryInput":{"text":{"text":"hi"}}}`)

	assert.Equal(t, fiber.StatusOK, code)
	assert.Empty(t, got.UserID)
}

func TestWebhook_InvalidJSON(t *testing.T) {
	app := newTestApp(&mocks.MockConversationService{}, nil)

	code, body := doJSON(t, app, http.MethodPost, "/webhook", `{"user_id":`)

	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body", body["error"])
}

func TestWebhook_BadRequestFromService(t *testing.T) {
	svc := &mocks.MockConversationService{
		HandleTurnFunc: func(ctx context.Context, req ports.TurnRequest) (*ports.TurnResult, error) {
			return nil, fmt.Errorf("%w: empty utterance", domain.ErrBadRequest)
		},
	}
	app := newTestApp(svc, nil)

	code, body := doJSON(t, app, http.MethodPost, "/webhook", `{"user_id":"u1"}`)

	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Contains(t, body["error"], "empty utterance")
}

func TestWebhook_BackendFailure(t *testing.T) {
	svc := &mocks.MockConversationService{
		HandleTurnFunc: func(ctx context.Context, req ports.TurnRequest) (*ports.TurnResult, error) {
			return nil, fmt.Errorf("handle turn: %w", errors.New("redis: connection refused"))
		},
	}
	app := newTestApp(svc, nil)

	code, body := doJSON(t, app, http.MethodPost, "/webhook", `{"user_id":"u1","queryInput":{"text":{"text":"hi"}}}`)

	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, middleware.InternalErrorMessage, body["error"])
}

func TestSelectLanguage(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		selectErr  error
		wantCode   int
		wantFields map[string]interface{}
	}{
		{
			name:       "supported",
			body:       `{"user_id":"u1","language":"fr"}`,
			wantCode:   fiber.StatusOK,
			wantFields: map[string]interface{}{"status": "success", "message": "Language set to fr"},
		},
		{
			name:       "unsupported",
			body:       `{"user_id":"u1","language":"xx"}`,
			wantCode:   fiber.StatusBadRequest,
			wantFields: map[string]interface{}{"error": "Unsupported language"},
		},
		{
			name:       "store failure",
			body:       `{"user_id":"u1","language":"de"}`,
			selectErr:  errors.New("redis down"),
			wantCode:   fiber.StatusInternalServerError,
			wantFields: map[string]interface{}{"error": "Failed to set language. Please try again later."},
		},
		{
			name:       "invalid body",
			body:       `not json`,
			wantCode:   fiber.StatusBadRequest,
			wantFields: map[string]interface{}{"error": "Invalid request body"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mocks.MockConversationService{}
			if tt.selectErr != nil {
				svc.SelectLanguageFunc = func(ctx context.Context, userID, code string) (domain.Language, error) {
					return "", tt.selectErr
				}
			}
			app := newTestApp(svc, nil)

			code, body := doJSON(t, app, http.MethodPost, "/select_language", tt.body)

			assert.Equal(t, tt.wantCode, code)
			for k, v := range tt.wantFields {
				assert.Equal(t, v, body[k], k)
			}
		})
	}
}

func TestGetLanguage(t *testing.T) {
	svc := &mocks.MockConversationService{
		LanguageFunc: func(ctx context.Context, userID string) domain.Language {
			if userID == "u1" {
				return "ja"
			}
			return domain.BaseLanguage
		},
	}
	app := newTestApp(svc, nil)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/users/u1/language", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ja", body["language"])

	_, body = doJSON(t, app, http.MethodGet, "/api/v1/users/u2/language", "")
	assert.Equal(t, "en", body["language"])
}

func TestHistory(t *testing.T) {
	var gotLimit int
	transcripts := &mocks.MockTranscriptService{
		HistoryFunc: func(ctx context.Context, userID string, limit int) ([]domain.Turn, error) {
			gotLimit = limit
			return []domain.Turn{{ID: "t1", UserID: userID, Intent: "greeting"}}, nil
		},
	}
	app := newTestApp(&mocks.MockConversationService{}, transcripts)

	code, body := doJSON(t, app, http.MethodGet, "/api/v1/conversations/u1/history?limit=5", "")

	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, "u1", body["user_id"])
	require.Len(t, body["turns"], 1)
}

func TestHistory_NegativeLimit(t *testing.T) {
	app := newTestApp(&mocks.MockConversationService{}, &mocks.MockTranscriptService{})

	code, _ := doJSON(t, app, http.MethodGet, "/api/v1/conversations/u1/history?limit=-1", "")

	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestHistory_NotMountedWithoutTranscripts(t *testing.T) {
	app := newTestApp(&mocks.MockConversationService{}, nil)

	code, _ := doJSON(t, app, http.MethodGet, "/api/v1/conversations/u1/history", "")

	assert.Equal(t, fiber.StatusNotFound, code)
}
