package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/adapter/ai/keyword"
	"github.com/seu-repo/concierge-webhook/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/concierge-webhook/internal/adapter/session"
	"github.com/seu-repo/concierge-webhook/internal/mocks"
	"github.com/seu-repo/concierge-webhook/internal/service/conversation"
	"github.com/seu-repo/concierge-webhook/internal/service/health"
	"github.com/seu-repo/concierge-webhook/internal/service/intent"
	"github.com/seu-repo/concierge-webhook/internal/service/translation"
)

// setupTestApp wires the real conversation stack with an in-memory store, the
// keyword classifier and a fake translator.
func setupTestApp(t *testing.T) (*fiber.App, *session.MemoryStore, *mocks.MockTranslator) {
	t.Helper()
	log := zap.NewNop()

	store := session.NewMemoryStore(session.Options{}, log)
	t.Cleanup(func() { store.Close() })

	translator := &mocks.MockTranslator{}
	svc := conversation.NewService(
		store,
		intent.NewRouter(keyword.NewClassifier(), log),
		translation.NewGateway(translator, log),
		nil,
		log,
	)

	healthService := health.NewService("test", log)
	healthService.RegisterPing("session_store", true, store.Ping)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	health.NewFiberHandler(healthService).RegisterRoutes(app)
	Register(app, Routes{
		Webhook:  NewWebhookHandler(svc, log),
		Language: NewLanguageHandler(svc, log),
	})
	return app, store, translator
}

func TestAPI_ConversationFlow(t *testing.T) {
	app, store, translator := setupTestApp(t)
	ctx := context.Background()

	t.Run("Greeting in base language", func(t *testing.T) {
		code, body := doJSON(t, app, http.MethodPost, "/webhook",
			`{"user_id":"visitor-1","queryInput":{"text":{"text":"Hello!"}}}`)

		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, "Hello! How can I help you today?", body["fulfillmentText"])
		assert.Equal(t, 0, translator.Calls())
	})

	t.Run("Select language", func(t *testing.T) {
		code, body := doJSON(t, app, http.MethodPost, "/select_language",
			`{"user_id":"visitor-1","language":"fr"}`)

		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, "Language set to fr", body["message"])
	})

	t.Run("Unsupported language keeps the previous one", func(t *testing.T) {
		code, body := doJSON(t, app, http.MethodPost, "/select_language",
			`{"user_id":"visitor-1","language":"xx"}`)

		assert.Equal(t, fiber.StatusBadRequest, code)
		assert.Equal(t, "Unsupported language", body["error"])

		_, body = doJSON(t, app, http.MethodGet, "/api/v1/users/visitor-1/language", "")
		assert.Equal(t, "fr", body["language"])
	})

	t.Run("Reply is translated", func(t *testing.T) {
		code, body := doJSON(t, app, http.MethodPost, "/webhook",
			`{"user_id":"visitor-1","queryInput":{"text":{"text":"please cancel my booking"}}}`)

		assert.Equal(t, fiber.StatusOK, code)
		assert.Equal(t, "[fr] Your booking has been cancelled.", body["fulfillmentText"])
	})

	t.Run("Context is persisted", func(t *testing.T) {
		convo := store.GetContext(ctx, "visitor-1")
		assert.Equal(t, "cancel_booking", string(convo.LastIntent()))
		assert.Equal(t, 2, convo.TurnCount())
	})

	t.Run("Unrecognized utterance", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodPost, "/webhook",
			`{"user_id":"visitor-2","queryInput":{"text":{"text":"purple elephants"}}}`)

		assert.Equal(t, "I'm not sure how to help with that.", body["fulfillmentText"])
	})

	t.Run("Missing user id is anonymous", func(t *testing.T) {
		_, body := doJSON(t, app, http.MethodPost, "/webhook",
			`{"queryInput":{"text":{"text":"when is the museum open"}}}`)

		assert.Equal(t, "The museum is open from 9 AM to 5 PM daily.", body["fulfillmentText"])
		assert.Equal(t, 1, store.GetContext(ctx, "anonymous").TurnCount())
	})

	t.Run("Blank utterance", func(t *testing.T) {
		code, _ := doJSON(t, app, http.MethodPost, "/webhook",
			`{"user_id":"visitor-1","queryInput":{"text":{"text":"   "}}}`)

		assert.Equal(t, fiber.StatusBadRequest, code)
		assert.Equal(t, 2, store.GetContext(ctx, "visitor-1").TurnCount())
	})
}

func TestAPI_HealthCheck(t *testing.T) {
	app, _, _ := setupTestApp(t)

	code, body := doJSON(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	code, body = doJSON(t, app, http.MethodGet, "/readyz", "")
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, true, body["ready"])
}
