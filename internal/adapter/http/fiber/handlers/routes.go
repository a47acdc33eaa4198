package handlers

import "github.com/gofiber/fiber/v2"

// Routes bundles the handlers mounted by Register. History is optional.
type Routes struct {
	Webhook  *WebhookHandler
	Language *LanguageHandler
	History  *HistoryHandler
}

// Register mounts the webhook endpoints at the root and the read-only API under /api/v1.
func Register(app *fiber.App, r Routes) {
	app.Post("/webhook", r.Webhook.Handle)
	app.Post("/select_language", r.Language.Select)

	v1 := app.Group("/api/v1")
	v1.Get("/users/:user_id/language", r.Language.Get)
	if r.History != nil {
		v1.Get("/conversations/:user_id/history", r.History.Get)
	}
}
