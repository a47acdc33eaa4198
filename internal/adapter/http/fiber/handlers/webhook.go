package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/ports"
)

type WebhookHandler struct {
	service ports.ConversationService
	log     *zap.Logger
}

func NewWebhookHandler(service ports.ConversationService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log,
	}
}

// WebhookRequest mirrors the fulfillment request sent by the dialogue platform.
type WebhookRequest struct {
	UserID     string `json:"user_id"`
	QueryInput struct {
		Text struct {
			Text string `json:"text"`
		} `json:"text"`
	} `json:"queryInput"`
}

type WebhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
}

// Handle resolves one utterance into a fulfillment text.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	var req WebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	res, err := h.service.HandleTurn(c.UserContext(), ports.TurnRequest{
		UserID:    req.UserID,
		Utterance: req.QueryInput.Text.Text,
	})
	if err != nil {
		return err
	}

	return c.JSON(WebhookResponse{FulfillmentText: res.Text})
}
