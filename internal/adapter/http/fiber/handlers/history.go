package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/ports"
)

type HistoryHandler struct {
	service ports.TranscriptService
	log     *zap.Logger
}

func NewHistoryHandler(service ports.TranscriptService, log *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		service: service,
		log:     log,
	}
}

// Get lists a user's recorded turns, newest first.
func (h *HistoryHandler) Get(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be positive"})
	}

	userID := c.Params("user_id")
	turns, err := h.service.History(c.UserContext(), userID, limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user_id": userID,
		"turns":   turns,
	})
}
