package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/concierge-webhook/internal/domain"
	"github.com/seu-repo/concierge-webhook/internal/ports"
)

type LanguageHandler struct {
	service ports.ConversationService
	log     *zap.Logger
}

func NewLanguageHandler(service ports.ConversationService, log *zap.Logger) *LanguageHandler {
	return &LanguageHandler{
		service: service,
		log:     log,
	}
}

type SelectLanguageRequest struct {
	UserID   string `json:"user_id"`
	Language string `json:"language"`
}

// Select stores the caller's response language.
func (h *LanguageHandler) Select(c *fiber.Ctx) error {
	var req SelectLanguageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	lang, err := h.service.SelectLanguage(c.UserContext(), req.UserID, req.Language)
	if errors.Is(err, domain.ErrUnsupportedLanguage) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unsupported language"})
	}
	if err != nil {
		h.log.Error("Failed to set language", zap.String("user_id", req.UserID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to set language. Please try again later.",
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Language set to " + lang.String(),
	})
}

// Get returns the stored language for a user, the base language if none.
func (h *LanguageHandler) Get(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	return c.JSON(fiber.Map{
		"user_id":  userID,
		"language": h.service.Language(c.UserContext(), userID),
	})
}
