package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seoblog-api/internal/dto"
	"github.com/noah-isme/seoblog-api/internal/service"
	"github.com/noah-isme/seoblog-api/internal/utils"
)

// ChatHandler exposes the conversational editing endpoints of a project.
type ChatHandler struct {
	service service.ChatService
	logger  zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(service service.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger.With().Str("component", "chat_handler").Logger(),
	}
}

// Register wires the chat routes. Only sending a message invokes the model,
// so the limiter guards the POST route alone.
func (h *ChatHandler) Register(router fiber.Router, limiter fiber.Handler) {
	send := []fiber.Handler{h.send}
	if limiter != nil {
		send = append([]fiber.Handler{limiter}, send...)
	}
	router.Post("/:id/chat", send...)
	router.Get("/:id/chat", h.history)
}

func (h *ChatHandler) send(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	var payload dto.ChatRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.Send(requestContext(c), userID, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "chat message processed", resp)
}

func (h *ChatHandler) history(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	messages, err := h.service.History(requestContext(c), userID, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.OK(c, messages, "chat history", fiber.Map{"total": len(messages)})
}

func (h *ChatHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err), errors.Is(err, service.ErrMessageRequired):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProjectNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoContent):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEditFailed):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return utils.SendError(c, fiber.StatusGatewayTimeout, "generation timed out")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("chat operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
