package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seoblog-api/internal/dto"
	"github.com/noah-isme/seoblog-api/internal/service"
	"github.com/noah-isme/seoblog-api/internal/utils"
)

// TitleHandler exposes the standalone title pipeline for arbitrary content.
type TitleHandler struct {
	service   service.TitleService
	validator *validator.Validate
	logger    zerolog.Logger
	timeout   time.Duration
}

// NewTitleHandler constructs the handler.
func NewTitleHandler(service service.TitleService, validator *validator.Validate, timeout time.Duration, logger zerolog.Logger) *TitleHandler {
	return &TitleHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "title_handler").Logger(),
		timeout:   timeout,
	}
}

// Register wires the handler endpoints into the router group.
func (h *TitleHandler) Register(router fiber.Router) {
	router.Post("", h.rank)
	router.Post("/top", h.top)
}

func (h *TitleHandler) rank(c *fiber.Ctx) error {
	payload, err := h.parse(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := h.context(c)
	defer cancel()

	result, err := h.service.GenerateAndEvaluateTitles(ctx, payload.Keyword, payload.Content)
	if err != nil {
		return h.handleError(c, err)
	}

	meta := fiber.Map{
		"evaluated":     result.Evaluated,
		"average_score": result.AverageScore,
	}
	return utils.OK(c, result, "titles ranked", meta)
}

func (h *TitleHandler) top(c *fiber.Ctx) error {
	payload, err := h.parse(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx, cancel := h.context(c)
	defer cancel()

	titles, err := h.service.GenerateTop5Titles(ctx, payload.Keyword, payload.Content)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "top titles", titles)
}

func (h *TitleHandler) parse(c *fiber.Ctx) (dto.TitleRequest, error) {
	var payload dto.TitleRequest
	if err := c.BodyParser(&payload); err != nil {
		return payload, errors.New("invalid request body")
	}
	if err := h.validator.Struct(payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func (h *TitleHandler) context(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	ctx := requestContext(c)
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

func (h *TitleHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return utils.SendError(c, fiber.StatusGatewayTimeout, "title pipeline timed out")
	case errors.Is(err, context.Canceled):
		return utils.SendError(c, fiber.StatusRequestTimeout, "request cancelled")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("title pipeline failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
