package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seoblog-api/internal/dto"
	"github.com/noah-isme/seoblog-api/internal/service"
	"github.com/noah-isme/seoblog-api/internal/utils"
)

// ProjectHandler exposes the blog project workflow endpoints.
type ProjectHandler struct {
	service service.ProjectService
	logger  zerolog.Logger
}

// NewProjectHandler constructs the handler.
func NewProjectHandler(service service.ProjectService, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		logger:  logger.With().Str("component", "project_handler").Logger(),
	}
}

// Register wires the read and input endpoints. Model-backed steps are
// registered separately so the router can rate limit them.
func (h *ProjectHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Put("/:id/subtitles", h.updateSubtitles)
	router.Put("/:id/business", h.updateBusiness)
	router.Get("/:id/copy", h.copy)
	router.Get("/:id/images/:index", h.image)
}

// RegisterGeneration wires the endpoints that invoke the model.
func (h *ProjectHandler) RegisterGeneration(router fiber.Router, limiter fiber.Handler) {
	handlers := func(handler fiber.Handler) []fiber.Handler {
		if limiter == nil {
			return []fiber.Handler{handler}
		}
		return []fiber.Handler{limiter, handler}
	}

	router.Post("/:id/analyze", handlers(h.analyze)...)
	router.Post("/:id/research", handlers(h.research)...)
	router.Post("/:id/generate", handlers(h.generate)...)
	router.Post("/:id/titles", handlers(h.titles)...)
	router.Post("/:id/edit", handlers(h.edit)...)
}

func (h *ProjectHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var payload dto.CreateProjectRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := h.service.Create(requestContext(c), userID, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "project created", project)
}

func (h *ProjectHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid offset")
	}

	projects, total, err := h.service.List(requestContext(c), userID, limit, offset)
	if err != nil {
		return h.handleError(c, err)
	}

	meta := fiber.Map{"total": total, "limit": limit, "offset": offset}
	return utils.OK(c, projects, "projects", meta)
}

func (h *ProjectHandler) get(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	project, err := h.service.Get(requestContext(c), userID, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "project", project)
}

func (h *ProjectHandler) analyze(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	project, err := h.service.Analyze(requestContext(c), userID, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "keyword analysed", project)
}

func (h *ProjectHandler) updateSubtitles(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	var payload dto.UpdateSubtitlesRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := h.service.UpdateSubtitles(requestContext(c), userID, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "subtitles updated", project)
}

func (h *ProjectHandler) research(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	var payload dto.ResearchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	project, err := h.service.Research(requestContext(c), userID, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "research collected", project)
}

func (h *ProjectHandler) updateBusiness(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	var payload dto.BusinessInfoRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	project, err := h.service.UpdateBusiness(requestContext(c), userID, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "business info updated", project)
}

func (h *ProjectHandler) generate(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	var payload dto.GenerateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	result, err := h.service.Generate(requestContext(c), userID, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	message := "content generated"
	if result.Exhausted {
		message = "content generated without satisfying every constraint"
	}
	meta := fiber.Map{"outcome": result.Outcome, "attempts": result.Attempts}
	return utils.OK(c, result, message, meta)
}

func (h *ProjectHandler) titles(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	result, err := h.service.Titles(requestContext(c), userID, id)
	if err != nil {
		return h.handleError(c, err)
	}

	meta := fiber.Map{"evaluated": result.Evaluated, "average_score": result.AverageScore}
	return utils.OK(c, result, "titles ranked", meta)
}

func (h *ProjectHandler) edit(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	var payload dto.EditRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Edit(requestContext(c), userID, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	meta := fiber.Map{"outcome": result.Outcome}
	return utils.OK(c, result, "content edited", meta)
}

func (h *ProjectHandler) copy(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	format := strings.ToLower(strings.TrimSpace(c.Query("format", service.FormatNormal)))
	result, err := h.service.Copy(requestContext(c), userID, id, format)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "copy ready", result)
}

func (h *ProjectHandler) image(c *fiber.Ctx) error {
	userID, id, ok := identify(c)
	if !ok {
		return nil
	}

	index, err := c.ParamsInt("index")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid image index")
	}

	file, err := h.service.Image(requestContext(c), userID, id, index)
	if err != nil {
		return h.handleError(c, err)
	}

	c.Attachment(file.Filename)
	c.Set(fiber.HeaderContentType, file.ContentType)
	return c.Send(file.Data)
}

func (h *ProjectHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrKeywordRequired), errors.Is(err, service.ErrUnsupportedFormat):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrProjectNotFound), errors.Is(err, service.ErrImageNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProjectNotReady), errors.Is(err, service.ErrNoContent):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrResearchUnavailable),
		errors.Is(err, service.ErrDraftUnavailable),
		errors.Is(err, service.ErrEditFailed),
		errors.Is(err, service.ErrImageUnavailable):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return utils.SendError(c, fiber.StatusGatewayTimeout, "generation timed out")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("project operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
