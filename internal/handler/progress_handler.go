package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seoblog-api/internal/dto"
	"github.com/noah-isme/seoblog-api/internal/service"
	"github.com/noah-isme/seoblog-api/internal/utils"
)

// ProgressHandler streams pipeline progress for one project over SSE.
type ProgressHandler struct {
	projects  service.ProjectService
	progress  service.ProgressService
	logger    zerolog.Logger
	keepAlive time.Duration
}

// NewProgressHandler constructs a handler instance.
func NewProgressHandler(projects service.ProjectService, progress service.ProgressService, keepAlive time.Duration, logger zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{
		projects:  projects,
		progress:  progress,
		logger:    logger.With().Str("component", "progress_handler").Logger(),
		keepAlive: keepAlive,
	}
}

// Register binds the progress route.
func (h *ProgressHandler) Register(router fiber.Router) {
	router.Get("/:id/progress", h.stream)
}

func (h *ProgressHandler) stream(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	projectID, err := parseIDParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	ctx := requestContext(c)
	if _, err := h.projects.Get(ctx, userID, projectID); err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("progress stream lookup failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(ctx)
	stream, cleanup := h.progress.Subscribe(projectID)

	keepAliveInterval := h.keepAlive
	if keepAliveInterval <= 0 {
		keepAliveInterval = 30 * time.Second
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		ticker := time.NewTicker(keepAliveInterval / 2)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-stream:
				if !ok {
					return
				}
				if err := writeProgressEvent(w, event); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write progress event")
					return
				}
				if event.Stage == dto.StageCompleted {
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write progress keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func writeProgressEvent(w *bufio.Writer, event dto.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", event.Stage); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
