package handler_test

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seoblog-api/internal/dto"
	"github.com/noah-isme/seoblog-api/internal/handler"
	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/service"
)

func TestProgressHandlerStreamsUntilCompleted(t *testing.T) {
	projects := &stubProjectService{project: dto.ProjectResponse{ID: 11}}
	progress := &stubProgressService{events: []dto.ProgressEvent{
		{ProjectID: 11, Stage: dto.StageDrafting, State: "drafting", Attempt: 1},
		{ProjectID: 11, Stage: dto.StageDrafting, State: "retrying", Attempt: 1, Violations: []string{"length_short"}},
		{ProjectID: 11, Stage: dto.StageCompleted, State: models.SEOOutcomeFinalized, Attempt: 2},
	}}

	app := fiber.New()
	h := handler.NewProgressHandler(projects, progress, time.Minute, zerolog.Nop())
	h.Register(app.Group("/projects", withUser(5)))

	resp := doRequest(t, app, http.MethodGet, "/projects/11/progress", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "event: drafting\n")
	require.Contains(t, string(body), `"violations":["length_short"]`)
	require.Contains(t, string(body), "event: completed\n")

	require.Equal(t, uint(11), progress.subscribed)
	require.Equal(t, uint(5), projects.lastUserID)
	require.Eventually(t, func() bool { return progress.cleaned.Load() }, time.Second, 10*time.Millisecond)
}

func TestProgressHandlerChecksOwnership(t *testing.T) {
	projects := &stubProjectService{err: service.ErrProjectNotFound}
	progress := &stubProgressService{}

	app := fiber.New()
	h := handler.NewProgressHandler(projects, progress, time.Minute, zerolog.Nop())
	h.Register(app.Group("/projects", withUser(5)))

	resp := doRequest(t, app, http.MethodGet, "/projects/11/progress", "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Zero(t, progress.subscribed)
}
