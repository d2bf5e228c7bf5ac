package handler_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seoblog-api/internal/dto"
	"github.com/noah-isme/seoblog-api/internal/handler"
	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/seo"
	"github.com/noah-isme/seoblog-api/internal/service"
)

func newProjectApp(svc *stubProjectService, userID uint) *fiber.App {
	app := fiber.New()
	h := handler.NewProjectHandler(svc, zerolog.Nop())
	group := app.Group("/projects", withUser(userID))
	h.Register(group)
	h.RegisterGeneration(group, nil)
	return app
}

func TestProjectHandlerCreate(t *testing.T) {
	svc := &stubProjectService{project: dto.ProjectResponse{ID: 9, Keyword: "자동차 정비", Status: models.ProjectStatusKeywordAnalysis}}
	app := newProjectApp(svc, 5)

	resp := doRequest(t, app, http.MethodPost, "/projects", `{"keyword":"자동차 정비"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var project dto.ProjectResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, resp).Data, &project))
	require.Equal(t, uint(9), project.ID)
	require.Equal(t, uint(5), svc.lastUserID)
	require.Equal(t, "자동차 정비", svc.created.Keyword)
}

func TestProjectHandlerListPassesPaging(t *testing.T) {
	svc := &stubProjectService{projects: []dto.ProjectResponse{{ID: 1}, {ID: 2}}, total: 12}
	app := newProjectApp(svc, 5)

	resp := doRequest(t, app, http.MethodGet, "/projects?limit=2&offset=4", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.Equal(t, float64(12), payload.Meta["total"])
	require.Equal(t, 2, svc.lastLimit)
	require.Equal(t, 4, svc.lastOffset)

	resp = doRequest(t, app, http.MethodGet, "/projects?limit=many", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProjectHandlerRequiresUser(t *testing.T) {
	app := newProjectApp(&stubProjectService{}, 0)

	resp := doRequest(t, app, http.MethodGet, "/projects/1", "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/projects", `{"keyword":"k"}`)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProjectHandlerRejectsInvalidID(t *testing.T) {
	app := newProjectApp(&stubProjectService{}, 5)

	resp := doRequest(t, app, http.MethodGet, "/projects/abc", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/projects/0", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProjectHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrProjectNotFound, fiber.StatusNotFound},
		{service.ErrProjectNotReady, fiber.StatusConflict},
		{service.ErrNoContent, fiber.StatusConflict},
		{service.ErrUnsupportedFormat, fiber.StatusBadRequest},
		{service.ErrKeywordRequired, fiber.StatusBadRequest},
		{service.ErrDraftUnavailable, fiber.StatusBadGateway},
		{service.ErrResearchUnavailable, fiber.StatusBadGateway},
		{fmt.Errorf("edit: %w", service.ErrEditFailed), fiber.StatusBadGateway},
		{service.ErrImageUnavailable, fiber.StatusBadGateway},
		{validator.ValidationErrors{}, fiber.StatusBadRequest},
		{fmt.Errorf("database down"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_%v", tc.status, tc.err), func(t *testing.T) {
			app := newProjectApp(&stubProjectService{err: tc.err}, 5)

			resp := doRequest(t, app, http.MethodPost, "/projects/3/generate", "")
			require.Equal(t, tc.status, resp.StatusCode)
			require.False(t, decodeEnvelope(t, resp).Success)
		})
	}
}

func TestProjectHandlerGenerateReportsExhaustion(t *testing.T) {
	svc := &stubProjectService{generation: dto.GenerationResponse{
		Outcome:   models.SEOOutcomeExhausted,
		Exhausted: true,
		Attempts:  3,
		Check:     seo.CheckResult{Violations: []seo.Violation{{Code: seo.CodeLengthShort, Actual: 1200, Min: 1500, Max: 1700}}},
	}}
	app := newProjectApp(svc, 5)

	resp := doRequest(t, app, http.MethodPost, "/projects/3/generate", `{"required_terms":["엔진오일"],"skip_images":true}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeEnvelope(t, resp)
	require.True(t, payload.Success)
	require.Equal(t, models.SEOOutcomeExhausted, payload.Meta["outcome"])
	require.Equal(t, float64(3), payload.Meta["attempts"])
	require.Contains(t, payload.Message, "without satisfying")
	require.Equal(t, uint(3), svc.lastID)
	require.True(t, svc.generate.SkipImages)
	require.Equal(t, []string{"엔진오일"}, svc.generate.RequiredTerms)
}

func TestProjectHandlerCopyFormat(t *testing.T) {
	svc := &stubProjectService{copy: dto.CopyResponse{Format: service.FormatMobile, Content: "짧은\n줄", Characters: 3}}
	app := newProjectApp(svc, 5)

	resp := doRequest(t, app, http.MethodGet, "/projects/8/copy?format=MOBILE", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, service.FormatMobile, svc.lastFormat)

	resp = doRequest(t, app, http.MethodGet, "/projects/8/copy", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, service.FormatNormal, svc.lastFormat)
}

func TestProjectHandlerTitles(t *testing.T) {
	svc := &stubProjectService{ranking: models.TitleRankingResult{AverageScore: 3.2, Evaluated: 25}}
	app := newProjectApp(svc, 5)

	resp := doRequest(t, app, http.MethodPost, "/projects/4/titles", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, float64(25), decodeEnvelope(t, resp).Meta["evaluated"])
}

func TestProjectHandlerImageDownload(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n")
	svc := &stubProjectService{image: dto.ImageDownload{Filename: "infographic-engine-oil-2.png", ContentType: "image/png", Data: png}}
	app := newProjectApp(svc, 5)

	resp := doRequest(t, app, http.MethodGet, "/projects/6/images/1", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	require.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "infographic-engine-oil-2.png")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, png, body)
	require.Equal(t, uint(6), svc.lastID)
	require.Equal(t, 1, svc.lastIndex)

	resp = doRequest(t, app, http.MethodGet, "/projects/6/images/first", "")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	missing := newProjectApp(&stubProjectService{err: service.ErrImageNotFound}, 5)
	resp = doRequest(t, missing, http.MethodGet, "/projects/6/images/3", "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
