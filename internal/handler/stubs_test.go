package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seoblog-api/internal/dto"
	"github.com/noah-isme/seoblog-api/internal/models"
)

type stubTitleService struct {
	result  models.TitleRankingResult
	top     []models.ScoredTitle
	err     error
	keyword string
	content string
}

func (s *stubTitleService) GenerateAndEvaluateTitles(_ context.Context, keyword, content string) (models.TitleRankingResult, error) {
	s.keyword, s.content = keyword, content
	return s.result, s.err
}

func (s *stubTitleService) GenerateTop5Titles(_ context.Context, keyword, content string) ([]models.ScoredTitle, error) {
	s.keyword, s.content = keyword, content
	return s.top, s.err
}

type stubProjectService struct {
	project    dto.ProjectResponse
	projects   []dto.ProjectResponse
	total      int64
	generation dto.GenerationResponse
	ranking    models.TitleRankingResult
	copy       dto.CopyResponse
	image      dto.ImageDownload
	err        error

	lastUserID uint
	lastID     uint
	lastFormat string
	lastLimit  int
	lastOffset int
	lastIndex  int
	created    dto.CreateProjectRequest
	generate   dto.GenerateRequest
}

func (s *stubProjectService) Create(_ context.Context, userID uint, req dto.CreateProjectRequest) (dto.ProjectResponse, error) {
	s.lastUserID, s.created = userID, req
	return s.project, s.err
}

func (s *stubProjectService) Get(_ context.Context, userID, id uint) (dto.ProjectResponse, error) {
	s.lastUserID, s.lastID = userID, id
	return s.project, s.err
}

func (s *stubProjectService) List(_ context.Context, userID uint, limit, offset int) ([]dto.ProjectResponse, int64, error) {
	s.lastUserID, s.lastLimit, s.lastOffset = userID, limit, offset
	return s.projects, s.total, s.err
}

func (s *stubProjectService) Analyze(_ context.Context, userID, id uint) (dto.ProjectResponse, error) {
	s.lastUserID, s.lastID = userID, id
	return s.project, s.err
}

func (s *stubProjectService) UpdateSubtitles(_ context.Context, userID, id uint, _ dto.UpdateSubtitlesRequest) (dto.ProjectResponse, error) {
	s.lastUserID, s.lastID = userID, id
	return s.project, s.err
}

func (s *stubProjectService) Research(_ context.Context, userID, id uint, _ dto.ResearchRequest) (dto.ProjectResponse, error) {
	s.lastUserID, s.lastID = userID, id
	return s.project, s.err
}

func (s *stubProjectService) UpdateBusiness(_ context.Context, userID, id uint, _ dto.BusinessInfoRequest) (dto.ProjectResponse, error) {
	s.lastUserID, s.lastID = userID, id
	return s.project, s.err
}

func (s *stubProjectService) Generate(_ context.Context, userID, id uint, req dto.GenerateRequest) (dto.GenerationResponse, error) {
	s.lastUserID, s.lastID, s.generate = userID, id, req
	return s.generation, s.err
}

func (s *stubProjectService) Titles(_ context.Context, userID, id uint) (models.TitleRankingResult, error) {
	s.lastUserID, s.lastID = userID, id
	return s.ranking, s.err
}

func (s *stubProjectService) Edit(_ context.Context, userID, id uint, _ dto.EditRequest) (dto.GenerationResponse, error) {
	s.lastUserID, s.lastID = userID, id
	return s.generation, s.err
}

func (s *stubProjectService) Copy(_ context.Context, userID, id uint, format string) (dto.CopyResponse, error) {
	s.lastUserID, s.lastID, s.lastFormat = userID, id, format
	return s.copy, s.err
}

func (s *stubProjectService) Image(_ context.Context, userID, id uint, index int) (dto.ImageDownload, error) {
	s.lastUserID, s.lastID, s.lastIndex = userID, id, index
	return s.image, s.err
}

type stubChatService struct {
	response dto.ChatResponse
	history  []dto.ChatMessageResponse
	err      error

	lastUserID uint
	lastID     uint
	request    dto.ChatRequest
}

func (s *stubChatService) Send(_ context.Context, userID, id uint, req dto.ChatRequest) (dto.ChatResponse, error) {
	s.lastUserID, s.lastID, s.request = userID, id, req
	return s.response, s.err
}

func (s *stubChatService) History(_ context.Context, userID, id uint) ([]dto.ChatMessageResponse, error) {
	s.lastUserID, s.lastID = userID, id
	return s.history, s.err
}

type stubProgressService struct {
	events     []dto.ProgressEvent
	subscribed uint
	cleaned    atomic.Bool
}

func (s *stubProgressService) Publish(context.Context, dto.ProgressEvent) error { return nil }

func (s *stubProgressService) Subscribe(projectID uint) (<-chan dto.ProgressEvent, func()) {
	s.subscribed = projectID
	stream := make(chan dto.ProgressEvent, len(s.events))
	for _, event := range s.events {
		stream <- event
	}
	return stream, func() { s.cleaned.Store(true) }
}

func (s *stubProgressService) Start(context.Context) {}

// withUser simulates the JWT middleware.
func withUser(id uint) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id != 0 {
			c.Locals("user_id", id)
		}
		return c.Next()
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var payload envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}
