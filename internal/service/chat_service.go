package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/seoblog-api/internal/dto"
	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/prompt"
	"github.com/noah-isme/seoblog-api/internal/repository"
	"github.com/noah-isme/seoblog-api/internal/seo"
	"github.com/noah-isme/seoblog-api/pkg/ai"
)

// ErrMessageRequired indicates a chat message with no text after sanitising.
var ErrMessageRequired = errors.New("chat message is required")

// Edit version scores used when the evaluation call fails.
const (
	compliantVersionScore    = 6.0
	nonCompliantVersionScore = 4.0
	maxVersionScore          = 10.0
)

// Assistant replies stored in the conversation.
const (
	replyContentEdited   = "콘텐츠가 수정되었습니다."
	replyTitlesSuggested = "글 내용에 맞는 추천 제목입니다."
)

// ChatService edits a generated post through a conversation.
type ChatService interface {
	Send(ctx context.Context, userID, id uint, req dto.ChatRequest) (dto.ChatResponse, error)
	History(ctx context.Context, userID, id uint) ([]dto.ChatMessageResponse, error)
}

// ChatDependencies groups the collaborators of the chat service.
type ChatDependencies struct {
	Projects repository.ProjectRepository
	Chats    repository.ChatRepository
	Titles   TitleService
	Content  ContentGenerator
	Progress ProgressService
	Invoker  ai.Invoker
	Prompts  *prompt.Builder
	Targets  seo.Targets
}

type chatService struct {
	deps      ChatDependencies
	validator *validator.Validate
	policy    *bluemonday.Policy
	timeout   time.Duration
	tracer    trace.Tracer
	logger    zerolog.Logger
}

type editVersion struct {
	strategy   string
	content    string
	check      seo.CheckResult
	score      float64
	strengths  []string
	weaknesses []string
}

// NewChatService constructs the chat service. timeout bounds one chat turn.
func NewChatService(deps ChatDependencies, validate *validator.Validate, timeout time.Duration, logger zerolog.Logger) ChatService {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &chatService{
		deps:      deps,
		validator: validate,
		policy:    bluemonday.StrictPolicy(),
		timeout:   timeout,
		tracer:    otel.Tracer("github.com/noah-isme/seoblog-api/internal/service/chat"),
		logger:    logger.With().Str("component", "chat_service").Logger(),
	}
}

// Send stores the user turn, classifies it and answers. Title requests are served
// by the title ranking pipeline and leave the post untouched; every other intent
// rewrites the post once per strategy and keeps the best-scored version.
func (s *chatService) Send(ctx context.Context, userID, id uint, req dto.ChatRequest) (dto.ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ChatResponse{}, err
	}
	message := plainText(s.policy, req.Message)
	if message == "" {
		return dto.ChatResponse{}, ErrMessageRequired
	}

	project, err := loadProject(ctx, s.deps.Projects, userID, id)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	if project.GeneratedContent == "" {
		return dto.ChatResponse{}, ErrNoContent
	}

	ctx, span := s.tracer.Start(ctx, "chat.send", trace.WithAttributes(attribute.Int("project.id", int(project.ID))))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.deps.Chats.Create(ctx, &models.ChatMessage{
		ProjectID: project.ID,
		Role:      models.ChatRoleUser,
		Content:   message,
	}); err != nil {
		return dto.ChatResponse{}, err
	}

	analysis := s.analyze(ctx, project, message)
	span.SetAttributes(attribute.String("chat.intent", analysis.Intent))

	var response dto.ChatResponse
	if analysis.Intent == prompt.IntentTitleSuggestion {
		response, err = s.suggestTitles(ctx, project, analysis)
	} else {
		response, err = s.applyEdit(ctx, project, analysis)
	}
	if err != nil {
		span.RecordError(err)
		return dto.ChatResponse{}, err
	}
	return response, nil
}

func (s *chatService) History(ctx context.Context, userID, id uint) ([]dto.ChatMessageResponse, error) {
	project, err := loadProject(ctx, s.deps.Projects, userID, id)
	if err != nil {
		return nil, err
	}

	messages, err := s.deps.Chats.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		items = append(items, dto.NewChatMessageResponse(message))
	}
	return items, nil
}

func (s *chatService) analyze(ctx context.Context, project models.BlogProject, message string) prompt.EditAnalysis {
	fallback := prompt.FallbackEditAnalysis(message, project.Keyword)
	p, err := s.deps.Prompts.ChatAnalysis(project.Keyword, project.GeneratedContent, message)
	if err != nil {
		s.logger.Warn().Err(err).Uint("project_id", project.ID).Msg("chat analysis prompt unavailable")
		return fallback
	}

	analysis, _ := ai.Decode(ctx, s.deps.Invoker, p.Request(), fallback, s.logger)
	return analysis.Normalize(message, project.Keyword)
}

func (s *chatService) suggestTitles(ctx context.Context, project models.BlogProject, analysis prompt.EditAnalysis) (dto.ChatResponse, error) {
	publishProgress(ctx, s.deps.Progress, s.logger, dto.ProgressEvent{ProjectID: project.ID, Stage: dto.StageTitles, State: "started"})
	titles, err := s.deps.Titles.GenerateTop5Titles(ctx, project.Keyword, project.GeneratedContent)
	if err != nil {
		return dto.ChatResponse{}, err
	}

	project.Titles = datatypes.NewJSONSlice(titles)
	if err := s.deps.Projects.Update(ctx, &project); err != nil {
		return dto.ChatResponse{}, err
	}

	reply := models.ChatMessage{
		ProjectID: project.ID,
		Role:      models.ChatRoleAssistant,
		Content:   replyTitlesSuggested,
		Intent:    analysis.Intent,
		Titles:    datatypes.NewJSONSlice(titles),
	}
	if err := s.deps.Chats.Create(ctx, &reply); err != nil {
		return dto.ChatResponse{}, err
	}

	publishProgress(ctx, s.deps.Progress, s.logger, dto.ProgressEvent{ProjectID: project.ID, Stage: dto.StageTitles, State: "completed"})
	return dto.ChatResponse{
		Intent:   analysis.Intent,
		Analysis: analysis,
		Reply:    dto.NewChatMessageResponse(reply),
		Titles:   titles,
		Project:  dto.NewProjectResponse(project),
	}, nil
}

func (s *chatService) applyEdit(ctx context.Context, project models.BlogProject, analysis prompt.EditAnalysis) (dto.ChatResponse, error) {
	publishProgress(ctx, s.deps.Progress, s.logger, dto.ProgressEvent{ProjectID: project.ID, Stage: dto.StageEditing, State: "started"})

	versions, err := s.generateVersions(ctx, project, analysis)
	if err != nil {
		return dto.ChatResponse{}, err
	}
	if len(versions) == 0 {
		return dto.ChatResponse{}, ErrEditFailed
	}
	s.evaluateVersions(ctx, project.Keyword, analysis, versions)
	rankEditVersions(versions)

	best := versions[0]
	outcome := models.SEOOutcomeExhausted
	if best.check.Satisfied {
		outcome = models.SEOOutcomeFinalized
	}

	project.GeneratedContent = best.content
	project.SEOMetrics = datatypes.NewJSONType(best.check)
	project.SEOOutcome = outcome
	if err := s.deps.Projects.Update(ctx, &project); err != nil {
		return dto.ChatResponse{}, err
	}

	reply := models.ChatMessage{
		ProjectID: project.ID,
		Role:      models.ChatRoleAssistant,
		Content:   replyContentEdited,
		Intent:    analysis.Intent,
	}
	if err := s.deps.Chats.Create(ctx, &reply); err != nil {
		return dto.ChatResponse{}, err
	}

	summaries := make([]dto.EditVersionSummary, 0, len(versions))
	for i, version := range versions {
		summaries = append(summaries, dto.EditVersionSummary{
			Strategy:     version.strategy,
			Score:        version.score,
			Strengths:    nonNilStrings(version.strengths),
			Weaknesses:   nonNilStrings(version.weaknesses),
			SEOCompliant: version.check.Satisfied,
			Characters:   version.check.Metrics.Characters,
			Selected:     i == 0,
		})
	}

	s.logger.Info().
		Uint("project_id", project.ID).
		Str("intent", analysis.Intent).
		Str("strategy", best.strategy).
		Float64("score", best.score).
		Str("outcome", outcome).
		Msg("chat edit applied")

	publishProgress(ctx, s.deps.Progress, s.logger, dto.ProgressEvent{ProjectID: project.ID, Stage: dto.StageEditing, State: "completed"})
	check := best.check
	return dto.ChatResponse{
		Intent:   analysis.Intent,
		Analysis: analysis,
		Reply:    dto.NewChatMessageResponse(reply),
		Versions: summaries,
		Project:  dto.NewProjectResponse(project),
		Outcome:  outcome,
		Check:    &check,
	}, nil
}

// generateVersions rewrites the post once per strategy. A strategy whose call
// fails or returns nothing is skipped; only cancellation aborts the turn.
func (s *chatService) generateVersions(ctx context.Context, project models.BlogProject, analysis prompt.EditAnalysis) ([]*editVersion, error) {
	draft := DraftRequest{
		Keyword:       project.Keyword,
		Subtitles:     project.Subtitles,
		RequiredTerms: project.RequiredTerms,
	}

	var versions []*editVersion
	for _, strategy := range prompt.EditStrategies() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := s.deps.Prompts.EditVersion(prompt.EditVersionInput{
			Keyword:       project.Keyword,
			Content:       project.GeneratedContent,
			Analysis:      analysis,
			Strategy:      strategy,
			Targets:       s.deps.Targets,
			RequiredTerms: project.RequiredTerms,
		})
		if err != nil {
			return nil, err
		}

		resp, err := s.deps.Invoker.Invoke(ctx, p.Request())
		if err != nil {
			s.logger.Warn().Err(err).Str("strategy", strategy.Name).Msg("edit version failed")
			continue
		}
		content := plainText(s.policy, resp.Text)
		if content == "" {
			continue
		}

		versions = append(versions, &editVersion{
			strategy: strategy.Name,
			content:  content,
			check:    s.deps.Content.Check(draft, content),
		})
	}
	return versions, nil
}

func (s *chatService) evaluateVersions(ctx context.Context, keyword string, analysis prompt.EditAnalysis, versions []*editVersion) {
	for _, version := range versions {
		fallback := prompt.EditVersionScore{Score: nonCompliantVersionScore}
		if version.check.Satisfied {
			fallback.Score = compliantVersionScore
		}

		p, err := s.deps.Prompts.EditEvaluation(keyword, version.content, analysis)
		if err != nil {
			version.score = fallback.Score
			continue
		}
		score, _ := ai.Decode(ctx, s.deps.Invoker, p.Request(), fallback, s.logger)
		version.score = clampVersionScore(score.Score)
		version.strengths = score.Strengths
		version.weaknesses = score.Weaknesses
	}
}

// rankEditVersions orders versions by descending score. Equal scores keep
// strategy order, so the least invasive rewrite wins a tie.
func rankEditVersions(versions []*editVersion) {
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].score > versions[j].score
	})
}

func clampVersionScore(score float64) float64 {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > maxVersionScore {
		return maxVersionScore
	}
	return score
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
