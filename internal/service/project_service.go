package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/seoblog-api/internal/dto"
	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/prompt"
	"github.com/noah-isme/seoblog-api/internal/repository"
	"github.com/noah-isme/seoblog-api/internal/seo"
	"github.com/noah-isme/seoblog-api/pkg/ai"
)

var (
	// ErrProjectNotFound indicates the project does not exist for the caller.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectNotReady indicates an earlier workflow step has not been completed.
	ErrProjectNotReady = errors.New("project is missing inputs for this step")
	// ErrNoContent indicates the project has no generated post yet.
	ErrNoContent = errors.New("project has no generated content")
	// ErrEditFailed indicates the model did not return an edited post.
	ErrEditFailed = errors.New("content edit failed")
	// ErrUnsupportedFormat indicates an unknown copy format.
	ErrUnsupportedFormat = errors.New("unsupported copy format")
	// ErrImageNotFound indicates no stored image exists at the requested position.
	ErrImageNotFound = errors.New("image not found")
)

// Copy formats.
const (
	FormatNormal = "normal"
	FormatMobile = "mobile"
)

// ProjectService drives a blog project through its workflow.
type ProjectService interface {
	Create(ctx context.Context, userID uint, req dto.CreateProjectRequest) (dto.ProjectResponse, error)
	Get(ctx context.Context, userID, id uint) (dto.ProjectResponse, error)
	List(ctx context.Context, userID uint, limit, offset int) ([]dto.ProjectResponse, int64, error)
	Analyze(ctx context.Context, userID, id uint) (dto.ProjectResponse, error)
	UpdateSubtitles(ctx context.Context, userID, id uint, req dto.UpdateSubtitlesRequest) (dto.ProjectResponse, error)
	Research(ctx context.Context, userID, id uint, req dto.ResearchRequest) (dto.ProjectResponse, error)
	UpdateBusiness(ctx context.Context, userID, id uint, req dto.BusinessInfoRequest) (dto.ProjectResponse, error)
	Generate(ctx context.Context, userID, id uint, req dto.GenerateRequest) (dto.GenerationResponse, error)
	Titles(ctx context.Context, userID, id uint) (models.TitleRankingResult, error)
	Edit(ctx context.Context, userID, id uint, req dto.EditRequest) (dto.GenerationResponse, error)
	Copy(ctx context.Context, userID, id uint, format string) (dto.CopyResponse, error)
	Image(ctx context.Context, userID, id uint, index int) (dto.ImageDownload, error)
}

// ProjectDependencies groups the collaborators of the project service.
type ProjectDependencies struct {
	Repo     repository.ProjectRepository
	Keywords KeywordService
	Research ResearchService
	Content  ContentGenerator
	Titles   TitleService
	Images   ImageService
	Progress ProgressService
	Invoker  ai.Invoker
	Prompts  *prompt.Builder
}

type projectService struct {
	deps        ProjectDependencies
	validator   *validator.Validate
	policy      *bluemonday.Policy
	timeout     time.Duration
	mobileWidth int
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewProjectService constructs the project service. timeout bounds each long-running
// pipeline step.
func NewProjectService(deps ProjectDependencies, validate *validator.Validate, timeout time.Duration, mobileWidth int, logger zerolog.Logger) ProjectService {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if mobileWidth <= 0 {
		mobileWidth = seo.DefaultMobileWidth
	}
	return &projectService{
		deps:        deps,
		validator:   validate,
		policy:      bluemonday.StrictPolicy(),
		timeout:     timeout,
		mobileWidth: mobileWidth,
		tracer:      otel.Tracer("github.com/noah-isme/seoblog-api/internal/service/project"),
		logger:      logger.With().Str("component", "project_service").Logger(),
	}
}

func (s *projectService) Create(ctx context.Context, userID uint, req dto.CreateProjectRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProjectResponse{}, err
	}
	keyword := plainText(s.policy, req.Keyword)
	if keyword == "" {
		return dto.ProjectResponse{}, ErrKeywordRequired
	}

	project := models.BlogProject{
		UserID:  userID,
		Keyword: keyword,
		Status:  models.ProjectStatusKeywordAnalysis,
	}
	if err := s.deps.Repo.Create(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	s.logger.Info().Uint("project_id", project.ID).Str("keyword", keyword).Msg("project created")
	return dto.NewProjectResponse(project), nil
}

func (s *projectService) Get(ctx context.Context, userID, id uint) (dto.ProjectResponse, error) {
	project, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.ProjectResponse{}, err
	}
	return dto.NewProjectResponse(project), nil
}

func (s *projectService) List(ctx context.Context, userID uint, limit, offset int) ([]dto.ProjectResponse, int64, error) {
	projects, total, err := s.deps.Repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for _, project := range projects {
		items = append(items, dto.NewProjectResponse(project))
	}
	return items, total, nil
}

func (s *projectService) Analyze(ctx context.Context, userID, id uint) (dto.ProjectResponse, error) {
	project, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.ProjectResponse{}, err
	}

	s.progress(ctx, project.ID, dto.StageKeywordAnalysis, "started", 0, nil)
	analysis, err := s.deps.Keywords.Analyze(ctx, project.Keyword)
	if err != nil {
		return dto.ProjectResponse{}, err
	}

	project.KeywordAnalysis = datatypes.NewJSONType(analysis)
	project.Subtitles = datatypes.NewJSONSlice(analysis.SuggestedSubtitles)
	project.Status = models.ProjectStatusDataCollection
	if err := s.deps.Repo.Update(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	s.progress(ctx, project.ID, dto.StageKeywordAnalysis, "completed", 0, nil)
	return dto.NewProjectResponse(project), nil
}

func (s *projectService) UpdateSubtitles(ctx context.Context, userID, id uint, req dto.UpdateSubtitlesRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProjectResponse{}, err
	}
	project, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.ProjectResponse{}, err
	}

	subtitles := make([]string, 0, len(req.Subtitles))
	for _, subtitle := range req.Subtitles {
		subtitles = append(subtitles, plainText(s.policy, subtitle))
	}
	project.Subtitles = datatypes.NewJSONSlice(subtitles)
	if project.Status == models.ProjectStatusKeywordAnalysis {
		project.Status = models.ProjectStatusDataCollection
	}
	if err := s.deps.Repo.Update(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}
	return dto.NewProjectResponse(project), nil
}

func (s *projectService) Research(ctx context.Context, userID, id uint, req dto.ResearchRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProjectResponse{}, err
	}
	project, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.ProjectResponse{}, err
	}
	if len(project.Subtitles) != prompt.SubtitleCount {
		return dto.ProjectResponse{}, fmt.Errorf("%w: subtitles required", ErrProjectNotReady)
	}

	links := make([]models.ReferenceLink, 0, len(req.ReferenceLinks))
	for _, link := range req.ReferenceLinks {
		links = append(links, models.ReferenceLink{URL: strings.TrimSpace(link.URL), Purpose: link.Purpose})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.progress(ctx, project.ID, dto.StageResearch, "started", 0, nil)
	data, err := s.deps.Research.Collect(ctx, project.Keyword, project.Subtitles, links)
	if err != nil {
		s.progress(ctx, project.ID, dto.StageResearch, "failed", 0, nil)
		return dto.ProjectResponse{}, err
	}

	project.ResearchData = datatypes.NewJSONType(data)
	project.ReferenceLinks = datatypes.NewJSONSlice(links)
	project.Status = models.ProjectStatusBusinessInfo
	if err := s.deps.Repo.Update(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}

	s.progress(ctx, project.ID, dto.StageResearch, "completed", 0, nil)
	return dto.NewProjectResponse(project), nil
}

func (s *projectService) UpdateBusiness(ctx context.Context, userID, id uint, req dto.BusinessInfoRequest) (dto.ProjectResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProjectResponse{}, err
	}
	project, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.ProjectResponse{}, err
	}
	if !project.HasResearch() {
		return dto.ProjectResponse{}, fmt.Errorf("%w: research required", ErrProjectNotReady)
	}

	project.BusinessInfo = datatypes.NewJSONType(models.BusinessInfo{
		BusinessName:    plainText(s.policy, req.BusinessName),
		BusinessType:    plainText(s.policy, req.BusinessType),
		Expertise:       plainText(s.policy, req.Expertise),
		Differentiators: plainText(s.policy, req.Differentiators),
	})
	project.Status = models.ProjectStatusContentGeneration
	if err := s.deps.Repo.Update(ctx, &project); err != nil {
		return dto.ProjectResponse{}, err
	}
	return dto.NewProjectResponse(project), nil
}

// Generate runs the constraint loop and, unless skipped, illustrates each section.
// An exhausted loop still stores its best-effort draft and is reported as such.
func (s *projectService) Generate(ctx context.Context, userID, id uint, req dto.GenerateRequest) (dto.GenerationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GenerationResponse{}, err
	}
	project, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.GenerationResponse{}, err
	}
	if !project.ReadyForGeneration() {
		return dto.GenerationResponse{}, fmt.Errorf("%w: subtitles, research and business info required", ErrProjectNotReady)
	}

	ctx, span := s.tracer.Start(ctx, "project.generate", trace.WithAttributes(attribute.Int("project.id", int(project.ID))))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	terms := make([]string, 0, len(req.RequiredTerms))
	for _, term := range req.RequiredTerms {
		if term = plainText(s.policy, term); term != "" {
			terms = append(terms, term)
		}
	}

	result, err := s.deps.Content.Generate(ctx, DraftRequest{
		Keyword:       project.Keyword,
		Subtitles:     project.Subtitles,
		Research:      project.ResearchData.Data(),
		Business:      project.BusinessInfo.Data(),
		RequiredTerms: terms,
	}, func(event LoopEvent) {
		violations := make([]string, 0, len(event.Violations))
		for _, code := range event.Violations {
			violations = append(violations, string(code))
		}
		s.progress(ctx, project.ID, dto.StageDrafting, string(event.State), event.Attempt, violations)
	})
	if err != nil {
		span.RecordError(err)
		s.progress(ctx, project.ID, dto.StageDrafting, "failed", 0, nil)
		return dto.GenerationResponse{}, err
	}

	images := []string(project.GeneratedImages)
	if !req.SkipImages && s.deps.Images != nil && s.deps.Images.Enabled() {
		s.progress(ctx, project.ID, dto.StageImages, "started", 0, nil)
		images = s.deps.Images.GenerateForSubtitles(ctx, project.Keyword, project.Subtitles)
		s.progress(ctx, project.ID, dto.StageImages, "completed", 0, nil)
	}

	project.RequiredTerms = datatypes.NewJSONSlice(terms)
	project.GeneratedContent = result.Content
	project.SEOMetrics = datatypes.NewJSONType(result.Check)
	project.SEOOutcome = result.Outcome
	project.Attempts = result.Attempts
	project.GeneratedImages = datatypes.NewJSONSlice(images)
	project.Status = models.ProjectStatusCompleted
	if err := s.deps.Repo.Update(ctx, &project); err != nil {
		return dto.GenerationResponse{}, err
	}

	s.progress(ctx, project.ID, dto.StageCompleted, result.Outcome, result.Attempts, nil)
	return generationResponse(project, result.Outcome, result.Attempts, result.Check), nil
}

func (s *projectService) Titles(ctx context.Context, userID, id uint) (models.TitleRankingResult, error) {
	project, err := s.load(ctx, userID, id)
	if err != nil {
		return models.TitleRankingResult{}, err
	}
	if project.GeneratedContent == "" {
		return models.TitleRankingResult{}, ErrNoContent
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.progress(ctx, project.ID, dto.StageTitles, "started", 0, nil)
	result, err := s.deps.Titles.GenerateAndEvaluateTitles(ctx, project.Keyword, project.GeneratedContent)
	if err != nil {
		return models.TitleRankingResult{}, err
	}

	project.Titles = datatypes.NewJSONSlice(ScoredTitles(result.TopK))
	if err := s.deps.Repo.Update(ctx, &project); err != nil {
		return models.TitleRankingResult{}, err
	}

	s.progress(ctx, project.ID, dto.StageTitles, "completed", 0, nil)
	return result, nil
}

// Edit applies an instruction to the stored post and re-checks it. The outcome is
// finalized when the edited post meets every constraint and exhausted otherwise.
func (s *projectService) Edit(ctx context.Context, userID, id uint, req dto.EditRequest) (dto.GenerationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GenerationResponse{}, err
	}
	project, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.GenerationResponse{}, err
	}
	if project.GeneratedContent == "" {
		return dto.GenerationResponse{}, ErrNoContent
	}

	p, err := s.deps.Prompts.Edit(prompt.EditInput{
		Keyword:     project.Keyword,
		Content:     project.GeneratedContent,
		Instruction: plainText(s.policy, req.Instruction),
	})
	if err != nil {
		return dto.GenerationResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.progress(ctx, project.ID, dto.StageEditing, "started", 0, nil)
	resp, err := s.deps.Invoker.Invoke(ctx, p.Request())
	if err != nil {
		s.logger.Warn().Err(err).Uint("project_id", project.ID).Msg("edit call failed")
		return dto.GenerationResponse{}, ErrEditFailed
	}
	content := plainText(s.policy, resp.Text)
	if content == "" {
		return dto.GenerationResponse{}, ErrEditFailed
	}

	check := s.deps.Content.Check(DraftRequest{
		Keyword:       project.Keyword,
		Subtitles:     project.Subtitles,
		RequiredTerms: project.RequiredTerms,
	}, content)
	outcome := models.SEOOutcomeExhausted
	if check.Satisfied {
		outcome = models.SEOOutcomeFinalized
	}

	project.GeneratedContent = content
	project.SEOMetrics = datatypes.NewJSONType(check)
	project.SEOOutcome = outcome
	if err := s.deps.Repo.Update(ctx, &project); err != nil {
		return dto.GenerationResponse{}, err
	}

	s.progress(ctx, project.ID, dto.StageEditing, "completed", 0, nil)
	return generationResponse(project, outcome, project.Attempts, check), nil
}

func (s *projectService) Copy(ctx context.Context, userID, id uint, format string) (dto.CopyResponse, error) {
	project, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.CopyResponse{}, err
	}
	if project.GeneratedContent == "" {
		return dto.CopyResponse{}, ErrNoContent
	}

	content := project.GeneratedContent
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatNormal:
		format = FormatNormal
	case FormatMobile:
		format = FormatMobile
		content = seo.FormatForMobile(content, s.mobileWidth)
	default:
		return dto.CopyResponse{}, ErrUnsupportedFormat
	}

	return dto.CopyResponse{
		Format:     format,
		Content:    content,
		Characters: seo.CountCharacters(content),
	}, nil
}

// Image downloads the stored illustration at the zero-based section index.
func (s *projectService) Image(ctx context.Context, userID, id uint, index int) (dto.ImageDownload, error) {
	project, err := s.load(ctx, userID, id)
	if err != nil {
		return dto.ImageDownload{}, err
	}
	if index < 0 || index >= len(project.GeneratedImages) || project.GeneratedImages[index] == "" {
		return dto.ImageDownload{}, ErrImageNotFound
	}
	if s.deps.Images == nil {
		return dto.ImageDownload{}, ErrImageUnavailable
	}

	file, err := s.deps.Images.Download(ctx, project.GeneratedImages[index])
	if err != nil {
		return dto.ImageDownload{}, err
	}

	return dto.ImageDownload{
		Filename:    fmt.Sprintf("infographic-%s-%d%s", strings.ReplaceAll(project.Keyword, " ", "-"), index+1, file.Extension),
		ContentType: file.ContentType,
		Data:        file.Data,
	}, nil
}

func (s *projectService) load(ctx context.Context, userID, id uint) (models.BlogProject, error) {
	return loadProject(ctx, s.deps.Repo, userID, id)
}

func loadProject(ctx context.Context, repo repository.ProjectRepository, userID, id uint) (models.BlogProject, error) {
	project, err := repo.GetForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.BlogProject{}, ErrProjectNotFound
		}
		return models.BlogProject{}, err
	}
	return project, nil
}

func (s *projectService) progress(ctx context.Context, projectID uint, stage, state string, attempt int, violations []string) {
	publishProgress(ctx, s.deps.Progress, s.logger, dto.ProgressEvent{
		ProjectID:  projectID,
		Stage:      stage,
		State:      state,
		Attempt:    attempt,
		Violations: violations,
	})
}

func publishProgress(ctx context.Context, progress ProgressService, logger zerolog.Logger, event dto.ProgressEvent) {
	if progress == nil {
		return
	}
	if err := progress.Publish(ctx, event); err != nil {
		logger.Debug().Err(err).Uint("project_id", event.ProjectID).Msg("progress event dropped")
	}
}

func generationResponse(project models.BlogProject, outcome string, attempts int, check seo.CheckResult) dto.GenerationResponse {
	return dto.GenerationResponse{
		Project:   dto.NewProjectResponse(project),
		Outcome:   outcome,
		Exhausted: outcome == models.SEOOutcomeExhausted,
		Attempts:  attempts,
		Check:     check,
	}
}
