package dto

import (
	"time"

	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/seo"
)

// CreateProjectRequest starts a new keyword workflow.
type CreateProjectRequest struct {
	Keyword string `json:"keyword" validate:"required,min=1,max=100"`
}

// UpdateSubtitlesRequest replaces the four body section headings.
type UpdateSubtitlesRequest struct {
	Subtitles []string `json:"subtitles" validate:"len=4,dive,required,max=100"`
}

// ReferenceLinkRequest is a blog the draft should take cues from.
type ReferenceLinkRequest struct {
	URL     string `json:"url" validate:"required,url"`
	Purpose string `json:"purpose" validate:"required,oneof=tone hook storytelling cta"`
}

// ResearchRequest triggers research collection.
type ResearchRequest struct {
	ReferenceLinks []ReferenceLinkRequest `json:"reference_links" validate:"max=5,dive"`
}

// BusinessInfoRequest describes the promoted business.
type BusinessInfoRequest struct {
	BusinessName    string `json:"business_name" validate:"required,max=100"`
	BusinessType    string `json:"business_type" validate:"required,max=100"`
	Expertise       string `json:"expertise" validate:"required,max=500"`
	Differentiators string `json:"differentiators" validate:"required,max=500"`
}

// GenerateRequest starts the constraint loop for a project.
type GenerateRequest struct {
	RequiredTerms []string `json:"required_terms" validate:"max=10,dive,required,max=30"`
	SkipImages    bool     `json:"skip_images"`
}

// EditRequest rewrites generated content by instruction.
type EditRequest struct {
	Instruction string `json:"instruction" validate:"required,min=2,max=500"`
}

// ProjectResponse is a blog project as returned to API consumers.
type ProjectResponse struct {
	ID               uint                   `json:"id"`
	Keyword          string                 `json:"keyword"`
	Status           string                 `json:"status"`
	KeywordAnalysis  models.KeywordAnalysis `json:"keyword_analysis"`
	Subtitles        []string               `json:"subtitles"`
	ResearchData     models.ResearchData    `json:"research_data"`
	ReferenceLinks   []models.ReferenceLink `json:"reference_links"`
	BusinessInfo     models.BusinessInfo    `json:"business_info"`
	RequiredTerms    []string               `json:"required_terms"`
	GeneratedContent string                 `json:"generated_content"`
	SEOMetrics       *seo.CheckResult       `json:"seo_metrics,omitempty"`
	SEOOutcome       string                 `json:"seo_outcome,omitempty"`
	Attempts         int                    `json:"attempts"`
	GeneratedImages  []string               `json:"generated_images"`
	Titles           []models.ScoredTitle   `json:"titles"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// NewProjectResponse builds a response DTO from a model.
func NewProjectResponse(project models.BlogProject) ProjectResponse {
	response := ProjectResponse{
		ID:               project.ID,
		Keyword:          project.Keyword,
		Status:           project.Status,
		KeywordAnalysis:  project.KeywordAnalysis.Data(),
		Subtitles:        nonNil([]string(project.Subtitles)),
		ResearchData:     project.ResearchData.Data(),
		ReferenceLinks:   nonNil([]models.ReferenceLink(project.ReferenceLinks)),
		BusinessInfo:     project.BusinessInfo.Data(),
		RequiredTerms:    nonNil([]string(project.RequiredTerms)),
		GeneratedContent: project.GeneratedContent,
		SEOOutcome:       project.SEOOutcome,
		Attempts:         project.Attempts,
		GeneratedImages:  nonNil([]string(project.GeneratedImages)),
		Titles:           nonNil([]models.ScoredTitle(project.Titles)),
		CreatedAt:        project.CreatedAt,
		UpdatedAt:        project.UpdatedAt,
	}
	if project.GeneratedContent != "" {
		metrics := project.SEOMetrics.Data()
		response.SEOMetrics = &metrics
	}
	return response
}

// GenerationResponse reports the terminal outcome of a constraint loop run.
type GenerationResponse struct {
	Project   ProjectResponse `json:"project"`
	Outcome   string          `json:"outcome"`
	Exhausted bool            `json:"exhausted"`
	Attempts  int             `json:"attempts"`
	Check     seo.CheckResult `json:"check"`
}

// CopyResponse carries the post formatted for pasting.
type CopyResponse struct {
	Format     string `json:"format"`
	Content    string `json:"content"`
	Characters int    `json:"characters"`
}

// ImageDownload is a section illustration served as an attachment.
type ImageDownload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
