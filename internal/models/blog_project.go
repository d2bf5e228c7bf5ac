package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/seoblog-api/internal/seo"
)

// Project workflow states, in the order a project normally moves through them.
const (
	ProjectStatusKeywordAnalysis   = "keyword_analysis"
	ProjectStatusDataCollection    = "data_collection"
	ProjectStatusBusinessInfo      = "business_info"
	ProjectStatusContentGeneration = "content_generation"
	ProjectStatusCompleted         = "completed"
)

// Constraint loop outcomes.
const (
	SEOOutcomeFinalized = "finalized"
	SEOOutcomeExhausted = "exhausted"
)

// KeywordAnalysis captures search intent and the suggested outline for a keyword.
type KeywordAnalysis struct {
	SearchIntent       string   `json:"search_intent"`
	UserConcerns       string   `json:"user_concerns"`
	SuggestedSubtitles []string `json:"suggested_subtitles"`
	Fallback           bool     `json:"fallback,omitempty"`
}

// ReferenceLink is a blog the user wants the draft to take cues from.
type ReferenceLink struct {
	URL     string `json:"url"`
	Purpose string `json:"purpose"`
}

// ReferenceExcerpt is the extracted text of a reference link.
type ReferenceExcerpt struct {
	URL     string `json:"url"`
	Purpose string `json:"purpose"`
	Excerpt string `json:"excerpt"`
}

// ResearchData is the factual material a draft is built on.
type ResearchData struct {
	Content    string             `json:"content"`
	Citations  []string           `json:"citations"`
	References []ReferenceExcerpt `json:"references,omitempty"`
}

// BusinessInfo describes the business the post promotes.
type BusinessInfo struct {
	BusinessName    string `json:"business_name"`
	BusinessType    string `json:"business_type"`
	Expertise       string `json:"expertise"`
	Differentiators string `json:"differentiators"`
}

// BlogProject is a single keyword-to-post workflow owned by a user.
type BlogProject struct {
	ID               uint                                `gorm:"primaryKey" json:"id"`
	UserID           uint                                `gorm:"index;not null" json:"user_id"`
	Keyword          string                              `gorm:"size:255;not null" json:"keyword"`
	Status           string                              `gorm:"size:32;not null;default:keyword_analysis" json:"status"`
	KeywordAnalysis  datatypes.JSONType[KeywordAnalysis] `json:"keyword_analysis"`
	Subtitles        datatypes.JSONSlice[string]         `json:"subtitles"`
	ResearchData     datatypes.JSONType[ResearchData]    `json:"research_data"`
	ReferenceLinks   datatypes.JSONSlice[ReferenceLink]  `json:"reference_links"`
	BusinessInfo     datatypes.JSONType[BusinessInfo]    `json:"business_info"`
	RequiredTerms    datatypes.JSONSlice[string]         `json:"required_terms"`
	GeneratedContent string                              `gorm:"type:text" json:"generated_content"`
	SEOMetrics       datatypes.JSONType[seo.CheckResult] `json:"seo_metrics"`
	SEOOutcome       string                              `gorm:"size:16" json:"seo_outcome"`
	Attempts         int                                 `gorm:"default:0" json:"attempts"`
	GeneratedImages  datatypes.JSONSlice[string]         `json:"generated_images"`
	Titles           datatypes.JSONSlice[ScoredTitle]    `json:"titles"`
	CreatedAt        time.Time                           `json:"created_at"`
	UpdatedAt        time.Time                           `json:"updated_at"`
}

// HasResearch reports whether research material has been collected.
func (p BlogProject) HasResearch() bool {
	return p.ResearchData.Data().Content != ""
}

// HasBusinessInfo reports whether business details were supplied.
func (p BlogProject) HasBusinessInfo() bool {
	return p.BusinessInfo.Data().BusinessName != ""
}

// ReadyForGeneration reports whether every input the draft prompt needs is present.
func (p BlogProject) ReadyForGeneration() bool {
	return len(p.Subtitles) == 4 && p.HasResearch() && p.HasBusinessInfo()
}
