package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/prompt"
	"github.com/noah-isme/seoblog-api/pkg/ai"
)

// ErrResearchUnavailable indicates the model returned no usable research.
var ErrResearchUnavailable = errors.New("research could not be collected")

// ReferenceFetcher reduces a web page to readable text.
type ReferenceFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// ResearchService gathers the factual material a draft is written from.
type ResearchService interface {
	Collect(ctx context.Context, keyword string, subtitles []string, links []models.ReferenceLink) (models.ResearchData, error)
}

type researchService struct {
	invoker ai.Invoker
	prompts *prompt.Builder
	fetcher ReferenceFetcher
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewResearchService constructs the research service. A nil fetcher skips reference links.
func NewResearchService(invoker ai.Invoker, prompts *prompt.Builder, fetcher ReferenceFetcher, logger zerolog.Logger) ResearchService {
	return &researchService{
		invoker: invoker,
		prompts: prompts,
		fetcher: fetcher,
		tracer:  otel.Tracer("github.com/noah-isme/seoblog-api/internal/service/research"),
		logger:  logger.With().Str("component", "research_service").Logger(),
	}
}

func (s *researchService) Collect(ctx context.Context, keyword string, subtitles []string, links []models.ReferenceLink) (models.ResearchData, error) {
	ctx, span := s.tracer.Start(ctx, "research.collect", trace.WithAttributes(
		attribute.String("keyword", keyword),
		attribute.Int("research.links", len(links)),
	))
	defer span.End()

	p, err := s.prompts.Research(keyword, subtitles)
	if err != nil {
		return models.ResearchData{}, err
	}

	answer, ok := ai.Decode(ctx, s.invoker, p.Request(), prompt.ResearchAnswer{}, s.logger)
	if err := ctx.Err(); err != nil {
		return models.ResearchData{}, err
	}
	if !ok || strings.TrimSpace(answer.Content) == "" {
		span.RecordError(ErrResearchUnavailable)
		return models.ResearchData{}, ErrResearchUnavailable
	}

	data := models.ResearchData{
		Content:    strings.TrimSpace(answer.Content),
		Citations:  make([]string, 0, len(answer.Citations)),
		References: s.fetchReferences(ctx, links),
	}
	for _, citation := range answer.Citations {
		if citation = strings.TrimSpace(citation); citation != "" {
			data.Citations = append(data.Citations, citation)
		}
	}

	s.logger.Info().
		Str("keyword", keyword).
		Int("citations", len(data.Citations)).
		Int("references", len(data.References)).
		Msg("research collected")
	return data, nil
}

// fetchReferences extracts each link in turn; a link that cannot be read is skipped.
func (s *researchService) fetchReferences(ctx context.Context, links []models.ReferenceLink) []models.ReferenceExcerpt {
	if s.fetcher == nil || len(links) == 0 {
		return nil
	}

	excerpts := make([]models.ReferenceExcerpt, 0, len(links))
	for _, link := range links {
		text, err := s.fetcher.FetchText(ctx, link.URL)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", link.URL).Msg("reference link skipped")
			continue
		}
		excerpts = append(excerpts, models.ReferenceExcerpt{URL: link.URL, Purpose: link.Purpose, Excerpt: text})
	}
	return excerpts
}
