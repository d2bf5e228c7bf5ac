package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/observability"
	"github.com/noah-isme/seoblog-api/internal/prompt"
	"github.com/noah-isme/seoblog-api/internal/seo"
	"github.com/noah-isme/seoblog-api/pkg/ai"
)

// ErrDraftUnavailable is returned when no attempt produced any draft text.
var ErrDraftUnavailable = errors.New("no draft could be generated")

const defaultMaxAttempts = 3

// LoopState is a step of the drafting state machine.
type LoopState string

const (
	StateDrafting  LoopState = "drafting"
	StateChecking  LoopState = "checking"
	StateSatisfied LoopState = "satisfied"
	StateRetrying  LoopState = "retrying"
	StateFinalized LoopState = "finalized"
	StateExhausted LoopState = "exhausted"
)

// LoopEvent reports a state transition of a running loop.
type LoopEvent struct {
	State      LoopState
	Attempt    int
	Violations []seo.Code
}

// LoopObserver receives state transitions. It is called synchronously.
type LoopObserver func(LoopEvent)

// DraftRequest is the material a post is written from.
type DraftRequest struct {
	Keyword       string
	Subtitles     []string
	Research      models.ResearchData
	Business      models.BusinessInfo
	RequiredTerms []string
	Components    []string
}

// AttemptRecord is the check outcome of one drafting attempt.
type AttemptRecord struct {
	Attempt int             `json:"attempt"`
	Failed  bool            `json:"failed,omitempty"`
	Check   seo.CheckResult `json:"check"`
}

// ContentResult is the terminal outcome of a constraint loop run.
type ContentResult struct {
	Content  string          `json:"content"`
	Outcome  string          `json:"outcome"`
	Attempts int             `json:"attempts"`
	Check    seo.CheckResult `json:"check"`
	History  []AttemptRecord `json:"history"`
}

// Exhausted reports whether the budget ran out before every constraint was met.
func (r ContentResult) Exhausted() bool {
	return r.Outcome == models.SEOOutcomeExhausted
}

// ContentGenerator drafts posts and checks them against the SEO targets.
type ContentGenerator interface {
	Generate(ctx context.Context, req DraftRequest, observe LoopObserver) (ContentResult, error)
	Check(req DraftRequest, content string) seo.CheckResult
	MaxAttempts() int
}

type contentGenerator struct {
	invoker     ai.Invoker
	prompts     *prompt.Builder
	checker     *seo.Checker
	maxAttempts int
	policy      *bluemonday.Policy
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewContentGenerator constructs the constraint loop.
func NewContentGenerator(invoker ai.Invoker, prompts *prompt.Builder, checker *seo.Checker, maxAttempts int, logger zerolog.Logger) ContentGenerator {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return &contentGenerator{
		invoker:     invoker,
		prompts:     prompts,
		checker:     checker,
		maxAttempts: maxAttempts,
		policy:      bluemonday.StrictPolicy(),
		tracer:      otel.Tracer("github.com/noah-isme/seoblog-api/internal/service/content"),
		logger:      logger.With().Str("component", "content_generator").Logger(),
	}
}

func (g *contentGenerator) MaxAttempts() int {
	return g.maxAttempts
}

func (g *contentGenerator) Check(req DraftRequest, content string) seo.CheckResult {
	return g.checker.Check(seo.Input{
		Content:       content,
		Keyword:       req.Keyword,
		Components:    g.components(req),
		Subtitles:     req.Subtitles,
		RequiredTerms: req.RequiredTerms,
	})
}

func (g *contentGenerator) components(req DraftRequest) []string {
	if len(req.Components) > 0 {
		return req.Components
	}
	return seo.KeywordComponents(req.Keyword)
}

// Generate drafts until a draft satisfies every constraint or the attempt budget is
// spent. Each retry carries the previous draft's violations as corrective
// instructions. When the budget runs out the draft with the fewest violations is
// returned with the exhausted outcome.
func (g *contentGenerator) Generate(ctx context.Context, req DraftRequest, observe LoopObserver) (ContentResult, error) {
	ctx, span := g.tracer.Start(ctx, "content.constraint_loop", trace.WithAttributes(attribute.String("keyword", req.Keyword)))
	defer span.End()

	if observe == nil {
		observe = func(LoopEvent) {}
	}

	var (
		best        *ContentResult
		history     []AttemptRecord
		corrections []seo.Violation
		previous    string
	)

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return ContentResult{}, err
		}

		observe(LoopEvent{State: StateDrafting, Attempt: attempt})
		p, err := g.prompts.Draft(prompt.DraftInput{
			Keyword:       req.Keyword,
			Subtitles:     req.Subtitles,
			Research:      req.Research,
			Business:      req.Business,
			RequiredTerms: req.RequiredTerms,
			Targets:       g.checker.Targets(),
			Components:    g.components(req),
			Attempt:       attempt,
			Corrections:   corrections,
			PreviousDraft: previous,
		})
		if err != nil {
			return ContentResult{}, fmt.Errorf("build draft prompt: %w", err)
		}

		resp, err := g.invoker.Invoke(ctx, p.Request())
		content := ""
		if err == nil {
			content = plainText(g.policy, resp.Text)
		}
		if content == "" {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ContentResult{}, ctxErr
			}
			g.logger.Warn().Err(err).Int("attempt", attempt).Msg("draft attempt produced no text")
			history = append(history, AttemptRecord{Attempt: attempt, Failed: true})
			continue
		}

		observe(LoopEvent{State: StateChecking, Attempt: attempt})
		check := g.Check(req, content)
		history = append(history, AttemptRecord{Attempt: attempt, Check: check})

		if best == nil || len(check.Violations) < len(best.Check.Violations) {
			best = &ContentResult{Content: content, Check: check}
		}

		if check.Satisfied {
			observe(LoopEvent{State: StateSatisfied, Attempt: attempt})
			observe(LoopEvent{State: StateFinalized, Attempt: attempt})
			return g.finish(span, ContentResult{
				Content:  content,
				Outcome:  models.SEOOutcomeFinalized,
				Attempts: attempt,
				Check:    check,
				History:  history,
			}), nil
		}

		g.logger.Info().
			Int("attempt", attempt).
			Interface("violations", check.Codes()).
			Msg("draft violates seo constraints")
		if attempt < g.maxAttempts {
			observe(LoopEvent{State: StateRetrying, Attempt: attempt, Violations: check.Codes()})
		}
		corrections = check.Violations
		previous = content
	}

	if best == nil {
		observability.ConstraintOutcomes().WithLabelValues("failed").Inc()
		span.RecordError(ErrDraftUnavailable)
		return ContentResult{}, ErrDraftUnavailable
	}

	observe(LoopEvent{State: StateExhausted, Attempt: g.maxAttempts, Violations: best.Check.Codes()})
	best.Outcome = models.SEOOutcomeExhausted
	best.Attempts = g.maxAttempts
	best.History = history
	return g.finish(span, *best), nil
}

func (g *contentGenerator) finish(span trace.Span, result ContentResult) ContentResult {
	observability.ConstraintOutcomes().WithLabelValues(result.Outcome).Inc()
	observability.ConstraintAttempts().Observe(float64(result.Attempts))
	span.SetAttributes(
		attribute.String("content.outcome", result.Outcome),
		attribute.Int("content.attempts", result.Attempts),
	)
	g.logger.Info().
		Str("outcome", result.Outcome).
		Int("attempts", result.Attempts).
		Int("characters", result.Check.Metrics.Characters).
		Int("violations", len(result.Check.Violations)).
		Msg("constraint loop finished")
	return result
}
