package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/observability"
	"github.com/noah-isme/seoblog-api/internal/prompt"
	"github.com/noah-isme/seoblog-api/pkg/ai"
)

const (
	// FallbackRationale accompanies the neutral score given when evaluation fails.
	FallbackRationale = "평가 실패로 인한 기본 점수"

	maxRationaleRunes = 100
	defaultBatchSize  = prompt.TitleStyleCount
	defaultTopK       = 5
)

// TitleGenerator produces one batch of styled title candidates.
type TitleGenerator interface {
	Generate(ctx context.Context, keyword, content string) []models.TitleCandidate
}

// TitleEvaluator scores candidates independently of the call that produced them.
type TitleEvaluator interface {
	Evaluate(ctx context.Context, candidate models.TitleCandidate, keyword, content string) models.EvaluatedTitle
	EvaluateAll(ctx context.Context, candidates []models.TitleCandidate, keyword, content string) ([]models.EvaluatedTitle, error)
}

// TitleService runs the generate, evaluate and rank pipeline.
type TitleService interface {
	GenerateAndEvaluateTitles(ctx context.Context, keyword, content string) (models.TitleRankingResult, error)
	GenerateTop5Titles(ctx context.Context, keyword, content string) ([]models.ScoredTitle, error)
}

type titleGenerator struct {
	invoker   ai.Invoker
	prompts   *prompt.Builder
	batchSize int
	policy    *bluemonday.Policy
	logger    zerolog.Logger
}

// NewTitleGenerator constructs the candidate generator.
func NewTitleGenerator(invoker ai.Invoker, prompts *prompt.Builder, batchSize int, logger zerolog.Logger) TitleGenerator {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &titleGenerator{
		invoker:   invoker,
		prompts:   prompts,
		batchSize: batchSize,
		policy:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "title_generator").Logger(),
	}
}

// Generate issues a single model call for the whole batch. Blank entries are dropped,
// entries beyond the batch size are ignored and a failed call yields an empty batch.
// Origin is the 1-based position in the model answer, which is also the style slot.
func (g *titleGenerator) Generate(ctx context.Context, keyword, content string) []models.TitleCandidate {
	candidates := make([]models.TitleCandidate, 0, g.batchSize)

	p, err := g.prompts.Title(prompt.KindGenerate, prompt.TitleInput{Keyword: keyword, Content: content})
	if err != nil {
		g.logger.Warn().Err(err).Msg("cannot build generation prompt")
		return candidates
	}

	titles, _ := ai.Decode[[]string](ctx, g.invoker, p.Request(), nil, g.logger)
	for i, raw := range titles {
		if i >= g.batchSize {
			break
		}
		title := plainText(g.policy, raw)
		if title == "" {
			continue
		}
		candidates = append(candidates, models.TitleCandidate{
			Title:  title,
			Origin: i + 1,
			Style:  prompt.StyleName(i + 1),
		})
	}

	g.logger.Debug().Str("keyword", keyword).Int("candidates", len(candidates)).Msg("title candidates generated")
	return candidates
}

type titleEvaluator struct {
	invoker     ai.Invoker
	prompts     *prompt.Builder
	concurrency int
	logger      zerolog.Logger
}

// NewTitleEvaluator constructs the evaluator. A concurrency of 1 or less evaluates
// candidates one after another.
func NewTitleEvaluator(invoker ai.Invoker, prompts *prompt.Builder, concurrency int, logger zerolog.Logger) TitleEvaluator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &titleEvaluator{
		invoker:     invoker,
		prompts:     prompts,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "title_evaluator").Logger(),
	}
}

func (e *titleEvaluator) Evaluate(ctx context.Context, candidate models.TitleCandidate, keyword, content string) models.EvaluatedTitle {
	fallback := prompt.TitleScore{Score: models.NeutralTitleScore, Reasoning: FallbackRationale}

	answer := fallback
	ok := false
	p, err := e.prompts.Title(prompt.KindEvaluate, prompt.TitleInput{Keyword: keyword, Content: content, Candidate: candidate.Title})
	if err != nil {
		e.logger.Warn().Err(err).Int("origin", candidate.Origin).Msg("cannot build evaluation prompt")
	} else {
		answer, ok = ai.Decode(ctx, e.invoker, p.Request(), fallback, e.logger)
	}

	result := "model"
	if !ok {
		result = "fallback"
	}
	observability.TitleEvaluations().WithLabelValues(result).Inc()

	return models.EvaluatedTitle{
		TitleCandidate: candidate,
		Score:          ClampScore(answer.Score),
		Rationale:      truncateRunes(strings.TrimSpace(answer.Reasoning), maxRationaleRunes),
		Fallback:       !ok,
	}
}

// EvaluateAll returns one evaluation per candidate in batch order. The batch is
// discarded and the context error returned if ctx ends before every candidate is scored.
func (e *titleEvaluator) EvaluateAll(ctx context.Context, candidates []models.TitleCandidate, keyword, content string) ([]models.EvaluatedTitle, error) {
	results := make([]models.EvaluatedTitle, len(candidates))

	if e.concurrency == 1 {
		for i, candidate := range candidates {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = e.Evaluate(ctx, candidate, keyword, content)
		}
	} else {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(e.concurrency)
		for i, candidate := range candidates {
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				results[i] = e.Evaluate(groupCtx, candidate, keyword, content)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ClampScore forces a model score into the rubric range.
func ClampScore(score float64) float64 {
	if math.IsNaN(score) || score < models.MinTitleScore {
		return models.MinTitleScore
	}
	if score > models.MaxTitleScore {
		return models.MaxTitleScore
	}
	return score
}

// RankTitles orders evaluations by descending score, keeping generation order among
// equal scores, and averages over the whole batch. An empty batch has an average of 0.
func RankTitles(evaluated []models.EvaluatedTitle, k int) models.TitleRankingResult {
	all := make([]models.EvaluatedTitle, len(evaluated))
	copy(all, evaluated)

	sorted := make([]models.EvaluatedTitle, len(evaluated))
	copy(sorted, evaluated)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	if k < 0 {
		k = 0
	}
	if k > len(sorted) {
		k = len(sorted)
	}

	var sum float64
	for _, item := range all {
		sum += item.Score
	}
	average := 0.0
	if len(all) > 0 {
		average = sum / float64(len(all))
	}

	return models.TitleRankingResult{
		TopK:         sorted[:k:k],
		All:          all,
		AverageScore: average,
		Evaluated:    len(all),
	}
}

type titleService struct {
	generator TitleGenerator
	evaluator TitleEvaluator
	topK      int
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewTitleService wires the generator and evaluator into the ranking pipeline.
func NewTitleService(generator TitleGenerator, evaluator TitleEvaluator, topK int, logger zerolog.Logger) TitleService {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &titleService{
		generator: generator,
		evaluator: evaluator,
		topK:      topK,
		tracer:    otel.Tracer("github.com/noah-isme/seoblog-api/internal/service/titles"),
		logger:    logger.With().Str("component", "title_service").Logger(),
	}
}

func (s *titleService) GenerateAndEvaluateTitles(ctx context.Context, keyword, content string) (models.TitleRankingResult, error) {
	ctx, span := s.tracer.Start(ctx, "titles.generate_and_evaluate", trace.WithAttributes(attribute.String("keyword", keyword)))
	defer span.End()

	start := time.Now()
	candidates := s.generator.Generate(ctx, keyword, content)
	if err := ctx.Err(); err != nil {
		return models.TitleRankingResult{}, fmt.Errorf("generate titles: %w", err)
	}

	evaluated, err := s.evaluator.EvaluateAll(ctx, candidates, keyword, content)
	if err != nil {
		span.RecordError(err)
		return models.TitleRankingResult{}, fmt.Errorf("evaluate titles: %w", err)
	}

	result := RankTitles(evaluated, s.topK)
	observability.TitlePipelineDuration().Observe(time.Since(start).Seconds())
	if result.Evaluated > 0 {
		observability.TitleAverageScore().Observe(result.AverageScore)
	}
	span.SetAttributes(attribute.Int("titles.evaluated", result.Evaluated))

	event := s.logger.Info().
		Str("keyword", keyword).
		Int("evaluated", result.Evaluated).
		Float64("average_score", result.AverageScore).
		Dur("duration", time.Since(start))
	if len(result.TopK) > 0 {
		event = event.Str("best_title", result.TopK[0].Title).Float64("best_score", result.TopK[0].Score)
	}
	event.Msg("titles ranked")

	return result, nil
}

func (s *titleService) GenerateTop5Titles(ctx context.Context, keyword, content string) ([]models.ScoredTitle, error) {
	result, err := s.GenerateAndEvaluateTitles(ctx, keyword, content)
	if err != nil {
		return nil, err
	}
	return ScoredTitles(result.TopK), nil
}

// ScoredTitles projects evaluations onto title and score.
func ScoredTitles(evaluated []models.EvaluatedTitle) []models.ScoredTitle {
	out := make([]models.ScoredTitle, 0, len(evaluated))
	for _, item := range evaluated {
		out = append(out, models.ScoredTitle{Title: item.Title, Score: item.Score})
	}
	return out
}
