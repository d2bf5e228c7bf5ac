package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/observability"
	"github.com/noah-isme/seoblog-api/internal/prompt"
	"github.com/noah-isme/seoblog-api/pkg/ai"
)

// ErrKeywordRequired indicates an empty keyword was supplied.
var ErrKeywordRequired = errors.New("keyword is required")

// KeywordService derives search intent and an outline for a keyword.
type KeywordService interface {
	Analyze(ctx context.Context, keyword string) (models.KeywordAnalysis, error)
}

type keywordService struct {
	invoker ai.Invoker
	prompts *prompt.Builder
	cache   *redis.Client
	ttl     time.Duration
	logger  zerolog.Logger
}

// NewKeywordService constructs the keyword analysis service. A nil cache disables caching.
func NewKeywordService(invoker ai.Invoker, prompts *prompt.Builder, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) KeywordService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &keywordService{
		invoker: invoker,
		prompts: prompts,
		cache:   cache,
		ttl:     ttl,
		logger:  logger.With().Str("component", "keyword_service").Logger(),
	}
}

// Analyze returns the cached analysis when present. A model failure yields a generic
// outline which is returned but not cached.
func (s *keywordService) Analyze(ctx context.Context, keyword string) (models.KeywordAnalysis, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return models.KeywordAnalysis{}, ErrKeywordRequired
	}

	cacheKey := fmt.Sprintf("keyword_analysis:v1:%s", strings.ToLower(keyword))
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var analysis models.KeywordAnalysis
			if err := json.Unmarshal([]byte(cached), &analysis); err == nil {
				observability.KeywordCache().WithLabelValues("hit").Inc()
				return analysis, nil
			}
		} else if err != nil && !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("keyword cache read failed")
		}
		observability.KeywordCache().WithLabelValues("miss").Inc()
	}

	p, err := s.prompts.KeywordAnalysis(keyword)
	if err != nil {
		return models.KeywordAnalysis{}, err
	}

	answer, ok := ai.Decode(ctx, s.invoker, p.Request(), prompt.KeywordAnalysisAnswer{}, s.logger)
	if err := ctx.Err(); err != nil {
		return models.KeywordAnalysis{}, err
	}

	analysis := models.KeywordAnalysis{
		SearchIntent:       strings.TrimSpace(answer.SearchIntent),
		UserConcerns:       strings.TrimSpace(answer.UserConcerns),
		SuggestedSubtitles: normalizeSubtitles(answer.Subtitles, keyword),
		Fallback:           !ok,
	}
	if !ok {
		analysis.SearchIntent = fmt.Sprintf("%s에 대한 정보 탐색", keyword)
		return analysis, nil
	}

	if s.cache != nil {
		if payload, err := json.Marshal(analysis); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("keyword cache write failed")
			}
		}
	}

	return analysis, nil
}

// normalizeSubtitles keeps the first distinct non-blank subtitles and pads the list
// with generic ones so there are always exactly SubtitleCount.
func normalizeSubtitles(subtitles []string, keyword string) []string {
	out := make([]string, 0, prompt.SubtitleCount)
	seen := make(map[string]struct{}, prompt.SubtitleCount)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || len(out) == prompt.SubtitleCount {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range subtitles {
		add(s)
	}
	for _, s := range prompt.FallbackSubtitles(keyword) {
		add(s)
	}
	return out
}
