package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/prompt"
)

func titleBatch(n int) []string {
	titles := make([]string, n)
	for i := range titles {
		titles[i] = fmt.Sprintf("자동차 정비 제목 %d", i+1)
	}
	return titles
}

func scoreJSON(score interface{}) string {
	payload, _ := json.Marshal(map[string]interface{}{"score": score, "reasoning": "근거"})
	return string(payload)
}

func newTitlePipeline(invoker *scriptedInvoker, concurrency int) TitleService {
	builder := prompt.NewBuilder(prompt.DefaultLimits())
	return NewTitleService(
		NewTitleGenerator(invoker, builder, 0, testLogger()),
		NewTitleEvaluator(invoker, builder, concurrency, testLogger()),
		5,
		testLogger(),
	)
}

func TestTitlePipelineRanksTopFive(t *testing.T) {
	titles := titleBatch(25)
	raw, err := json.Marshal(titles)
	require.NoError(t, err)

	invoker := newScriptedInvoker().on(prompt.PurposeTitleGenerate, string(raw))
	scores := []int{5, 4, 3, 2, 1}
	for i, title := range titles {
		score := 1
		if i < len(scores) {
			score = scores[i]
		}
		invoker.byTitle[title] = scoreJSON(score)
	}

	result, err := newTitlePipeline(invoker, 1).GenerateAndEvaluateTitles(context.Background(), "자동차 정비", "엔진 오일과 타이어 점검")
	require.NoError(t, err)
	require.Len(t, result.All, 25)
	require.Equal(t, 25, result.Evaluated)
	require.Len(t, result.TopK, 5)

	for i, want := range []float64{5, 4, 3, 2, 1} {
		require.Equal(t, want, result.TopK[i].Score)
	}
	require.Equal(t, titles[4], result.TopK[4].Title)
	for _, item := range result.TopK {
		require.GreaterOrEqual(t, item.Score, result.TopK[4].Score)
	}
	for i, item := range result.All {
		require.Equal(t, i+1, item.Origin)
	}
	require.InDelta(t, float64(5+4+3+2+1+20)/25, result.AverageScore, 1e-9)
	require.Len(t, invoker.callsFor(prompt.PurposeTitleEvaluate), 25)
}

func TestTitlePipelineClampsAndFallsBack(t *testing.T) {
	invoker := newScriptedInvoker().on(prompt.PurposeTitleGenerate, `["낮은 점수", "높은 점수", "문자 점수"]`)
	invoker.byTitle["낮은 점수"] = scoreJSON(0)
	invoker.byTitle["높은 점수"] = scoreJSON(9)
	invoker.byTitle["문자 점수"] = scoreJSON("high")

	result, err := newTitlePipeline(invoker, 1).GenerateAndEvaluateTitles(context.Background(), "자동차 정비", "본문")
	require.NoError(t, err)
	require.Len(t, result.All, 3)

	require.Equal(t, models.MinTitleScore, result.All[0].Score)
	require.Equal(t, models.MaxTitleScore, result.All[1].Score)
	require.Equal(t, models.NeutralTitleScore, result.All[2].Score)
	require.True(t, result.All[2].Fallback)
	require.Equal(t, FallbackRationale, result.All[2].Rationale)

	for _, item := range result.All {
		require.GreaterOrEqual(t, item.Score, models.MinTitleScore)
		require.LessOrEqual(t, item.Score, models.MaxTitleScore)
	}
}

func TestTitlePipelineSingleFailureDoesNotBlockBatch(t *testing.T) {
	titles := titleBatch(25)
	raw, _ := json.Marshal(titles)
	invoker := newScriptedInvoker().on(prompt.PurposeTitleGenerate, string(raw))
	for i, title := range titles {
		invoker.byTitle[title] = scoreJSON(4)
		if i == 12 {
			invoker.byTitle[title] = "not json at all"
		}
	}

	result, err := newTitlePipeline(invoker, 1).GenerateAndEvaluateTitles(context.Background(), "자동차 정비", "본문")
	require.NoError(t, err)
	require.Len(t, result.All, 25)
	require.Equal(t, models.NeutralTitleScore, result.All[12].Score)
	require.True(t, result.All[12].Fallback)
	for i, item := range result.All {
		if i == 12 {
			continue
		}
		require.Equal(t, 4.0, item.Score)
		require.False(t, item.Fallback)
	}
}

func TestTitlePipelineEmptyBatch(t *testing.T) {
	invoker := newScriptedInvoker().on(prompt.PurposeTitleGenerate, `[]`)

	result, err := newTitlePipeline(invoker, 1).GenerateAndEvaluateTitles(context.Background(), "자동차 정비", "본문")
	require.NoError(t, err)
	require.Empty(t, result.TopK)
	require.Empty(t, result.All)
	require.Zero(t, result.AverageScore)
	require.Zero(t, result.Evaluated)

	payload, err := json.Marshal(result)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"top_titles":[]`)
	require.Contains(t, string(payload), `"all_titles":[]`)
}

func TestTitlePipelineGenerationFailureYieldsEmptyBatch(t *testing.T) {
	invoker := newScriptedInvoker()
	invoker.errs[prompt.PurposeTitleGenerate] = fmt.Errorf("upstream 503")

	result, err := newTitlePipeline(invoker, 1).GenerateAndEvaluateTitles(context.Background(), "자동차 정비", "본문")
	require.NoError(t, err)
	require.Zero(t, result.Evaluated)
	require.Empty(t, invoker.callsFor(prompt.PurposeTitleEvaluate))
}

func TestTitlePipelineParallelKeepsBatchOrder(t *testing.T) {
	titles := titleBatch(10)
	raw, _ := json.Marshal(titles)
	invoker := newScriptedInvoker().on(prompt.PurposeTitleGenerate, string(raw))
	for i, title := range titles {
		invoker.byTitle[title] = scoreJSON(1 + i%5)
	}

	result, err := newTitlePipeline(invoker, 4).GenerateAndEvaluateTitles(context.Background(), "자동차 정비", "본문")
	require.NoError(t, err)
	require.Len(t, result.All, 10)
	for i, item := range result.All {
		require.Equal(t, titles[i], item.Title)
		require.Equal(t, float64(1+i%5), item.Score)
	}
	require.Equal(t, titles[4], result.TopK[0].Title)
	require.Equal(t, titles[9], result.TopK[1].Title)
}

func TestTitlePipelineCancelledContextDiscardsBatch(t *testing.T) {
	invoker := newScriptedInvoker().on(prompt.PurposeTitleGenerate, `["a"]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTitlePipeline(invoker, 1).GenerateAndEvaluateTitles(ctx, "자동차 정비", "본문")
	require.ErrorIs(t, err, context.Canceled)
}

func TestGenerateTop5TitlesProjects(t *testing.T) {
	invoker := newScriptedInvoker().on(prompt.PurposeTitleGenerate, `["하나", "둘"]`)
	invoker.byTitle["하나"] = scoreJSON(2)
	invoker.byTitle["둘"] = scoreJSON(4.5)

	top, err := newTitlePipeline(invoker, 1).GenerateTop5Titles(context.Background(), "자동차 정비", "본문")
	require.NoError(t, err)
	require.Equal(t, []models.ScoredTitle{{Title: "둘", Score: 4.5}, {Title: "하나", Score: 2}}, top)
}

func TestTitleGeneratorCleansBatch(t *testing.T) {
	titles := titleBatch(30)
	titles[1] = "   "
	titles[2] = "<b>굵은</b> 제목 &amp; 팁"
	raw, _ := json.Marshal(titles)
	invoker := newScriptedInvoker().on(prompt.PurposeTitleGenerate, "```json\n"+string(raw)+"\n```")

	generator := NewTitleGenerator(invoker, prompt.NewBuilder(prompt.DefaultLimits()), 25, testLogger())
	candidates := generator.Generate(context.Background(), "자동차 정비", "본문")

	require.Len(t, candidates, 24)
	require.Equal(t, 1, candidates[0].Origin)
	require.Equal(t, "굵은 제목 & 팁", candidates[1].Title)
	require.Equal(t, 3, candidates[1].Origin)
	require.Equal(t, prompt.StyleName(3), candidates[1].Style)
	require.Equal(t, 25, candidates[len(candidates)-1].Origin)
}

func TestTitleEvaluatorBoundsRationale(t *testing.T) {
	invoker := newScriptedInvoker()
	invoker.byTitle["긴 근거"] = fmt.Sprintf(`{"score": 3.5, "reasoning": "  %s  "}`, strings.Repeat("가", 150))

	evaluator := NewTitleEvaluator(invoker, prompt.NewBuilder(prompt.DefaultLimits()), 1, testLogger())
	result := evaluator.Evaluate(context.Background(), models.TitleCandidate{Title: "긴 근거", Origin: 1}, "자동차 정비", "본문")

	require.Equal(t, 3.5, result.Score)
	require.Equal(t, strings.Repeat("가", 100), result.Rationale)
	require.False(t, result.Fallback)
}

func TestRankTitlesStableTiesAndBounds(t *testing.T) {
	evaluated := []models.EvaluatedTitle{
		{TitleCandidate: models.TitleCandidate{Title: "a", Origin: 1}, Score: 3},
		{TitleCandidate: models.TitleCandidate{Title: "b", Origin: 2}, Score: 4},
		{TitleCandidate: models.TitleCandidate{Title: "c", Origin: 3}, Score: 3},
		{TitleCandidate: models.TitleCandidate{Title: "d", Origin: 4}, Score: 4},
	}

	result := RankTitles(evaluated, 3)
	require.Equal(t, []int{2, 4, 1}, origins(result.TopK))
	require.Equal(t, []int{1, 2, 3, 4}, origins(result.All))
	require.InDelta(t, 3.5, result.AverageScore, 1e-9)

	require.Len(t, RankTitles(evaluated, 10).TopK, 4)
	require.Empty(t, RankTitles(evaluated, -1).TopK)

	for k := 0; k <= 6; k++ {
		got := RankTitles(evaluated, k)
		require.LessOrEqual(t, len(got.TopK), k)
		require.LessOrEqual(t, len(got.TopK), len(got.All))
	}
}

func TestClampScore(t *testing.T) {
	require.Equal(t, 1.0, ClampScore(0))
	require.Equal(t, 1.0, ClampScore(-3))
	require.Equal(t, 5.0, ClampScore(9))
	require.Equal(t, 2.5, ClampScore(2.5))
}

func origins(items []models.EvaluatedTitle) []int {
	out := make([]int, 0, len(items))
	for _, item := range items {
		out = append(out, item.Origin)
	}
	return out
}
