package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/prompt"
)

type textFetcherStub struct {
	pages map[string]string
}

func (f textFetcherStub) FetchText(ctx context.Context, url string) (string, error) {
	text, ok := f.pages[url]
	if !ok {
		return "", errors.New("not found")
	}
	return text, nil
}

func TestResearchServiceCollectsWithReferences(t *testing.T) {
	invoker := newScriptedInvoker().on(prompt.PurposeResearch,
		`{"content":" 엔진 오일은 1만km마다 교체 ","citations":["한국교통안전공단"," "]}`)
	fetcher := textFetcherStub{pages: map[string]string{"https://blog.example.com/a": "참고 본문"}}

	svc := NewResearchService(invoker, prompt.NewBuilder(prompt.DefaultLimits()), fetcher, testLogger())
	data, err := svc.Collect(context.Background(), "자동차 정비", []string{"점검 주기"}, []models.ReferenceLink{
		{URL: "https://blog.example.com/a", Purpose: "tone"},
		{URL: "https://blog.example.com/missing", Purpose: "hook"},
	})
	require.NoError(t, err)
	require.Equal(t, "엔진 오일은 1만km마다 교체", data.Content)
	require.Equal(t, []string{"한국교통안전공단"}, data.Citations)
	require.Equal(t, []models.ReferenceExcerpt{{URL: "https://blog.example.com/a", Purpose: "tone", Excerpt: "참고 본문"}}, data.References)
}

func TestResearchServiceSurfacesUnusableAnswer(t *testing.T) {
	invoker := newScriptedInvoker().on(prompt.PurposeResearch, `{"content":""}`)

	svc := NewResearchService(invoker, prompt.NewBuilder(prompt.DefaultLimits()), nil, testLogger())
	_, err := svc.Collect(context.Background(), "자동차 정비", nil, nil)
	require.ErrorIs(t, err, ErrResearchUnavailable)
}
