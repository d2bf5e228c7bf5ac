package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	text  string
	err   error
	block bool
	calls int
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }

func (s *stubProvider) Generate(ctx context.Context, req Request) (Response, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return Response{}, ctx.Err()
	}
	if s.err != nil {
		return Response{}, s.err
	}
	return Response{Text: s.text, Model: "stub-model"}, nil
}

type scorePayload struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
}

var scoreShape = jsonschema.MustCompileString("score.json", `{
	"type": "object",
	"required": ["score"],
	"properties": {"score": {"type": "number"}, "reasoning": {"type": "string"}}
}`)

func newTestClient(t *testing.T, provider Provider, timeout time.Duration) *Client {
	t.Helper()
	client, err := NewClient(provider, ClientConfig{CallTimeout: timeout, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresProvider(t *testing.T) {
	_, err := NewClient(nil, ClientConfig{})
	require.Error(t, err)
}

func TestDecodeParsesFencedJSON(t *testing.T) {
	provider := &stubProvider{text: "```json\n{\"score\": 4, \"reasoning\": \"좋음\"}\n```"}
	client := newTestClient(t, provider, time.Second)

	got, ok := Decode(context.Background(), client, Request{Purpose: "test", Shape: scoreShape}, scorePayload{Score: 3}, zerolog.Nop())
	require.True(t, ok)
	require.InDelta(t, 4.0, got.Score, 0.0001)
	require.Equal(t, "좋음", got.Reasoning)
}

func TestDecodeFallsBackOnShapeViolation(t *testing.T) {
	provider := &stubProvider{text: `{"score": "high"}`}
	client := newTestClient(t, provider, time.Second)

	got, ok := Decode(context.Background(), client, Request{Purpose: "test", Shape: scoreShape}, scorePayload{Score: 3, Reasoning: "fallback"}, zerolog.Nop())
	require.False(t, ok)
	require.Equal(t, scorePayload{Score: 3, Reasoning: "fallback"}, got)
}

func TestDecodeCountsMalformedAnswersPerPurpose(t *testing.T) {
	client := newTestClient(t, &stubProvider{text: `{"score": "high"}`}, time.Second)
	before := testutil.ToFloat64(aiDecodeFailures.WithLabelValues("decode_count"))

	_, ok := Decode(context.Background(), client, Request{Purpose: "decode_count", Shape: scoreShape}, scorePayload{}, zerolog.Nop())
	require.False(t, ok)
	require.InDelta(t, before+1, testutil.ToFloat64(aiDecodeFailures.WithLabelValues("decode_count")), 0.0001)
	require.InDelta(t, 0, testutil.ToFloat64(aiFailures.WithLabelValues("decode", "decode_count", "shape")), 0.0001)
}

func TestDecodeFallsBackOnTransportError(t *testing.T) {
	provider := &stubProvider{err: errors.New("connection refused")}
	client := newTestClient(t, provider, time.Second)

	got, ok := Decode(context.Background(), client, Request{Purpose: "test"}, []string{}, zerolog.Nop())
	require.False(t, ok)
	require.Empty(t, got)
	require.Equal(t, 1, provider.calls)
}

func TestDecodeFallsBackOnInvalidJSON(t *testing.T) {
	provider := &stubProvider{text: "제목을 생성할 수 없습니다"}
	client := newTestClient(t, provider, time.Second)

	got, ok := Decode(context.Background(), client, Request{Purpose: "test"}, []string{"x"}, zerolog.Nop())
	require.False(t, ok)
	require.Equal(t, []string{"x"}, got)
}

func TestInvokeAppliesPerCallTimeout(t *testing.T) {
	provider := &stubProvider{block: true}
	client := newTestClient(t, provider, 20*time.Millisecond)

	start := time.Now()
	_, err := client.Invoke(context.Background(), Request{Purpose: "test"})
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestInvokeRejectsEmptyText(t *testing.T) {
	client := newTestClient(t, &stubProvider{text: "   "}, time.Second)

	_, err := client.Invoke(context.Background(), Request{})
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestExtractJSON(t *testing.T) {
	require.Equal(t, `["a","b"]`, ExtractJSON("결과입니다: [\"a\",\"b\"] 끝"))
	require.Equal(t, `{"a":1}`, ExtractJSON("```\n{\"a\":1}\n```"))
	require.Equal(t, "", ExtractJSON("no json here"))
}

func TestPreviewTruncatesByRune(t *testing.T) {
	require.Equal(t, "자동차...", Preview("자동차 정비", 3))
	require.Equal(t, "short", Preview("short", 10))
}
