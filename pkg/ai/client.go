package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const logPreviewRunes = 200

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "seoblog",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "Duration of hosted model requests",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45, 90},
	}, []string{"provider", "purpose"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seoblog",
		Subsystem: "ai",
		Name:      "failures_total",
		Help:      "Number of hosted model calls that fell back to a default value",
	}, []string{"provider", "purpose", "reason"})

	aiDecodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "seoblog",
		Subsystem: "ai",
		Name:      "decode_failures_total",
		Help:      "Number of model answers that could not be decoded into the expected shape",
	}, []string{"purpose"})
)

// ErrEmptyResponse is returned when the provider answers with no text.
var ErrEmptyResponse = errors.New("empty model response")

// ClientConfig tunes the invocation client.
type ClientConfig struct {
	CallTimeout   time.Duration // bounds each individual model call
	RatePerSecond float64       // zero or less disables limiting
	Burst         int
	Logger        zerolog.Logger
}

// Client is the single configured entry point to a hosted model.
type Client struct {
	provider Provider
	timeout  time.Duration
	limiter  *rate.Limiter
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewClient wraps a provider with timeout, rate limiting, tracing and metrics.
func NewClient(provider Provider, cfg ClientConfig) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("ai provider is required")
	}

	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 45 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &Client{
		provider: provider,
		timeout:  cfg.CallTimeout,
		limiter:  rate.NewLimiter(limit, cfg.Burst),
		tracer:   otel.Tracer("github.com/noah-isme/seoblog-api/pkg/ai"),
		logger:   cfg.Logger.With().Str("component", "ai_client").Str("provider", provider.Name()).Logger(),
	}, nil
}

// Provider exposes the wrapped provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// Invoke sends the request to the provider with a per-call timeout.
func (c *Client) Invoke(parent context.Context, req Request) (Response, error) {
	purpose := req.Purpose
	if purpose == "" {
		purpose = "generic"
	}

	ctx, span := c.tracer.Start(parent, "ai.invoke", trace.WithAttributes(
		attribute.String("ai.provider", c.provider.Name()),
		attribute.String("ai.model", c.provider.Model()),
		attribute.String("ai.purpose", purpose),
	))
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		c.fail(span, purpose, "rate_limit", err)
		return Response{}, fmt.Errorf("wait for model rate limit: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.provider.Generate(callCtx, req)
	duration := time.Since(start)
	aiDuration.WithLabelValues(c.provider.Name(), purpose).Observe(duration.Seconds())

	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = ErrEmptyResponse
	}

	event := c.logger.Debug()
	if err != nil {
		event = c.logger.Warn().Err(err)
	}
	event.
		Str("model", c.provider.Model()).
		Str("purpose", purpose).
		Dur("duration", duration).
		Str("prompt", Preview(req.Prompt, logPreviewRunes)).
		Str("response", Preview(resp.Text, logPreviewRunes)).
		Msg("model call")

	if err != nil {
		c.fail(span, purpose, "transport", err)
		return Response{}, err
	}

	span.SetAttributes(
		attribute.Int("ai.prompt_tokens", resp.PromptTokens),
		attribute.Int("ai.completion_tokens", resp.CompletionTokens),
	)
	return resp, nil
}

func (c *Client) fail(span trace.Span, purpose, reason string, err error) {
	aiFailures.WithLabelValues(c.provider.Name(), purpose, reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Decode invokes the model and decodes its JSON answer into T. Transport, parse and
// shape failures are logged and replaced by fallback; ok reports whether the model
// answer was used.
func Decode[T any](ctx context.Context, invoker Invoker, req Request, fallback T, logger zerolog.Logger) (T, bool) {
	req.JSON = true

	resp, err := invoker.Invoke(ctx, req)
	if err != nil {
		logger.Warn().Err(err).Str("purpose", req.Purpose).Msg("model call failed, using fallback")
		return fallback, false
	}

	value, err := parseShaped[T](resp.Text, req)
	if err != nil {
		aiDecodeFailures.WithLabelValues(req.Purpose).Inc()
		logger.Warn().Err(err).
			Str("purpose", req.Purpose).
			Str("response", Preview(resp.Text, logPreviewRunes)).
			Msg("malformed model response, using fallback")
		return fallback, false
	}

	return value, true
}

func parseShaped[T any](text string, req Request) (T, error) {
	var zero T

	payload := ExtractJSON(text)
	if payload == "" {
		return zero, fmt.Errorf("no json payload in response")
	}

	if req.Shape != nil {
		var generic interface{}
		if err := json.Unmarshal([]byte(payload), &generic); err != nil {
			return zero, fmt.Errorf("parse response json: %w", err)
		}
		if err := req.Shape.Validate(generic); err != nil {
			return zero, fmt.Errorf("response shape: %w", err)
		}
	}

	var value T
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return zero, fmt.Errorf("decode response json: %w", err)
	}
	return value, nil
}

// ExtractJSON strips markdown fences and surrounding prose from a model answer.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	if text == "" || text[0] == '{' || text[0] == '[' {
		return text
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	closing := byte('}')
	if text[start] == '[' {
		closing = ']'
	}
	end := strings.LastIndexByte(text, closing)
	if end <= start {
		return ""
	}
	return text[start : end+1]
}

// Preview returns at most n runes of s, marking truncation with an ellipsis.
func Preview(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
