package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiConfig defines configuration options for the Gemini provider.
type GeminiConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}

// GeminiProvider implements Provider against the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	cfg    GeminiConfig
}

// NewGeminiProvider creates the underlying genai client once; it is reused for every call.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, cfg: cfg}, nil
}

// Name reports the provider identifier.
func (p *GeminiProvider) Name() string { return "gemini" }

// Model reports the configured model.
func (p *GeminiProvider) Model() string { return p.cfg.Model }

// Generate sends a single-turn generateContent request.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (Response, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.cfg.MaxTokens
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = int32(maxTokens)
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.cfg.Temperature
	}
	if temperature > 0 {
		config.Temperature = genai.Ptr(temperature)
	}

	result, err := p.client.Models.GenerateContent(ctx, p.cfg.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return Response{}, fmt.Errorf("gemini generate content: %w", err)
	}

	response := Response{
		Text:  strings.TrimSpace(result.Text()),
		Model: p.cfg.Model,
	}
	if result.ModelVersion != "" {
		response.Model = result.ModelVersion
	}
	if um := result.UsageMetadata; um != nil {
		response.PromptTokens = int(um.PromptTokenCount)
		response.CompletionTokens = int(um.CandidatesTokenCount)
	}

	return response, nil
}
