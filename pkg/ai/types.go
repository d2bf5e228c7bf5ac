package ai

import (
	"context"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Request is a single prompt sent to a hosted text model.
type Request struct {
	// Purpose labels the call site in logs and metrics (e.g. "title_generate").
	Purpose     string
	System      string
	Prompt      string
	JSON        bool
	MaxTokens   int
	Temperature float32

	// Shape, when set, is the JSON Schema the decoded response must satisfy.
	Shape *jsonschema.Schema
}

// Response carries the raw model output.
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Provider describes a hosted generative-text model.
type Provider interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (Response, error)
}

// Invoker is the call surface pipeline components depend on.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// ImageRequest describes an image generation call.
type ImageRequest struct {
	Prompt string
	Size   string
}

// ImageGenerator produces raw image bytes for a prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error)
}
