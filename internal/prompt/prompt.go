// Package prompt assembles the instructions sent to the text model at every pipeline stage.
package prompt

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/seoblog-api/pkg/ai"
)

var (
	// ErrUnknownKind is returned for a title prompt kind the builder does not know.
	ErrUnknownKind = errors.New("unknown prompt kind")
	// ErrEmptyKeyword is returned when a prompt is requested without a keyword.
	ErrEmptyKeyword = errors.New("keyword is required")
	// ErrEmptyCandidate is returned when an evaluation prompt has no title to judge.
	ErrEmptyCandidate = errors.New("candidate title is required")
)

// Kind selects which title prompt to build.
type Kind int

const (
	KindGenerate Kind = iota + 1
	KindEvaluate
)

func (k Kind) String() string {
	switch k {
	case KindGenerate:
		return "generate"
	case KindEvaluate:
		return "evaluate"
	default:
		return "unknown"
	}
}

// Call purposes, used as metric and log labels.
const (
	PurposeTitleGenerate   = "title_generate"
	PurposeTitleEvaluate   = "title_evaluate"
	PurposeKeywordAnalysis = "keyword_analysis"
	PurposeResearch        = "research"
	PurposeDraft           = "draft"
	PurposeEdit            = "edit"
	PurposeChatAnalysis    = "chat_analysis"
	PurposeEditVersion     = "edit_version"
	PurposeEditEvaluate    = "edit_evaluate"
)

// Prompt is a system instruction, a user message and the expected answer shape.
type Prompt struct {
	Purpose     string
	System      string
	User        string
	Temperature float32
	Shape       *jsonschema.Schema
}

// Request converts the prompt into a model invocation request.
func (p Prompt) Request() ai.Request {
	return ai.Request{
		Purpose:     p.Purpose,
		System:      p.System,
		Prompt:      p.User,
		JSON:        p.Shape != nil,
		Temperature: p.Temperature,
		Shape:       p.Shape,
	}
}

// Limits bound how much of the source content is embedded into title prompts.
type Limits struct {
	EvaluationContent int
	GenerationContent int
}

// DefaultLimits returns the prefix lengths used when none are configured.
func DefaultLimits() Limits {
	return Limits{EvaluationContent: 500, GenerationContent: 1500}
}

// Builder renders prompts. It holds no per-call state and is safe for concurrent use.
type Builder struct {
	limits Limits
	styles []Style
}

// NewBuilder constructs a builder; non-positive limits fall back to the defaults.
func NewBuilder(limits Limits) *Builder {
	defaults := DefaultLimits()
	if limits.EvaluationContent <= 0 {
		limits.EvaluationContent = defaults.EvaluationContent
	}
	if limits.GenerationContent <= 0 {
		limits.GenerationContent = defaults.GenerationContent
	}
	return &Builder{limits: limits, styles: TitleStyles()}
}

// Limits returns the effective content limits.
func (b *Builder) Limits() Limits {
	return b.limits
}

// Styles returns the generation styles in prompt order.
func (b *Builder) Styles() []Style {
	out := make([]Style, len(b.styles))
	copy(out, b.styles)
	return out
}

// Truncate keeps the first n runes of s and marks the cut with an ellipsis.
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

func numbered(items []string) string {
	builder := strings.Builder{}
	for i, item := range items {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(itoa(i + 1))
		builder.WriteString(". ")
		builder.WriteString(item)
	}
	return builder.String()
}
