package prompt

import (
	"fmt"
	"strings"

	"github.com/noah-isme/seoblog-api/internal/seo"
)

// Edit intents recognised in chat requests.
const (
	IntentAdd                 = "add"
	IntentRemove              = "remove"
	IntentModify              = "modify"
	IntentRestructure         = "restructure"
	IntentToneChange          = "tone_change"
	IntentEnhancePersuasion   = "enhance_persuasion"
	IntentImproveReadability  = "improve_readability"
	IntentTitleSuggestion     = "title_suggestion"
	TargetIntro               = "intro"
	TargetBody                = "body"
	TargetConclusion          = "conclusion"
	TargetSpecificParagraph   = "specific_paragraph"
	TargetEntire              = "entire"
	defaultTone               = "professional"
	defaultPersuasionStrategy = "논리적 근거"
)

// EditAnalysis is the model's reading of a chat edit request.
type EditAnalysis struct {
	Intent               string   `json:"intent"`
	Target               string   `json:"target"`
	Scope                string   `json:"scope"`
	SpecificRequirements []string `json:"specificRequirements"`
	KeyElements          []string `json:"keyElements"`
	EmotionalTone        string   `json:"emotionalTone"`
	PersuasionStrategy   string   `json:"persuasionStrategy"`
}

// FallbackEditAnalysis treats the whole message as a plain rewrite request.
func FallbackEditAnalysis(message, keyword string) EditAnalysis {
	return EditAnalysis{
		Intent:               IntentModify,
		Target:               TargetEntire,
		Scope:                "moderate",
		SpecificRequirements: []string{strings.TrimSpace(message)},
		KeyElements:          []string{keyword},
		EmotionalTone:        defaultTone,
		PersuasionStrategy:   defaultPersuasionStrategy,
	}
}

// Normalize fills blank fields from the fallback.
func (a EditAnalysis) Normalize(message, keyword string) EditAnalysis {
	fallback := FallbackEditAnalysis(message, keyword)
	a.Intent = strings.ToLower(strings.TrimSpace(a.Intent))
	a.Target = strings.ToLower(strings.TrimSpace(a.Target))
	if a.Intent == "" {
		a.Intent = fallback.Intent
	}
	if a.Target == "" {
		a.Target = fallback.Target
	}
	if a.Scope == "" {
		a.Scope = fallback.Scope
	}
	if len(a.SpecificRequirements) == 0 {
		a.SpecificRequirements = fallback.SpecificRequirements
	}
	if len(a.KeyElements) == 0 {
		a.KeyElements = fallback.KeyElements
	}
	if a.EmotionalTone == "" {
		a.EmotionalTone = fallback.EmotionalTone
	}
	if a.PersuasionStrategy == "" {
		a.PersuasionStrategy = fallback.PersuasionStrategy
	}
	return a
}

// EditStrategy is one way of applying an edit request.
type EditStrategy struct {
	Name        string
	Description string
	Guide       string
}

// EditStrategies returns the rewrite strategies tried for every edit request,
// from least to most invasive.
func EditStrategies() []EditStrategy {
	return []EditStrategy{
		{
			Name:        "conservative",
			Description: "최소한의 수정으로 요청 반영 (기존 글 최대한 보존)",
			Guide:       "- 기존 글의 90% 이상 유지\n- 사용자가 요청한 부분만 최소한으로 수정\n- 기존 문장 구조와 어조 보존",
		},
		{
			Name:        "balanced",
			Description: "적절한 수정으로 요청과 글 품질 균형",
			Guide:       "- 기존 글의 70-80% 유지\n- 요청사항을 충실히 반영하되 글 전체의 일관성 유지\n- 필요한 경우 주변 문장도 자연스럽게 조정",
		},
		{
			Name:        "aggressive",
			Description: "적극적인 수정으로 요청 완전 반영",
			Guide:       "- 요청사항을 완전히 반영\n- 글 전체의 품질 향상을 위해 필요한 부분 적극 수정\n- 설득력과 가독성을 최대한 강화",
		},
	}
}

// EditVersionScore is the decoded evaluation of one edited version.
type EditVersionScore struct {
	Score      float64  `json:"score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// ChatAnalysis builds the prompt that classifies a chat edit request.
func (b *Builder) ChatAnalysis(keyword, content, message string) (Prompt, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Prompt{}, ErrEmptyKeyword
	}

	builder := strings.Builder{}
	builder.WriteString("사용자의 블로그 수정 요청을 분석하세요.\n\n")
	builder.WriteString("현재 콘텐츠 일부:\n")
	builder.WriteString(Truncate(content, b.limits.EvaluationContent))
	fmt.Fprintf(&builder, "\n\n사용자 요청:\n\"%s\"\n\n", strings.TrimSpace(message))
	fmt.Fprintf(&builder, "키워드: \"%s\"\n\n", keyword)
	builder.WriteString("1. intent: add(추가), remove(삭제), modify(변경, 다시 써줘), restructure(순서, 구조), ")
	builder.WriteString("tone_change(어조 변경), enhance_persuasion(설득력 강화), improve_readability(가독성 개선), ")
	builder.WriteString("title_suggestion(제목 추천, 제목 지어줘) 중 하나\n")
	builder.WriteString("2. target: intro(서론, 도입부, 처음), body(본론, 중간), conclusion(결론, 마무리, 끝), ")
	builder.WriteString("specific_paragraph(특정 문장을 직접 언급), entire(전체 또는 대상 불명확) 중 하나\n")
	builder.WriteString("3. scope: minor, moderate, major 중 하나\n")
	builder.WriteString("4. specificRequirements: 구체적인 요구사항 배열\n")
	builder.WriteString("5. keyElements: 반드시 포함하거나 강조할 요소 배열\n")
	builder.WriteString("6. emotionalTone: professional, friendly, urgent, empathetic, authoritative, casual, enthusiastic 중 하나\n")
	builder.WriteString("7. persuasionStrategy: 감정적 어필, 논리적 근거, 사회적 증거, 권위 활용, 문제-해결, 스토리텔링 중 하나\n\n")
	builder.WriteString("\"~해줘\", \"~했으면 좋겠어\", \"~해주세요\"는 모두 같은 요청입니다.\n\n")
	builder.WriteString("JSON 형식으로 응답:\n")
	builder.WriteString(`{"intent": "...", "target": "...", "scope": "...", "specificRequirements": [], "keyElements": [], "emotionalTone": "...", "persuasionStrategy": "..."}`)

	return Prompt{
		Purpose:     PurposeChatAnalysis,
		System:      "사용자의 의도를 정확히 파악하는 분석 전문가입니다.",
		User:        builder.String(),
		Temperature: 0.2,
		Shape:       EditAnalysisShape,
	}, nil
}

// EditVersionInput is one strategy applied to a post for an analysed request.
type EditVersionInput struct {
	Keyword       string
	Content       string
	Analysis      EditAnalysis
	Strategy      EditStrategy
	Targets       seo.Targets
	RequiredTerms []string
}

// EditVersion builds the rewrite prompt for one strategy.
func (b *Builder) EditVersion(in EditVersionInput) (Prompt, error) {
	keyword := strings.TrimSpace(in.Keyword)
	if keyword == "" {
		return Prompt{}, ErrEmptyKeyword
	}
	a := in.Analysis
	t := in.Targets

	builder := strings.Builder{}
	fmt.Fprintf(&builder, "전략: %s\n%s\n\n", in.Strategy.Name, in.Strategy.Description)
	builder.WriteString("원본 글:\n")
	builder.WriteString(in.Content)
	builder.WriteString("\n")
	if focus := SectionFocus(in.Content, a.Target); focus != "" {
		fmt.Fprintf(&builder, "\n집중 수정 영역 (%s):\n%s\n", targetLabel(a.Target), focus)
	}

	builder.WriteString("\n분석된 요청:\n")
	fmt.Fprintf(&builder, "- 수정 의도: %s\n", a.Intent)
	fmt.Fprintf(&builder, "- 수정 대상: %s\n", targetLabel(a.Target))
	fmt.Fprintf(&builder, "- 수정 범위: %s\n", a.Scope)
	fmt.Fprintf(&builder, "- 구체적 요구사항: %s\n", strings.Join(a.SpecificRequirements, ", "))
	fmt.Fprintf(&builder, "- 핵심 요소: %s\n", strings.Join(a.KeyElements, ", "))
	fmt.Fprintf(&builder, "- 감정적 톤: %s\n", a.EmotionalTone)
	fmt.Fprintf(&builder, "- 설득 전략: %s\n", a.PersuasionStrategy)

	builder.WriteString("\n반드시 지킬 조건:\n")
	if t.KeywordMax > 0 {
		fmt.Fprintf(&builder, "- 키워드 \"%s\" 전체를 %d-%d회 사용\n", keyword, t.KeywordMin, t.KeywordMax)
	}
	if t.MaxChars > 0 {
		fmt.Fprintf(&builder, "- 공백 제외 %d-%d자\n", t.MinChars, t.MaxChars)
	}
	builder.WriteString("- 서론, 본론, 결론 구조와 소제목 줄을 유지\n")
	if len(in.RequiredTerms) > 0 {
		fmt.Fprintf(&builder, "- 다음 단어를 반드시 포함: %s\n", strings.Join(in.RequiredTerms, ", "))
	}

	fmt.Fprintf(&builder, "\n수정 가이드 (%s):\n%s\n", in.Strategy.Name, in.Strategy.Guide)
	builder.WriteString("\n수정된 글 전체만 일반 텍스트로 출력하세요.")

	return Prompt{
		Purpose:     PurposeEditVersion,
		System:      draftSystem,
		User:        builder.String(),
		Temperature: 0.6,
	}, nil
}

// EditEvaluation builds the prompt that scores an edited version from 0 to 10.
func (b *Builder) EditEvaluation(keyword, content string, analysis EditAnalysis) (Prompt, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Prompt{}, ErrEmptyKeyword
	}

	builder := strings.Builder{}
	builder.WriteString("다음 블로그 글을 10점 만점으로 평가하세요.\n\n")
	builder.WriteString(content)
	builder.WriteString("\n\n평가 기준:\n")
	fmt.Fprintf(&builder, "1. 사용자 요청 반영도 (의도: %s, 대상: %s)\n", analysis.Intent, analysis.Target)
	fmt.Fprintf(&builder, "2. SEO 최적화 (키워드 \"%s\" 활용도)\n", keyword)
	builder.WriteString("3. 가독성 및 흐름\n")
	fmt.Fprintf(&builder, "4. 설득력 (전략: %s)\n", analysis.PersuasionStrategy)
	fmt.Fprintf(&builder, "5. 감정적 톤 일치도 (목표: %s)\n\n", analysis.EmotionalTone)
	builder.WriteString("JSON으로 응답:\n")
	builder.WriteString(`{"score": 0-10 사이 점수 (소수점 1자리), "strengths": ["강점"], "weaknesses": ["약점"]}`)

	return Prompt{
		Purpose:     PurposeEditEvaluate,
		System:      "객관적이고 정확한 블로그 품질 평가 전문가입니다.",
		User:        builder.String(),
		Temperature: 0.2,
		Shape:       EditVersionScoreShape,
	}, nil
}

// SectionFocus returns the paragraphs of content that the target names. The
// first fifth (one or two paragraphs) is the intro and the last fifth (at least
// two paragraphs) is the conclusion. Whole-post and paragraph targets yield "".
func SectionFocus(content, target string) string {
	var paragraphs []string
	for _, paragraph := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(paragraph) != "" {
			paragraphs = append(paragraphs, paragraph)
		}
	}
	total := len(paragraphs)
	if total == 0 {
		return ""
	}

	introEnd := min(2, max(1, total/5))
	conclusionStart := max(total-2, total*4/5)
	if introEnd >= conclusionStart {
		introEnd = 1
		conclusionStart = total - 1
	}
	if conclusionStart < introEnd {
		conclusionStart = introEnd
	}

	switch target {
	case TargetIntro:
		return strings.Join(paragraphs[:introEnd], "\n\n")
	case TargetBody:
		return strings.Join(paragraphs[introEnd:conclusionStart], "\n\n")
	case TargetConclusion:
		return strings.Join(paragraphs[conclusionStart:], "\n\n")
	default:
		return ""
	}
}

func targetLabel(target string) string {
	switch target {
	case TargetIntro:
		return "서론"
	case TargetBody:
		return "본론"
	case TargetConclusion:
		return "결론"
	case TargetSpecificParagraph:
		return "특정 단락"
	default:
		return "전체"
	}
}
