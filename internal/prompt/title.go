package prompt

import (
	"fmt"
	"strings"
)

// BannedTitlePhrases are generic phrasings the rubric penalises.
var BannedTitlePhrases = []string{"완벽 정리", "총정리", "A to Z", "모든 것", "알아보자", "꿀팁 대방출"}

// TitleInput is what a title prompt is built from.
type TitleInput struct {
	Keyword   string
	Content   string
	Candidate string
}

// Title builds the generation or evaluation prompt for a keyword and its content.
func (b *Builder) Title(kind Kind, in TitleInput) (Prompt, error) {
	keyword := strings.TrimSpace(in.Keyword)
	if keyword == "" {
		return Prompt{}, ErrEmptyKeyword
	}

	switch kind {
	case KindGenerate:
		return b.generateTitles(keyword, in.Content), nil
	case KindEvaluate:
		candidate := strings.TrimSpace(in.Candidate)
		if candidate == "" {
			return Prompt{}, ErrEmptyCandidate
		}
		return b.evaluateTitle(keyword, in.Content, candidate), nil
	default:
		return Prompt{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

func (b *Builder) generateTitles(keyword, content string) Prompt {
	builder := strings.Builder{}
	builder.WriteString("블로그 글 내용을 깊이 분석하여 클릭을 유도하는 다양한 스타일의 제목 ")
	builder.WriteString(itoa(len(b.styles)))
	builder.WriteString("개를 생성하세요.\n\n")
	fmt.Fprintf(&builder, "**키워드:** %s\n\n", keyword)
	builder.WriteString("**글 내용:**\n")
	builder.WriteString(Truncate(content, b.limits.GenerationContent))
	builder.WriteString("\n\n**필수 조건:**\n")
	builder.WriteString("- 글의 핵심 메시지를 정확히 반영\n")
	fmt.Fprintf(&builder, "- 키워드 \"%s\"를 자연스럽게 포함\n", keyword)
	builder.WriteString("- 15-30자 길이 (이모지 제외)\n")
	builder.WriteString("- 과장 없이 정직한 표현\n")
	builder.WriteString("- 스타일마다 정확히 1개씩, 아래 순서대로 생성\n\n")
	fmt.Fprintf(&builder, "**%d가지 스타일:**\n", len(b.styles))
	for i, style := range b.styles {
		fmt.Fprintf(&builder, "%d. **%s**: %s\n", i+1, style.Name, style.Example)
	}
	fmt.Fprintf(&builder, "\nJSON 배열로 정확히 %d개 제목 반환:\n[\"제목1\", \"제목2\", ...]", len(b.styles))

	return Prompt{
		Purpose:     PurposeTitleGenerate,
		System:      "블로그 내용을 완벽히 이해하고 효과적인 제목을 만드는 전문가입니다.",
		User:        builder.String(),
		Temperature: 0.9,
		Shape:       TitleListShape,
	}
}

func (b *Builder) evaluateTitle(keyword, content, candidate string) Prompt {
	builder := strings.Builder{}
	builder.WriteString("당신은 블로그 제목의 클릭 유도력을 평가하는 전문가입니다.\n\n")
	fmt.Fprintf(&builder, "**평가 대상 제목:**\n\"%s\"\n\n", candidate)
	fmt.Fprintf(&builder, "**키워드:** %s\n\n", keyword)
	builder.WriteString("**글 내용 (일부):**\n")
	builder.WriteString(Truncate(content, b.limits.EvaluationContent))
	builder.WriteString("\n\n**평가 기준 (Semantic Similarity Rating):**\n\n")
	builder.WriteString(rubric)
	builder.WriteString("\n**추가 평가 요소:**\n")
	builder.WriteString("- 키워드 자연스러운 포함 여부\n")
	builder.WriteString("- 글 내용과의 일치도\n")
	builder.WriteString("- 과장/허위 없는 정직성\n")
	builder.WriteString("- 적절한 길이 (15-30자)\n")
	fmt.Fprintf(&builder, "- 다음과 같은 상투적 표현은 2점 이하: %s\n\n", strings.Join(BannedTitlePhrases, ", "))
	builder.WriteString("JSON 형식으로 응답:\n{\n  \"score\": 1-5 사이 점수,\n  \"reasoning\": \"평가 근거 (100자 이내)\"\n}")

	return Prompt{
		Purpose:     PurposeTitleEvaluate,
		System:      "제목의 클릭 유도력을 객관적으로 평가하는 전문가입니다.",
		User:        builder.String(),
		Temperature: 0.2,
		Shape:       TitleScoreShape,
	}
}

const rubric = `1점 (매우 낮음):
- 키워드만 있고 흥미 요소 없음
- 너무 평범하거나 검색엔진 같은 제목
- 클릭 동기 제공 안 함

2점 (낮음):
- 기본적인 정보 전달만 함
- 약간의 호기심은 있으나 부족
- 차별화 요소 없음

3점 (보통):
- 적당한 호기심 자극
- 키워드와 내용 연관성 있음
- 평균적인 클릭률 예상

4점 (높음):
- 강한 호기심 자극
- 감정적 공감 또는 문제 해결 제시
- 구체적인 가치 제안

5점 (매우 높음):
- 매우 강한 클릭 욕구 자극
- 독특한 관점이나 숨겨진 정보 암시
- 즉각적인 문제 해결 약속
`
