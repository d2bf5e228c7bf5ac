package prompt

import (
	"fmt"
	"strings"

	"github.com/noah-isme/seoblog-api/internal/models"
	"github.com/noah-isme/seoblog-api/internal/seo"
)

const draftSystem = `당신은 전문 SEO 블로그 라이터입니다. 복사해서 바로 게시할 수 있는 완성된 블로그 포스트만 작성하세요.

금지 사항:
- 대화형 인사말 ("안녕하세요", "여러분" 등)
- 질문-답변 형식이나 상담 내용
- "이번 포스팅에서는", "살펴보겠습니다" 같은 메타 언급
- 마크다운 문법

준수 사항:
- 자연스러운 블로그 어투 (~합니다, ~때문이죠, ~신가요?)
- 구조: 서론 → 본론(소제목 4개) → 결론
- 소제목은 주어진 문구 그대로 한 줄에 작성
- 연구 자료에 근거한 실용적 정보와 구체적 예시`

// DraftInput carries everything a draft prompt embeds.
type DraftInput struct {
	Keyword       string
	Subtitles     []string
	Research      models.ResearchData
	Business      models.BusinessInfo
	RequiredTerms []string
	Targets       seo.Targets
	Components    []string
	Attempt       int
	Corrections   []seo.Violation
	PreviousDraft string
}

// Draft builds the content generation prompt. From the second attempt on, each
// violation of the previous draft becomes one corrective instruction.
func (b *Builder) Draft(in DraftInput) (Prompt, error) {
	keyword := strings.TrimSpace(in.Keyword)
	if keyword == "" {
		return Prompt{}, ErrEmptyKeyword
	}
	t := in.Targets

	builder := strings.Builder{}
	builder.WriteString("정보성 블로그 글을 작성하세요.\n\n")
	fmt.Fprintf(&builder, "키워드: \"%s\"\n\n", keyword)
	if len(in.Subtitles) > 0 {
		builder.WriteString("소제목:\n")
		builder.WriteString(numbered(in.Subtitles))
		builder.WriteString("\n\n")
	}
	if in.Research.Content != "" {
		builder.WriteString("연구자료:\n")
		builder.WriteString(in.Research.Content)
		builder.WriteString("\n\n")
	}
	for _, ref := range in.Research.References {
		fmt.Fprintf(&builder, "참고 블로그 (%s): %s\n", ref.Purpose, Truncate(ref.Excerpt, 600))
	}
	if in.Business.BusinessName != "" {
		fmt.Fprintf(&builder, "업체: %s(%s)\n", in.Business.BusinessName, in.Business.BusinessType)
		fmt.Fprintf(&builder, "전문성: %s\n", in.Business.Expertise)
		fmt.Fprintf(&builder, "차별점: %s\n\n", in.Business.Differentiators)
	}

	builder.WriteString("SEO 조건:\n")
	if t.MaxChars > 0 {
		fmt.Fprintf(&builder, "- 공백 제외 %d-%d자\n", t.MinChars, t.MaxChars)
	}
	if t.KeywordMax > 0 {
		fmt.Fprintf(&builder, "- 키워드 \"%s\" 전체를 %d-%d회 사용\n", keyword, t.KeywordMin, t.KeywordMax)
	}
	if t.ComponentMax > 0 {
		for _, component := range in.Components {
			fmt.Fprintf(&builder, "- 형태소 \"%s\"를 %d-%d회 사용 (초과 시 동의어로 대체)\n", component, t.ComponentMin, t.ComponentMax)
		}
	}
	if t.IntroMaxRatio > 0 && len(in.Subtitles) > 0 {
		fmt.Fprintf(&builder, "- 첫 소제목 전까지의 서론이 전체의 %s-%s 차지\n", percent(t.IntroMinRatio), percent(t.IntroMaxRatio))
	}
	if len(in.RequiredTerms) > 0 {
		fmt.Fprintf(&builder, "- 다음 단어를 반드시 포함: %s\n", strings.Join(in.RequiredTerms, ", "))
	}

	if len(in.Corrections) > 0 {
		fmt.Fprintf(&builder, "\n이전 초안(%d차 시도)은 다음 조건을 지키지 못했습니다. 반드시 수정하세요:\n", in.Attempt-1)
		for _, v := range in.Corrections {
			builder.WriteString("- ")
			builder.WriteString(CorrectionLine(keyword, v))
			builder.WriteString("\n")
		}
		if in.PreviousDraft != "" {
			builder.WriteString("\n이전 초안:\n")
			builder.WriteString(in.PreviousDraft)
			builder.WriteString("\n")
		}
	}
	builder.WriteString("\n완성된 블로그 글 본문만 일반 텍스트로 출력하세요.")

	return Prompt{
		Purpose:     PurposeDraft,
		System:      draftSystem,
		User:        builder.String(),
		Temperature: 0.7,
	}, nil
}

// CorrectionLine renders one violation as a targeted instruction quoting the
// measured value and the accepted band.
func CorrectionLine(keyword string, v seo.Violation) string {
	switch v.Code {
	case seo.CodeLengthShort:
		return fmt.Sprintf("공백 제외 글자수가 %d자로 부족합니다. %d-%d자가 되도록 본문을 보강하세요.", int(v.Actual), int(v.Min), int(v.Max))
	case seo.CodeLengthLong:
		return fmt.Sprintf("공백 제외 글자수가 %d자로 초과되었습니다. %d-%d자가 되도록 줄이세요.", int(v.Actual), int(v.Min), int(v.Max))
	case seo.CodeKeywordLow:
		return fmt.Sprintf("키워드 \"%s\"가 %d회뿐입니다. %d-%d회로 늘리세요.", keyword, int(v.Actual), int(v.Min), int(v.Max))
	case seo.CodeKeywordHigh:
		return fmt.Sprintf("키워드 \"%s\"가 %d회로 과다합니다. %d-%d회로 줄이세요.", keyword, int(v.Actual), int(v.Min), int(v.Max))
	case seo.CodeComponentLow:
		return fmt.Sprintf("형태소 \"%s\"가 %d회뿐입니다. %d-%d회로 늘리세요.", v.Subject, int(v.Actual), int(v.Min), int(v.Max))
	case seo.CodeComponentHigh:
		return fmt.Sprintf("형태소 \"%s\"가 %d회로 과다합니다. 동의어로 바꿔 %d-%d회로 줄이세요.", v.Subject, int(v.Actual), int(v.Min), int(v.Max))
	case seo.CodeIntroShort:
		return fmt.Sprintf("서론 비중이 %s로 짧습니다. 전체의 %s-%s가 되도록 서론을 늘리세요.", percent(v.Actual), percent(v.Min), percent(v.Max))
	case seo.CodeIntroLong:
		return fmt.Sprintf("서론 비중이 %s로 깁니다. 전체의 %s-%s가 되도록 서론을 줄이세요.", percent(v.Actual), percent(v.Min), percent(v.Max))
	case seo.CodeSectionsMissing:
		return fmt.Sprintf("다음 소제목이 본문에 없습니다: %s. 주어진 문구 그대로 사용하세요.", strings.Join(v.Missing, ", "))
	case seo.CodeTermsMissing:
		return fmt.Sprintf("다음 필수 단어가 빠졌습니다: %s.", strings.Join(v.Missing, ", "))
	default:
		return fmt.Sprintf("조건 %s를 충족하도록 수정하세요.", v.String())
	}
}

// EditInput is a user instruction applied to an existing post.
type EditInput struct {
	Keyword     string
	Content     string
	Instruction string
}

// Edit builds the instruction-driven rewrite prompt.
func (b *Builder) Edit(in EditInput) (Prompt, error) {
	if strings.TrimSpace(in.Keyword) == "" {
		return Prompt{}, ErrEmptyKeyword
	}

	builder := strings.Builder{}
	builder.WriteString("아래 블로그 글을 요청에 맞게 수정하세요.\n\n")
	fmt.Fprintf(&builder, "요청: %s\n\n", strings.TrimSpace(in.Instruction))
	fmt.Fprintf(&builder, "키워드 \"%s\"의 사용 횟수와 전체 분량은 가능한 유지하세요.\n\n", in.Keyword)
	builder.WriteString("원문:\n")
	builder.WriteString(in.Content)
	builder.WriteString("\n\n수정된 글 전체만 일반 텍스트로 출력하세요.")

	return Prompt{
		Purpose:     PurposeEdit,
		System:      draftSystem,
		User:        builder.String(),
		Temperature: 0.5,
	}, nil
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}
