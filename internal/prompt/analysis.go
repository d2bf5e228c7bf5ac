package prompt

import (
	"fmt"
	"strings"
)

// SubtitleCount is the number of body sections a post is planned around.
const SubtitleCount = 4

// KeywordAnalysis builds the prompt that derives search intent and an outline.
func (b *Builder) KeywordAnalysis(keyword string) (Prompt, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Prompt{}, ErrEmptyKeyword
	}

	builder := strings.Builder{}
	fmt.Fprintf(&builder, "키워드 \"%s\"를 검색하는 사용자를 분석하세요.\n\n", keyword)
	builder.WriteString("1. search_intent: 검색 의도 (2-3문장)\n")
	builder.WriteString("2. user_concerns: 사용자가 겪는 주요 고민과 어려움\n")
	fmt.Fprintf(&builder, "3. subtitles: 블로그 본문 소제목 정확히 %d개 (각 20자 이내, 키워드 관련)\n\n", SubtitleCount)
	builder.WriteString("JSON 형식으로 응답:\n")
	builder.WriteString(`{"search_intent": "...", "user_concerns": "...", "subtitles": ["...", "...", "...", "..."]}`)

	return Prompt{
		Purpose:     PurposeKeywordAnalysis,
		System:      "한국어 검색 사용자의 의도를 분석하는 SEO 전문가입니다.",
		User:        builder.String(),
		Temperature: 0.4,
		Shape:       KeywordAnalysisShape,
	}, nil
}

// FallbackSubtitles is the outline used when keyword analysis is unavailable.
func FallbackSubtitles(keyword string) []string {
	return []string{
		keyword + "의 기본 개념",
		keyword + " 선택 시 고려사항",
		keyword + " 활용 방법",
		keyword + " 주의사항과 팁",
	}
}

// Research builds the prompt that collects factual material for each subtitle.
func (b *Builder) Research(keyword string, subtitles []string) (Prompt, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Prompt{}, ErrEmptyKeyword
	}

	builder := strings.Builder{}
	fmt.Fprintf(&builder, "\"%s\"에 대한 블로그 글의 근거 자료를 조사하세요.\n\n", keyword)
	if len(subtitles) > 0 {
		builder.WriteString("다룰 소제목:\n")
		builder.WriteString(numbered(subtitles))
		builder.WriteString("\n\n")
	}
	builder.WriteString("- 소제목별로 신뢰할 수 있는 사실, 수치, 사례를 정리\n")
	builder.WriteString("- 출처는 citations 배열에 URL 또는 기관명으로 기재\n\n")
	builder.WriteString("JSON 형식으로 응답:\n")
	builder.WriteString(`{"content": "조사 내용", "citations": ["출처1", "출처2"]}`)

	return Prompt{
		Purpose:     PurposeResearch,
		System:      "정확한 최신 정보를 제공하는 리서치 전문가입니다.",
		User:        builder.String(),
		Temperature: 0.3,
		Shape:       ResearchShape,
	}, nil
}

// Image renders the infographic prompt for one subtitle.
func (b *Builder) Image(keyword, subtitle string) string {
	return fmt.Sprintf(
		"Clean flat infographic illustrating \"%s\" for a Korean blog post about \"%s\". "+
			"Simple icons, soft colors, no text, no watermark.",
		subtitle, keyword,
	)
}
