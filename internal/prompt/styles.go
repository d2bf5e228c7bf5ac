package prompt

import "strconv"

// Style is one framing the generator must produce exactly one title for.
type Style struct {
	Name    string `json:"name"`
	Example string `json:"example"`
}

// TitleStyleCount is the number of styles in a generation batch.
const TitleStyleCount = 25

// TitleStyles lists the generation styles. The position of a style is the origin
// of the title written in that style.
func TitleStyles() []Style {
	return []Style{
		{Name: "질문형 - 호기심", Example: `"~인가요?", "왜 ~일까요?"`},
		{Name: "질문형 - 반문", Example: `"아직도 ~하시나요?", "정말 ~할까요?"`},
		{Name: "숫자형 - 리스트", Example: `"~가지 방법", "TOP 5"`},
		{Name: "숫자형 - 통계", Example: `"90%가 모르는", "3명 중 1명이"`},
		{Name: "비밀형 - 전문가", Example: `"전문가만 아는", "숨겨진 비밀"`},
		{Name: "비밀형 - 내부자", Example: `"업계가 숨기는", "아무도 알려주지 않는"`},
		{Name: "경고형 - 주의", Example: `"꼭 알아야 할", "반드시 확인"`},
		{Name: "경고형 - 위험", Example: `"하지 마세요", "피해야 할"`},
		{Name: "효과형 - 즉시", Example: `"~만으로도", "단 7일만에"`},
		{Name: "효과형 - 극대화", Example: `"2배로 늘리는", "30% 절감"`},
		{Name: "비교형 - 전후", Example: `"전과 후", "Before & After"`},
		{Name: "비교형 - 대결", Example: `"A vs B", "어떤 것이 더"`},
		{Name: "실패형 - 후회", Example: `"후회하는 이유", "실패한 사람들의 공통점"`},
		{Name: "실패형 - 함정", Example: `"이 실수만은", "놓치면 안 될"`},
		{Name: "성공형 - 사례", Example: `"성공한 사람들의 비밀", "이렇게 해결했습니다"`},
		{Name: "성공형 - 검증", Example: `"입증된 방법", "실제로 효과 본"`},
		{Name: "시간형 - 긴급", Example: `"지금 바로", "오늘부터"`},
		{Name: "시간형 - 트렌드", Example: `"올해 최신", "요즘 대세는"`},
		{Name: "감정형 - 공감", Example: `"당신만 그런 게 아닙니다", "누구나 겪는"`},
		{Name: "감정형 - 위로", Example: `"괜찮습니다", "걱정 끝"`},
		{Name: "권위형 - 전문성", Example: `"전문가 추천", "의사가 말하는"`},
		{Name: "권위형 - 검증", Example: `"과학적으로 증명된", "연구 결과"`},
		{Name: "초보형 - 가이드", Example: `"초보자를 위한", "처음 시작하는"`},
		{Name: "초보형 - 단계", Example: `"단계별 가이드", "따라하기만 하면"`},
		{Name: "반전형 - 상식파괴", Example: `"사실은 ~였다", "진실은 달랐다"`},
	}
}

// StyleName returns the style for a 1-based origin, or "" when out of range.
func StyleName(origin int) string {
	styles := TitleStyles()
	if origin < 1 || origin > len(styles) {
		return ""
	}
	return styles[origin-1].Name
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
