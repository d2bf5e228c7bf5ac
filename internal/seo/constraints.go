// Package seo measures blog drafts against numeric SEO targets.
package seo

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Code identifies a violated constraint.
type Code string

const (
	CodeLengthShort     Code = "length-too-short"
	CodeLengthLong      Code = "length-too-long"
	CodeKeywordLow      Code = "keyword-frequency-low"
	CodeKeywordHigh     Code = "keyword-frequency-high"
	CodeComponentLow    Code = "component-frequency-low"
	CodeComponentHigh   Code = "component-frequency-high"
	CodeIntroShort      Code = "intro-ratio-low"
	CodeIntroLong       Code = "intro-ratio-high"
	CodeSectionsMissing Code = "sections-missing"
	CodeTermsMissing    Code = "required-terms-missing"
)

// Targets are the accepted bands for a draft. A zero upper bound disables that check.
type Targets struct {
	MinChars      int     `json:"min_chars"`
	MaxChars      int     `json:"max_chars"`
	KeywordMin    int     `json:"keyword_min"`
	KeywordMax    int     `json:"keyword_max"`
	ComponentMin  int     `json:"component_min"`
	ComponentMax  int     `json:"component_max"`
	IntroMinRatio float64 `json:"intro_min_ratio"`
	IntroMaxRatio float64 `json:"intro_max_ratio"`
}

// DefaultTargets mirrors the ranges shown to users in the generation form.
func DefaultTargets() Targets {
	return Targets{
		MinChars:      1500,
		MaxChars:      1700,
		KeywordMin:    5,
		KeywordMax:    7,
		ComponentMin:  15,
		ComponentMax:  17,
		IntroMinRatio: 0.35,
		IntroMaxRatio: 0.40,
	}
}

// Violation describes one constraint a draft does not meet.
type Violation struct {
	Code    Code     `json:"code"`
	Subject string   `json:"subject,omitempty"`
	Actual  float64  `json:"actual"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Missing []string `json:"missing,omitempty"`
}

func (v Violation) String() string {
	if v.Subject != "" {
		return fmt.Sprintf("%s(%s)", v.Code, v.Subject)
	}
	return string(v.Code)
}

// Metrics are the raw measurements taken from a draft.
type Metrics struct {
	Characters      int            `json:"characters"`
	KeywordCount    int            `json:"keyword_count"`
	ComponentCounts map[string]int `json:"component_counts,omitempty"`
	IntroRatio      float64        `json:"intro_ratio"`
	IntroMeasured   bool           `json:"intro_measured"`
}

// CheckResult is the outcome of checking a single draft.
type CheckResult struct {
	Satisfied  bool        `json:"satisfied"`
	Violations []Violation `json:"violations"`
	Metrics    Metrics     `json:"metrics"`
}

// Codes returns the distinct violated constraint identifiers in check order.
func (r CheckResult) Codes() []Code {
	seen := make(map[Code]struct{}, len(r.Violations))
	codes := make([]Code, 0, len(r.Violations))
	for _, v := range r.Violations {
		if _, ok := seen[v.Code]; ok {
			continue
		}
		seen[v.Code] = struct{}{}
		codes = append(codes, v.Code)
	}
	return codes
}

// Has reports whether the code is among the violations.
func (r CheckResult) Has(code Code) bool {
	for _, v := range r.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

// Input is a draft plus the context needed to measure it.
type Input struct {
	Content       string
	Keyword       string
	Components    []string // overrides the automatic keyword decomposition when non-empty
	Subtitles     []string
	RequiredTerms []string
}

// Checker evaluates drafts against fixed targets.
type Checker struct {
	targets Targets
}

// NewChecker builds a checker for the supplied targets.
func NewChecker(targets Targets) *Checker {
	return &Checker{targets: targets}
}

// Targets returns the bands this checker enforces.
func (c *Checker) Targets() Targets {
	return c.targets
}

// Check measures the draft and lists every violated constraint.
func (c *Checker) Check(in Input) CheckResult {
	t := c.targets
	var violations []Violation

	chars := CountCharacters(in.Content)
	if t.MinChars > 0 && chars < t.MinChars {
		violations = append(violations, bandViolation(CodeLengthShort, "", chars, t.MinChars, t.MaxChars))
	}
	if t.MaxChars > 0 && chars > t.MaxChars {
		violations = append(violations, bandViolation(CodeLengthLong, "", chars, t.MinChars, t.MaxChars))
	}

	keywordCount := 0
	if strings.TrimSpace(in.Keyword) != "" {
		keywordCount = CountOccurrences(in.Content, in.Keyword)
		if keywordCount < t.KeywordMin {
			violations = append(violations, bandViolation(CodeKeywordLow, in.Keyword, keywordCount, t.KeywordMin, t.KeywordMax))
		}
		if t.KeywordMax > 0 && keywordCount > t.KeywordMax {
			violations = append(violations, bandViolation(CodeKeywordHigh, in.Keyword, keywordCount, t.KeywordMin, t.KeywordMax))
		}
	}

	components := in.Components
	if len(components) == 0 {
		components = KeywordComponents(in.Keyword)
	}
	var componentCounts map[string]int
	if len(components) > 0 {
		componentCounts = make(map[string]int, len(components))
	}
	for _, component := range components {
		count := CountOccurrences(in.Content, component)
		componentCounts[component] = count
		if count < t.ComponentMin {
			violations = append(violations, bandViolation(CodeComponentLow, component, count, t.ComponentMin, t.ComponentMax))
		}
		if t.ComponentMax > 0 && count > t.ComponentMax {
			violations = append(violations, bandViolation(CodeComponentHigh, component, count, t.ComponentMin, t.ComponentMax))
		}
	}

	metrics := Metrics{
		Characters:      chars,
		KeywordCount:    keywordCount,
		ComponentCounts: componentCounts,
	}

	if len(in.Subtitles) > 0 {
		ratio, missing, found := IntroRatio(in.Content, in.Subtitles)
		if len(missing) > 0 {
			violations = append(violations, Violation{
				Code:    CodeSectionsMissing,
				Actual:  float64(len(in.Subtitles) - len(missing)),
				Min:     float64(len(in.Subtitles)),
				Max:     float64(len(in.Subtitles)),
				Missing: missing,
			})
		}
		if found {
			metrics.IntroRatio = ratio
			metrics.IntroMeasured = true
			if t.IntroMinRatio > 0 && ratio < t.IntroMinRatio {
				violations = append(violations, Violation{Code: CodeIntroShort, Actual: ratio, Min: t.IntroMinRatio, Max: t.IntroMaxRatio})
			}
			if t.IntroMaxRatio > 0 && ratio > t.IntroMaxRatio {
				violations = append(violations, Violation{Code: CodeIntroLong, Actual: ratio, Min: t.IntroMinRatio, Max: t.IntroMaxRatio})
			}
		}
	}

	if missing := MissingTerms(in.Content, in.RequiredTerms); len(missing) > 0 {
		violations = append(violations, Violation{
			Code:    CodeTermsMissing,
			Actual:  float64(len(in.RequiredTerms) - len(missing)),
			Min:     float64(len(in.RequiredTerms)),
			Max:     float64(len(in.RequiredTerms)),
			Missing: missing,
		})
	}

	return CheckResult{
		Satisfied:  len(violations) == 0,
		Violations: violations,
		Metrics:    metrics,
	}
}

func bandViolation(code Code, subject string, actual, min, max int) Violation {
	return Violation{Code: code, Subject: subject, Actual: float64(actual), Min: float64(min), Max: float64(max)}
}

// CountCharacters counts runes excluding whitespace.
func CountCharacters(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

// CountOccurrences counts non-overlapping, case-insensitive occurrences of term.
// Occurrences inside longer words count, so particles attached to a keyword are accepted.
func CountOccurrences(content, term string) int {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return 0
	}
	return strings.Count(strings.ToLower(content), term)
}

// MissingTerms lists the required terms absent from content, in input order.
func MissingTerms(content string, terms []string) []string {
	lower := strings.ToLower(content)
	var missing []string
	for _, term := range terms {
		trimmed := strings.TrimSpace(term)
		if trimmed == "" {
			continue
		}
		if !strings.Contains(lower, strings.ToLower(trimmed)) {
			missing = append(missing, trimmed)
		}
	}
	return missing
}

// KeywordComponents splits a keyword into the parts whose frequency is tracked
// separately: whitespace-separated words, further split where Hangul meets Latin
// letters or digits. Parts made only of digits are dropped since they match inside
// unrelated numbers. A keyword that does not split yields no components.
func KeywordComponents(keyword string) []string {
	var components []string
	seen := map[string]struct{}{}

	add := func(part string) {
		if part == "" {
			return
		}
		if isHangul(firstRune(part)) && utf8.RuneCountInString(part) < 2 {
			return
		}
		if isDigits(part) {
			return
		}
		key := strings.ToLower(part)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		components = append(components, part)
	}

	for _, field := range strings.Fields(keyword) {
		var current []rune
		for _, r := range field {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				add(string(current))
				current = current[:0]
				continue
			}
			if len(current) > 0 && isHangul(current[len(current)-1]) != isHangul(r) {
				add(string(current))
				current = current[:0]
			}
			current = append(current, r)
		}
		add(string(current))
	}

	if len(components) == 1 && strings.EqualFold(components[0], strings.TrimSpace(keyword)) {
		return nil
	}
	return components
}

// IntroRatio locates subtitle headings in content and returns the share of
// non-whitespace characters that precede the first one. A line is a heading when,
// stripped of markdown markers, it equals the subtitle. missing lists subtitles
// that never appear on a line of their own; found is false when none appear.
func IntroRatio(content string, subtitles []string) (ratio float64, missing []string, found bool) {
	lines := strings.Split(content, "\n")
	firstHeading := -1

	for _, subtitle := range subtitles {
		needle := strings.ToLower(strings.TrimSpace(subtitle))
		if needle == "" {
			continue
		}
		needle = headingText(needle)
		index := -1
		for i, line := range lines {
			if strings.EqualFold(headingText(line), needle) {
				index = i
				break
			}
		}
		if index < 0 {
			missing = append(missing, strings.TrimSpace(subtitle))
			continue
		}
		if firstHeading < 0 || index < firstHeading {
			firstHeading = index
		}
	}

	if firstHeading < 0 {
		return 0, missing, false
	}

	total := CountCharacters(content)
	if total == 0 {
		return 0, missing, true
	}
	intro := CountCharacters(strings.Join(lines[:firstHeading], "\n"))
	return float64(intro) / float64(total), missing, true
}

// headingText strips heading markers, emphasis, list numbering and a trailing
// colon from a line.
func headingText(line string) string {
	text := strings.TrimSpace(line)
	for {
		before := text
		text = strings.TrimLeft(text, "#>")
		text = strings.TrimSpace(text)
		for _, mark := range []string{"**", "__"} {
			if strings.HasPrefix(text, mark) && strings.HasSuffix(text, mark) && len(text) >= 2*len(mark) {
				text = strings.TrimSpace(text[len(mark) : len(text)-len(mark)])
			}
		}
		text = trimListMarker(text)
		text = strings.TrimSpace(strings.TrimRight(text, ":："))
		if text == before {
			return text
		}
	}
}

// trimListMarker removes a leading "-", "*", "1." or "1)" marker.
func trimListMarker(text string) string {
	if strings.HasPrefix(text, "- ") || strings.HasPrefix(text, "* ") {
		return text[2:]
	}
	digits := 0
	for digits < len(text) && text[digits] >= '0' && text[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits+1 >= len(text) {
		return text
	}
	if (text[digits] == '.' || text[digits] == ')') && text[digits+1] == ' ' {
		return text[digits+2:]
	}
	return text
}

func isHangul(r rune) bool {
	return unicode.Is(unicode.Hangul, r)
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
