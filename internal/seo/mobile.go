package seo

import (
	"strings"
	"unicode/utf8"
)

// DefaultMobileWidth is the line width, in runes, used for mobile copies.
const DefaultMobileWidth = 22

// FormatForMobile word-wraps every line of content to at most width runes.
// Existing line breaks are kept; words longer than width stay on their own line.
func FormatForMobile(content string, width int) string {
	if width <= 0 {
		width = DefaultMobileWidth
	}

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		current := ""
		for _, word := range words {
			if current == "" {
				current = word
				continue
			}
			if utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width {
				current += " " + word
				continue
			}
			out = append(out, current)
			current = word
		}
		out = append(out, current)
	}

	return strings.Join(out, "\n")
}
