package domain

import (
	"strings"
	"unicode"
)

// CollapseSpace trims text and compresses every run of whitespace
// (including newlines and tabs) into a single ASCII space.
func CollapseSpace(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if prevSpace {
				continue
			}
			prevSpace = true
			b.WriteByte(' ')
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
