package glossary

import (
	"html"
	"regexp"
	"strings"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

var furiganaPattern = regexp.MustCompile(`([^\[\]]+)\[([^\[\]]+)\]`)

// FuriganaHTML converts bracket furigana such as "漢字[かんじ]" into ruby markup.
func FuriganaHTML(furigana string) string {
	return furiganaPattern.ReplaceAllString(furigana, "<ruby>$1<rt>$2</rt></ruby>")
}

// HeaderHTML renders the popup header for a term. Bracket furigana wins,
// then a ruby reading when it differs from the term, then the bare term.
// reading may already contain markup taken from a pitch accent list.
func HeaderHTML(term, reading, furigana string, freqs []domain.FrequencyRecord) string {
	term = strings.TrimSpace(term)

	var display string
	switch {
	case strings.Contains(furigana, "["):
		display = FuriganaHTML(furigana)
	case reading != "" && reading != term:
		display = "<ruby>" + html.EscapeString(term) + "<rt>" + reading + "</rt></ruby>"
	default:
		display = `<div class="term-expression">` + html.EscapeString(term) + "</div>"
	}

	var b strings.Builder
	b.WriteString(`<div class="term-display">`)
	b.WriteString(display)
	b.WriteString(`</div><div class="header-frequencies">`)
	b.WriteString(FrequencyBadgesHTML(freqs))
	b.WriteString(`</div>`)
	return b.String()
}

// FrequencyBadgesHTML renders one badge per frequency record.
func FrequencyBadgesHTML(freqs []domain.FrequencyRecord) string {
	if len(freqs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div class="frequency-badges" style="margin: 0;">`)
	for _, f := range freqs {
		b.WriteString(`<div class="frequency-badge"><span class="frequency-dict">`)
		b.WriteString(f.Dictionary)
		b.WriteString(`</span><span class="frequency-value">`)
		b.WriteString(f.Frequency)
		b.WriteString(`</span></div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}
