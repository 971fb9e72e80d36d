package glossary

import (
	"regexp"
	"strings"
)

var pitchColors = map[string]string{
	"atamadaka": "var(--pitch-red)",
	"heiban":    "var(--pitch-blue)",
	"nakadaka":  "var(--pitch-orange)",
	"odaka":     "var(--pitch-green)",
	"kifuku":    "var(--pitch-purple)",
}

var categorySeparator = regexp.MustCompile(`[\s,]+`)

// PitchColor maps a pitch accent category list such as "Nakadaka, Heiban"
// to the display color of the first recognized category. It returns ""
// when nothing matches, which clears any previous color.
func PitchColor(categories string) string {
	for _, c := range categorySeparator.Split(categories, -1) {
		if color, ok := pitchColors[strings.ToLower(c)]; ok {
			return color
		}
	}
	return ""
}
