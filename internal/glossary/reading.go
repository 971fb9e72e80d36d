package glossary

import (
	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

// ResolveReading picks the reading shown in the header: the first pitch
// accent list item, then the entry's reading, then the requested reading.
// An empty result means none of them was available.
func ResolveReading(e domain.DictionaryEntry, requested string) string {
	if item := firstPitchItem(e.PitchAccentsHTML); item != "" {
		return item
	}
	if e.Reading != "" {
		return e.Reading
	}
	return requested
}

func firstPitchItem(pitchHTML string) string {
	if pitchHTML == "" {
		return ""
	}
	doc, err := parseFragment(pitchHTML)
	if err != nil {
		return ""
	}
	li := doc.Find("li").First()
	if li.Length() == 0 {
		return ""
	}
	inner, err := li.Html()
	if err != nil {
		return ""
	}
	return inner
}
