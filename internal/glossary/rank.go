package glossary

import (
	"cmp"
	"slices"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

// Score is the relevance of an entry: 2 points for a pitch accent,
// 1 point when the expression is written differently from its reading.
func Score(e domain.DictionaryEntry) int {
	score := 0
	if e.PitchAccentsHTML != "" {
		score += 2
	}
	if e.Expression != "" && e.Expression != e.Reading {
		score++
	}
	return score
}

// Rank returns a copy of entries sorted by descending Score.
// Entries with equal scores keep their original order.
func Rank(entries []domain.DictionaryEntry) []domain.DictionaryEntry {
	ranked := slices.Clone(entries)
	slices.SortStableFunc(ranked, func(a, b domain.DictionaryEntry) int {
		return cmp.Compare(Score(b), Score(a))
	})
	return ranked
}
