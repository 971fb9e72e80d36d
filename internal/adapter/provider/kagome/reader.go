package kagome

import (
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// IPA feature index of the katakana reading.
const readingFeature = 7

// Reader derives kana readings by morphological analysis. The IPA
// dictionary is loaded on first use.
type Reader struct {
	once sync.Once
	tok  *tokenizer.Tokenizer
	err  error
	log  *slog.Logger
}

// NewReader creates a Reader. The tokenizer is not built until Reading
// is first called with text that needs it.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{log: logger.With("adapter", "kagome")}
}

// Reading returns the hiragana reading of text, or "" when text has no
// kanji or any kanji token has no known reading.
func (r *Reader) Reading(text string) string {
	if !hasKanji(text) {
		return ""
	}

	r.once.Do(r.init)
	if r.err != nil {
		return ""
	}

	var b strings.Builder
	for _, token := range r.tok.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}

		features := token.Features()
		if len(features) > readingFeature && features[readingFeature] != "*" {
			b.WriteString(ToHiragana(features[readingFeature]))
			continue
		}
		if hasKanji(token.Surface) {
			r.log.Debug("no reading for token", slog.String("surface", token.Surface))
			return ""
		}
		b.WriteString(ToHiragana(token.Surface))
	}

	return b.String()
}

// Warm loads the IPA dictionary ahead of the first lookup.
func (r *Reader) Warm() {
	r.once.Do(r.init)
}

func (r *Reader) init() {
	r.tok, r.err = tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if r.err != nil {
		r.log.Warn("tokenizer init failed", slog.String("error", r.err.Error()))
	}
}

// ToHiragana converts katakana to hiragana, leaving other runes untouched.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - ('ァ' - 'ぁ')
		}
		return r
	}, s)
}

func hasKanji(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}
