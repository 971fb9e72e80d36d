// Package overlay holds the state of the lookup shown in the popup and
// renders it into views.
package overlay

import (
	"html"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
	"github.com/heartmarshall/yomipv-lookup/internal/glossary"
)

// Reader derives a reading for a term when the dictionary gave none.
type Reader interface {
	Reading(text string) string
}

// Session is the state of the current lookup. It is replaced wholesale by
// Begin and is not safe for concurrent use.
type Session struct {
	reader Reader

	request domain.LookupRequest
	entries []domain.DictionaryEntry
	media   []domain.MediaItem
	index   int
	body    string

	sequence uint64
	active   domain.ActiveEntry
}

// NewSession creates an empty Session. reader may be nil.
func NewSession(reader Reader) *Session {
	return &Session{reader: reader}
}

// Begin starts a new lookup and returns the loading view.
func (s *Session) Begin(req domain.LookupRequest) View {
	s.request = req
	s.entries = nil
	s.media = nil
	s.index = 0
	s.body = ""
	s.active = domain.ActiveEntry{}

	return View{
		Header: glossary.HeaderHTML(req.Term, req.Reading, "", nil),
		Body:   loadingBody,
		Status: StatusLoading,
	}
}

// Request returns the lookup being shown.
func (s *Session) Request() domain.LookupRequest {
	return s.request
}

// Load installs a lookup result, ranks its entries and renders the first.
func (s *Session) Load(result domain.LookupResult) View {
	s.entries = glossary.Rank(result.Entries)
	s.media = result.Media
	s.index = 0
	return s.render()
}

// Fail renders a lookup error inline.
func (s *Session) Fail(err error) View {
	s.entries = nil
	s.media = nil
	s.body = ""
	s.active = domain.ActiveEntry{}

	return View{
		Header: glossary.HeaderHTML(s.request.Term, s.request.Reading, "", nil),
		Body:   "Error fetching from Yomitan: " + html.EscapeString(err.Error()),
		Status: StatusError,
	}
}

// Next moves to the following entry, wrapping around. ok is false when
// there is nothing to navigate.
func (s *Session) Next() (View, bool) {
	return s.move(1)
}

// Prev moves to the previous entry, wrapping around.
func (s *Session) Prev() (View, bool) {
	return s.move(-1)
}

func (s *Session) move(step int) (View, bool) {
	n := len(s.entries)
	if n == 0 {
		return View{}, false
	}
	s.index = ((s.index+step)%n + n) % n
	return s.render(), true
}

// Active returns the entry last rendered. Sequence is zero before the
// first render of a lookup.
func (s *Session) Active() domain.ActiveEntry {
	return s.active
}

// StyleSheet returns the style rules of the glossary currently shown.
func (s *Session) StyleSheet() string {
	return glossary.StyleSheet(s.body)
}

func (s *Session) render() View {
	count := len(s.entries)
	if count == 0 || !s.entries[s.index].HasGlossary() {
		s.body = ""
		s.active = domain.ActiveEntry{}
		return View{
			Header: glossary.HeaderHTML(s.request.Term, s.request.Reading, "", nil),
			Body:   `No result found for "` + html.EscapeString(s.request.Term) + `".`,
			Index:  s.index,
			Count:  count,
			Status: StatusEmpty,
		}
	}

	entry := s.entries[s.index]

	term := entry.Expression
	if term == "" {
		term = s.request.Term
	}

	reading := glossary.ResolveReading(entry, s.request.Reading)
	if reading == "" && s.reader != nil {
		reading = s.reader.Reading(term)
	}

	var freqs []domain.FrequencyRecord
	if s.request.ShowFrequencies {
		freqs = glossary.AggregateFrequencies(s.entries, entry)
	}

	body, err := glossary.Format(entry.GlossaryHTML, s.media)
	if err != nil {
		body = html.EscapeString(entry.GlossaryHTML)
	}
	s.body = body

	plainReading := entry.Reading
	if plainReading == "" {
		plainReading = s.request.Reading
	}
	s.sequence++
	s.active = domain.ActiveEntry{
		Expression: term,
		Reading:    plainReading,
		Index:      s.index,
		Count:      count,
		Sequence:   s.sequence,
	}

	return View{
		Header:     glossary.HeaderHTML(term, reading, entry.Furigana, freqs),
		Body:       body,
		PitchColor: glossary.PitchColor(entry.PitchAccentCategories),
		Index:      s.index,
		Count:      count,
		Status:     StatusReady,
	}
}
