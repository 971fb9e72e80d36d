package domain

// LookupRequest is one "show term" command sent by mpv to the relay.
// It is immutable once decoded.
type LookupRequest struct {
	Term            string `json:"term"`
	Reading         string `json:"reading,omitempty"`
	ShowFrequencies bool   `json:"showFrequencies,omitempty"`
}

// Validate reports whether the request carries a term to look up.
func (r LookupRequest) Validate() error {
	if r.Term == "" {
		return NewValidationError("term", "required")
	}
	return nil
}

// DictionaryEntry is one candidate match returned by the dictionary service.
type DictionaryEntry struct {
	Expression            string
	Reading               string
	Furigana              string
	GlossaryHTML          string
	PitchAccentsHTML      string
	PitchAccentCategories string
	// FrequenciesRaw is either embedded JSON or free-form HTML/text.
	FrequenciesRaw string
}

// HasGlossary reports whether the entry has any definition body to render.
func (e DictionaryEntry) HasGlossary() bool {
	return e.GlossaryHTML != ""
}

// FrequencyRecord is one badge in the popup header.
type FrequencyRecord struct {
	Dictionary string `json:"dictionary"`
	Frequency  string `json:"frequency"`
}

// MediaItem is an embedded file supplied with a lookup result.
type MediaItem struct {
	Filename     string `json:"filename"`
	AnkiFilename string `json:"ankiFilename,omitempty"`
	// Content is base64 encoded.
	Content string `json:"content"`
}

// LookupResult is the normalized response of a single dictionary lookup.
type LookupResult struct {
	Entries []DictionaryEntry
	Media   []MediaItem
}

// ActiveEntry identifies the entry currently rendered in the popup.
type ActiveEntry struct {
	Expression string `json:"expression"`
	Reading    string `json:"reading"`
	Index      int    `json:"index"`
	Count      int    `json:"count"`
	Sequence   uint64 `json:"sequence"`
}
