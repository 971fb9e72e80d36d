package yomitan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

// envelope is the top-level reply. The service answers either with the
// envelope itself or with a one-element array holding it.
type envelope struct {
	Fields          json.RawMessage `json:"fields"`
	DictionaryMedia json.RawMessage `json:"dictionaryMedia"`
	Media           json.RawMessage `json:"media"`
}

// decodeResponse normalizes every accepted reply shape into a LookupResult:
//
//	{"fields": [entry, ...]}
//	{"fields": entry}
//	[{"fields": [entry, ...]}]
//	[entry, ...]
//
// where each entry is either {"fields": {...}} or the field map itself.
func decodeResponse(body []byte) (domain.LookupResult, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return domain.LookupResult{}, fmt.Errorf("decode response: empty body")
	}

	var env envelope
	switch body[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return domain.LookupResult{}, fmt.Errorf("decode response: %w", err)
		}
		if len(items) == 0 {
			return domain.LookupResult{}, nil
		}
		if err := json.Unmarshal(items[0], &env); err != nil || !isArray(env.Fields) {
			// A bare list of entries.
			return domain.LookupResult{Entries: decodeEntries(items)}, nil
		}
	case '{':
		if err := json.Unmarshal(body, &env); err != nil {
			return domain.LookupResult{}, fmt.Errorf("decode response: %w", err)
		}
	default:
		return domain.LookupResult{}, fmt.Errorf("decode response: unexpected %q", body[0])
	}

	result := domain.LookupResult{Media: decodeMedia(env.DictionaryMedia)}
	if len(result.Media) == 0 {
		result.Media = decodeMedia(env.Media)
	}

	fields := bytes.TrimSpace(env.Fields)
	switch {
	case len(fields) == 0:
	case fields[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(fields, &items); err != nil {
			return domain.LookupResult{}, fmt.Errorf("decode fields: %w", err)
		}
		result.Entries = decodeEntries(items)
	case fields[0] == '{':
		result.Entries = decodeEntries([]json.RawMessage{fields})
	}

	return result, nil
}

func decodeEntries(items []json.RawMessage) []domain.DictionaryEntry {
	entries := make([]domain.DictionaryEntry, 0, len(items))
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		if nested, ok := fields["fields"]; ok {
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(nested, &inner); err == nil {
				fields = inner
			}
		}
		entries = append(entries, mapEntry(fields))
	}
	return entries
}

func mapEntry(f map[string]json.RawMessage) domain.DictionaryEntry {
	glossary := text(f["glossary"])
	if glossary == "" {
		glossary = text(f["definition"])
	}
	return domain.DictionaryEntry{
		Expression:            text(f["expression"]),
		Reading:               text(f["reading"]),
		Furigana:              text(f["furigana"]),
		GlossaryHTML:          glossary,
		PitchAccentsHTML:      text(f["pitch-accents"]),
		PitchAccentCategories: text(f["pitch-accent-categories"]),
		FrequenciesRaw:        rawText(f["frequencies"]),
	}
}

// text decodes a JSON string field; anything else yields "".
func text(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// rawText decodes a JSON string, or keeps objects and arrays as JSON text.
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		return text(raw)
	}
	return string(raw)
}

// decodeMedia keeps every media item that carries a file name and content.
func decodeMedia(raw json.RawMessage) []domain.MediaItem {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	var media []domain.MediaItem
	for _, m := range items {
		item := domain.MediaItem{
			Filename:     text(m["filename"]),
			AnkiFilename: text(m["ankiFilename"]),
			Content:      text(m["content"]),
		}
		if (item.Filename == "" && item.AnkiFilename == "") || item.Content == "" {
			continue
		}
		media = append(media, item)
	}
	return media
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
