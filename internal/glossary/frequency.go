package glossary

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

const genericFrequencyLabel = "Freq"

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	pairPattern     = regexp.MustCompile(`([^:,()]+):\s*((?:[^:,()]|,\d)+)`)
	colonSeparator  = regexp.MustCompile(`:\s*`)
	frequencySuffix = []string{" Jiten", " Wikipedia", " Ranked", " Info"}
)

// AggregateFrequencies builds the header badges for target from every entry
// sharing its expression and reading. Values for a dictionary seen twice are
// appended, comma separated, unless already present.
func AggregateFrequencies(entries []domain.DictionaryEntry, target domain.DictionaryEntry) []domain.FrequencyRecord {
	var out []domain.FrequencyRecord
	index := make(map[string]int)

	for _, e := range entries {
		if e.FrequenciesRaw == "" {
			continue
		}
		if e.Expression != target.Expression || e.Reading != target.Reading {
			continue
		}

		for _, rec := range ParseFrequencies(e.FrequenciesRaw) {
			dict, freq := cleanFrequency(rec)
			if dict == "" || freq == "" {
				continue
			}
			if i, ok := index[dict]; ok {
				if !strings.Contains(out[i].Frequency, freq) {
					out[i].Frequency += ", " + freq
				}
				continue
			}
			index[dict] = len(out)
			out = append(out, domain.FrequencyRecord{Dictionary: dict, Frequency: freq})
		}
	}

	return out
}

// ParseFrequencies extracts (dictionary, frequency) pairs from a raw
// frequency field. Embedded JSON objects or arrays win over text parsing.
func ParseFrequencies(raw string) []domain.FrequencyRecord {
	if recs, ok := parseFrequencyJSON(raw); ok {
		return recs
	}
	return parseFrequencyText(raw)
}

func cleanFrequency(rec domain.FrequencyRecord) (string, string) {
	dict := strings.TrimSpace(tagPattern.ReplaceAllString(rec.Dictionary, ""))
	freq := strings.TrimSpace(tagPattern.ReplaceAllString(rec.Frequency, ""))

	if n := len(dict); n > 0 && len(freq) >= n && strings.EqualFold(freq[len(freq)-n:], dict) {
		freq = strings.TrimSpace(freq[:len(freq)-n])
	}
	for _, s := range frequencySuffix {
		if strings.HasSuffix(freq, s) {
			freq = strings.TrimSpace(strings.TrimSuffix(freq, s))
		}
	}

	return dict, freq
}

func parseFrequencyJSON(raw string) ([]domain.FrequencyRecord, bool) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}

	var items []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, false
		}
	} else {
		if !json.Valid(trimmed) {
			return nil, false
		}
		items = []json.RawMessage{trimmed}
	}

	var out []domain.FrequencyRecord
	for _, item := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil {
			continue
		}
		out = append(out, domain.FrequencyRecord{
			Dictionary: jsonScalar(fields["dictionary"]),
			Frequency:  jsonScalar(fields["frequency"]),
		})
	}
	return out, true
}

// jsonScalar renders a JSON string or number as text. Objects carrying a
// displayValue or value are unwrapped one level.
func jsonScalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return ""
		}
		if v := jsonScalar(obj["displayValue"]); v != "" {
			return v
		}
		return jsonScalar(obj["value"])
	case '[', 'n', 't', 'f':
		return ""
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		return n.String()
	}
}

func parseFrequencyText(raw string) []domain.FrequencyRecord {
	clean := tagPattern.ReplaceAllString(raw, " ")
	clean = strings.ReplaceAll(clean, "&nbsp;", " ")
	clean = domain.CollapseSpace(clean)

	if pairs := extractPairs(clean); len(pairs) > 0 {
		return pairs
	}
	if strings.Contains(clean, ":") {
		parts := colonSeparator.Split(clean, -1)
		return []domain.FrequencyRecord{{
			Dictionary: strings.TrimSpace(parts[0]),
			Frequency:  strings.TrimSpace(parts[1]),
		}}
	}
	if clean != "" {
		return []domain.FrequencyRecord{{Dictionary: genericFrequencyLabel, Frequency: clean}}
	}
	return nil
}

// extractPairs finds repeated "Label: value" segments. A value ends at a
// separating comma, a parenthesis or the start of the next "Label:"; in the
// last case only its first word is kept. Digit grouping ("1,234") is kept.
func extractPairs(s string) []domain.FrequencyRecord {
	var out []domain.FrequencyRecord

	pos := 0
	for pos < len(s) {
		loc := pairPattern.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			break
		}
		label := s[pos+loc[2] : pos+loc[3]]
		valueStart, valueEnd := pos+loc[4], pos+loc[5]
		value := s[valueStart:valueEnd]
		next := valueEnd

		if valueEnd < len(s) && s[valueEnd] == ':' {
			i := strings.IndexFunc(value, unicode.IsSpace)
			if i < 0 {
				pos = valueStart
				continue
			}
			value = value[:i]
			next = valueStart + i
		}

		out = append(out, domain.FrequencyRecord{
			Dictionary: strings.TrimSpace(label),
			Frequency:  strings.TrimSpace(value),
		})
		pos = next
	}

	return out
}
