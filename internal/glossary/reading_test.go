package glossary

import (
	"testing"

	"github.com/heartmarshall/yomipv-lookup/internal/domain"
)

func TestResolveReading(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		entry     domain.DictionaryEntry
		requested string
		want      string
	}{
		{
			name: "first pitch item",
			entry: domain.DictionaryEntry{
				Reading:          "たべる",
				PitchAccentsHTML: `<ol><li><span class="pronunciation">たべる</span></li><li>たべ</li></ol>`,
			},
			requested: "x",
			want:      `<span class="pronunciation">たべる</span>`,
		},
		{
			name:      "pitch html without list",
			entry:     domain.DictionaryEntry{Reading: "たべる", PitchAccentsHTML: "<span>2</span>"},
			requested: "x",
			want:      "たべる",
		},
		{
			name:      "entry reading",
			entry:     domain.DictionaryEntry{Reading: "たべる"},
			requested: "x",
			want:      "たべる",
		},
		{
			name:      "requested reading",
			entry:     domain.DictionaryEntry{},
			requested: "たべる",
			want:      "たべる",
		},
		{
			name: "nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ResolveReading(tt.entry, tt.requested); got != tt.want {
				t.Errorf("ResolveReading() = %q, want %q", got, tt.want)
			}
		})
	}
}
