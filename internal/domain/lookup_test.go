package domain

import (
	"errors"
	"testing"
)

func TestLookupRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     LookupRequest
		wantErr bool
	}{
		{"term only", LookupRequest{Term: "食べる"}, false},
		{"term with options", LookupRequest{Term: "食べる", Reading: "たべる", ShowFrequencies: true}, false},
		{"missing term", LookupRequest{Reading: "たべる"}, true},
		{"empty", LookupRequest{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestDictionaryEntry_HasGlossary(t *testing.T) {
	t.Parallel()

	if (DictionaryEntry{}).HasGlossary() {
		t.Error("empty entry should not have a glossary")
	}
	if !(DictionaryEntry{GlossaryHTML: "<ol></ol>"}).HasGlossary() {
		t.Error("entry with glossary html should have a glossary")
	}
}
