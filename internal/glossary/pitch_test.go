package glossary

import "testing"

func TestPitchColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		categories string
		want       string
	}{
		{"heiban", "var(--pitch-blue)"},
		{"Atamadaka", "var(--pitch-red)"},
		{"Nakadaka, Heiban", "var(--pitch-orange)"},
		{"verb odaka", "var(--pitch-green)"},
		{"kifuku,heiban", "var(--pitch-purple)"},
		{"unknown, other", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.categories, func(t *testing.T) {
			t.Parallel()
			if got := PitchColor(tt.categories); got != tt.want {
				t.Errorf("PitchColor(%q) = %q, want %q", tt.categories, got, tt.want)
			}
		})
	}
}
