package canchannels

import "testing"

func TestFormatCategory(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", "General"},
		{"whitespace only", "   ", "General"},
		{"known slug", "can-news", "Can News"},
		{"known slug exclusive", "can-exclusive", "Can Exclusive"},
		{"known slug cinema", "cinema", "Cinema"},
		{"known slug general", "general", "General"},
		{"uppercase noise", "CAN-NEWS", "Can News"},
		{"surrounding whitespace", "  cinema  ", "Cinema"},
		{"unknown returned verbatim", "sports", "sports"},
		{"unknown keeps original noise", "  Sports ", "  Sports "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCategory(tt.raw); got != tt.want {
				t.Errorf("FormatCategory(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFormatCategoryIdempotent(t *testing.T) {
	inputs := []string{"", "   ", "can-news", "CAN-EXCLUSIVE", "cinema", "unknown-slug", "  Noisy Value "}
	for _, raw := range inputs {
		once := FormatCategory(raw)
		twice := FormatCategory(once)
		if once != twice {
			t.Errorf("FormatCategory not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestFormatCategoryConsistentAcrossCalls(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := FormatCategory(""); got != DefaultCategory {
			t.Fatalf("call %d: FormatCategory(\"\") = %q, want %q", i, got, DefaultCategory)
		}
	}
}
