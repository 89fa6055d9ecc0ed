package canchannels

import "strings"

// categoryLabels maps known category slugs to their display labels.
var categoryLabels = map[string]string{
	"can-news":      "Can News",
	"can-exclusive": "Can Exclusive",
	"cinema":        "Cinema",
	"general":       "General",
}

// DefaultCategory is the label used when a post carries no category at all.
const DefaultCategory = "General"

// FormatCategory maps a raw, free-text category value to its display label.
// Empty or whitespace-only input yields DefaultCategory. Unknown values are
// returned verbatim, which makes the function a fixed point on every branch:
// FormatCategory(FormatCategory(x)) == FormatCategory(x).
func FormatCategory(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultCategory
	}
	if label, ok := categoryLabels[strings.ToLower(trimmed)]; ok {
		return label
	}
	return raw
}
