package delivery

import "strings"

// Variant names a rendering of a photo.
type Variant int

const (
	// VariantOriginal serves the stored bytes untouched.
	VariantOriginal Variant = iota

	// VariantWeb serves the downsized JPEG rendering.
	VariantWeb
)

// String returns the canonical lowercase name of the variant.
func (v Variant) String() string {
	if v == VariantWeb {
		return "web"
	}
	return "original"
}

// ParseVariant normalizes a free-form variant string from the HTTP boundary.
// Matching is case-insensitive and trimmed; anything unrecognized, including
// the empty string, means the original.
func ParseVariant(raw string) Variant {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "web", "web-size", "websize", "small":
		return VariantWeb
	case "original", "orig", "full":
		return VariantOriginal
	default:
		return VariantOriginal
	}
}
