package delivery

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// maxFileNameLength caps sanitized names used in archive entries and
// Content-Disposition headers.
const maxFileNameLength = 120

var (
	controlRe = regexp.MustCompile(`[\r\n\t]+`)
	unsafeRe  = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)
	spacesRe  = regexp.MustCompile(` +`)
)

// SanitizeFileName makes an arbitrary string safe for archive entries and
// Content-Disposition headers: path separators become underscores, NUL bytes
// are dropped, control whitespace collapses to single spaces, anything
// outside [A-Za-z0-9._ -] becomes an underscore, runs of spaces collapse,
// and the result is capped at 120 characters. A blank result is replaced by
// the literal "file".
func SanitizeFileName(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "file"
	}

	replaced := strings.NewReplacer(`\`, "_", "/", "_", "\x00", "").Replace(trimmed)
	replaced = strings.TrimSpace(controlRe.ReplaceAllString(replaced, " "))
	replaced = unsafeRe.ReplaceAllString(replaced, "_")
	replaced = spacesRe.ReplaceAllString(replaced, " ")
	if strings.TrimSpace(replaced) == "" {
		return "file"
	}

	runes := []rune(replaced)
	if len(runes) > maxFileNameLength {
		return string(runes[:maxFileNameLength])
	}
	return replaced
}

// DownloadName returns the display name a given variant of the photo would
// be served under.
func DownloadName(photo PhotoRef, variant Variant) string {
	if variant == VariantWeb {
		return webDownloadName(photo)
	}
	return originalDownloadName(photo)
}

// originalDownloadName builds the display name for the original variant:
// the sanitized original file name when present, otherwise a synthesized
// "photo-<id>" carrying the storage key's extension.
func originalDownloadName(photo PhotoRef) string {
	if strings.TrimSpace(photo.OriginalName) != "" {
		return SanitizeFileName(photo.OriginalName)
	}

	base := fmt.Sprintf("photo-%d", photo.ID)
	leaf := path.Base(strings.TrimSpace(photo.StorageKey))
	if ext := path.Ext(leaf); len(ext) > 1 && ext != leaf {
		return base + ext
	}
	return base
}

// webDownloadName derives the web variant's display name from the original's:
// extension stripped, "-web.jpg" appended.
func webDownloadName(photo PhotoRef) string {
	base := originalDownloadName(photo)
	if ext := path.Ext(base); ext != "" && len(ext) < len(base) {
		base = strings.TrimSuffix(base, ext)
	}
	return SanitizeFileName(base) + "-web.jpg"
}
