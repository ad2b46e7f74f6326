package filesystem

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/JSH-Team/FrameHunter/internal/utils/hash"
)

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	multipleDots = regexp.MustCompile(`\.{2,}`)
	safeExt      = regexp.MustCompile(`^\.[A-Za-z0-9]{1,16}$`)
)

// SafeName derives a filesystem-safe token for a relative path: the hex
// SHA-256 of the slash-normalised path followed by the original extension.
// Equal inputs always map to the same token, on every platform.
func SafeName(relPath string) string {
	normalized := filepath.ToSlash(relPath)
	token := hash.GenerateSha256Hash(normalized)

	ext := filepath.Ext(normalized)
	if !safeExt.MatchString(ext) {
		return token
	}
	return token + ext
}

// CleanPathComponent cleans a single path component for safe filesystem use.
// An empty result is replaced with "unknown".
func CleanPathComponent(component string) string {
	component = invalidChars.ReplaceAllString(component, "_")
	component = multipleDots.ReplaceAllString(component, ".")
	component = strings.Trim(component, ". ")

	// Limit length, on a rune boundary
	if runes := []rune(component); len(runes) > 120 {
		component = strings.TrimRight(string(runes[:120]), ". ")
	}

	if component == "" || component == "." || component == ".." {
		return "unknown"
	}
	return component
}

// StemName returns the base name of path without its extension, cleaned for
// use as a directory name
func StemName(path string) string {
	base := filepath.Base(filepath.FromSlash(path))
	return CleanPathComponent(strings.TrimSuffix(base, filepath.Ext(base)))
}
