package sanitize

import (
	"path/filepath"
	"strings"
	"unicode"

	"labelpress/internal/constants"
)

// illegalFilenameChars are forbidden in stored file names across the
// filesystems the upload root may live on (NTFS, FAT32, ext4).
const illegalFilenameChars = `<>:"|?*`

// Filename sanitizes a client-supplied file name: path components, null
// bytes, control characters, and filesystem-illegal characters are removed
// or replaced. Case is preserved, including the extension. Returns an empty
// string when nothing usable remains; the caller decides how to fail.
func Filename(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ReplaceAll(raw, "\x00", "")
	if s == "" {
		return ""
	}

	// Windows-style separators are valid filename characters on Linux, so
	// normalize them before filepath.Base strips the path.
	s = strings.ReplaceAll(s, "\\", "/")
	s = filepath.Base(s)
	if s == "." || s == ".." {
		return ""
	}

	// No hidden files and no dot-based traversal remnants.
	s = strings.TrimLeft(s, ".")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
			b.WriteString(constants.FilenameReplacementChar)
		case strings.ContainsRune(illegalFilenameChars, r):
			b.WriteString(constants.FilenameReplacementChar)
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()

	if len(s) > constants.MaxFileNameLength {
		s = s[:constants.MaxFileNameLength]
	}
	return s
}

// RenameTarget sanitizes a caller-supplied rename target (an entity or
// principal identifier). Targets carrying traversal indicators are rejected
// outright rather than repaired — an identifier has no business containing
// them. Returns an empty string for an unusable target.
func RenameTarget(raw string) string {
	if raw == "" || IsPathTraversal(raw) {
		return ""
	}
	s := Filename(raw)
	return strings.Trim(s, " "+constants.FilenameReplacementChar)
}

// IsPathTraversal reports whether a string contains path traversal
// indicators: separators, parent references, null bytes, or the common
// percent-encoded bypass variants.
func IsPathTraversal(s string) bool {
	if s == "" {
		return false
	}
	if strings.Contains(s, "\x00") {
		return true
	}
	if strings.ContainsAny(s, "/\\") {
		return true
	}
	if strings.Contains(s, "..") {
		return true
	}

	lower := strings.ToLower(s)
	for _, pattern := range []string{"%2f", "%5c", "%2e", "%00", "%c0%af"} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
