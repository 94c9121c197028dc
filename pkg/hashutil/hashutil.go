// Package hashutil provides content-addressed digests for file contents.
//
// All digests are SHA-256 over line-ending-normalised text: CRLF and bare CR
// sequences are rewritten to LF before hashing so the same logical content
// hashes identically across platforms.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Prefix is the scheme callers prepend when writing digests into trace
// entries. The primitive itself returns bare hex.
const Prefix = "sha256:"

// Digest returns the SHA-256 of the normalised content as 64 lowercase hex
// characters.
func Digest(content string) string {
	h := sha256.Sum256([]byte(normalize(content)))
	return hex.EncodeToString(h[:])
}

// DigestRange hashes an inclusive 1-based line range of content.
//
// The range is clamped to the available lines (start up to 1, end down to the
// line count). A range that is empty after clamping, or inverted, hashes the
// empty string.
func DigestRange(content string, startLine, endLine int) string {
	lines := strings.Split(normalize(content), "\n")

	start := startLine
	if start < 1 {
		start = 1
	}
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}

	if start > end {
		return Digest("")
	}

	return Digest(strings.Join(lines[start-1:end], "\n"))
}

// normalize rewrites CRLF and stray CR to LF.
func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
