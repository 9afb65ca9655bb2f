// Package attach implements the inline file-reference protocol used by
// result strings: a marker of the form ||SCREENSHOT:<absolute-path>||
// embedded in user-visible text. Transports split on the marker and deliver
// the referenced file out-of-band.
package attach

import (
	"os"
	"strings"
)

const (
	markerPrefix = "||SCREENSHOT:"
	markerSuffix = "||"
)

// Join embeds a file reference after the visible text.
func Join(text, path string) string {
	return text + markerPrefix + path + markerSuffix
}

// Split separates the visible text from an attached file path. The path is
// returned only when it is non-empty and the file exists; otherwise the
// whole input minus the marker is treated as text.
func Split(s string) (text, path string) {
	idx := strings.Index(s, markerPrefix)
	if idx < 0 {
		return s, ""
	}

	text = s[:idx]
	rest := strings.TrimPrefix(s[idx:], markerPrefix)
	rest = strings.TrimSuffix(rest, markerSuffix)
	rest = strings.TrimSpace(rest)

	if rest == "" || rest == "None" {
		return text, ""
	}
	if _, err := os.Stat(rest); err != nil {
		return text, ""
	}
	return text, rest
}
