// Package security provides output escaping and markup sanitization.
package security

import (
	"html"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	helpPolicyOnce sync.Once
	helpPolicy     *bluemonday.Policy
)

// SanitizeHelp cleans author-supplied help markup. Formatting and lists
// survive; scripts, handlers and unsafe URLs do not.
func SanitizeHelp(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(helpSanitizer().Sanitize(trimmed))
}

func helpSanitizer() *bluemonday.Policy {
	helpPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").OnElements("p", "span", "ul", "li", "h4", "div")
		helpPolicy = policy
	})
	return helpPolicy
}

// EscapeHTML escapes a user value for placement in element content or a
// quoted attribute.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// StripTags removes all markup, leaving text.
func StripTags(s string) string {
	return bluemonday.StrictPolicy().Sanitize(s)
}

// SanitizeFilename keeps only the base name and replaces separators and NULs.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	filename = filepath.Base(filename)

	filename = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == '\x00' {
			return '_'
		}
		return r
	}, filename)

	if filename == "." || filename == "/" || filename == "" {
		return "file"
	}

	if len(filename) > maxFilenameLen {
		ext := filepath.Ext(filename)
		if len(ext) > maxExtLen {
			ext = ""
		}
		stem := filename[:len(filename)-len(ext)]
		filename = truncateUTF8(stem, maxFilenameLen-len(ext)) + ext
	}
	return filename
}

const (
	maxFilenameLen = 255
	maxExtLen      = 32
)

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
