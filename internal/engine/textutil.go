package engine

import (
	"regexp"
	"strings"

	"github.com/anatolykoptev/go-kit/strutil"
)

// User-Agent strings used across HTTP calls.
const (
	UserAgentBot     = "go-transcript/1.0"
	UserAgentAndroid = "com.google.android.youtube/20.10.38 (Linux; U; Android 11) gzip"
)

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// CleanHTML strips HTML tags and trims whitespace.
func CleanHTML(s string) string {
	return strings.TrimSpace(htmlTagRe.ReplaceAllString(s, ""))
}

// Preview caps s for log output. Safe for UTF-8.
func Preview(s string, limit int) string {
	return strutil.TruncateWith(s, limit, "...")
}
