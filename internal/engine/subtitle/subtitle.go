// Package subtitle converts raw caption container text (WebVTT, SRT, TTML)
// into normalized plain text. All parsers are pure and never fail: malformed
// or empty input yields an empty string, and re-parsing already-clean text
// is a no-op.
package subtitle

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Format identifies a subtitle container format by its conventional
// file extension.
type Format string

const (
	VTT  Format = "vtt"
	SRT  Format = "srt"
	TTML Format = "ttml"
)

// FormatPriority is the preferred download order when a track is offered in
// several containers.
func FormatPriority() []Format {
	return []Format{VTT, SRT, TTML}
}

// Parse routes raw text to the parser for the declared format.
// Unknown formats yield an empty string.
func Parse(f Format, raw string) string {
	switch f {
	case VTT:
		return ParseVTT(raw)
	case SRT:
		return ParseSRT(raw)
	case TTML:
		return ParseTTML(raw)
	}
	return ""
}

// vttTagRe matches inline cue markup: style/voice tags (<c>, <v Speaker>)
// and inline timing tags (<00:00:01.000>).
var vttTagRe = regexp.MustCompile(`<[^>]*>`)

// ParseVTT extracts plain text from a WebVTT document: header, NOTE and
// STYLE blocks, timing lines and blanks are dropped, inline tags stripped,
// remaining cue lines joined with single spaces.
func ParseVTT(raw string) string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" ||
			strings.HasPrefix(line, "WEBVTT") ||
			strings.HasPrefix(line, "NOTE") ||
			strings.HasPrefix(line, "STYLE") ||
			strings.HasPrefix(line, "Kind:") ||
			strings.HasPrefix(line, "Language:") ||
			strings.Contains(line, "-->") {
			continue
		}
		clean := strings.TrimSpace(vttTagRe.ReplaceAllString(line, ""))
		if clean != "" {
			out = append(out, clean)
		}
	}
	return strings.Join(out, " ")
}

// ParseSRT extracts plain text from an SRT document: pure sequence-number
// lines, timing lines and blanks are dropped, the rest joined with spaces.
func ParseSRT(raw string) string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isDigits(line) || strings.Contains(line, "-->") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, " ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ttmlParagraphRe matches paragraph cue elements in a TTML document.
var ttmlParagraphRe = regexp.MustCompile(`(?s)<p[^>]*>(.*?)</p>`)

// ParseTTML extracts the contents of each paragraph element, strips nested
// markup and decodes entities. Input without paragraph elements is treated
// as already-extracted text (keeps the parser idempotent).
func ParseTTML(raw string) string {
	matches := ttmlParagraphRe.FindAllStringSubmatch(raw, -1)
	if matches == nil {
		return strings.TrimSpace(stripMarkup(raw))
	}

	var out []string
	for _, m := range matches {
		clean := strings.TrimSpace(stripMarkup(m[1]))
		if clean != "" {
			out = append(out, clean)
		}
	}
	return strings.Join(out, " ")
}

// stripMarkup drops tags and decodes character entities by collecting the
// text tokens of the fragment.
func stripMarkup(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var sb strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(z.Text())
		}
	}
}
