package engine

import "strings"

// VideoID is a validated YouTube video identifier.
// Always exactly 11 characters; anything else is rejected before any
// extraction strategy runs.
type VideoID string

// videoIDLength is the fixed length of a YouTube video ID.
const videoIDLength = 11

// ParseVideoID validates a raw identifier string.
func ParseVideoID(raw string) (VideoID, error) {
	if len(raw) != videoIDLength {
		return "", &ClassifiedError{Kind: KindInvalidInput, Op: "parse", Msg: "Invalid video ID format"}
	}
	return VideoID(raw), nil
}

// Valid reports whether the ID has the required fixed length.
func (id VideoID) Valid() bool { return len(id) == videoIDLength }

// WatchURL returns the canonical watch page URL for the video.
func (id VideoID) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + string(id)
}

// Fragment is one timed caption unit as delivered by a transcript source.
// Start and Duration are in seconds.
type Fragment struct {
	Text     string
	Start    float64
	Duration float64
}

// Candidate is an unvalidated transcript assembled from fragments.
// Fragment order is source display order and is never re-sorted.
type Candidate struct {
	Fragments     []Fragment
	Language      string
	Source        string
	AutoGenerated bool
}

// Text flattens the fragments into a single space-joined line.
func (c *Candidate) Text() string {
	var sb strings.Builder
	for _, f := range c.Fragments {
		t := strings.TrimSpace(f.Text)
		if t == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t)
	}
	return sb.String()
}

// Outcome is the sole externally observable result of an extraction.
// Field names match the historical JSON contract of the tool.
type Outcome struct {
	Success    bool    `json:"success"`
	Transcript *string `json:"transcript"`
	Method     *string `json:"method"`
	Error      *string `json:"error"`
	Length     int     `json:"length"`

	// Kind carries the terminal error class for programmatic callers.
	// Diagnostic only; the JSON contract exposes just the message.
	Kind ErrorKind `json:"-"`
}

func successOutcome(text, method string) Outcome {
	return Outcome{
		Success:    true,
		Transcript: &text,
		Method:     &method,
		Length:     len(text),
	}
}

func failureOutcome(kind ErrorKind, msg string) Outcome {
	return Outcome{Error: &msg, Kind: kind}
}
