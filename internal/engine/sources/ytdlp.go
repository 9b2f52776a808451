package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/subtitle"
)

// ytDlpTimeout bounds one metadata extraction run.
const ytDlpTimeout = 2 * time.Minute

// YtDlp shells out to the yt-dlp binary in JSON dump mode to list available
// subtitle and auto-caption tracks without downloading media.
type YtDlp struct {
	path string
}

// NewYtDlp builds the extractor. Empty path resolves "yt-dlp" from PATH.
func NewYtDlp(path string) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	return &YtDlp{path: path}
}

// ytDlpInfo is the caption-relevant slice of yt-dlp's -J output.
type ytDlpInfo struct {
	Subtitles         map[string][]ytDlpSubEntry `json:"subtitles"`
	AutomaticCaptions map[string][]ytDlpSubEntry `json:"automatic_captions"`
}

type ytDlpSubEntry struct {
	Ext string `json:"ext"`
	URL string `json:"url"`
}

// Extract implements engine.MetadataExtractor.
func (y *YtDlp) Extract(ctx context.Context, url string, opts engine.ExtractOptions) (*engine.MediaMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, ytDlpTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.path, y.args(url, opts)...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, classifyYtDlp(stderr.String(), err)
	}

	var info ytDlpInfo
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		return nil, engine.Classify(engine.KindUnknown, "yt-dlp", "decode -J output: %v", err)
	}

	return &engine.MediaMetadata{
		Subtitles:    convertTracks(info.Subtitles),
		AutoCaptions: convertTracks(info.AutomaticCaptions),
	}, nil
}

// args builds the yt-dlp command line for one extraction.
func (y *YtDlp) args(url string, opts engine.ExtractOptions) []string {
	args := []string{"-J", "--skip-download", "--no-warnings", "--no-playlist"}
	if len(opts.Languages) > 0 {
		args = append(args, "--sub-langs", strings.Join(opts.Languages, ","))
	}
	if opts.UserAgent != "" {
		args = append(args, "--user-agent", opts.UserAgent)
	}
	for k, v := range opts.Headers {
		if strings.EqualFold(k, "user-agent") {
			continue
		}
		args = append(args, "--add-header", k+":"+v)
	}
	return append(args, url)
}

// convertTracks keeps only entries in a parseable container format.
func convertTracks(in map[string][]ytDlpSubEntry) map[string][]engine.SubtitleTrack {
	out := make(map[string][]engine.SubtitleTrack, len(in))
	for lang, entries := range in {
		for _, e := range entries {
			f := subtitle.Format(e.Ext)
			switch f {
			case subtitle.VTT, subtitle.SRT, subtitle.TTML:
				out[lang] = append(out[lang], engine.SubtitleTrack{Format: f, URL: e.URL})
			}
		}
	}
	return out
}

// ytDlpMarkers maps stable yt-dlp stderr markers to error classes, most
// specific first. yt-dlp exposes no structured error codes on the CLI, so
// marker matching is the only classification signal available; the set below
// has been stable across yt-dlp releases.
var ytDlpMarkers = []struct {
	marker string
	kind   engine.ErrorKind
}{
	{"Private video", engine.KindAccessRestricted},
	{"This video is private", engine.KindAccessRestricted},
	{"members-only", engine.KindAccessRestricted},
	{"Video unavailable", engine.KindAccessRestricted},
	{"removed by the uploader", engine.KindAccessRestricted},
	{"not available in your country", engine.KindGeographicBlock},
	{"geo restriction", engine.KindGeographicBlock},
	{"Sign in to confirm", engine.KindRateLimited},
	{"HTTP Error 429", engine.KindRateLimited},
	{"Too Many Requests", engine.KindRateLimited},
	{"timed out", engine.KindTransientNetwork},
	{"Unable to download", engine.KindTransientNetwork},
	{"Connection refused", engine.KindTransientNetwork},
}

func classifyYtDlp(stderr string, runErr error) error {
	if errors.Is(runErr, exec.ErrNotFound) {
		return engine.Classify(engine.KindUnknown, "yt-dlp", "binary not installed")
	}
	for _, m := range ytDlpMarkers {
		if strings.Contains(stderr, m.marker) {
			return engine.Classify(m.kind, "yt-dlp", "%s", m.marker)
		}
	}
	msg := strings.TrimSpace(stderr)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = runErr.Error()
	}
	return engine.Classify(engine.KindUnknown, "yt-dlp", "%s", msg)
}
