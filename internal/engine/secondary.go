package engine

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_transcript/internal/engine/subtitle"
)

// ExtractOptions tune one metadata extraction call.
type ExtractOptions struct {
	Languages []string
	UserAgent string
	Headers   map[string]string
}

// SubtitleTrack is one downloadable caption listing from the metadata tool.
type SubtitleTrack struct {
	Format subtitle.Format
	URL    string
}

// MediaMetadata is the caption-relevant slice of a metadata extraction
// result: manual subtitle tracks and auto-generated caption tracks, keyed by
// language code.
type MediaMetadata struct {
	Subtitles    map[string][]SubtitleTrack
	AutoCaptions map[string][]SubtitleTrack
}

// MetadataExtractor is the capability of a generic media-metadata extraction
// tool (yt-dlp in production).
type MetadataExtractor interface {
	Extract(ctx context.Context, url string, opts ExtractOptions) (*MediaMetadata, error)
}

// Profile is one secondary-executor request variant: a header set plus the
// minimum spacing between its requests.
type Profile struct {
	Name    string
	Headers map[string]string
	Pace    time.Duration
}

// DefaultProfiles returns the ordered request variants: a desktop browser
// profile first, then a slower Android-client profile.
func DefaultProfiles() []Profile {
	return []Profile{
		{Name: "desktop", Headers: ChromeHeaders(), Pace: time.Second},
		{Name: "android", Headers: map[string]string{
			"accept":          "*/*",
			"accept-language": "en-US,en;q=0.9",
			"user-agent":      UserAgentAndroid,
		}, Pace: 2 * time.Second},
	}
}

// browserDoer is the slice of the stealth client the executor needs: one
// request, returning body, response headers, and status.
type browserDoer interface {
	Do(method, url string, headers map[string]string, body io.Reader) ([]byte, map[string]string, int, error)
}

// Secondary drives the metadata extraction tool through its profiles,
// scanning returned caption listings by language and container format, then
// downloading and parsing the first viable track.
type Secondary struct {
	tool     MetadataExtractor
	plan     RetryPlan
	profiles []Profile
	langs    []string
	minChars int
	client   *http.Client
	browser  browserDoer
}

// NewSecondary wires the secondary-source executor.
func NewSecondary(tool MetadataExtractor, cfg Config) *Secondary {
	s := &Secondary{
		tool:     tool,
		plan:     cfg.SecondaryRetry,
		profiles: cfg.Profiles,
		langs:    cfg.TrackLanguages,
		minChars: cfg.minChars(),
		client:   cfg.HTTPClient,
	}
	if cfg.BrowserClient != nil {
		s.browser = cfg.BrowserClient
	}
	return s
}

func (s *Secondary) Name() string { return "yt-dlp" }

// Fetch tries each profile in order. An access-restricted video aborts the
// remaining profiles immediately: no header or pacing variation changes
// platform-level access control.
func (s *Secondary) Fetch(ctx context.Context, id VideoID) (*Candidate, error) {
	IncrSecondaryAttempt()

	var lastErr error
	for i, prof := range s.profiles {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		cand, err := s.tryProfile(ctx, id, prof)
		if err == nil {
			cand.Source = s.Name()
			return cand, nil
		}
		lastErr = err

		kind := KindOf(err)
		slog.Warn("secondary: profile failed",
			slog.String("profile", prof.Name),
			slog.String("class", kind.String()),
			slog.Any("error", err))
		if kind == KindAccessRestricted || kind == KindNotFound {
			break
		}

		if i < len(s.profiles)-1 {
			if err := sleepCtx(ctx, s.plan.Backoff(i+1)); err != nil {
				return nil, err
			}
		}
	}

	IncrSecondaryFailure()
	if lastErr == nil {
		lastErr = Classify(KindNoUsableTrack, "yt-dlp", "no profiles configured")
	}
	return nil, lastErr
}

// tryProfile runs one full profile pass: extract metadata, then walk
// language candidates and container formats in priority order.
func (s *Secondary) tryProfile(ctx context.Context, id VideoID, prof Profile) (*Candidate, error) {
	// Burst 1: the first request goes through immediately, every following
	// request within this profile waits out the pace interval.
	lim := rate.NewLimiter(rate.Every(prof.Pace), 1)
	if err := lim.Wait(ctx); err != nil {
		return nil, err
	}

	meta, err := s.tool.Extract(ctx, id.WatchURL(), ExtractOptions{
		Languages: s.langs,
		UserAgent: prof.Headers["user-agent"],
		Headers:   prof.Headers,
	})
	if err != nil {
		return nil, err
	}

	for _, lang := range s.langs {
		tracks, auto := meta.Subtitles[lang], false
		if len(tracks) == 0 {
			tracks, auto = meta.AutoCaptions[lang], true
		}
		if len(tracks) == 0 {
			continue
		}

		for _, format := range subtitle.FormatPriority() {
			track, ok := findTrack(tracks, format)
			if !ok {
				continue
			}

			if err := lim.Wait(ctx); err != nil {
				return nil, err
			}
			raw, err := s.download(ctx, track.URL, prof.Headers)
			if err != nil {
				slog.Warn("secondary: track download failed",
					slog.String("lang", lang),
					slog.String("format", string(format)),
					slog.Any("error", err))
				continue
			}

			text := subtitle.Parse(format, string(raw))
			if len(text) <= s.minChars {
				slog.Debug("secondary: parsed track too short",
					slog.String("lang", lang),
					slog.String("format", string(format)),
					slog.Int("length", len(text)))
				continue
			}

			return &Candidate{
				Fragments:     []Fragment{{Text: text}},
				Language:      lang,
				AutoGenerated: auto,
			}, nil
		}
	}

	return nil, Classify(KindNoUsableTrack, "yt-dlp", "no usable caption track for %s", id)
}

func findTrack(tracks []SubtitleTrack, format subtitle.Format) (SubtitleTrack, bool) {
	for _, t := range tracks {
		if t.Format == format && t.URL != "" {
			return t, true
		}
	}
	return SubtitleTrack{}, false
}

// download fetches raw subtitle bytes. Prefers the browser-fingerprint
// client when one is configured; otherwise a plain HTTP GET with backoff.
func (s *Secondary) download(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	IncrSubtitleDownload()

	if s.browser != nil {
		body, _, status, err := s.browser.Do(http.MethodGet, url, headers, nil)
		if err != nil {
			return nil, Classify(KindTransientNetwork, "subtitle.download", "%v", err)
		}
		if status != http.StatusOK {
			return nil, ClassifyStatus("subtitle.download", status, "unexpected status")
		}
		return body, nil
	}

	return fetchRaw(ctx, s.client, url, headers)
}
