package engine

import (
	"net/http"
	"time"
)

// MinTranscriptChars is the default minimum flattened-text length for a
// candidate to count as a usable transcript. Single source of truth: every
// executor and the orchestrator read it from Config, never a local copy.
// Empirically tuned, not load-bearing; override via Config.
const MinTranscriptChars = 100

// Config holds all extraction configuration, injected at construction.
// Immutable once the Extractor is built; safe to share between concurrent
// extractions.
type Config struct {
	// LanguagePreferences is the ordered preference list for the primary
	// transcript source.
	LanguagePreferences []string
	// TrackLanguages is the ordered language scan for secondary caption
	// track listings.
	TrackLanguages []string

	MinTranscriptChars int

	PrimaryRetry   RetryPlan
	SecondaryRetry RetryPlan

	// Randomized pause bounds before the primary strategy's first request.
	InitialDelayMin time.Duration
	InitialDelayMax time.Duration

	// Relay routes primary-source traffic through an intermediary egress
	// point. Zero value = direct connection.
	Relay RelayConfig

	// Profiles are the secondary executor's request variants, tried in order.
	Profiles []Profile

	// YtDlpPath locates the metadata extraction binary. Empty = "yt-dlp"
	// from PATH.
	YtDlpPath string

	// HTTPClient serves the primary source and plain subtitle downloads.
	HTTPClient *http.Client
	// BrowserClient, when present, serves subtitle downloads with a browser
	// TLS fingerprint. nil = plain HTTP path only.
	BrowserClient *BrowserClient
}

// abortClasses are the error classes where re-attempting the same strategy
// cannot change the answer.
func abortClasses() map[ErrorKind]bool {
	return map[ErrorKind]bool{
		KindInvalidInput:     true,
		KindGeographicBlock:  true,
		KindAccessRestricted: true,
		KindNotFound:         true,
		KindNoUsableTrack:    true,
	}
}

// DefaultConfig returns the tuned defaults. Callers override fields before
// constructing the Extractor.
func DefaultConfig() Config {
	return Config{
		LanguagePreferences: []string{"en", "en-US", "en-GB"},
		TrackLanguages:      []string{"en", "en-US", "en-GB", "en-CA"},
		MinTranscriptChars:  MinTranscriptChars,
		PrimaryRetry: RetryPlan{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			Jitter:      500 * time.Millisecond,
			AbortOn:     abortClasses(),
		},
		SecondaryRetry: RetryPlan{
			MaxAttempts: 2,
			BaseDelay:   2 * time.Second,
			Jitter:      time.Second,
			AbortOn:     abortClasses(),
		},
		InitialDelayMin: 500 * time.Millisecond,
		InitialDelayMax: 1500 * time.Millisecond,
		Profiles:        DefaultProfiles(),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

func (c Config) minChars() int {
	if c.MinTranscriptChars > 0 {
		return c.MinTranscriptChars
	}
	return MinTranscriptChars
}

// usable applies the acceptance rule shared by every strategy and the
// orchestrator: a transcript is viable only above the length threshold.
func (c Config) usable(text string) bool {
	return len(text) > c.minChars()
}
