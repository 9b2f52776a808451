package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the extraction engine.
var metrics struct {
	PrimaryAttempts    atomic.Int64
	PrimaryFailures    atomic.Int64
	SecondaryAttempts  atomic.Int64
	SecondaryFailures  atomic.Int64
	SubtitleDownloads  atomic.Int64
	RelayFallbacks     atomic.Int64
	RejectedTooShort   atomic.Int64
	ExhaustedRequests  atomic.Int64
}

func IncrPrimaryAttempt()   { metrics.PrimaryAttempts.Add(1) }
func IncrPrimaryFailure()   { metrics.PrimaryFailures.Add(1) }
func IncrSecondaryAttempt() { metrics.SecondaryAttempts.Add(1) }
func IncrSecondaryFailure() { metrics.SecondaryFailures.Add(1) }
func IncrSubtitleDownload() { metrics.SubtitleDownloads.Add(1) }
func IncrRelayFallback()    { metrics.RelayFallbacks.Add(1) }
func IncrRejectedTooShort() { metrics.RejectedTooShort.Add(1) }
func IncrExhausted()        { metrics.ExhaustedRequests.Add(1) }

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"primary_attempts":   metrics.PrimaryAttempts.Load(),
		"primary_failures":   metrics.PrimaryFailures.Load(),
		"secondary_attempts": metrics.SecondaryAttempts.Load(),
		"secondary_failures": metrics.SecondaryFailures.Load(),
		"subtitle_downloads": metrics.SubtitleDownloads.Load(),
		"relay_fallbacks":    metrics.RelayFallbacks.Load(),
		"rejected_too_short": metrics.RejectedTooShort.Load(),
		"exhausted_requests": metrics.ExhaustedRequests.Load(),
	}
}

// FormatMetrics returns counters as a simple text snapshot for debug logging.
func FormatMetrics() string {
	m := GetMetrics()
	keys := []string{
		"primary_attempts", "primary_failures",
		"secondary_attempts", "secondary_failures",
		"subtitle_downloads", "relay_fallbacks",
		"rejected_too_short", "exhausted_requests",
	}
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}
