package engine

import (
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind is the normalized category of a raw collaborator failure.
// Classification happens once, at the collaborator boundary, against
// structured fields (HTTP status, playability status tag, net error types).
// The orchestrator and retry loop only ever look at the kind.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidInput
	KindRateLimited
	KindGeographicBlock
	KindAccessRestricted // private or removed video
	KindNotFound
	KindTransientNetwork
	KindNoUsableTrack // track absent, or text below the viability threshold
	KindExhausted     // every strategy failed
)

var kindNames = map[ErrorKind]string{
	KindUnknown:          "unknown",
	KindInvalidInput:     "invalid_input",
	KindRateLimited:      "rate_limited",
	KindGeographicBlock:  "geo_blocked",
	KindAccessRestricted: "access_restricted",
	KindNotFound:         "not_found",
	KindTransientNetwork: "transient_network",
	KindNoUsableTrack:    "no_usable_track",
	KindExhausted:        "exhausted",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Retryable reports whether another attempt against the same strategy can
// plausibly succeed. Everything else short-circuits that strategy's retries
// (the next strategy still runs).
func (k ErrorKind) Retryable() bool {
	return k == KindRateLimited || k == KindTransientNetwork
}

// ClassifiedError is the only error type that crosses the executor →
// orchestrator boundary. Raw collaborator errors never escape.
type ClassifiedError struct {
	Kind   ErrorKind
	Status int    // HTTP status when the failure came from a response
	Op     string // collaborator operation, e.g. "innertube.player"
	Msg    string
}

func (e *ClassifiedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Op, e.Kind, e.Status, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

// Classify builds a ClassifiedError for a collaborator operation.
func Classify(kind ErrorKind, op, format string, args ...any) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error class. Transport-level errors are mapped here so
// collaborators do not have to wrap every dial failure themselves.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindTransientNetwork
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindTransientNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTransientNetwork
	}
	return KindUnknown
}

// ClassifyStatus maps an unexpected HTTP response status to an error class.
func ClassifyStatus(op string, status int, msg string) *ClassifiedError {
	kind := KindUnknown
	switch {
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusForbidden:
		kind = KindAccessRestricted
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status >= 500:
		kind = KindTransientNetwork
	}
	return &ClassifiedError{Kind: kind, Status: status, Op: op, Msg: msg}
}
