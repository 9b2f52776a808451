package engine

import (
	"context"
	"log/slog"
)

// allFailedMsg is the stable user-visible failure message. Per-strategy
// detail is diagnostic-only so the external contract survives upstream
// behavior changes.
const allFailedMsg = "All transcript extraction methods failed"

// Strategy is one independent method of acquiring transcript data from an
// external source. Fetch owns its internal retry loop and only ever returns
// a candidate or a *ClassifiedError.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, id VideoID) (*Candidate, error)
}

// Extractor sequences strategies in fixed priority order and reduces the
// first acceptable candidate into an Outcome.
type Extractor struct {
	cfg        Config
	strategies []Strategy
}

// NewExtractor builds an extractor over the given strategies. Order is the
// priority order; later strategies run only after earlier ones are
// conclusively exhausted.
func NewExtractor(cfg Config, strategies ...Strategy) *Extractor {
	return &Extractor{cfg: cfg, strategies: strategies}
}

// Extract runs the fallback chain for one video. At most one strategy's
// result is reported as successful. A candidate is accepted only when its
// flattened text exceeds the viability threshold; shorter results count as
// failure even when the source reported none.
func (e *Extractor) Extract(ctx context.Context, id VideoID) Outcome {
	if !id.Valid() {
		return failureOutcome(KindInvalidInput, "Invalid video ID format")
	}

	for _, s := range e.strategies {
		if ctx.Err() != nil {
			slog.Warn("extraction canceled", slog.String("id", string(id)))
			break
		}

		cand, err := s.Fetch(ctx, id)
		if err != nil {
			slog.Warn("strategy failed",
				slog.String("strategy", s.Name()),
				slog.String("class", KindOf(err).String()),
				slog.Any("error", err))
			continue
		}

		text := cand.Text()
		if !e.cfg.usable(text) {
			IncrRejectedTooShort()
			slog.Warn("transcript below viability threshold",
				slog.String("strategy", s.Name()),
				slog.Int("length", len(text)),
				slog.Int("min", e.cfg.minChars()))
			continue
		}

		slog.Info("transcript extracted",
			slog.String("strategy", s.Name()),
			slog.String("language", cand.Language),
			slog.Bool("auto", cand.AutoGenerated),
			slog.Int("length", len(text)),
			slog.String("sample", Preview(text, 80)))
		return successOutcome(text, s.Name())
	}

	IncrExhausted()
	return failureOutcome(KindExhausted, allFailedMsg)
}
