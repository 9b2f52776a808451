package engine

import (
	"context"
	"log/slog"
	"time"
)

// TranscriptSource is the capability of a direct transcript service.
// Implementations classify their own failures; only *ClassifiedError (or raw
// transport errors mapped by KindOf) reach the executor.
type TranscriptSource interface {
	Fetch(ctx context.Context, id VideoID, languages []string) (*Candidate, error)
}

// Primary queries the transcript service with an ordered language-preference
// list and, when that path is exhausted, falls back once to whatever default
// or auto-generated track exists.
type Primary struct {
	src      TranscriptSource
	plan     RetryPlan
	langs    []string
	delayMin time.Duration
	delayMax time.Duration
}

// NewPrimary wires the primary-source executor.
func NewPrimary(src TranscriptSource, cfg Config) *Primary {
	return &Primary{
		src:      src,
		plan:     cfg.PrimaryRetry,
		langs:    cfg.LanguagePreferences,
		delayMin: cfg.InitialDelayMin,
		delayMax: cfg.InitialDelayMax,
	}
}

func (p *Primary) Name() string { return "transcript-api" }

// Fetch runs the language-preferred attempt loop, then a single
// constraint-free fallback. Abort-class errors (blocked, private, missing)
// skip the fallback: no language variation changes platform-level access.
func (p *Primary) Fetch(ctx context.Context, id VideoID) (*Candidate, error) {
	IncrPrimaryAttempt()

	if err := sleepCtx(ctx, humanDelay(p.delayMin, p.delayMax)); err != nil {
		return nil, err
	}

	cand, err := runAttempts(ctx, p.plan, func(attempt int) (*Candidate, error) {
		return p.src.Fetch(ctx, id, p.langs)
	})
	if err == nil {
		cand.Source = p.Name()
		return cand, nil
	}

	kind := KindOf(err)
	if ctx.Err() != nil || kind == KindAccessRestricted || kind == KindNotFound || kind == KindGeographicBlock {
		IncrPrimaryFailure()
		return nil, err
	}

	slog.Warn("primary: preferred languages failed, trying default track",
		slog.String("id", string(id)), slog.Any("error", err))

	cand, ferr := p.src.Fetch(ctx, id, nil)
	if ferr != nil {
		IncrPrimaryFailure()
		return nil, ferr
	}
	cand.Source = p.Name()
	return cand, nil
}
