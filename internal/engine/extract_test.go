package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyStrategy records invocations and returns a canned result.
type spyStrategy struct {
	name  string
	cand  *Candidate
	err   error
	calls int
}

func (s *spyStrategy) Name() string { return s.name }

func (s *spyStrategy) Fetch(ctx context.Context, id VideoID) (*Candidate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.cand, nil
}

func longCandidate() *Candidate {
	// "Never gonna give you up" repeated well past the viability threshold.
	frags := make([]Fragment, 0, 30)
	for i := 0; i < 6; i++ {
		for _, w := range []string{"Never", "gonna", "give", "you", "up"} {
			frags = append(frags, Fragment{Text: w})
		}
	}
	return &Candidate{Fragments: frags, Language: "en"}
}

func TestExtractInvalidIDInvokesNoStrategies(t *testing.T) {
	for _, raw := range []string{"", "short", "waaaaaaaaay-too-long-for-an-id"} {
		s1 := &spyStrategy{name: "primary", cand: longCandidate()}
		s2 := &spyStrategy{name: "secondary", cand: longCandidate()}
		ex := NewExtractor(DefaultConfig(), s1, s2)

		out := ex.Extract(context.Background(), VideoID(raw))

		require.False(t, out.Success)
		require.NotNil(t, out.Error)
		assert.Equal(t, "Invalid video ID format", *out.Error)
		assert.Equal(t, KindInvalidInput, out.Kind)
		assert.Zero(t, s1.calls, "strategy 1 must not run for invalid id %q", raw)
		assert.Zero(t, s2.calls, "strategy 2 must not run for invalid id %q", raw)
	}
}

func TestExtractFirstStrategyWins(t *testing.T) {
	s1 := &spyStrategy{name: "primary", cand: longCandidate()}
	s2 := &spyStrategy{name: "secondary", cand: longCandidate()}
	ex := NewExtractor(DefaultConfig(), s1, s2)

	out := ex.Extract(context.Background(), "dQw4w9WgXcQ")

	require.True(t, out.Success)
	require.NotNil(t, out.Method)
	assert.Equal(t, "primary", *out.Method)
	assert.Greater(t, out.Length, 100)
	assert.Equal(t, 1, s1.calls)
	assert.Zero(t, s2.calls, "strategy 2 must not run after a valid strategy 1 result")
}

func TestExtractShortTextFallsThrough(t *testing.T) {
	tests := []struct {
		name string
		cand *Candidate
	}{
		{"empty text", &Candidate{}},
		{"below threshold", &Candidate{Fragments: []Fragment{{Text: "too short"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s1 := &spyStrategy{name: "primary", cand: tt.cand}
			s2 := &spyStrategy{name: "secondary", cand: longCandidate()}
			ex := NewExtractor(DefaultConfig(), s1, s2)

			out := ex.Extract(context.Background(), "dQw4w9WgXcQ")

			require.True(t, out.Success)
			assert.Equal(t, "secondary", *out.Method)
			assert.Equal(t, 1, s1.calls)
			assert.Equal(t, 1, s2.calls, "short strategy 1 text must trigger strategy 2")
		})
	}
}

func TestExtractErrorFallsThrough(t *testing.T) {
	for kind := range abortClasses() {
		s1 := &spyStrategy{name: "primary", err: Classify(kind, "test", "boom")}
		s2 := &spyStrategy{name: "secondary", cand: longCandidate()}
		ex := NewExtractor(DefaultConfig(), s1, s2)

		out := ex.Extract(context.Background(), "dQw4w9WgXcQ")

		require.True(t, out.Success, "class %s must still allow strategy 2", kind)
		assert.Equal(t, "secondary", *out.Method)
		assert.Equal(t, 1, s2.calls)
	}
}

func TestExtractAllStrategiesExhausted(t *testing.T) {
	s1 := &spyStrategy{name: "primary", err: Classify(KindTransientNetwork, "test", "down")}
	s2 := &spyStrategy{name: "secondary", err: Classify(KindNoUsableTrack, "test", "nothing")}
	ex := NewExtractor(DefaultConfig(), s1, s2)

	out := ex.Extract(context.Background(), "dQw4w9WgXcQ")

	require.False(t, out.Success)
	assert.Nil(t, out.Transcript)
	assert.Nil(t, out.Method)
	require.NotNil(t, out.Error)
	assert.Equal(t, "All transcript extraction methods failed", *out.Error)
	assert.Equal(t, KindExhausted, out.Kind)
	assert.Equal(t, 1, s1.calls)
	assert.Equal(t, 1, s2.calls)
}

func TestExtractAccessRestrictedEverywhere(t *testing.T) {
	s1 := &spyStrategy{name: "primary", err: Classify(KindAccessRestricted, "test", "private")}
	s2 := &spyStrategy{name: "secondary", err: Classify(KindAccessRestricted, "test", "private")}
	ex := NewExtractor(DefaultConfig(), s1, s2)

	out := ex.Extract(context.Background(), "AAAAAAAAAAA")

	require.False(t, out.Success)
	require.NotNil(t, out.Error)
	assert.Equal(t, "All transcript extraction methods failed", *out.Error)
	assert.Nil(t, out.Transcript)
	assert.Equal(t, 1, s1.calls)
	assert.Equal(t, 1, s2.calls)
}

func TestExtractEndToEndTranscriptContent(t *testing.T) {
	s1 := &spyStrategy{name: "primary", cand: longCandidate()}
	ex := NewExtractor(DefaultConfig(), s1)

	out := ex.Extract(context.Background(), "dQw4w9WgXcQ")

	require.True(t, out.Success)
	require.NotNil(t, out.Transcript)
	assert.True(t, strings.HasPrefix(*out.Transcript, "Never gonna give you up"))
	assert.Equal(t, len(*out.Transcript), out.Length)
	assert.Greater(t, out.Length, 100)
}

func TestExtractCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s1 := &spyStrategy{name: "primary", cand: longCandidate()}
	ex := NewExtractor(DefaultConfig(), s1)

	out := ex.Extract(ctx, "dQw4w9WgXcQ")

	require.False(t, out.Success)
	assert.Zero(t, s1.calls)
}

func TestExtractCustomThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTranscriptChars = 5

	s1 := &spyStrategy{name: "primary", cand: &Candidate{Fragments: []Fragment{{Text: "just enough"}}}}
	ex := NewExtractor(cfg, s1)

	out := ex.Extract(context.Background(), "dQw4w9WgXcQ")
	require.True(t, out.Success)
	assert.Equal(t, "just enough", *out.Transcript)
}
