package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// Innertube is the primary transcript source: the ANDROID Innertube /player
// endpoint lists caption tracks, the chosen track's timedtext XML yields the
// fragments. Requests are single-shot; the executor owns the retry loop.
type Innertube struct {
	client *http.Client
}

// NewInnertube builds the client. The HTTP client may already route through
// a relay; nil falls back to http.DefaultClient.
func NewInnertube(client *http.Client) *Innertube {
	if client == nil {
		client = http.DefaultClient
	}
	return &Innertube{client: client}
}

// Fetch implements engine.TranscriptSource. A nil language list accepts
// whatever default or auto-generated track exists.
func (c *Innertube) Fetch(ctx context.Context, id engine.VideoID, langs []string) (*engine.Candidate, error) {
	playerResp, err := c.player(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := classifyPlayability(playerResp); err != nil {
		return nil, err
	}
	if playerResp.Captions == nil {
		return nil, engine.Classify(engine.KindNoUsableTrack, "innertube.player", "no captions for %s", id)
	}
	tracks := playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, engine.Classify(engine.KindNoUsableTrack, "innertube.player", "empty caption track list for %s", id)
	}

	track, ok := pickTrack(tracks, langs)
	if !ok {
		return nil, engine.Classify(engine.KindNoUsableTrack, "innertube.player", "all caption tracks require PoToken")
	}

	fragments, err := c.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		return nil, engine.Classify(engine.KindNoUsableTrack, "innertube.timedtext", "empty transcript for %s", id)
	}

	return &engine.Candidate{
		Fragments:     fragments,
		Language:      track.LanguageCode,
		AutoGenerated: track.Kind == "asr",
	}, nil
}

// player calls the ANDROID /player endpoint, which works without a PoToken
// from most non-blocked addresses.
func (c *Innertube) player(ctx context.Context, id engine.VideoID) (*innertubePlayerResp, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: string(id),
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ytPlayerURL+"?prettyPrint=false", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", engine.UserAgentAndroid)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", ytAndroidVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("innertube player: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, engine.ClassifyStatus("innertube.player", resp.StatusCode, string(snippet))
	}

	var playerResp innertubePlayerResp
	if err := json.NewDecoder(io.LimitReader(resp.Body, 3*1024*1024)).Decode(&playerResp); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return &playerResp, nil
}

// classifyPlayability maps the structured playability status tag to an error
// class. Status values are API enums, not display text, so this stays stable
// across upstream wording changes.
func classifyPlayability(resp *innertubePlayerResp) error {
	ps := resp.PlayabilityStatus
	if ps == nil || ps.Status == "" || ps.Status == "OK" {
		return nil
	}
	kind := engine.KindUnknown
	switch ps.Status {
	case "ERROR":
		kind = engine.KindNotFound
	case "LOGIN_REQUIRED", "AGE_CHECK_REQUIRED", "CONTENT_CHECK_REQUIRED":
		kind = engine.KindAccessRestricted
	case "UNPLAYABLE":
		// Server-side, UNPLAYABLE almost always means a region restriction.
		kind = engine.KindGeographicBlock
	}
	return engine.Classify(kind, "innertube.player", "%s: %s", ps.Status, ps.Reason)
}

// needsPoToken reports whether a caption track URL requires a PoToken
// (browser-only). Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickTrack selects the best usable caption track for the given language
// preferences: manual track in a preferred language, then auto-generated in
// a preferred language, then any English track, then anything usable.
func pickTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t, true
		}
	}
	return usable[0], true
}

// fetchTimedText fetches and parses a timedtext XML caption URL into
// fragments, preserving source display order.
func (c *Innertube) fetchTimedText(ctx context.Context, baseURL string) ([]engine.Fragment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", engine.UserAgentBot)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, engine.ClassifyStatus("innertube.timedtext", resp.StatusCode, baseURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

func parseTimedText(body []byte) ([]engine.Fragment, error) {
	var tt ytTimedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	fragments := make([]engine.Fragment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := html.UnescapeString(engine.CleanHTML(line.Text))
		if text == "" {
			continue
		}
		fragments = append(fragments, engine.Fragment{
			Text:     text,
			Start:    line.Start,
			Duration: line.Dur,
		})
	}
	return fragments, nil
}
