package sources

import (
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/subtitle"
)

func TestClassifyYtDlp(t *testing.T) {
	runErr := errors.New("exit status 1")
	tests := []struct {
		name   string
		stderr string
		want   engine.ErrorKind
	}{
		{"private video", "ERROR: [youtube] abc: Private video. Sign in if you've been granted access", engine.KindAccessRestricted},
		{"unavailable", "ERROR: [youtube] abc: Video unavailable", engine.KindAccessRestricted},
		{"members only", "ERROR: [youtube] abc: This video is available to this channel's members-only tier", engine.KindAccessRestricted},
		{"geo", "ERROR: [youtube] abc: The uploader has not made this video available in your country", engine.KindGeographicBlock},
		{"bot check", "ERROR: [youtube] abc: Sign in to confirm you're not a bot", engine.KindRateLimited},
		{"http 429", "ERROR: unable to download webpage: HTTP Error 429: Too Many Requests", engine.KindRateLimited},
		{"timeout", "ERROR: unable to download webpage: The read operation timed out", engine.KindTransientNetwork},
		{"unrecognized", "ERROR: something nobody has seen before", engine.KindUnknown},
		{"empty stderr", "", engine.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyYtDlp(tt.stderr, runErr)
			if got := engine.KindOf(err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyYtDlpBinaryMissing(t *testing.T) {
	err := classifyYtDlp("", &exec.Error{Name: "yt-dlp", Err: exec.ErrNotFound})
	if got := engine.KindOf(err); got != engine.KindUnknown {
		t.Errorf("KindOf() = %v, want %v", got, engine.KindUnknown)
	}
}

func TestConvertTracks(t *testing.T) {
	raw := `{
		"subtitles": {
			"en": [
				{"ext": "vtt", "url": "https://yt/sub.vtt"},
				{"ext": "srt", "url": "https://yt/sub.srt"},
				{"ext": "json3", "url": "https://yt/sub.json3"}
			]
		},
		"automatic_captions": {
			"en-US": [
				{"ext": "ttml", "url": "https://yt/auto.ttml"}
			]
		}
	}`

	var info ytDlpInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	subs := convertTracks(info.Subtitles)
	if len(subs["en"]) != 2 {
		t.Fatalf("expected 2 parseable en tracks (json3 dropped), got %d", len(subs["en"]))
	}
	if subs["en"][0].Format != subtitle.VTT {
		t.Errorf("first track format = %v, want vtt", subs["en"][0].Format)
	}

	auto := convertTracks(info.AutomaticCaptions)
	if len(auto["en-US"]) != 1 || auto["en-US"][0].Format != subtitle.TTML {
		t.Errorf("auto captions = %+v, want one ttml track", auto["en-US"])
	}
}

func TestYtDlpArgs(t *testing.T) {
	y := NewYtDlp("")
	watchURL := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	args := y.args(watchURL, engine.ExtractOptions{
		Languages: []string{"en", "en-US"},
		UserAgent: "test-ua",
		Headers: map[string]string{
			"User-Agent":      "must-not-duplicate",
			"accept-language": "en-US,en;q=0.9",
		},
	})

	if args[len(args)-1] != watchURL {
		t.Errorf("last arg = %q, want the watch URL", args[len(args)-1])
	}
	for _, want := range [][2]string{
		{"--sub-langs", "en,en-US"},
		{"--user-agent", "test-ua"},
		{"--add-header", "accept-language:en-US,en;q=0.9"},
	} {
		if !hasArgPair(args, want[0], want[1]) {
			t.Errorf("args %v missing %q %q", args, want[0], want[1])
		}
	}
	for _, a := range args {
		if strings.Contains(a, "must-not-duplicate") {
			t.Errorf("user-agent header must not also be passed via --add-header: %v", args)
		}
	}
}

func TestYtDlpArgsNoLanguages(t *testing.T) {
	y := NewYtDlp("")
	args := y.args("https://www.youtube.com/watch?v=dQw4w9WgXcQ", engine.ExtractOptions{})
	for _, a := range args {
		if a == "--sub-langs" {
			t.Errorf("empty language list must not emit --sub-langs: %v", args)
		}
	}
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestNewYtDlpDefaultPath(t *testing.T) {
	y := NewYtDlp("")
	if y.path != "yt-dlp" {
		t.Errorf("path = %q, want yt-dlp from PATH", y.path)
	}
	y = NewYtDlp("/opt/yt-dlp")
	if y.path != "/opt/yt-dlp" {
		t.Errorf("path = %q, want /opt/yt-dlp", y.path)
	}
}
