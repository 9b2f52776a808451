// go_transcript — YouTube transcript extraction CLI.
//
// Tries independent acquisition strategies in priority order:
//  1. direct transcript service (Innertube player → timedtext), optionally
//     routed through a network relay
//  2. yt-dlp metadata extraction → subtitle track download → parser
//
// Heterogeneous subtitle containers (vtt, srt, ttml) are normalized into
// plain text; a result counts only above a minimum viable length.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
)

func main() {
	format := flag.String("format", "json", "output format: json or text")
	flag.Usage = usage
	flag.Parse()

	setupLogging()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	id, err := engine.ParseVideoID(flag.Arg(0))
	if err != nil {
		msg := "Invalid video ID format"
		render(engine.Outcome{Error: &msg, Kind: engine.KindInvalidInput}, *format)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := buildConfig()
	ex := engine.NewExtractor(cfg,
		engine.NewPrimary(sources.NewInnertube(cfg.HTTPClient), cfg),
		engine.NewSecondary(sources.NewYtDlp(cfg.YtDlpPath), cfg),
	)

	out := ex.Extract(ctx, id)
	slog.Debug("extraction finished", slog.String("metrics", engine.FormatMetrics()))

	os.Exit(render(out, *format))
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: go_transcript [-format json|text] VIDEO_ID")
	flag.PrintDefaults()
}

func setupLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(env.Str("LOG_LEVEL", "info")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	// Diagnostics go to stderr; stdout carries only the result.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func buildConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.MinTranscriptChars = env.Int("TRANSCRIPT_MIN_CHARS", cfg.MinTranscriptChars)
	if langs := env.List("TRANSCRIPT_LANGS", ""); len(langs) > 0 {
		cfg.LanguagePreferences = langs
		cfg.TrackLanguages = langs
	}
	cfg.YtDlpPath = env.Str("YTDLP_PATH", "")

	timeout := env.Duration("FETCH_TIMEOUT", 15*time.Second)
	cfg.HTTPClient.Timeout = timeout

	cfg.Relay = engine.RelayConfig{
		Username:  env.Str("WEBSHARE_PROXY_USERNAME", ""),
		Password:  env.Str("WEBSHARE_PROXY_PASSWORD", ""),
		Countries: env.List("WEBSHARE_PROXY_COUNTRIES", "us,de"),
	}
	if cfg.Relay.Enabled() {
		client, err := engine.NewRelayClient(cfg.Relay, timeout)
		if err != nil {
			engine.IncrRelayFallback()
			slog.Warn("relay setup failed, using direct connection", slog.Any("error", err))
		} else {
			cfg.HTTPClient = client
			slog.Info("relay configured",
				slog.String("countries", strings.Join(cfg.Relay.Countries, ",")))
		}
	}

	// Stealth browser client for subtitle downloads (optional).
	opts := []stealth.ClientOption{stealth.WithTimeout(15)}
	if apiKey := env.Str("WEBSHARE_API_KEY", ""); apiKey != "" {
		pool, err := proxypool.NewWebshare(apiKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Warn("stealth client init failed, plain downloads only", slog.Any("error", err))
	} else {
		cfg.BrowserClient = bc
	}

	return cfg
}

// render writes the outcome and returns the process exit code. JSON mode
// always emits the full record; text mode prints the bare transcript on
// success and an error line on failure.
func render(out engine.Outcome, format string) int {
	if format == "text" {
		if out.Success {
			fmt.Println(*out.Transcript)
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", *out.Error)
		return 1
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode outcome: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	if out.Kind == engine.KindInvalidInput {
		return 1
	}
	return 0
}
