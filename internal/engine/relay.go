package engine

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// relayGateway is the rotating-egress endpoint of the relay provider.
const relayGateway = "p.webshare.io:80"

// RelayConfig is the network relay (proxy) used to vary the apparent origin
// of primary-source requests. Credentials are injected configuration, never
// embedded in code.
type RelayConfig struct {
	Username string
	Password string
	// Countries restricts egress to the given locations, e.g. ["us", "de"].
	Countries []string
}

// Enabled reports whether relay routing is configured.
func (r RelayConfig) Enabled() bool { return r.Username != "" && r.Password != "" }

// NewRelayClient builds an HTTP client that routes through the relay
// gateway. The gateway rotates egress per request; preferred countries are
// encoded as username modifiers. Callers fall back to a direct client when
// this fails rather than aborting the extraction.
func NewRelayClient(r RelayConfig, timeout time.Duration) (*http.Client, error) {
	if !r.Enabled() {
		return nil, fmt.Errorf("relay: missing credentials")
	}

	user := r.Username + "-rotate"
	if len(r.Countries) > 0 {
		user = r.Username + "-" + strings.ToLower(strings.Join(r.Countries, "-")) + "-rotate"
	}

	proxyURL, err := url.Parse("http://" + relayGateway)
	if err != nil {
		return nil, fmt.Errorf("relay: parse gateway: %w", err)
	}
	proxyURL.User = url.UserPassword(user, r.Password)

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyURL(proxyURL),
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     60 * time.Second,
		},
	}, nil
}
