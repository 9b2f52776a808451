package engine

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// maxSubtitleBytes bounds a single subtitle/timedtext download.
const maxSubtitleBytes = 2 * 1024 * 1024

// fetchRaw performs an HTTP GET with exponential backoff on retryable
// statuses. Headers override the defaults; a User-Agent is always set.
func fetchRaw(ctx context.Context, client *http.Client, fetchURL string, headers map[string]string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		req.Header.Set("User-Agent", RandomUserAgent())
		req.Header.Set("Accept", "text/plain,*/*;q=0.9")
		req.Header.Set("Accept-Encoding", "gzip, deflate")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		defer resp.Body.Close()

		if IsRetryableStatus(resp.StatusCode) {
			return nil, ClassifyStatus("fetch", resp.StatusCode, fetchURL)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(ClassifyStatus("fetch", resp.StatusCode, fetchURL))
		}

		return readResponseBody(resp)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 10 * time.Second

	return backoff.Retry(ctx, operation, backoff.WithBackOff(bo), backoff.WithMaxTries(3), backoff.WithMaxElapsedTime(30*time.Second))
}

// readResponseBody reads the response body, handling gzip decompression if needed.
func readResponseBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(io.LimitReader(r, maxSubtitleBytes))
}
