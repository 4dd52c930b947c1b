// Package fetch loads posts for the dashboard.
//
// Backend reads the mention corpus from the external API. FeedSource turns
// RSS or Atom feeds into posts for brands that are not covered by the
// backend. Collect runs all of them and merges the results.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/mentions/internal/otel"
	"github.com/abelbrown/mentions/internal/post"
)

const userAgent = "Mentions/1.0 (+https://github.com/abelbrown/mentions)"

// maxResponseBytes caps the backend response body.
const maxResponseBytes = 32 << 20

// BackendOptions configure a Backend.
type BackendOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// Every is the minimum spacing between requests. Zero means one per second.
	Every  time.Duration
	Events *otel.Logger
}

// Backend reads posts from the mentions API.
type Backend struct {
	baseURL  string
	token    string
	client   *http.Client
	limiter  *rate.Limiter
	backoffs []time.Duration
	events   *otel.Logger
}

// NewBackend creates a backend client.
func NewBackend(opts BackendOptions) *Backend {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Every <= 0 {
		opts.Every = time.Second
	}
	return &Backend{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		token:    opts.Token,
		client:   &http.Client{Timeout: opts.Timeout},
		limiter:  rate.NewLimiter(rate.Every(opts.Every), 1),
		backoffs: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
		events:   opts.Events,
	}
}

// Name identifies the backend in events.
func (b *Backend) Name() string {
	return "backend"
}

// Available reports whether a base URL is configured.
func (b *Backend) Available() bool {
	return b.baseURL != ""
}

// Posts reads up to limit posts. limit <= 0 lets the backend decide.
func (b *Backend) Posts(ctx context.Context, limit int) ([]post.Post, error) {
	if !b.Available() {
		return nil, fmt.Errorf("backend: no base URL configured")
	}
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	endpoint, err := url.Parse(b.baseURL + "/api/posts")
	if err != nil {
		return nil, fmt.Errorf("parse backend URL: %w", err)
	}
	if limit > 0 {
		q := endpoint.Query()
		q.Set("limit", strconv.Itoa(limit))
		endpoint.RawQuery = q.Encode()
	}

	start := time.Now()
	b.events.Emit(otel.Event{Kind: otel.KindFetchStart, Level: otel.LevelInfo, Comp: "fetch", Source: b.Name()})

	body, err := b.doWithRetry(ctx, endpoint.String())
	if err != nil {
		b.events.Emit(otel.Event{Kind: otel.KindFetchError, Level: otel.LevelError, Comp: "fetch", Source: b.Name(), Err: err.Error(), Dur: time.Since(start)})
		return nil, err
	}

	var posts []post.Post
	if err := json.Unmarshal(body, &posts); err != nil {
		err = fmt.Errorf("parse response: %w", err)
		b.events.Emit(otel.Event{Kind: otel.KindFetchError, Level: otel.LevelError, Comp: "fetch", Source: b.Name(), Err: err.Error(), Dur: time.Since(start)})
		return nil, err
	}

	b.events.Emit(otel.Event{Kind: otel.KindFetchComplete, Level: otel.LevelInfo, Comp: "fetch", Source: b.Name(), Count: len(posts), Dur: time.Since(start)})
	return posts, nil
}

// doWithRetry retries 429 and 5xx responses with backoff, honoring
// Retry-After on 429. Other statuses fail immediately.
func (b *Backend) doWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= len(b.backoffs); attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)
		if b.token != "" {
			req.Header.Set("Authorization", "Bearer "+b.token)
		}

		resp, err := b.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			if !b.wait(ctx, attempt, 0) {
				return nil, ctx.Err()
			}
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read response: %w", readErr)
			if !b.wait(ctx, attempt, 0) {
				return nil, ctx.Err()
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("backend error (status %d): %s", resp.StatusCode, snippet(body))
			var retryAfter time.Duration
			if resp.StatusCode == http.StatusTooManyRequests {
				retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
			}
			if !b.wait(ctx, attempt, retryAfter) {
				return nil, ctx.Err()
			}
			continue
		}

		return nil, fmt.Errorf("backend error (status %d): %s", resp.StatusCode, snippet(body))
	}

	return nil, fmt.Errorf("backend request failed after %d retries: %w", len(b.backoffs), lastErr)
}

// wait sleeps before the next attempt. Returns false if ctx ended first.
func (b *Backend) wait(ctx context.Context, attempt int, override time.Duration) bool {
	if attempt >= len(b.backoffs) {
		return true
	}
	delay := b.backoffs[attempt]
	if override > 0 {
		delay = override
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

// parseRetryAfter reads a seconds value, capped at 30s.
func parseRetryAfter(v string) time.Duration {
	seconds, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || seconds <= 0 {
		return 0
	}
	d := time.Duration(seconds) * time.Second
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
