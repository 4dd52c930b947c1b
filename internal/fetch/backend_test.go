package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/mentions/internal/otel"
)

// fastBackend points at url with no rate limit and instant retries.
func fastBackend(url, token string) *Backend {
	b := NewBackend(BackendOptions{BaseURL: url, Token: token, Timeout: 5 * time.Second})
	b.limiter = rate.NewLimiter(rate.Inf, 1)
	b.backoffs = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	return b
}

const postsJSON = `[
  {"id": 1, "content": "VPS is down", "source": "reddit", "sentiment_label": "negative", "created_at": "2024-03-10T10:00:00Z", "is_answered": true},
  {"id": 2, "content": "love the CDN", "source": "twitter", "language": "en", "sentiment_label": "positive", "created_at": "2024-03-11 08:30:00"}
]`

func TestBackendPosts(t *testing.T) {
	var gotPath, gotAuth, gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(postsJSON))
	}))
	defer server.Close()

	b := fastBackend(server.URL+"/", "secret")
	posts, err := b.Posts(context.Background(), 500)
	if err != nil {
		t.Fatalf("Posts failed: %v", err)
	}

	if gotPath != "/api/posts" {
		t.Errorf("expected /api/posts, got %s", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if gotLimit != "500" {
		t.Errorf("expected limit=500, got %q", gotLimit)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if !posts[0].Answered() || posts[1].Answered() {
		t.Error("is_answered not decoded")
	}
	// Zone-less timestamps are read in local time.
	if posts[1].DateKey(time.Local) != "2024-03-11" {
		t.Errorf("expected tolerant date parse, got %q", posts[1].DateKey(time.Local))
	}
}

func TestBackendNumericAnswered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
  {"id": 1, "content": "a", "source": "reddit", "sentiment_label": "neutral", "created_at": "2024-03-10T10:00:00Z", "is_answered": 1},
  {"id": 2, "content": "b", "source": "reddit", "sentiment_label": "neutral", "created_at": "2024-03-10T11:00:00Z", "is_answered": 0},
  {"id": 3, "content": "c", "source": "reddit", "sentiment_label": "neutral", "created_at": "2024-03-10T12:00:00Z", "is_answered": "n/a"}
]`))
	}))
	defer server.Close()

	posts, err := fastBackend(server.URL, "").Posts(context.Background(), 0)
	if err != nil {
		t.Fatalf("Posts failed: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(posts))
	}
	if !posts[0].Answered() || posts[1].Answered() || posts[2].Answered() {
		t.Errorf("unexpected answered flags: %v %v %v", posts[0].IsAnswered, posts[1].IsAnswered, posts[2].IsAnswered)
	}
}

func TestBackendNoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header")
		}
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query without a limit, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	posts, err := fastBackend(server.URL, "").Posts(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 0 {
		t.Errorf("expected no posts, got %d", len(posts))
	}
}

func TestBackendRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(postsJSON))
	}))
	defer server.Close()

	posts, err := fastBackend(server.URL, "").Posts(context.Background(), 10)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
	if len(posts) != 2 {
		t.Errorf("expected 2 posts, got %d", len(posts))
	}
}

func TestBackendGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := fastBackend(server.URL, "").Posts(context.Background(), 10)
	if err == nil || !strings.Contains(err.Error(), "after 3 retries") {
		t.Fatalf("expected retry exhaustion, got %v", err)
	}
	if calls.Load() != 4 {
		t.Errorf("expected 4 attempts, got %d", calls.Load())
	}
}

func TestBackendNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"bad token"}`))
	}))
	defer server.Close()

	_, err := fastBackend(server.URL, "nope").Posts(context.Background(), 10)
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected a single attempt, got %d", calls.Load())
	}
}

func TestBackendBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not": "an array"}`))
	}))
	defer server.Close()

	if _, err := fastBackend(server.URL, "").Posts(context.Background(), 10); err == nil {
		t.Error("expected parse error")
	}
}

func TestBackendUnavailable(t *testing.T) {
	b := NewBackend(BackendOptions{})
	if b.Available() {
		t.Error("expected unavailable without URL")
	}
	if _, err := b.Posts(context.Background(), 1); err == nil {
		t.Error("expected error without URL")
	}
}

func TestBackendCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBackend(BackendOptions{BaseURL: "http://127.0.0.1:1"})
	if _, err := b.Posts(ctx, 1); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestBackendEmitsEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(postsJSON))
	}))
	defer server.Close()

	events := otel.NewNullLogger()
	ring := otel.NewRingBuffer(16)
	events.SetRingBuffer(ring)

	b := fastBackend(server.URL, "")
	b.events = events
	if _, err := b.Posts(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	events.Close()

	stats := ring.Stats()
	if stats[otel.KindFetchStart] != 1 || stats[otel.KindFetchComplete] != 1 {
		t.Errorf("unexpected events %v", stats)
	}
	if got := ring.Filter(string(otel.KindFetchComplete), "")[0].Count; got != 2 {
		t.Errorf("expected count 2 on complete event, got %d", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		in       string
		expected time.Duration
	}{
		{"5", 5 * time.Second},
		{"120", 30 * time.Second},
		{"", 0},
		{"soon", 0},
		{"-1", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in); got != tt.expected {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}
