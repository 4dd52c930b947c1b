package fetch

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/abelbrown/mentions/internal/post"
)

func TestLoaderMergesAndDedupes(t *testing.T) {
	api := feedServer(t, `[
		{"id": 1, "content": "older", "source": "reddit", "sentiment_label": "neutral", "created_at": "2024-03-09T10:00:00Z"},
		{"id": 2, "content": "newer", "source": "reddit", "sentiment_label": "neutral", "created_at": "2024-03-11T10:00:00Z"},
		{"id": 2, "content": "dupe", "source": "reddit", "sentiment_label": "neutral", "created_at": "2024-03-11T10:00:00Z"}
	]`, http.StatusOK)
	feed := feedServer(t, mentionFeed, http.StatusOK)

	l := &Loader{
		Backend: fastBackend(api.URL, ""),
		Feeds:   []*FeedSource{NewFeedSource(FeedConfig{Name: "Forum", URL: feed.URL, Keywords: []string{"vps"}}, 0, nil)},
		Limit:   100,
	}
	res, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(res.Failed) != 0 {
		t.Errorf("unexpected failures %v", res.Failed)
	}
	if len(res.Posts) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(res.Posts))
	}
	if res.Posts[0].ID != 2 || res.Posts[0].Content != "newer" {
		t.Errorf("expected newest backend post first, got %+v", res.Posts[0])
	}
	if res.Posts[2].ID != 1 {
		t.Errorf("expected oldest last, got %d", res.Posts[2].ID)
	}
}

func TestLoaderPartialFailure(t *testing.T) {
	api := feedServer(t, `[{"id": 1, "source": "x", "created_at": "2024-03-09T10:00:00Z"}]`, http.StatusOK)
	bad := feedServer(t, "", http.StatusInternalServerError)

	l := &Loader{
		Backend: fastBackend(api.URL, ""),
		Feeds:   []*FeedSource{NewFeedSource(FeedConfig{Name: "broken", URL: bad.URL}, 0, nil)},
	}
	res, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("partial failure should not fail the load: %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0].Source != "broken" {
		t.Errorf("expected broken feed reported, got %v", res.Failed)
	}
	if len(res.Posts) != 1 {
		t.Errorf("expected 1 post, got %d", len(res.Posts))
	}
}

func TestLoaderAllFailed(t *testing.T) {
	bad := feedServer(t, "", http.StatusNotFound)
	l := &Loader{Feeds: []*FeedSource{NewFeedSource(FeedConfig{Name: "a", URL: bad.URL}, 0, nil)}}

	_, err := l.Load(context.Background())
	if err == nil {
		t.Fatal("expected error when every source fails")
	}
	var se SourceError
	if !errors.As(err, &se) || se.Source != "a" {
		t.Errorf("expected SourceError for a, got %v", err)
	}
}

func TestLoaderNoSources(t *testing.T) {
	l := &Loader{Backend: NewBackend(BackendOptions{})}
	if _, err := l.Load(context.Background()); !errors.Is(err, ErrNoSources) {
		t.Errorf("expected ErrNoSources, got %v", err)
	}
}

func TestSortNewestFirst(t *testing.T) {
	posts := []post.Post{
		{ID: 1, CreatedAt: "bad"},
		{ID: 2, CreatedAt: "2024-03-09T10:00:00Z"},
		{ID: 3, CreatedAt: "2024-03-10T10:00:00Z"},
	}
	SortNewestFirst(posts)
	if posts[0].ID != 3 || posts[1].ID != 2 || posts[2].ID != 1 {
		t.Errorf("unexpected order %d %d %d", posts[0].ID, posts[1].ID, posts[2].ID)
	}
}
