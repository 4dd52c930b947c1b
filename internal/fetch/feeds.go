package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/abelbrown/mentions/internal/otel"
	"github.com/abelbrown/mentions/internal/post"
)

// FeedConfig describes one RSS or Atom mention feed.
type FeedConfig struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	Language string   `json:"language,omitempty"`
	Keywords []string `json:"keywords,omitempty"` // keep only items mentioning one of these
}

// FeedSource reads a feed and maps its items to posts.
type FeedSource struct {
	cfg    FeedConfig
	client *http.Client
	events *otel.Logger
}

// NewFeedSource creates a feed source with the given HTTP timeout.
func NewFeedSource(cfg FeedConfig, timeout time.Duration, events *otel.Logger) *FeedSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FeedSource{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		events: events,
	}
}

// Name returns the configured feed name.
func (f *FeedSource) Name() string {
	return f.cfg.Name
}

// Posts fetches the feed. Sentiment is unknown for feed items, so every
// post is neutral. Items without a date get the fetch time.
func (f *FeedSource) Posts(ctx context.Context) ([]post.Post, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	start := time.Now()
	f.events.Emit(otel.Event{Kind: otel.KindFetchStart, Level: otel.LevelInfo, Comp: "fetch", Source: f.cfg.Name})

	posts, err := f.fetch(ctx, start)
	if err != nil {
		f.events.Emit(otel.Event{Kind: otel.KindFetchError, Level: otel.LevelWarn, Comp: "fetch", Source: f.cfg.Name, Err: err.Error(), Dur: time.Since(start)})
		return nil, err
	}
	f.events.Emit(otel.Event{Kind: otel.KindFetchComplete, Level: otel.LevelInfo, Comp: "fetch", Source: f.cfg.Name, Count: len(posts), Dur: time.Since(start)})
	return posts, nil
}

func (f *FeedSource) fetch(ctx context.Context, now time.Time) ([]post.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	posts := make([]post.Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		if !f.mentions(item) {
			continue
		}
		posts = append(posts, f.convert(item, now))
	}
	return posts, nil
}

// mentions reports whether an item matches the keyword list.
func (f *FeedSource) mentions(item *gofeed.Item) bool {
	if len(f.cfg.Keywords) == 0 {
		return true
	}
	text := strings.ToLower(item.Title + " " + item.Description + " " + item.Content)
	for _, k := range f.cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func (f *FeedSource) convert(item *gofeed.Item, fetched time.Time) post.Post {
	created := fetched
	if item.PublishedParsed != nil {
		created = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		created = *item.UpdatedParsed
	}

	author := ""
	if item.Author != nil {
		author = item.Author.Name
	}

	content := strings.TrimSpace(item.Title)
	if desc := strings.TrimSpace(item.Description); desc != "" {
		content += "\n" + truncate(desc, 1000)
	}

	language := f.cfg.Language
	if language == "" {
		language = "unknown"
	}

	return post.Post{
		ID:        itemID(item),
		Content:   content,
		Author:    author,
		URL:       item.Link,
		Source:    strings.ToLower(f.cfg.Name),
		Language:  language,
		Sentiment: post.Neutral,
		CreatedAt: created.UTC().Format(time.RFC3339),
	}
}

// itemID derives a stable positive id from the GUID, the link, or the title.
// Backend ids are small sequential integers; the top bit of the hash space
// keeps feed ids clear of them.
func itemID(item *gofeed.Item) int64 {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = item.Title
		if item.PublishedParsed != nil {
			key += item.PublishedParsed.String()
		}
	}
	h := sha256.Sum256([]byte(key))
	v := binary.BigEndian.Uint64(h[:8])
	return int64(v>>2) | 1<<61
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
