package fetch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/mentions/internal/logging"
	"github.com/abelbrown/mentions/internal/post"
)

// maxConcurrentFetches bounds parallel source requests.
const maxConcurrentFetches = 4

// ErrNoSources is returned by Load when nothing is configured.
var ErrNoSources = errors.New("fetch: no sources configured")

// SourceError records a failed source in an otherwise usable load.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e SourceError) Unwrap() error {
	return e.Err
}

// Result is the merged output of one load.
type Result struct {
	Posts  []post.Post
	Failed []SourceError
}

// Loader fans out to the backend and every feed.
type Loader struct {
	Backend *Backend
	Feeds   []*FeedSource
	Limit   int
}

// Load runs every source concurrently and merges the posts, newest first.
// Posts are de-duplicated by id with the backend winning. Load fails only
// when every source failed.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	type job struct {
		name string
		run  func(context.Context) ([]post.Post, error)
	}
	var jobs []job
	if l.Backend != nil && l.Backend.Available() {
		jobs = append(jobs, job{l.Backend.Name(), func(ctx context.Context) ([]post.Post, error) {
			return l.Backend.Posts(ctx, l.Limit)
		}})
	}
	for _, f := range l.Feeds {
		jobs = append(jobs, job{f.Name(), f.Posts})
	}
	if len(jobs) == 0 {
		return Result{}, ErrNoSources
	}

	batches := make([][]post.Post, len(jobs))
	var (
		mu     sync.Mutex
		failed []SourceError
	)

	var g errgroup.Group
	g.SetLimit(maxConcurrentFetches)
	for i, j := range jobs {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			posts, err := j.run(ctx)
			if err != nil {
				logging.Warn("Source failed", "source", j.name, "error", err)
				mu.Lock()
				failed = append(failed, SourceError{Source: j.name, Err: err})
				mu.Unlock()
				return nil
			}
			batches[i] = posts
			return nil
		})
	}
	_ = g.Wait() // workers report failures through failed, never through the group

	if ctx.Err() != nil {
		return Result{}, ctx.Err()
	}
	if len(failed) == len(jobs) {
		return Result{Failed: failed}, fmt.Errorf("all %d sources failed: %w", len(jobs), failed[0])
	}

	seen := make(map[int64]bool)
	var merged []post.Post
	for _, batch := range batches {
		for _, p := range batch {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			merged = append(merged, p)
		}
	}
	SortNewestFirst(merged)

	sort.Slice(failed, func(i, j int) bool { return failed[i].Source < failed[j].Source })
	logging.Info("Posts loaded", "posts", len(merged), "sources", len(jobs), "failed", len(failed))
	return Result{Posts: merged, Failed: failed}, nil
}

// SortNewestFirst orders posts by creation time, newest first. Posts with a
// malformed created_at go last in their original order.
func SortNewestFirst(posts []post.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		ti, iok := posts[i].Created()
		tj, jok := posts[j].Created()
		if iok != jok {
			return iok
		}
		return iok && ti.After(tj)
	})
}
