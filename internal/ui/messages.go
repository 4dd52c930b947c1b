// Package ui provides the Bubble Tea dashboard for mentions.
package ui

import (
	"github.com/abelbrown/mentions/internal/fetch"
	"github.com/abelbrown/mentions/internal/post"
)

// PostsLoaded is sent when a load of all sources finishes.
type PostsLoaded struct {
	Posts  []post.Post
	Failed []fetch.SourceError
	Err    error
}

// OverrideSaved is sent when a product override has been written.
type OverrideSaved struct {
	PostID int64
	Label  string
	Err    error
}

// RefreshTick triggers periodic reloads.
type RefreshTick struct{}

// resolveTick fires after the double-click window so a pending single click
// can become a date filter.
type resolveTick struct{}

// noticeExpired clears the notice it was scheduled for. Later notices bump
// seq, so stale timers are ignored.
type noticeExpired struct {
	seq int
}
