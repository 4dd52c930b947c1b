package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/mentions/internal/filter"
	"github.com/abelbrown/mentions/internal/post"
)

const (
	sourceColumn  = 10
	productColumn = 12
	ageColumn     = 14
)

// renderPosts renders one page of posts with the cursor row highlighted.
// product resolves the label shown for each post.
func renderPosts(items []post.Post, cursor, width, height int, product func(post.Post) string, now time.Time) string {
	if height < 1 {
		return ""
	}
	if len(items) == 0 {
		return HelpStyle.Render("No posts to display.") + "\n" + strings.Repeat("\n", height-1)
	}

	offset := scrollOffset(len(items), cursor, height)
	var b strings.Builder
	rendered := 0
	for i := offset; i < len(items) && rendered < height; i++ {
		b.WriteString(renderPostLine(items[i], i == cursor, width, product, now))
		b.WriteString("\n")
		rendered++
	}
	for ; rendered < height; rendered++ {
		b.WriteString("\n")
	}
	return b.String()
}

// scrollOffset keeps the cursor inside a window of height rows.
func scrollOffset(n, cursor, height int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		cursor = n - 1
	}
	if cursor >= height {
		return cursor - height + 1
	}
	return 0
}

func renderPostLine(p post.Post, selected bool, width int, product func(post.Post) string, now time.Time) string {
	marker := sentimentMarker(p.Sentiment)
	answered := " "
	if p.Answered() {
		answered = "✓"
	}

	source := fixedWidth(filter.CanonicalSource(p.Source), sourceColumn)
	label := ""
	if product != nil {
		label = product(p)
	}
	label = fixedWidth(label, productColumn)

	age := "unknown date"
	if t, ok := p.Created(); ok {
		age = humanize.RelTime(t, now, "ago", "from now")
	}
	age = fixedWidth(age, ageColumn)

	prefix := fmt.Sprintf("%s%s %s %s %s ", marker, answered, SourceBadge.Render(source), ProductBadge.Render(label), MetaText.Render(age))
	used := 2 + 1 + sourceColumn + 1 + productColumn + 1 + ageColumn + 1
	content := strings.Join(strings.Fields(p.Content), " ")
	if room := width - used; room > 0 {
		content = runewidth.Truncate(content, room, "…")
	} else {
		content = ""
	}

	if selected {
		return SelectedItem.Render(prefix + content)
	}
	return NormalItem.Render(prefix + content)
}

func sentimentMarker(s post.Sentiment) string {
	switch s {
	case post.Positive:
		return PositiveStyle.Render("●")
	case post.Negative:
		return NegativeStyle.Render("●")
	default:
		return NeutralStyle.Render("●")
	}
}

// fixedWidth truncates or pads s to exactly w columns.
func fixedWidth(s string, w int) string {
	s = runewidth.Truncate(s, w, "…")
	return runewidth.FillRight(s, w)
}
