package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/mentions/internal/otel"
)

// debugPanelChrome is the number of lines DebugPanel's border and padding
// take. Must be updated if DebugPanel changes.
const debugPanelChrome = 4

// debugOverlay renders dashboard counters and recent events from ring.
// Returns "" if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int, now time.Time) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Dashboard Stats"))
	lines = append(lines, fmt.Sprintf("  Loads:      %d complete, %d errors",
		stats[otel.KindFetchComplete], stats[otel.KindFetchError]))
	lines = append(lines, fmt.Sprintf("  Filters:    %d set, %d recomputes, %d recoveries",
		stats[otel.KindFilterSet], stats[otel.KindFilterRecompute], stats[otel.KindFilterRecover]))
	lines = append(lines, fmt.Sprintf("  Chart:      %d intents, %d notices",
		stats[otel.KindSelectionIntent], stats[otel.KindSelectionNotice]))
	lines = append(lines, fmt.Sprintf("  Overrides:  %d saved, %d errors",
		stats[otel.KindOverrideSet], stats[otel.KindOverrideError]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-18s", formatAge(now.Sub(e.Time)), string(e.Kind))
		if e.Key != "" {
			line += "  " + runewidth.Truncate(e.Key+"="+e.Value, 30, "…")
		}
		if e.Msg != "" {
			line += "  " + runewidth.Truncate(e.Msg, 40, "…")
		}
		if e.Err != "" {
			line += "  ERR:" + runewidth.Truncate(e.Err, 30, "…")
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration as a compact human string. Negative
// durations from clock skew clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("[DEBUG]  " + keys)
}
