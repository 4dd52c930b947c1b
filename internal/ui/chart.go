package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/mentions/internal/selection"
	"github.com/abelbrown/mentions/internal/timeline"
)

const (
	chartRows = 8 // rows of bar cells
	axisWidth = 6 // y label plus the axis rune
	minSlot   = 2
	maxSlot   = 6
	// chartLines is the bar rows plus the x axis and the date labels.
	chartLines = chartRows + 2
	barRune    = "█"
)

// visibleWindow picks which buckets fit in width columns. scroll counts
// buckets hidden to the right of the window; 0 shows the newest days.
func visibleWindow(n, maxDays, width, scroll int) (start, count int) {
	plotW := width - axisWidth - 1
	if n == 0 || plotW < minSlot {
		return 0, 0
	}
	count = n
	if maxDays > 0 && count > maxDays {
		count = maxDays
	}
	if fit := plotW / minSlot; count > fit {
		count = fit
	}
	scroll = clampInt(scroll, 0, n-count)
	return n - count - scroll, count
}

// chartLayout computes the geometry of the visible buckets with the plot's
// first row at screen row top. The selection controller maps pointer
// positions through the returned layout.
func chartLayout(buckets []timeline.DayBucket, start, count, top, width int) selection.Layout {
	if count <= 0 || start < 0 || start+count > len(buckets) {
		return selection.Layout{}
	}
	slot := (width - axisWidth - 1) / count
	if slot > maxSlot {
		slot = maxSlot
	}
	barW := slot - 1
	if barW < 1 {
		barW = 1
	}

	visible := buckets[start : start+count]
	peak := timeline.Max(visible)
	l := selection.Layout{
		Plot:     selection.Rect{X: axisWidth, Y: top, W: count * slot, H: chartRows},
		ScaleMin: start,
		ScaleMax: start + count - 1,
		Count:    len(buckets),
	}
	for j, b := range visible {
		h := barHeight(b.Total(), peak)
		l.Bars = append(l.Bars, selection.Bar{
			Index: start + j,
			Rect:  selection.Rect{X: axisWidth + j*slot, Y: top + chartRows - h, W: barW, H: h},
		})
	}
	l.Left = float64(axisWidth + barW/2)
	l.Right = float64(axisWidth + (count-1)*slot + barW/2)
	return l
}

func barHeight(total, peak int) int {
	if total <= 0 || peak <= 0 {
		return 0
	}
	h := int(math.Ceil(float64(total) * chartRows / float64(peak)))
	return clampInt(h, 1, chartRows)
}

// renderChart draws the stacked sentiment bars for layout. Buckets in
// [lo, hi] are painted as selected while dragging is true. Always returns
// chartLines lines.
func renderChart(buckets []timeline.DayBucket, l selection.Layout, lo, hi int, dragging bool, width int) string {
	if l.Empty() || len(l.Bars) == 0 {
		return emptyChart(width)
	}

	slot := l.Bars[0].Rect.W + 1
	if len(l.Bars) > 1 {
		slot = l.Bars[1].Rect.X - l.Bars[0].Rect.X
	}
	peak := timeline.Max(buckets[l.ScaleMin : l.ScaleMax+1])

	var b strings.Builder
	for r := 0; r < chartRows; r++ {
		level := chartRows - r
		label := ""
		if r == 0 {
			label = fmt.Sprintf("%d", peak)
		}
		b.WriteString(AxisStyle.Render(fmt.Sprintf("%*s│", axisWidth-1, label)))
		for _, bar := range l.Bars {
			bucket := buckets[bar.Index]
			selected := dragging && bar.Index >= lo && bar.Index <= hi
			cell := " "
			if seg := segmentAt(bucket, bar.Rect.H, level); seg != segNone {
				style := segmentStyle(seg)
				if selected {
					style = SelectedBar
				}
				cell = style.Render(barRune)
			} else if selected {
				cell = SelectedBar.Render("░")
			}
			b.WriteString(strings.Repeat(cell, bar.Rect.W))
			b.WriteString(strings.Repeat(" ", slot-bar.Rect.W))
		}
		b.WriteString("\n")
	}

	plotW := len(l.Bars) * slot
	b.WriteString(AxisStyle.Render(strings.Repeat(" ", axisWidth-1) + "└" + strings.Repeat("─", plotW)))
	b.WriteString("\n")
	b.WriteString(AxisStyle.Render(dateAxis(buckets, l, slot, width)))
	b.WriteString("\n")
	return b.String()
}

type segment int

const (
	segNone segment = iota
	segNegative
	segNeutral
	segPositive
)

// segmentAt returns what fills the cell at level (1 = bottom) of a bar of
// height h. Negative stacks at the bottom, then neutral, then positive.
func segmentAt(bucket timeline.DayBucket, h, level int) segment {
	total := bucket.Total()
	if level > h || total == 0 {
		return segNone
	}
	neg := int(math.Round(float64(bucket.Negative) * float64(h) / float64(total)))
	neu := int(math.Round(float64(bucket.Neutral) * float64(h) / float64(total)))
	if neg+neu > h {
		neu = h - neg
	}
	switch {
	case level <= neg:
		return segNegative
	case level <= neg+neu:
		return segNeutral
	default:
		return segPositive
	}
}

func segmentStyle(s segment) lipgloss.Style {
	switch s {
	case segNegative:
		return NegativeStyle
	case segNeutral:
		return NeutralStyle
	default:
		return PositiveStyle
	}
}

// dateAxis labels the first and last visible buckets.
func dateAxis(buckets []timeline.DayBucket, l selection.Layout, slot, width int) string {
	labels := timeline.Labels(buckets)
	first := labels[l.ScaleMin]
	line := strings.Repeat(" ", axisWidth) + first
	if l.ScaleMax > l.ScaleMin {
		last := labels[l.ScaleMax]
		end := axisWidth + len(l.Bars)*slot
		pad := end - runewidth.StringWidth(line) - runewidth.StringWidth(last)
		if pad >= 2 {
			line += strings.Repeat(" ", pad) + last
		}
	}
	return runewidth.Truncate(line, width, "")
}

func emptyChart(width int) string {
	lines := make([]string, chartLines)
	lines[chartLines/2-1] = HelpStyle.Render(runewidth.Truncate("No mentions match the current filters. Press c to clear them.", width, "…"))
	return strings.Join(lines, "\n") + "\n"
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
