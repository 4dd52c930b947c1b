package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/abelbrown/mentions/internal/selection"
	"github.com/abelbrown/mentions/internal/timeline"
)

func buckets(n int) []timeline.DayBucket {
	out := make([]timeline.DayBucket, n)
	for i := range out {
		out[i] = timeline.DayBucket{
			DateKey:  fmt.Sprintf("2024-01-%02d", i+1),
			Positive: i % 3,
			Negative: 1,
			Neutral:  i % 2,
			PostIDs:  []int64{int64(i)},
		}
	}
	return out
}

func TestVisibleWindow(t *testing.T) {
	tests := []struct {
		name          string
		n, days       int
		width, scroll int
		start, count  int
	}{
		{"all fit", 10, 0, 100, 0, 0, 10},
		{"day cap", 10, 4, 100, 0, 6, 4},
		{"scrolled", 10, 4, 100, 2, 4, 4},
		{"scroll clamped", 10, 4, 100, 99, 0, 4},
		{"width cap", 100, 0, 27, 0, 90, 10},
		{"no buckets", 0, 0, 100, 0, 0, 0},
		{"too narrow", 5, 0, 7, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, count := visibleWindow(tt.n, tt.days, tt.width, tt.scroll)
			if start != tt.start || count != tt.count {
				t.Errorf("expected (%d, %d), got (%d, %d)", tt.start, tt.count, start, count)
			}
		})
	}
}

func TestChartLayoutMapsBarCentres(t *testing.T) {
	b := buckets(30)
	for _, width := range []int{40, 80, 133} {
		start, count := visibleWindow(len(b), 0, width, 3)
		l := chartLayout(b, start, count, chartTop, width)
		if l.ScaleMin != start || l.ScaleMax != start+count-1 || l.Count != 30 {
			t.Fatalf("width %d: unexpected scale %d..%d of %d", width, l.ScaleMin, l.ScaleMax, l.Count)
		}
		for _, bar := range l.Bars {
			if got := l.IndexAt(float64(bar.Rect.X + bar.Rect.W/2)); got != bar.Index {
				t.Errorf("width %d: bar %d centre maps to %d", width, bar.Index, got)
			}
			if bar.Rect.Y+bar.Rect.H != chartTop+chartRows {
				t.Errorf("width %d: bar %d not on the baseline", width, bar.Index)
			}
		}
	}
}

func TestChartLayoutSingleBucket(t *testing.T) {
	l := chartLayout(buckets(1), 0, 1, chartTop, 80)
	if l.Left != l.Right {
		t.Fatalf("expected degenerate span, got %v..%v", l.Left, l.Right)
	}
	if got := l.IndexAt(70); got != 0 {
		t.Errorf("expected index 0, got %d", got)
	}
}

func TestBarHeight(t *testing.T) {
	tests := []struct {
		total, peak, want int
	}{
		{0, 10, 0},
		{1, 100, 1},
		{5, 10, 4},
		{10, 10, chartRows},
	}
	for _, tt := range tests {
		if got := barHeight(tt.total, tt.peak); got != tt.want {
			t.Errorf("barHeight(%d, %d) = %d, want %d", tt.total, tt.peak, got, tt.want)
		}
	}
}

func TestRenderChartLineCount(t *testing.T) {
	b := buckets(12)
	start, count := visibleWindow(len(b), 0, 80, 0)
	l := chartLayout(b, start, count, chartTop, 80)

	out := renderChart(b, l, 0, 0, false, 80)
	if lines := strings.Count(out, "\n"); lines != chartLines {
		t.Errorf("expected %d lines, got %d", chartLines, lines)
	}
	if !strings.Contains(out, "Jan 1, 2024") || !strings.Contains(out, "Jan 12") {
		t.Errorf("expected first and last date labels, got:\n%s", out)
	}

	empty := renderChart(nil, selection.Layout{}, 0, 0, false, 80)
	if lines := strings.Count(empty, "\n"); lines != chartLines {
		t.Errorf("expected empty chart to keep %d lines, got %d", chartLines, lines)
	}
}

func TestRenderChartHighlightsOverlay(t *testing.T) {
	b := buckets(5)
	l := chartLayout(b, 0, 5, chartTop, 60)

	plain := renderChart(b, l, 1, 3, false, 60)
	dragging := renderChart(b, l, 1, 3, true, 60)
	if strings.Contains(plain, "░") {
		t.Error("expected no overlay fill when idle")
	}
	if !strings.Contains(dragging, "░") {
		t.Error("expected overlay fill above the selected bars")
	}
}

func TestSegmentStacksNegativeFirst(t *testing.T) {
	bucket := timeline.DayBucket{Positive: 2, Negative: 2, Neutral: 4}
	tests := []struct {
		h, level int
		want     segment
	}{
		{8, 1, segNegative},
		{8, 2, segNegative},
		{8, 3, segNeutral},
		{8, 6, segNeutral},
		{8, 7, segPositive},
		{8, 8, segPositive},
		{4, 5, segNone},
	}
	for _, tt := range tests {
		if got := segmentAt(bucket, tt.h, tt.level); got != tt.want {
			t.Errorf("segmentAt(h=%d, level=%d) = %d, want %d", tt.h, tt.level, got, tt.want)
		}
	}
	if got := segmentAt(timeline.DayBucket{}, 8, 1); got != segNone {
		t.Errorf("expected empty bucket to draw nothing, got %d", got)
	}
}
