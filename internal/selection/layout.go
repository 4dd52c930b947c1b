package selection

import "math"

// Point is a pointer position in screen cells.
type Point struct {
	X, Y int
}

// Rect is an axis-aligned screen region. W and H are in cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Bar is the rendered element for one bucket.
type Bar struct {
	Index int
	Rect  Rect
}

// Layout is the chart geometry the renderer publishes after each draw.
//
// Left and Right are the screen x of the first and last visible bucket,
// ScaleMin and ScaleMax their bucket indices. Count is the total number of
// buckets, visible or not.
type Layout struct {
	Plot     Rect
	Left     float64
	Right    float64
	ScaleMin int
	ScaleMax int
	Count    int
	Bars     []Bar
}

// Empty reports whether there is nothing to select.
func (l Layout) Empty() bool {
	return l.Count <= 0
}

// IndexAt maps a screen x to the nearest bucket index, clamped to
// [0, Count-1]. Live drag feedback and the final selection both go through
// here. Halfway positions round to the even index.
func (l Layout) IndexAt(x float64) int {
	if l.Count <= 0 {
		return 0
	}
	idx := l.ScaleMin
	if span := l.Right - l.Left; span != 0 {
		v := (x-l.Left)/span*float64(l.ScaleMax-l.ScaleMin) + float64(l.ScaleMin)
		idx = int(math.RoundToEven(v))
	}
	if idx < 0 {
		idx = 0
	}
	if idx > l.Count-1 {
		idx = l.Count - 1
	}
	return idx
}

// BarAt returns the bar under p, if any.
func (l Layout) BarAt(p Point) (Bar, bool) {
	for _, b := range l.Bars {
		if b.Rect.Contains(p) {
			return b, true
		}
	}
	return Bar{}, false
}
