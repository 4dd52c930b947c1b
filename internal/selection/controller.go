// Package selection interprets pointer gestures over the timeline chart.
//
// A Controller turns pointer-down/move/up/leave events into one of three
// intents: filter by a single date, by a date range, or by the dominant
// product of a date. It never touches filter state; callers subscribe with
// OnIntent and apply the intent themselves.
//
// Timestamps are passed in by the caller so gestures can be replayed in
// tests without sleeping.
package selection

import (
	"fmt"
	"sort"
	"time"

	"github.com/abelbrown/mentions/internal/logging"
	"github.com/abelbrown/mentions/internal/timeline"
)

// DefaultDoubleClick is the default double-click window.
const DefaultDoubleClick = 300 * time.Millisecond

// Phase is the gesture state.
type Phase int

const (
	Idle Phase = iota
	Dragging
)

func (p Phase) String() string {
	if p == Dragging {
		return "dragging"
	}
	return "idle"
}

// Intent is a filter request produced by a gesture.
type Intent interface {
	intent()
}

// DateIntent asks to filter to a single day.
type DateIntent struct {
	Date string
}

// RangeIntent asks to filter to an inclusive range of days.
type RangeIntent struct {
	From, To string
}

// ProductIntent asks to filter to one product on one day.
type ProductIntent struct {
	Product string
	Date    string
}

func (DateIntent) intent()    {}
func (RangeIntent) intent()   {}
func (ProductIntent) intent() {}

// NoticeKind classifies a transient notice.
type NoticeKind int

const (
	NoticeTooSmall NoticeKind = iota
	NoticeRange
)

// Notice is a short-lived status message for the user.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Cursor is the pointer affordance for a position.
type Cursor int

const (
	CursorCrosshair Cursor = iota
	CursorPointer
)

func (c Cursor) String() string {
	if c == CursorPointer {
		return "pointer"
	}
	return "crosshair"
}

// ProductResolver returns the product label of a post.
type ProductResolver func(postID int64) string

type pendingClick struct {
	index int
	date  string
	at    time.Time
}

// Controller is the gesture state machine. Not safe for concurrent use.
type Controller struct {
	threshold time.Duration
	product   ProductResolver

	layout  Layout
	buckets []timeline.DayBucket

	phase         Phase
	anchor        int
	end           int
	moved         bool
	pointerDownAt time.Time
	lastClickAt   time.Time
	pending       *pendingClick

	intentListeners []func(Intent)
	noticeListeners []func(Notice)
}

// New creates a controller. A non-positive threshold means
// DefaultDoubleClick. product may be nil, in which case double-clicks
// resolve to an empty product and are dropped.
func New(threshold time.Duration, product ProductResolver) *Controller {
	if threshold <= 0 {
		threshold = DefaultDoubleClick
	}
	return &Controller{threshold: threshold, product: product}
}

// Threshold returns the double-click window.
func (c *Controller) Threshold() time.Duration {
	return c.threshold
}

// OnIntent registers an intent listener.
func (c *Controller) OnIntent(fn func(Intent)) {
	c.intentListeners = append(c.intentListeners, fn)
}

// OnNotice registers a notice listener.
func (c *Controller) OnNotice(fn func(Notice)) {
	c.noticeListeners = append(c.noticeListeners, fn)
}

// SetData replaces the buckets and the chart geometry after a redraw.
// An in-flight drag keeps its days: the anchor and end are looked up again
// by date key, and the drag is aborted when either day is gone.
func (c *Controller) SetData(buckets []timeline.DayBucket, layout Layout) {
	if c.phase != Dragging {
		c.buckets = buckets
		c.layout = layout
		return
	}

	anchorKey, endKey := c.keyAt(c.anchor), c.keyAt(c.end)
	c.buckets = buckets
	c.layout = layout
	if layout.Empty() {
		c.abort()
		return
	}
	anchor, end := timeline.Index(buckets, anchorKey), timeline.Index(buckets, endKey)
	if anchor < 0 || end < 0 {
		c.abort()
		return
	}
	c.anchor, c.end = anchor, end
}

// Layout returns the current geometry.
func (c *Controller) Layout() Layout {
	return c.layout
}

// Phase returns the gesture state.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Pending reports whether a single click is waiting out the double-click
// window.
func (c *Controller) Pending() bool {
	return c.pending != nil
}

// Overlay returns the live selection span while dragging.
func (c *Controller) Overlay() (lo, hi int, ok bool) {
	if c.phase != Dragging {
		return 0, 0, false
	}
	lo, hi = c.anchor, c.end
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

// Hover returns the cursor for p.
func (c *Controller) Hover(p Point) Cursor {
	if _, ok := c.layout.BarAt(p); ok {
		return CursorPointer
	}
	return CursorCrosshair
}

// PointerDown starts a gesture when p is inside the plot area.
func (c *Controller) PointerDown(p Point, at time.Time) {
	if c.layout.Empty() || len(c.buckets) == 0 || !c.layout.Plot.Contains(p) {
		return
	}
	c.Resolve(at)
	c.phase = Dragging
	c.anchor = c.indexAt(p)
	c.end = c.anchor
	c.moved = false
	c.pointerDownAt = at
}

// PointerMove updates the live end of a drag.
func (c *Controller) PointerMove(p Point) {
	if c.phase != Dragging {
		return
	}
	c.end = c.indexAt(p)
	if c.end != c.anchor {
		c.moved = true
	}
}

// PointerUp finishes a gesture: a range when the span covers more than one
// bucket, a click when the pointer never left the anchor bucket, and
// otherwise a discarded degenerate drag.
func (c *Controller) PointerUp(p Point, at time.Time) {
	if c.phase != Dragging {
		return
	}
	c.end = c.indexAt(p)
	if c.end != c.anchor {
		c.moved = true
	}
	lo, hi, _ := c.Overlay()
	moved := c.moved
	c.phase = Idle
	c.moved = false

	if hi-lo > 0 {
		from, to, ok := timeline.Range(c.buckets, lo, hi)
		if !ok {
			return
		}
		// A range supersedes a click still inside its double-click window.
		c.pending = nil
		c.lastClickAt = time.Time{}
		c.emit(RangeIntent{From: from, To: to})
		c.notice(Notice{Kind: NoticeRange, Text: fmt.Sprintf("Showing %s to %s", from, to)})
		return
	}

	// Only a gesture that never left the anchor bucket counts as a click.
	if moved {
		c.notice(Notice{Kind: NoticeTooSmall, Text: "Selection too small"})
		return
	}
	logging.Debug("Chart click", "index", lo, "held", at.Sub(c.pointerDownAt))
	c.click(lo, at)
}

// PointerLeave aborts an in-flight drag without emitting anything.
func (c *Controller) PointerLeave() {
	if c.phase == Dragging {
		c.abort()
	}
}

// Resolve emits the pending single click once the double-click window has
// passed. Reports whether an intent was emitted.
func (c *Controller) Resolve(now time.Time) bool {
	if c.pending == nil || now.Sub(c.pending.at) < c.threshold {
		return false
	}
	p := c.pending
	c.pending = nil
	c.emit(DateIntent{Date: p.date})
	return true
}

func (c *Controller) click(index int, at time.Time) {
	if index < 0 || index >= len(c.buckets) {
		return
	}
	date := c.buckets[index].DateKey

	if !c.lastClickAt.IsZero() && at.Sub(c.lastClickAt) < c.threshold {
		c.pending = nil
		c.lastClickAt = time.Time{}
		if product := c.dominantProduct(index); product != "" {
			c.emit(ProductIntent{Product: product, Date: date})
		}
		return
	}

	c.Resolve(at)
	c.pending = &pendingClick{index: index, date: date, at: at}
	c.lastClickAt = at
}

// dominantProduct returns the most common product among the bucket's posts.
// Ties go to the label seen first.
func (c *Controller) dominantProduct(index int) string {
	if c.product == nil {
		return ""
	}
	type tally struct {
		label string
		count int
	}
	var order []*tally
	byLabel := make(map[string]*tally)
	for _, id := range c.buckets[index].PostIDs {
		label := c.product(id)
		if label == "" {
			continue
		}
		t, ok := byLabel[label]
		if !ok {
			t = &tally{label: label}
			byLabel[label] = t
			order = append(order, t)
		}
		t.count++
	}
	if len(order) == 0 {
		return ""
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})
	return order[0].label
}

func (c *Controller) indexAt(p Point) int {
	return c.layout.IndexAt(float64(p.X))
}

func (c *Controller) abort() {
	c.phase = Idle
	c.moved = false
	c.anchor, c.end = 0, 0
	logging.Debug("Selection aborted")
}

func (c *Controller) emit(i Intent) {
	logging.Debug("Selection intent", "intent", fmt.Sprintf("%T", i), "value", fmt.Sprintf("%+v", i))
	for _, fn := range c.intentListeners {
		fn(i)
	}
}

func (c *Controller) notice(n Notice) {
	for _, fn := range c.noticeListeners {
		fn(n)
	}
}

func (c *Controller) keyAt(i int) string {
	if i < 0 || i >= len(c.buckets) {
		return ""
	}
	return c.buckets[i].DateKey
}
