package ui

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/mentions/internal/classify"
	"github.com/abelbrown/mentions/internal/fetch"
	"github.com/abelbrown/mentions/internal/filter"
	"github.com/abelbrown/mentions/internal/otel"
	"github.com/abelbrown/mentions/internal/post"
	"github.com/abelbrown/mentions/internal/selection"
	"github.com/abelbrown/mentions/internal/timeline"
)

// chartTop is the screen row of the first bar row: below the title bar and
// the filter bar.
const chartTop = 2

// noticeTTL is how long a chart notice stays up.
const noticeTTL = 3 * time.Second

type inputMode int

const (
	modeNormal inputMode = iota
	modeSearch
	modeOverride
)

// Options configure a Model.
type Options struct {
	// Engine owns the posts and filters. Required.
	Engine *filter.Engine
	// Classifier receives override edits. Nil disables editing.
	Classifier *classify.Classifier
	// Load fetches every source. Nil disables loading.
	Load func(ctx context.Context) (fetch.Result, error)

	Events *otel.Logger
	Ring   *otel.RingBuffer

	DoubleClick time.Duration
	VisibleDays int
	// Refresh is the reload interval. Zero disables periodic reloads.
	Refresh   time.Duration
	ShowDebug bool

	// Now overrides the clock for gesture timing.
	Now func() time.Time
}

// Model is the root Bubble Tea model.
//
// The filter engine and the gesture controller are only touched from
// Update. Loads and override writes run as commands and report back with
// messages.
type Model struct {
	engine     *filter.Engine
	ctrl       *selection.Controller
	classifier *classify.Classifier
	load       func(context.Context) (fetch.Result, error)
	events     *otel.Logger
	ring       *otel.RingBuffer
	now        func() time.Time

	refresh     time.Duration
	visibleDays int

	state    filter.State
	buckets  []timeline.DayBucket
	layout   selection.Layout
	scroll   int
	cursor   int
	hoverBar int
	hover    selection.Cursor
	paging   bool

	width     int
	height    int
	ready     bool
	loading   bool
	spinner   spinner.Model
	input     textinput.Model
	help      help.Model
	mode      inputMode
	editing   int64
	showDebug bool

	err       error
	notice    string
	noticeSeq int

	intents []selection.Intent
	cmds    []tea.Cmd

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates the dashboard model.
func New(opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	engine := opts.Engine
	if engine == nil {
		engine = filter.New(opts.Classifier, filter.Options{})
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StatusBarKey

	in := textinput.New()
	in.CharLimit = 200
	in.PromptStyle = FilterBarPrompt

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		engine:      engine,
		classifier:  opts.Classifier,
		load:        opts.Load,
		events:      opts.Events,
		ring:        opts.Ring,
		now:         opts.Now,
		refresh:     opts.Refresh,
		visibleDays: opts.VisibleDays,
		hoverBar:    -1,
		spinner:     s,
		input:       in,
		help:        help.New(),
		showDebug:   opts.ShowDebug,
		ctx:         ctx,
		cancel:      cancel,
	}

	m.ctrl = selection.New(opts.DoubleClick, engine.ProductByID)
	m.ctrl.OnIntent(func(i selection.Intent) {
		m.intents = append(m.intents, i)
	})
	m.ctrl.OnNotice(func(n selection.Notice) {
		m.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSelectionNotice, Comp: "ui", Msg: n.Text})
		m.showNotice(n.Text)
	})
	engine.Subscribe(m.onState)
	m.onState(engine.State())
	m.cmds = nil
	return m
}

// Init starts the first load and the refresh timer.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.scheduleRefresh())
}

// Update handles messages and returns the updated model and any commands.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if otel.TraceEnabled() {
		if name := fmt.Sprintf("%T", msg); otel.Traced(name) {
			m.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: name})
		}
	}

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.relayout()

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.BlurMsg:
		m.ctrl.PointerLeave()

	case PostsLoaded:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			break
		}
		m.err = nil
		if len(msg.Failed) > 0 {
			m.err = partialLoadError(msg.Failed)
		}
		m.engine.SetPosts(msg.Posts)

	case OverrideSaved:
		m.overrideSaved(msg)

	case RefreshTick:
		cmd = tea.Batch(m.loadCmd(), m.scheduleRefresh())

	case resolveTick:
		m.ctrl.Resolve(m.now())
		m.applyIntents()

	case noticeExpired:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	}

	return m, m.flush(cmd)
}

// flush batches cmd with commands queued by listeners during this Update.
func (m *Model) flush(cmd tea.Cmd) tea.Cmd {
	cmds := append(m.cmds, cmd)
	m.cmds = nil
	return tea.Batch(cmds...)
}

func (m *Model) loadCmd() tea.Cmd {
	if m.load == nil {
		return nil
	}
	m.loading = true
	ctx, load := m.ctx, m.load
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := load(ctx)
		return PostsLoaded{Posts: res.Posts, Failed: res.Failed, Err: err}
	})
}

func (m *Model) scheduleRefresh() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return RefreshTick{}
	})
}

// onState is the engine listener.
func (m *Model) onState(s filter.State) {
	m.state = s
	if m.paging {
		m.cursor = 0
		return
	}
	m.buckets = timeline.Aggregate(s.Filtered, m.engine.Location())
	m.cursor = clampInt(m.cursor, 0, len(s.PageItems())-1)
	m.relayout()

	m.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFilterRecompute, Comp: "filter", Count: len(s.Filtered)})
	if s.Recovered {
		m.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFilterRecover, Comp: "filter", Key: string(filter.KeySource), Count: len(s.Filtered)})
		m.showNotice("No posts from that source. Showing all sources.")
	}
}

// relayout recomputes the chart geometry and hands it to the controller.
func (m *Model) relayout() {
	start, count := visibleWindow(len(m.buckets), m.visibleDays, m.width, m.scroll)
	if count == 0 {
		m.scroll = 0
	} else {
		m.scroll = len(m.buckets) - count - start
	}
	m.layout = chartLayout(m.buckets, start, count, chartTop, m.width)
	m.hoverBar = -1
	m.ctrl.SetData(m.buckets, m.layout)
}

func (m *Model) scrollChart(delta int) {
	m.scroll += delta
	if m.scroll < 0 {
		m.scroll = 0
	}
	m.relayout()
}

func (m *Model) showNotice(text string) {
	m.notice = text
	m.noticeSeq++
	seq := m.noticeSeq
	m.cmds = append(m.cmds, tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpired{seq: seq}
	}))
}

// inChartBand reports whether p is on the rows the chart occupies.
func (m *Model) inChartBand(p selection.Point) bool {
	return p.Y >= chartTop && p.Y < chartTop+chartLines
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.mode != modeNormal || m.showDebug {
		return
	}
	p := selection.Point{X: msg.X, Y: msg.Y}
	now := m.now()

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			m.ctrl.PointerDown(p, now)
		case tea.MouseButtonWheelUp:
			if m.inChartBand(p) {
				m.scrollChart(1)
			} else {
				m.moveCursor(-1)
			}
		case tea.MouseButtonWheelDown:
			if m.inChartBand(p) {
				m.scrollChart(-1)
			} else {
				m.moveCursor(1)
			}
		}

	case tea.MouseActionMotion:
		if m.ctrl.Phase() == selection.Dragging {
			if m.inChartBand(p) {
				m.ctrl.PointerMove(p)
			} else {
				m.ctrl.PointerLeave()
			}
		}
		m.hover = m.ctrl.Hover(p)
		m.hoverBar = -1
		if bar, ok := m.layout.BarAt(p); ok {
			m.hoverBar = bar.Index
		}

	case tea.MouseActionRelease:
		m.ctrl.PointerUp(p, now)
		if m.ctrl.Pending() {
			m.cmds = append(m.cmds, tea.Tick(m.ctrl.Threshold(), func(time.Time) tea.Msg {
				return resolveTick{}
			}))
		}
	}

	m.applyIntents()
}

// applyIntents turns queued gesture intents into filter updates. Each
// intent is one recompute.
func (m *Model) applyIntents() {
	intents := m.intents
	m.intents = nil
	for _, in := range intents {
		f := m.engine.Filters()
		var kind, value string
		switch i := in.(type) {
		case selection.DateIntent:
			f.DateFrom, f.DateTo = i.Date, i.Date
			kind, value = "date", i.Date
		case selection.RangeIntent:
			f.DateFrom, f.DateTo = i.From, i.To
			kind, value = "range", i.From+".."+i.To
		case selection.ProductIntent:
			f.Product = i.Product
			f.DateFrom, f.DateTo = i.Date, i.Date
			kind, value = "product", i.Product+"@"+i.Date
		default:
			continue
		}
		m.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSelectionIntent, Comp: "ui", Key: kind, Value: value})
		m.engine.SetFilters(f)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.mode != modeNormal {
		return m.handleInputKey(msg)
	}

	// Any key dismisses the error bar.
	m.err = nil

	switch {
	case key.Matches(msg, keys.Quit):
		m.cancel()
		return tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Debug):
		m.showDebug = !m.showDebug
	case key.Matches(msg, keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, keys.NextPage):
		m.paging = true
		m.engine.NextPage()
		m.paging = false
	case key.Matches(msg, keys.PrevPage):
		m.paging = true
		m.engine.PrevPage()
		m.paging = false
	case key.Matches(msg, keys.Search):
		return m.openInput(modeSearch, "/ ", m.engine.Filters().Search, 0)
	case key.Matches(msg, keys.Sentiment):
		m.cycle(filter.KeySentiment, []string{"", string(post.Positive), string(post.Negative), string(post.Neutral)})
	case key.Matches(msg, keys.Source):
		m.cycle(filter.KeySource, append([]string{""}, filter.Sources(filter.ExcludeSamples(m.state.Posts))...))
	case key.Matches(msg, keys.Language):
		m.cycle(filter.KeyLanguage, append([]string{""}, filter.Languages(filter.ExcludeSamples(m.state.Posts))...))
	case key.Matches(msg, keys.Product):
		m.cycle(filter.KeyProduct, append([]string{""}, m.products()...))
	case key.Matches(msg, keys.Answered):
		m.cycle(filter.KeyAnswered, []string{"", "yes", "no"})
	case key.Matches(msg, keys.ClearDates):
		f := m.engine.Filters()
		f.DateFrom, f.DateTo = "", ""
		m.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFilterSet, Comp: "ui", Key: "dates"})
		m.engine.SetFilters(f)
	case key.Matches(msg, keys.ClearAll):
		m.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFilterSet, Comp: "ui", Key: "all"})
		m.engine.Reset()
	case key.Matches(msg, keys.Override):
		if p, ok := m.selected(); ok {
			return m.openInput(modeOverride, "product> ", m.engine.Product(p), p.ID)
		}
	case key.Matches(msg, keys.Older):
		m.scrollChart(1)
	case key.Matches(msg, keys.Newer):
		m.scrollChart(-1)
	case key.Matches(msg, keys.Refresh):
		return m.loadCmd()
	}
	return nil
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.cancel()
		return tea.Quit
	case key.Matches(msg, keys.Escape):
		m.closeInput()
		return nil
	case key.Matches(msg, keys.Enter):
		value := m.input.Value()
		mode, id := m.mode, m.editing
		m.closeInput()
		switch mode {
		case modeSearch:
			m.setFilter(filter.KeySearch, value)
		case modeOverride:
			return m.saveOverrideCmd(id, value)
		}
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) openInput(mode inputMode, prompt, value string, id int64) tea.Cmd {
	m.mode = mode
	m.editing = id
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = modeNormal
	m.editing = 0
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) setFilter(k filter.Key, value string) {
	if err := m.engine.SetFilter(k, value); err != nil {
		m.err = err
		return
	}
	m.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindFilterSet, Comp: "ui", Key: string(k), Value: value})
}

// cycle advances filter k to the value after its current one in values.
func (m *Model) cycle(k filter.Key, values []string) {
	if len(values) < 2 {
		return
	}
	current := m.engine.Filters().Get(k)
	next := values[1]
	for i, v := range values {
		if strings.EqualFold(v, current) {
			next = values[(i+1)%len(values)]
			break
		}
	}
	m.setFilter(k, next)
}

// products returns the distinct product labels across the collection.
func (m *Model) products() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range filter.ExcludeSamples(m.state.Posts) {
		label := m.engine.Product(p)
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

func (m *Model) saveOverrideCmd(id int64, label string) tea.Cmd {
	c := m.classifier
	if c == nil {
		m.err = classify.ErrNoOverrides
		return nil
	}
	return func() tea.Msg {
		return OverrideSaved{PostID: id, Label: strings.TrimSpace(label), Err: c.SetOverride(id, label)}
	}
}

func (m *Model) overrideSaved(msg OverrideSaved) {
	id := strconv.FormatInt(msg.PostID, 10)
	if msg.Err != nil {
		m.err = fmt.Errorf("save override: %w", msg.Err)
		m.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindOverrideError, Comp: "ui", Key: id, Err: msg.Err.Error()})
		return
	}
	m.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindOverrideSet, Comp: "ui", Key: id, Value: msg.Label})
	m.engine.Recompute()
	if msg.Label == "" {
		m.showNotice(fmt.Sprintf("Cleared product override for post %d", msg.PostID))
	} else {
		m.showNotice(fmt.Sprintf("Post %d labelled %s", msg.PostID, msg.Label))
	}
}

func (m *Model) moveCursor(delta int) {
	n := len(m.state.PageItems())
	if n == 0 {
		m.cursor = 0
		return
	}
	m.cursor = clampInt(m.cursor+delta, 0, n-1)
}

func (m *Model) selected() (post.Post, bool) {
	items := m.state.PageItems()
	if m.cursor < 0 || m.cursor >= len(items) {
		return post.Post{}, false
	}
	return items[m.cursor], true
}

// View renders the dashboard.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showDebug {
		return debugOverlay(m.ring, m.width, m.height-1, m.now()) + "\n" + debugStatusBar(m.width)
	}

	bottom := m.bottomBar()
	errorBar := ""
	if m.err != nil {
		errorBar = ErrorStyle.Width(m.width).MaxHeight(1).Render("Error: "+m.err.Error()+" (press any key to dismiss)") + "\n"
	}
	listHeight := m.height - chartTop - chartLines - 1 - lipgloss.Height(bottom)
	if errorBar != "" {
		listHeight--
	}

	var b strings.Builder
	b.WriteString(m.titleBar())
	b.WriteString("\n")
	b.WriteString(renderFilterBar(m.state.Filters, len(m.state.Filtered), len(filter.ExcludeSamples(m.state.Posts)), m.width))
	b.WriteString("\n")
	lo, hi, dragging := m.ctrl.Overlay()
	b.WriteString(renderChart(m.buckets, m.layout, lo, hi, dragging, m.width))
	b.WriteString(m.noticeLine())
	b.WriteString("\n")
	b.WriteString(renderPosts(m.state.PageItems(), m.cursor, m.width, listHeight, m.engine.Product, m.now()))
	b.WriteString(errorBar)
	b.WriteString(bottom)
	return b.String()
}

func (m *Model) titleBar() string {
	title := "mentions"
	if m.loading {
		title = m.spinner.View() + " " + title + "  loading…"
	}
	page := fmt.Sprintf("page %d/%d", m.state.Page, m.state.PageCount())
	days := fmt.Sprintf("%d days", len(m.buckets))
	line := title + "  ·  " + days + "  ·  " + page
	return TitleBar.Width(m.width).MaxHeight(1).Render(line)
}

func (m *Model) noticeLine() string {
	var text string
	switch {
	case m.notice != "":
		return NoticeStyle.Render(runewidth.Truncate(m.notice, m.width-2, "…"))
	case m.ctrl.Phase() == selection.Dragging:
		lo, hi, _ := m.ctrl.Overlay()
		if from, to, ok := timeline.Range(m.buckets, lo, hi); ok {
			text = fmt.Sprintf("Selecting %s to %s", from, to)
		}
	case m.hoverBar >= 0 && m.hoverBar < len(m.buckets):
		bucket := m.buckets[m.hoverBar]
		text = fmt.Sprintf("%s  %d posts  +%d  -%d  =%d  (click: day, double-click: top product, drag: range)",
			bucket.DateKey, bucket.Total(), bucket.Positive, bucket.Negative, bucket.Neutral)
	}
	return MetaText.Render(runewidth.Truncate(" "+text, m.width, "…"))
}

func (m *Model) bottomBar() string {
	if m.mode != modeNormal {
		return StatusBar.Width(m.width).MaxHeight(1).Render(m.input.View())
	}
	return StatusBar.Width(m.width).Render(m.help.View(keys))
}

// partialLoadError summarizes failed sources in a load that still
// returned posts.
func partialLoadError(failed []fetch.SourceError) error {
	names := make([]string, len(failed))
	for i, f := range failed {
		names[i] = f.Source
	}
	return fmt.Errorf("%d source(s) failed: %s: %w", len(failed), strings.Join(names, ", "), failed[0])
}

// Filters returns the active filters (for testing).
func (m *Model) Filters() filter.Set {
	return m.engine.Filters()
}

// Cursor returns the cursor within the current page (for testing).
func (m *Model) Cursor() int {
	return m.cursor
}

// HoverCursor returns the pointer affordance at the last motion event.
func (m *Model) HoverCursor() selection.Cursor {
	return m.hover
}

// Layout returns the current chart geometry (for testing).
func (m *Model) Layout() selection.Layout {
	return m.layout
}
