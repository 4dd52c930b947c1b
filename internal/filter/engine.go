package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/mentions/internal/classify"
	"github.com/abelbrown/mentions/internal/logging"
	"github.com/abelbrown/mentions/internal/post"
)

// Key names one field of a filter Set.
type Key string

const (
	KeySearch    Key = "search"
	KeySentiment Key = "sentiment"
	KeySource    Key = "source"
	KeyLanguage  Key = "language"
	KeyProduct   Key = "product"
	KeyDateFrom  Key = "dateFrom"
	KeyDateTo    Key = "dateTo"
	KeyAnswered  Key = "answered"
)

// Keys lists every filter key in evaluation order.
var Keys = []Key{KeySearch, KeySentiment, KeySource, KeyLanguage, KeyProduct, KeyDateFrom, KeyDateTo, KeyAnswered}

// ErrUnknownKey is returned by SetFilter for a key outside Keys.
var ErrUnknownKey = errors.New("filter: unknown key")

// DefaultPageSize is used when Options.PageSize is not positive.
const DefaultPageSize = 25

// Set is the active filter configuration. Empty string and "all" mean no
// constraint, except for the date bounds where only "" is unbounded.
type Set struct {
	Search    string
	Sentiment string
	Source    string
	Language  string
	Product   string
	DateFrom  string
	DateTo    string
	Answered  string
}

// Get returns the value stored under k.
func (s Set) Get(k Key) string {
	switch k {
	case KeySearch:
		return s.Search
	case KeySentiment:
		return s.Sentiment
	case KeySource:
		return s.Source
	case KeyLanguage:
		return s.Language
	case KeyProduct:
		return s.Product
	case KeyDateFrom:
		return s.DateFrom
	case KeyDateTo:
		return s.DateTo
	case KeyAnswered:
		return s.Answered
	}
	return ""
}

func (s *Set) set(k Key, value string) error {
	switch k {
	case KeySearch:
		s.Search = value
	case KeySentiment:
		s.Sentiment = value
	case KeySource:
		s.Source = value
	case KeyLanguage:
		s.Language = value
	case KeyProduct:
		s.Product = value
	case KeyDateFrom:
		s.DateFrom = value
	case KeyDateTo:
		s.DateTo = value
	case KeyAnswered:
		s.Answered = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, string(k))
	}
	return nil
}

// Active reports whether any field constrains the view.
func (s Set) Active() bool {
	return s.Search != "" || isActive(s.Sentiment) || isActive(s.Source) ||
		isActive(s.Language) || isActive(s.Product) || s.DateFrom != "" ||
		s.DateTo != "" || isActive(s.Answered)
}

// State is the full engine state handed to listeners.
type State struct {
	Posts     []post.Post
	Filters   Set
	Filtered  []post.Post
	Page      int
	PageSize  int
	Recovered bool // the source filter was cleared by the last recompute
}

// PageCount returns the number of pages of the filtered view (at least 1).
func (s State) PageCount() int {
	if s.PageSize <= 0 || len(s.Filtered) == 0 {
		return 1
	}
	return (len(s.Filtered) + s.PageSize - 1) / s.PageSize
}

// PageItems returns the filtered posts on the current page.
func (s State) PageItems() []post.Post {
	if s.PageSize <= 0 {
		return s.Filtered
	}
	start := (s.Page - 1) * s.PageSize
	if start < 0 || start >= len(s.Filtered) {
		return nil
	}
	end := start + s.PageSize
	if end > len(s.Filtered) {
		end = len(s.Filtered)
	}
	return s.Filtered[start:end]
}

// Listener receives the engine state after every recompute.
type Listener func(State)

// Options configure an Engine.
type Options struct {
	PageSize int
	// Location is used to truncate created_at to a calendar day.
	// Defaults to time.Local.
	Location *time.Location
	// KeywordFallback consults the legacy keyword table when the
	// classifier has no label for a post.
	KeywordFallback bool
}

// Engine owns the post collection and the active filters, and derives the
// filtered view. Not safe for concurrent use: it is driven from the UI
// update loop.
type Engine struct {
	classifier *classify.Classifier
	opts       Options

	posts     []post.Post
	filters   Set
	filtered  []post.Post
	page      int
	listeners []Listener

	recovering bool
	recovered  bool
}

// New creates an engine. classifier may be nil, in which case every post
// resolves to the General product.
func New(classifier *classify.Classifier, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Engine{
		classifier: classifier,
		opts:       opts,
		page:       1,
		filtered:   []post.Post{},
	}
}

// Subscribe registers a listener for every recompute.
func (e *Engine) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

// SetPosts replaces the post collection.
func (e *Engine) SetPosts(posts []post.Post) {
	e.posts = append([]post.Post(nil), posts...)
	e.changed()
}

// SetFilter updates one filter field. Date fields accept "" to clear.
// Search text is stored as given; other values are trimmed.
func (e *Engine) SetFilter(k Key, value string) error {
	if k != KeySearch {
		value = strings.TrimSpace(value)
	}
	if err := e.filters.set(k, value); err != nil {
		return err
	}
	e.changed()
	return nil
}

// SetFilters replaces the whole filter set with a single recompute.
func (e *Engine) SetFilters(s Set) {
	e.filters = s
	e.changed()
}

// Reset clears every filter.
func (e *Engine) Reset() {
	e.SetFilters(Set{})
}

// NextPage advances one page if there is one.
func (e *Engine) NextPage() {
	if e.page < e.State().PageCount() {
		e.page++
		e.notify()
	}
}

// PrevPage goes back one page if possible.
func (e *Engine) PrevPage() {
	if e.page > 1 {
		e.page--
		e.notify()
	}
}

// Filters returns the active filter set.
func (e *Engine) Filters() Set {
	return e.filters
}

// Filtered returns the derived view.
func (e *Engine) Filtered() []post.Post {
	return e.filtered
}

// Posts returns the full collection.
func (e *Engine) Posts() []post.Post {
	return e.posts
}

// Location returns the zone used for calendar days.
func (e *Engine) Location() *time.Location {
	return e.opts.Location
}

// State returns a snapshot of the engine.
func (e *Engine) State() State {
	return State{
		Posts:     e.posts,
		Filters:   e.filters,
		Filtered:  e.filtered,
		Page:      e.page,
		PageSize:  e.opts.PageSize,
		Recovered: e.recovered,
	}
}

// Product returns the product label used for filtering p.
func (e *Engine) Product(p post.Post) string {
	var label string
	if e.classifier != nil {
		label = e.classifier.Classify(p.ID, p.Content, p.Language)
	}
	if label == "" && e.opts.KeywordFallback {
		label = classify.KeywordProduct(p.Content)
	}
	if label == "" {
		return classify.General
	}
	return label
}

// ProductByID resolves the product label for a post in the collection.
func (e *Engine) ProductByID(id int64) string {
	for _, p := range e.posts {
		if p.ID == id {
			return e.Product(p)
		}
	}
	return classify.General
}

// Recompute re-derives the view from the current posts and filters and
// notifies listeners. Callers use it after an override edit, which changes
// product labels without touching the filter set.
func (e *Engine) Recompute() {
	e.changed()
}

func (e *Engine) changed() {
	e.page = 1
	e.recovered = false
	e.recompute()
	e.notify()
}

func (e *Engine) notify() {
	state := e.State()
	for _, l := range e.listeners {
		l(state)
	}
}

// rejection identifies the predicate that dropped a post.
type rejection int

const (
	passed rejection = iota
	rejectedSample
	rejectedSearch
	rejectedSentiment
	rejectedSource
	rejectedLanguage
	rejectedProduct
	rejectedDate
	rejectedAnswered
)

// evaluate runs the predicates left to right and stops at the first failure.
func (e *Engine) evaluate(p post.Post) rejection {
	f := e.filters
	switch {
	case IsSample(p.URL):
		return rejectedSample
	case !matchesSearch(p, f.Search):
		return rejectedSearch
	case isActive(f.Sentiment) && string(p.Sentiment) != f.Sentiment:
		return rejectedSentiment
	case !matchesSource(p, f.Source):
		return rejectedSource
	case isActive(f.Language) && !strings.EqualFold(p.Language, f.Language):
		return rejectedLanguage
	case isActive(f.Product) && e.Product(p) != f.Product:
		return rejectedProduct
	case !matchesDate(p, f.DateFrom, f.DateTo, e.opts.Location):
		return rejectedDate
	case !matchesAnswered(p, f.Answered):
		return rejectedAnswered
	}
	return passed
}

func (e *Engine) recompute() {
	filtered := make([]post.Post, 0, len(e.posts))
	bySource := 0
	for _, p := range e.posts {
		switch e.evaluate(p) {
		case passed:
			filtered = append(filtered, p)
		case rejectedSource:
			bySource++
		}
	}
	e.filtered = filtered

	logging.Debug("Filters recomputed",
		"posts", len(e.posts),
		"filtered", len(filtered),
		"source_rejected", bySource)

	// A source filter that rejects every post is treated as stale.
	if len(filtered) == 0 && len(e.posts) > 0 && bySource == len(e.posts) &&
		isActive(e.filters.Source) && !e.recovering {
		logging.Info("Clearing source filter that matched no posts", "source", e.filters.Source)
		e.recovering = true
		e.filters.Source = ""
		e.recompute()
		e.recovering = false
		e.recovered = true
	}
}
