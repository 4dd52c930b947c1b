// Package otel records structured events for Mentions.
//
// Events are serialized as JSONL lines by an async Logger. A RingBuffer
// attached to the Logger keeps the most recent events in memory for the
// debug overlay; the `mentions events` command reads the file back.
package otel

import (
	"encoding/json"
	"strings"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// rank orders levels for minimum-level filtering. Unknown levels rank as info.
func (l Level) rank() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 1
	}
}

// AtLeast reports whether l is as severe as min.
func (l Level) AtLeast(min Level) bool {
	return l.rank() >= min.rank()
}

// EventKind identifies the category of an event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Data load
	KindFetchStart    EventKind = "fetch.start"
	KindFetchComplete EventKind = "fetch.complete"
	KindFetchError    EventKind = "fetch.error"

	// Filter engine
	KindFilterSet       EventKind = "filter.set"
	KindFilterRecompute EventKind = "filter.recompute"
	KindFilterRecover   EventKind = "filter.recover"

	// Chart gestures
	KindSelectionIntent EventKind = "selection.intent"
	KindSelectionNotice EventKind = "selection.notice"

	// Product overrides
	KindOverrideSet   EventKind = "override.set"
	KindOverrideError EventKind = "override.error"

	// Store
	KindStoreError EventKind = "store.error"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"

	// Message tracing, only with MENTIONS_TRACE set
	KindMsgReceived EventKind = "trace.msg_received"
)

// Subsystem returns the part of the kind before the first dot.
func (k EventKind) Subsystem() string {
	s := string(k)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`       // component: "ui", "fetch", "filter", "main"
	SessionID string         `json:"session_id,omitempty"` // random hex, same for entire app run
	Dur       time.Duration  `json:"-"`                    // not serialized directly
	DurMs     float64        `json:"dur_ms,omitempty"`     // computed from Dur at marshal time
	Count     int            `json:"count,omitempty"`
	Source    string         `json:"source,omitempty"`
	Key       string         `json:"key,omitempty"`   // filter key or post id
	Value     string         `json:"value,omitempty"` // filter value or label
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}

// ParseLine decodes one JSONL line, restoring Dur from dur_ms.
func ParseLine(line []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(line, &e); err != nil {
		return Event{}, err
	}
	if e.DurMs > 0 {
		e.Dur = time.Duration(e.DurMs * float64(time.Millisecond))
	}
	return e, nil
}
