package otel

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func lines(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	s := strings.TrimSpace(buf.String())
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestEmitWritesValidJSONL(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Emit(Event{Kind: KindFilterSet, Level: LevelInfo, Comp: "ui", Key: "source", Value: "reddit"})
	l.Close()

	got := lines(t, &buf)
	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %d", len(got))
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(got[0]), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for field, want := range map[string]string{
		"kind":  "filter.set",
		"level": "info",
		"comp":  "ui",
		"key":   "source",
		"value": "reddit",
	} {
		if decoded[field] != want {
			t.Errorf("expected %s=%s, got %v", field, want, decoded[field])
		}
	}
	if _, ok := decoded["extra"]; ok {
		t.Error("empty extra should be omitted")
	}
}

func TestEmitSetsTimeAndSessionID(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	before := time.Now()
	l.Emit(Event{Kind: KindStartup})
	l.Emit(Event{Kind: KindShutdown})
	l.Close()
	after := time.Now()

	got := lines(t, &buf)
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	for _, line := range got {
		ev, err := ParseLine([]byte(line))
		if err != nil {
			t.Fatalf("ParseLine: %v", err)
		}
		if ev.Time.Before(before) || ev.Time.After(after) {
			t.Errorf("time %v not in [%v, %v]", ev.Time, before, after)
		}
		if ev.SessionID != l.SessionID() || len(ev.SessionID) != 16 {
			t.Errorf("unexpected session id %q", ev.SessionID)
		}
	}
}

func TestDurRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	l.Emit(Event{Kind: KindFetchComplete, Dur: 1500 * time.Millisecond, Count: 42})
	l.Close()

	ev, err := ParseLine(bytes.TrimSpace(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if ev.DurMs != 1500 {
		t.Errorf("expected dur_ms=1500, got %v", ev.DurMs)
	}
	if ev.Dur != 1500*time.Millisecond {
		t.Errorf("expected Dur restored, got %v", ev.Dur)
	}
	if ev.Count != 42 {
		t.Errorf("expected count 42, got %d", ev.Count)
	}
}

func TestConcurrentEmit(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l.Emit(Event{Kind: KindFilterRecompute, Comp: "test"})
			}
		}()
	}
	wg.Wait()
	l.Close()

	if got := len(lines(t, &buf)); got != 400 {
		t.Errorf("expected 400 lines, got %d (dropped %d)", got, l.Dropped())
	}
}

func TestEmitAfterCloseIsDropped(t *testing.T) {
	l := NewNullLogger()
	l.Close()
	l.Emit(Event{Kind: KindStartup})
	l.Close()
	if l.Dropped() != 1 {
		t.Errorf("expected 1 dropped event, got %d", l.Dropped())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Emit(Event{Kind: KindStartup})
	l.Close()
}

func TestConvenienceHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)

	l.Info(KindStartup, "main", "starting")
	l.Warn(KindFetchError, "fetch", "timeout")
	l.Error(KindOverrideError, "ui", errForTest("disk full"))
	l.Close()

	got := lines(t, &buf)
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got))
	}
	tests := []struct {
		level Level
		kind  EventKind
	}{
		{LevelInfo, KindStartup},
		{LevelWarn, KindFetchError},
		{LevelError, KindOverrideError},
	}
	for i, tt := range tests {
		ev, err := ParseLine([]byte(got[i]))
		if err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if ev.Level != tt.level || ev.Kind != tt.kind {
			t.Errorf("line %d: got %s/%s, want %s/%s", i, ev.Level, ev.Kind, tt.level, tt.kind)
		}
	}
}

type errForTest string

func (e errForTest) Error() string { return string(e) }

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "events.jsonl")

	for i := 0; i < 2; i++ {
		l, err := OpenFile(path)
		if err != nil {
			t.Fatalf("OpenFile: %v", err)
		}
		l.Info(KindStartup, "main", "run")
		l.Close()
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	if n != 2 {
		t.Errorf("expected 2 lines across runs, got %d", n)
	}
}

func TestLevelAtLeast(t *testing.T) {
	if !LevelError.AtLeast(LevelWarn) {
		t.Error("error should be at least warn")
	}
	if LevelDebug.AtLeast(LevelInfo) {
		t.Error("debug should be below info")
	}
	if !Level("").AtLeast(LevelInfo) {
		t.Error("unset level ranks as info")
	}
}

func TestKindSubsystem(t *testing.T) {
	if KindSelectionIntent.Subsystem() != "selection" {
		t.Errorf("unexpected subsystem %q", KindSelectionIntent.Subsystem())
	}
	if EventKind("bare").Subsystem() != "bare" {
		t.Error("kind without dot is its own subsystem")
	}
}

func TestMinLevelKeepsDebugInRing(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	ring := NewRingBuffer(8)
	l.SetRingBuffer(ring)
	l.SetMinLevel(LevelInfo)

	l.Emit(Event{Kind: KindFilterRecompute, Level: LevelDebug, Count: 3})
	l.Emit(Event{Kind: KindFilterRecover, Level: LevelInfo})
	l.Close()

	got := lines(t, &buf)
	if len(got) != 1 || !strings.Contains(got[0], "filter.recover") {
		t.Errorf("expected only the info event on disk, got %v", got)
	}
	if ring.Len() != 2 {
		t.Errorf("expected both events in the ring, got %d", ring.Len())
	}
	if l.Dropped() != 0 {
		t.Errorf("expected no drops, got %d", l.Dropped())
	}
}
