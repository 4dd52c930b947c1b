package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/mentions/internal/otel"
)

// eventFilter selects which event log lines are shown.
type eventFilter struct {
	kind  string
	level string
	comp  string
}

func (f eventFilter) match(ev otel.Event) bool {
	if f.kind != "" && !strings.HasPrefix(string(ev.Kind), f.kind) {
		return false
	}
	if f.level != "" && !ev.Level.AtLeast(otel.Level(f.level)) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	return true
}

func newEventsCmd() *cobra.Command {
	var (
		path    string
		tail    int
		follow  bool
		rawJSON bool
		filter  eventFilter
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the dashboard's event log",
		Long:  "Prints recent events from the JSONL event log written by the dashboard.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch filter.level {
			case "", string(otel.LevelDebug), string(otel.LevelInfo), string(otel.LevelWarn), string(otel.LevelError):
			default:
				return fmt.Errorf("invalid level %q: must be debug, info, warn, or error", filter.level)
			}

			if path == "" {
				var err error
				if path, err = otel.DefaultPath(); err != nil {
					return err
				}
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("event log not found at %s (run the dashboard first): %w", path, err)
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			format := func(ev otel.Event, raw []byte) string {
				if rawJSON {
					return string(raw)
				}
				return formatEvent(ev)
			}

			for _, l := range readTailLines(f, tail, filter.match) {
				fmt.Fprintln(out, format(l.ev, l.raw))
			}
			if !follow {
				return nil
			}
			return followEvents(cmd.Context(), f, out, filter.match, format)
		},
	}

	cmd.Flags().StringVar(&path, "file", "", "Event log path (default ~/.mentions/events.jsonl)")
	cmd.Flags().IntVarP(&tail, "tail", "n", 50, "Number of recent lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new events")
	cmd.Flags().StringVar(&filter.kind, "kind", "", "Filter by event kind prefix (e.g. 'filter')")
	cmd.Flags().StringVar(&filter.level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&filter.comp, "comp", "", "Filter by component name")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Output raw JSON lines")

	return cmd
}

// followEvents polls r for appended lines until ctx is cancelled.
func followEvents(ctx context.Context, r io.Reader, out io.Writer, match func(otel.Event) bool, format func(otel.Event, []byte) string) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return err
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		ev, err := otel.ParseLine(line)
		if err != nil {
			continue
		}
		if match(ev) {
			fmt.Fprintln(out, format(ev, line))
		}
	}
}

func formatEvent(ev otel.Event) string {
	lvl := strings.ToUpper(string(ev.Level))
	if lvl == "" {
		lvl = "?"
	}
	parts := []string{fmt.Sprintf("%s %-5s [%-6s] %-20s", ev.Time.Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}

	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Source != "" {
		parts = append(parts, "src="+ev.Source)
	}
	if ev.Key != "" {
		parts = append(parts, fmt.Sprintf("%s=%q", ev.Key, ev.Value))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  otel.Event
	raw []byte
}

// readTailLines reads r to the end and returns the last n matching lines.
func readTailLines(r io.Reader, n int, match func(otel.Event) bool) []parsedLine {
	if n <= 0 {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	scanner := bufio.NewScanner(r)
	// Events with large Extra maps need more than the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	ring := make([]parsedLine, 0, n)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		ev, err := otel.ParseLine(raw)
		if err != nil || !match(ev) {
			continue
		}
		// The scanner reuses its buffer.
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else {
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}
	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
