package otel

import (
	"os"
	"strings"
	"sync"
)

// EnvTrace turns on per-message tracing in the dashboard. "1" or "all"
// traces every message; otherwise it is a comma-separated list of
// substrings matched against the message type, e.g. "Mouse,Posts".
const EnvTrace = "MENTIONS_TRACE"

type tracer struct {
	mu       sync.RWMutex
	all      bool
	patterns []string
}

var trace tracer

func init() {
	setTrace(os.Getenv(EnvTrace))
}

// setTrace parses a MENTIONS_TRACE value. Tests call it directly.
func setTrace(spec string) {
	trace.mu.Lock()
	defer trace.mu.Unlock()
	trace.all = false
	trace.patterns = nil

	spec = strings.TrimSpace(spec)
	switch strings.ToLower(spec) {
	case "":
		return
	case "1", "all", "true":
		trace.all = true
		return
	}
	for _, p := range strings.Split(spec, ",") {
		if p = strings.TrimSpace(p); p != "" {
			trace.patterns = append(trace.patterns, strings.ToLower(p))
		}
	}
}

// TraceEnabled reports whether any message tracing is configured.
func TraceEnabled() bool {
	trace.mu.RLock()
	defer trace.mu.RUnlock()
	return trace.all || len(trace.patterns) > 0
}

// Traced reports whether messages of msgType (as printed by %T) are traced.
func Traced(msgType string) bool {
	trace.mu.RLock()
	defer trace.mu.RUnlock()
	if trace.all {
		return true
	}
	lower := strings.ToLower(msgType)
	for _, p := range trace.patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
