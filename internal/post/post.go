// Package post defines the mention record consumed by the dashboard.
//
// Posts come from an external backend and are read-only here. The only
// derived data is the parsed creation instant and its local calendar day.
package post

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Sentiment is the backend's classification of a post.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Post is a single mention of the brand.
type Post struct {
	ID         int64     `json:"id"`
	Content    string    `json:"content"`
	Author     string    `json:"author,omitempty"`
	URL        string    `json:"url,omitempty"`
	Source     string    `json:"source"`
	Language   string    `json:"language,omitempty"`
	Sentiment  Sentiment `json:"sentiment_label"`
	CreatedAt  string    `json:"created_at"`
	IsAnswered Flag      `json:"is_answered,omitempty"`
}

// Flag is a boolean-like field that may be missing. Backends disagree on
// its encoding, so decoding accepts booleans, 0/1, strings such as "yes"
// or "false", and null. Values it cannot read decode as Unset.
type Flag int8

const (
	Unset Flag = iota
	False
	True
)

// FlagOf converts b to a set Flag.
func FlagOf(b bool) Flag {
	if b {
		return True
	}
	return False
}

// Bool returns the flag's value and whether it was set.
func (f Flag) Bool() (value, ok bool) {
	return f == True, f != Unset
}

func (f Flag) MarshalJSON() ([]byte, error) {
	switch f {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	}
	return []byte("null"), nil
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = parseFlag(bytes.TrimSpace(data))
	return nil
}

func parseFlag(data []byte) Flag {
	if len(data) == 0 {
		return Unset
	}
	switch data[0] {
	case 't', 'f', 'n':
		switch string(data) {
		case "true":
			return True
		case "false":
			return False
		}
		return Unset
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Unset
		}
		return parseFlagString(s)
	}
	n, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return Unset
	}
	return FlagOf(n != 0)
}

func parseFlagString(s string) Flag {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "yes", "y", "on":
		return True
	case "no", "n", "off":
		return False
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return FlagOf(b)
	}
	return Unset
}

// DateLayout is the zero-padded ISO date used for day keys and date filters.
const DateLayout = "2006-01-02"

// ParseTime parses a created_at value. Accepts RFC3339 and the other
// layouts the backend has been seen to emit. Values without a zone are wall
// clock time in loc (time.Local when nil). ok is false for anything that
// does not resolve to an instant.
func ParseTime(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	// RFC3339 always carries a zone.
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// Created returns the parsed creation instant, reading zone-less values in
// local time.
func (p Post) Created() (time.Time, bool) {
	return ParseTime(p.CreatedAt, time.Local)
}

// DateKey returns the post's calendar day in loc as YYYY-MM-DD.
// Returns "" when created_at is malformed.
func (p Post) DateKey(loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t, ok := ParseTime(p.CreatedAt, loc)
	if !ok {
		return ""
	}
	return t.In(loc).Format(DateLayout)
}

// Answered reports the is_answered flag, treating a missing value as false.
func (p Post) Answered() bool {
	return p.IsAnswered == True
}
