// Package timeline groups posts into calendar-day buckets for the chart.
package timeline

import (
	"sort"
	"time"

	"github.com/abelbrown/mentions/internal/post"
)

// DayBucket tallies one local calendar day.
type DayBucket struct {
	DateKey  string // YYYY-MM-DD
	Positive int
	Negative int
	Neutral  int
	PostIDs  []int64
}

// Total returns the number of posts in the bucket.
func (b DayBucket) Total() int {
	return b.Positive + b.Negative + b.Neutral
}

// Aggregate buckets posts by their local day in loc, ascending by date.
// Posts with a malformed created_at are skipped. Sentiments other than
// positive and negative count as neutral. Never returns nil.
func Aggregate(posts []post.Post, loc *time.Location) []DayBucket {
	byDay := make(map[string]*DayBucket)
	for _, p := range posts {
		key := p.DateKey(loc)
		if key == "" {
			continue
		}
		b, ok := byDay[key]
		if !ok {
			b = &DayBucket{DateKey: key}
			byDay[key] = b
		}
		switch p.Sentiment {
		case post.Positive:
			b.Positive++
		case post.Negative:
			b.Negative++
		default:
			b.Neutral++
		}
		b.PostIDs = append(b.PostIDs, p.ID)
	}

	buckets := make([]DayBucket, 0, len(byDay))
	for _, b := range byDay {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].DateKey < buckets[j].DateKey
	})
	return buckets
}

// Labels returns a display label per bucket: "Mar 10", with the year added
// on the first bucket and wherever the year changes.
func Labels(buckets []DayBucket) []string {
	labels := make([]string, len(buckets))
	prevYear := 0
	for i, b := range buckets {
		d, err := time.Parse(post.DateLayout, b.DateKey)
		if err != nil {
			labels[i] = b.DateKey
			continue
		}
		if i == 0 || d.Year() != prevYear {
			labels[i] = d.Format("Jan 2, 2006")
		} else {
			labels[i] = d.Format("Jan 2")
		}
		prevYear = d.Year()
	}
	return labels
}

// Max returns the largest bucket total, or 0.
func Max(buckets []DayBucket) int {
	m := 0
	for _, b := range buckets {
		if t := b.Total(); t > m {
			m = t
		}
	}
	return m
}

// Range returns the date keys of buckets lo and hi, in either order,
// clamped to the slice. ok is false for an empty slice.
func Range(buckets []DayBucket, lo, hi int) (from, to string, ok bool) {
	if len(buckets) == 0 {
		return "", "", false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	lo = clamp(lo, 0, len(buckets)-1)
	hi = clamp(hi, 0, len(buckets)-1)
	return buckets[lo].DateKey, buckets[hi].DateKey, true
}

// Index returns the position of the bucket for dateKey, or -1.
func Index(buckets []DayBucket, dateKey string) int {
	i := sort.Search(len(buckets), func(i int) bool {
		return buckets[i].DateKey >= dateKey
	})
	if i < len(buckets) && buckets[i].DateKey == dateKey {
		return i
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
