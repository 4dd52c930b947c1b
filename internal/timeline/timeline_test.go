package timeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/abelbrown/mentions/internal/post"
)

func TestAggregateEmpty(t *testing.T) {
	buckets := Aggregate(nil, time.UTC)
	if buckets == nil {
		t.Fatal("expected empty non-nil slice")
	}
	if len(buckets) != 0 {
		t.Errorf("expected 0 buckets, got %d", len(buckets))
	}
}

func TestAggregateGroupsAndSorts(t *testing.T) {
	posts := []post.Post{
		{ID: 1, Sentiment: post.Positive, CreatedAt: "2024-03-11T09:00:00Z"},
		{ID: 2, Sentiment: post.Negative, CreatedAt: "2024-03-10T09:00:00Z"},
		{ID: 3, Sentiment: post.Positive, CreatedAt: "2024-03-10T18:00:00Z"},
		{ID: 4, Sentiment: "mixed", CreatedAt: "2024-03-10T20:00:00Z"},
		{ID: 5, Sentiment: post.Neutral, CreatedAt: "garbage"},
	}

	buckets := Aggregate(posts, time.UTC)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}

	first := buckets[0]
	if first.DateKey != "2024-03-10" {
		t.Errorf("expected first bucket 2024-03-10, got %s", first.DateKey)
	}
	if first.Positive != 1 || first.Negative != 1 || first.Neutral != 1 {
		t.Errorf("unexpected tallies %+v", first)
	}
	if fmt.Sprint(first.PostIDs) != "[2 3 4]" {
		t.Errorf("expected ids [2 3 4], got %v", first.PostIDs)
	}
	if first.Total() != 3 {
		t.Errorf("expected total 3, got %d", first.Total())
	}

	if buckets[1].DateKey != "2024-03-11" || buckets[1].Total() != 1 {
		t.Errorf("unexpected second bucket %+v", buckets[1])
	}
}

func TestAggregateUsesLocation(t *testing.T) {
	posts := []post.Post{
		{ID: 1, CreatedAt: "2024-03-10T23:30:00Z"},
	}
	tokyo := time.FixedZone("JST", 9*3600)
	if got := Aggregate(posts, tokyo)[0].DateKey; got != "2024-03-11" {
		t.Errorf("expected 2024-03-11 in Tokyo, got %s", got)
	}
	if got := Aggregate(posts, time.UTC)[0].DateKey; got != "2024-03-10" {
		t.Errorf("expected 2024-03-10 in UTC, got %s", got)
	}
}

func TestLabels(t *testing.T) {
	buckets := []DayBucket{
		{DateKey: "2023-12-30"},
		{DateKey: "2023-12-31"},
		{DateKey: "2024-01-01"},
		{DateKey: "2024-03-10"},
	}
	expected := []string{"Dec 30, 2023", "Dec 31", "Jan 1, 2024", "Mar 10"}

	got := Labels(buckets)
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("label %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}

func TestMaxAndRange(t *testing.T) {
	buckets := []DayBucket{
		{DateKey: "2024-03-08", Positive: 1},
		{DateKey: "2024-03-09", Negative: 4, Neutral: 1},
		{DateKey: "2024-03-10", Neutral: 2},
	}
	if Max(buckets) != 5 {
		t.Errorf("expected max 5, got %d", Max(buckets))
	}
	if Max(nil) != 0 {
		t.Error("expected 0 for no buckets")
	}

	from, to, ok := Range(buckets, 2, 0)
	if !ok || from != "2024-03-08" || to != "2024-03-10" {
		t.Errorf("expected 2024-03-08..2024-03-10, got %s..%s (%v)", from, to, ok)
	}
	from, to, _ = Range(buckets, -3, 99)
	if from != "2024-03-08" || to != "2024-03-10" {
		t.Errorf("expected clamped range, got %s..%s", from, to)
	}
	if _, _, ok := Range(nil, 0, 0); ok {
		t.Error("expected !ok for empty buckets")
	}
}

func TestIndex(t *testing.T) {
	buckets := []DayBucket{{DateKey: "2024-03-08"}, {DateKey: "2024-03-10"}}
	if Index(buckets, "2024-03-10") != 1 {
		t.Error("expected index 1")
	}
	if Index(buckets, "2024-03-09") != -1 {
		t.Error("expected -1 for missing day")
	}
}
