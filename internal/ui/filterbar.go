package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/abelbrown/mentions/internal/filter"
)

// filterChips describes each constraining filter, in Keys order. The two
// date bounds collapse into one chip.
func filterChips(s filter.Set) []string {
	var chips []string
	for _, k := range filter.Keys {
		v := s.Get(k)
		switch k {
		case filter.KeyDateFrom, filter.KeyDateTo:
			continue
		case filter.KeySearch:
			if v != "" {
				chips = append(chips, fmt.Sprintf("%q", v))
			}
			continue
		}
		if v == "" || strings.EqualFold(v, filter.All) {
			continue
		}
		chips = append(chips, string(k)+":"+v)
	}
	switch {
	case s.DateFrom != "" && s.DateFrom == s.DateTo:
		chips = append(chips, "date:"+s.DateFrom)
	case s.DateFrom != "" || s.DateTo != "":
		from, to := s.DateFrom, s.DateTo
		if from == "" {
			from = "…"
		}
		if to == "" {
			to = "…"
		}
		chips = append(chips, "dates:"+from+".."+to)
	}
	return chips
}

// renderFilterBar shows the active filters and how many posts pass them.
func renderFilterBar(s filter.Set, shown, total, width int) string {
	left := "all mentions"
	if chips := filterChips(s); len(chips) > 0 {
		left = strings.Join(chips, "  ")
	}
	count := fmt.Sprintf("%d/%d", shown, total)
	if room := width - 2 - len(count) - 2; room > 0 {
		left = runewidth.Truncate(left, room, "…")
	} else {
		left = ""
	}
	line := FilterChip.Render(left) + "  " + FilterBarCount.Render(count)
	return FilterBar.Width(width).MaxHeight(1).Render(line)
}
