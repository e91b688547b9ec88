package core

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Filter narrows a record set to an inclusive date range and optional category.
type Filter struct {
	Start    Date
	End      Date
	Category string
}

// FilterResult is the filtered view together with its summary.
type FilterResult struct {
	Items        []Expense
	Total        Money
	Days         int
	DailyAverage Money
}

// FilterDefaults holds the picker defaults derived from a record set.
type FilterDefaults struct {
	Start      Date
	End        Date
	Categories []string
}

// Apply returns the records whose date lies in [f.Start, f.End] and whose
// category matches f.Category, unless it is AllCategories or empty.
// Input order is preserved.
func Apply(records []Expense, f Filter) (FilterResult, error) {
	if f.Start.After(f.End.Time) {
		return FilterResult{}, ErrInvalidRange
	}

	all := f.Category == "" || f.Category == AllCategories
	res := FilterResult{Items: make([]Expense, 0, len(records))}
	for _, e := range records {
		if e.Date.Before(f.Start.Time) || e.Date.After(f.End.Time) {
			continue
		}
		if !all && e.Category != f.Category {
			continue
		}
		total, ok := addCents(res.Total.Cents, e.Amount.Cents)
		if !ok {
			return FilterResult{}, ErrTotalOverflow
		}
		res.Items = append(res.Items, e)
		res.Total.Cents = total
	}

	res.Days = DaysBetweenInclusive(f.Start, f.End)
	if res.Days > 0 {
		res.DailyAverage = Money{Cents: divRoundHalfUp(res.Total.Cents, int64(res.Days))}
	}
	return res, nil
}

func addCents(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// divRoundHalfUp divides by a positive d, rounding halves away from zero.
func divRoundHalfUp(n, d int64) int64 {
	q, r := n/d, n%d
	if r < 0 {
		r = -r
	}
	if r >= d-r {
		if n < 0 {
			return q - 1
		}
		return q + 1
	}
	return q
}

// CategoryOptions returns AllCategories followed by the sorted distinct
// non-empty categories present in records.
func CategoryOptions(records []Expense) []string {
	seen := map[string]struct{}{}
	var cats []string
	for _, e := range records {
		c := strings.TrimSpace(e.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return append([]string{AllCategories}, cats...)
}

// DefaultsFor derives the filter defaults from records. It reports false
// when there is nothing to filter.
func DefaultsFor(records []Expense) (FilterDefaults, bool) {
	if len(records) == 0 {
		return FilterDefaults{}, false
	}
	d := FilterDefaults{Start: records[0].Date, End: records[0].Date}
	for _, e := range records[1:] {
		if e.Date.Before(d.Start.Time) {
			d.Start = e.Date
		}
		if e.Date.After(d.End.Time) {
			d.End = e.Date
		}
	}
	d.Categories = CategoryOptions(records)
	return d, true
}

// Periods accepted by PresetRange.
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// PresetRange returns the calendar week, month or year containing today.
func PresetRange(period string, today Date) (start, end Date, ok bool) {
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: time.UTC}
	n := cfg.With(today.Time)
	switch period {
	case PeriodWeek:
		return DateOf(n.BeginningOfWeek()), DateOf(n.EndOfWeek()), true
	case PeriodMonth:
		return DateOf(n.BeginningOfMonth()), DateOf(n.EndOfMonth()), true
	case PeriodYear:
		return DateOf(n.BeginningOfYear()), DateOf(n.EndOfYear()), true
	}
	return Date{}, Date{}, false
}
