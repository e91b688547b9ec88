package core

import (
	"errors"
	"reflect"
	"testing"
)

func sample() []Expense {
	return []Expense{
		{Date: NewDate(2025, 1, 1), Name: "Coffee", Amount: Money{Cents: 5000}, Category: "Food"},
		{Date: NewDate(2025, 1, 3), Name: "Cinema", Amount: Money{Cents: 12000}, Category: "Entertainment"},
		{Date: NewDate(2025, 1, 5), Name: "Books", Amount: Money{Cents: 30000}, Category: "College"},
		{Date: NewDate(2025, 1, 5), Name: "Lunch", Amount: Money{Cents: 1550}, Category: "Food"},
	}
}

func TestApplySingleDay(t *testing.T) {
	d := NewDate(2025, 2, 1)
	records := []Expense{{Date: d, Name: "x", Amount: Money{Cents: 10000}, Category: "Food"}}
	res, err := Apply(records, Filter{Start: d, End: d, Category: AllCategories})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total.Cents != 10000 || res.DailyAverage.Cents != 10000 || res.Days != 1 {
		t.Fatalf("got total=%d avg=%d days=%d", res.Total.Cents, res.DailyAverage.Cents, res.Days)
	}
}

func TestApplyAverageRounding(t *testing.T) {
	tests := []struct {
		name  string
		total int64
		days  int
		want  int64
	}{
		{"exact", 900, 3, 300},
		{"rounds down", 1000, 3, 333},
		{"rounds half up", 5, 2, 3},
		{"rounds up", 2000, 3, 667},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := NewDate(2025, 3, 1)
			end := NewDate(2025, 3, tt.days)
			records := []Expense{{Date: start, Name: "x", Amount: Money{Cents: tt.total}}}
			res, err := Apply(records, Filter{Start: start, End: end})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.DailyAverage.Cents != tt.want {
				t.Fatalf("average = %d, want %d", res.DailyAverage.Cents, tt.want)
			}
		})
	}
}

func TestApplyLongRange(t *testing.T) {
	start, end := NewDate(1700, 1, 1), NewDate(2025, 5, 14)
	records := []Expense{{Date: end, Name: "x", Amount: Money{Cents: 118869 * 3}}}
	res, err := Apply(records, Filter{Start: start, End: end})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Days != 118869 || res.DailyAverage.Cents != 3 {
		t.Fatalf("got days=%d avg=%d", res.Days, res.DailyAverage.Cents)
	}
}

func TestApplyTotalOverflow(t *testing.T) {
	d := NewDate(2025, 1, 1)
	huge := Money{Cents: 9223372036854775700}
	records := []Expense{
		{Date: d, Name: "a", Amount: huge},
		{Date: d, Name: "b", Amount: huge},
	}
	if _, err := Apply(records, Filter{Start: d, End: d}); !errors.Is(err, ErrTotalOverflow) {
		t.Fatalf("expected ErrTotalOverflow, got %v", err)
	}
}

func TestApplyInvalidRange(t *testing.T) {
	res, err := Apply(sample(), Filter{Start: NewDate(2025, 1, 5), End: NewDate(2025, 1, 1)})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if res.Items != nil || res.Total.Cents != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestApplyCategory(t *testing.T) {
	records := []Expense{
		{Date: NewDate(2025, 1, 1), Name: "a", Amount: Money{Cents: 100}, Category: "Food"},
		{Date: NewDate(2025, 1, 1), Name: "b", Amount: Money{Cents: 200}, Category: "Entertainment"},
	}
	res, err := Apply(records, Filter{Start: NewDate(2025, 1, 1), End: NewDate(2025, 1, 1), Category: "Food"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Name != "a" {
		t.Fatalf("expected only the Food record, got %+v", res.Items)
	}
}

func TestApplyRangeBoundsInclusive(t *testing.T) {
	res, err := Apply(sample(), Filter{Start: NewDate(2025, 1, 3), End: NewDate(2025, 1, 5), Category: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(res.Items))
	}
	if res.Total.Cents != 43550 {
		t.Fatalf("total = %d", res.Total.Cents)
	}
	// 435.50 over 3 days
	if res.Days != 3 || res.DailyAverage.Cents != 14517 {
		t.Fatalf("days=%d avg=%d", res.Days, res.DailyAverage.Cents)
	}
	if res.Items[0].Name != "Cinema" || res.Items[2].Name != "Lunch" {
		t.Fatalf("order not preserved: %+v", res.Items)
	}
}

func TestCategoryOptions(t *testing.T) {
	records := append(sample(), Expense{Date: NewDate(2025, 1, 9), Name: "n", Amount: Money{Cents: 1}})
	got := CategoryOptions(records)
	want := []string{"All", "College", "Entertainment", "Food"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestDefaultsFor(t *testing.T) {
	if _, ok := DefaultsFor(nil); ok {
		t.Fatalf("expected no defaults for empty set")
	}
	records := sample()
	records[0], records[3] = records[3], records[0]
	d, ok := DefaultsFor(records)
	if !ok {
		t.Fatalf("expected defaults")
	}
	if d.Start != NewDate(2025, 1, 1) || d.End != NewDate(2025, 1, 5) {
		t.Fatalf("got start=%v end=%v", d.Start, d.End)
	}
	if len(d.Categories) != 4 {
		t.Fatalf("categories = %v", d.Categories)
	}
}

func TestPresetRange(t *testing.T) {
	today := NewDate(2025, 5, 14) // Wednesday
	tests := []struct {
		period     string
		start, end Date
	}{
		{PeriodWeek, NewDate(2025, 5, 12), NewDate(2025, 5, 18)},
		{PeriodMonth, NewDate(2025, 5, 1), NewDate(2025, 5, 31)},
		{PeriodYear, NewDate(2025, 1, 1), NewDate(2025, 12, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			start, end, ok := PresetRange(tt.period, today)
			if !ok || start != tt.start || end != tt.end {
				t.Fatalf("got %v..%v ok=%v", start, end, ok)
			}
		})
	}
	if _, _, ok := PresetRange("decade", today); ok {
		t.Fatalf("unexpected preset")
	}
}
