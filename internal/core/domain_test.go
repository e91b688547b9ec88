package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != NewDate(2025, 3, 9) {
		t.Fatalf("got %v", d)
	}
	if _, err := ParseDate("09/03/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateOfDropsTime(t *testing.T) {
	got := DateOf(time.Date(2025, 1, 2, 23, 59, 0, 0, time.UTC))
	if got != NewDate(2025, 1, 2) {
		t.Fatalf("got %v", got)
	}
	if got.String() != "2025-01-02" {
		t.Fatalf("String() = %q", got.String())
	}
}

func TestDaysBetweenInclusive(t *testing.T) {
	cases := []struct {
		start, end Date
		want       int
	}{
		{NewDate(2025, 1, 1), NewDate(2025, 1, 1), 1},
		{NewDate(2025, 1, 1), NewDate(2025, 1, 31), 31},
		{NewDate(2024, 2, 28), NewDate(2024, 3, 1), 3},
		{NewDate(2025, 1, 2), NewDate(2025, 1, 1), 0},
		{NewDate(1969, 12, 31), NewDate(1970, 1, 1), 2},
		{NewDate(1700, 1, 1), NewDate(2025, 5, 14), 118869},
		{NewDate(1, 1, 1), NewDate(9999, 12, 31), 3652059},
	}
	for i, tc := range cases {
		if got := DaysBetweenInclusive(tc.start, tc.end); got != tc.want {
			t.Fatalf("case %d: got %d want %d", i, got, tc.want)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Date: NewDate(2025, 1, 1), Name: "ok", Amount: Money{Cents: 100}, Category: "Food"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Date: Date{}, Name: "a", Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Name: "   ", Amount: Money{Cents: 1}},
		{Date: NewDate(2025, 1, 1), Name: "a", Amount: Money{Cents: 0}},
		{Date: NewDate(2025, 1, 1), Name: "a", Amount: Money{Cents: -5}},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestSubmissionExpense(t *testing.T) {
	d := NewDate(2025, 6, 1)
	spreadsheet := Policy{RequireCategory: true, Allowed: DefaultCategories}
	table := Policy{Allowed: DefaultCategories}

	tests := []struct {
		name    string
		sub     Submission
		policy  Policy
		wantErr error
	}{
		{"valid", Submission{Date: d, Name: "Coffee", Amount: "50", Category: "Food"}, spreadsheet, nil},
		{"empty name", Submission{Date: d, Name: "  ", Amount: "50", Category: "Food"}, spreadsheet, ErrEmptyName},
		{"name checked before amount", Submission{Date: d, Name: "", Amount: "0", Category: ""}, spreadsheet, ErrEmptyName},
		{"zero amount", Submission{Date: d, Name: "Coffee", Amount: "0", Category: "Food"}, spreadsheet, ErrInvalidAmount},
		{"negative amount", Submission{Date: d, Name: "Coffee", Amount: "-3", Category: "Food"}, spreadsheet, ErrInvalidAmount},
		{"malformed amount", Submission{Date: d, Name: "Coffee", Amount: "abc", Category: "Food"}, spreadsheet, ErrInvalidAmount},
		{"amount checked before category", Submission{Date: d, Name: "Coffee", Amount: "0", Category: ""}, spreadsheet, ErrInvalidAmount},
		{"missing category on spreadsheet", Submission{Date: d, Name: "Coffee", Amount: "5", Category: ""}, spreadsheet, ErrEmptyCategory},
		{"missing category on table", Submission{Date: d, Name: "Coffee", Amount: "5", Category: ""}, table, nil},
		{"unknown category", Submission{Date: d, Name: "Coffee", Amount: "5", Category: "Rent"}, table, ErrUnknownCategory},
		{"free category without allowed set", Submission{Date: d, Name: "Coffee", Amount: "5", Category: "Rent"}, Policy{}, nil},
		{"largest amount", Submission{Date: d, Name: "Car", Amount: "10000000", Category: "Food"}, spreadsheet, nil},
		{"amount over limit", Submission{Date: d, Name: "Car", Amount: "10000000.01", Category: "Food"}, spreadsheet, ErrAmountTooLarge},
		{"huge amount", Submission{Date: d, Name: "Car", Amount: "92233720368547757", Category: "Food"}, spreadsheet, ErrAmountTooLarge},
		{"unreadable date", Submission{RawDate: "14/05/2025", Name: "Coffee", Amount: "5", Category: "Food"}, spreadsheet, ErrInvalidDate},
		{"name checked before date", Submission{RawDate: "nope", Name: "", Amount: "5", Category: "Food"}, spreadsheet, ErrEmptyName},
		{"amount checked before date", Submission{RawDate: "nope", Name: "Coffee", Amount: "0", Category: "Food"}, spreadsheet, ErrInvalidAmount},
		{"category checked before date", Submission{RawDate: "nope", Name: "Coffee", Amount: "5"}, spreadsheet, ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.sub.Expense(tt.policy)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSubmissionExpenseFields(t *testing.T) {
	sub := Submission{Date: NewDate(2025, 6, 1), Name: " Coffee ", Amount: "50", Category: "Food"}
	e, err := sub.Expense(Policy{RequireCategory: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Expense{Date: NewDate(2025, 6, 1), Name: "Coffee", Amount: Money{Cents: 5000}, Category: "Food"}
	if e != want {
		t.Fatalf("got %+v want %+v", e, want)
	}
}

func TestSubmissionRawDate(t *testing.T) {
	sub := Submission{Date: NewDate(2025, 6, 1), RawDate: " 2025-05-14 ", Name: "Tea", Amount: "4.50"}
	e, err := sub.Expense(Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Date != NewDate(2025, 5, 14) || e.Amount.Cents != 450 {
		t.Fatalf("got %+v", e)
	}
}

func TestSubmissionDefaultsToToday(t *testing.T) {
	e, err := Submission{Name: "x", Amount: "1"}.Expense(Policy{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Date != Today() {
		t.Fatalf("expected today, got %v", e.Date)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(ErrEmptyName); got != "Please enter an expense name." {
		t.Fatalf("got %q", got)
	}
	if got := UserMessage(ErrInvalidRange); got != "Start date must be before end date." {
		t.Fatalf("got %q", got)
	}
	other := errors.New("boom")
	if got := UserMessage(other); got != "boom" {
		t.Fatalf("got %q", got)
	}
	if IsValidationError(other) || !IsValidationError(ErrEmptyCategory) {
		t.Fatalf("IsValidationError misclassified")
	}
}
