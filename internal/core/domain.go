package core

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// DateLayout is the wire format for dates in forms, query strings and text cells.
const DateLayout = "2006-01-02"

// AllCategories is the filter option that disables category restriction.
const AllCategories = "All"

// MaxAmountCents bounds a single amount (ten million units). Amounts stay
// exact as float cells, and totals stay far below float and int64 limits.
const MaxAmountCents = 1_000_000_000

// DefaultCategories is the fixed set offered by the entry form.
var DefaultCategories = []string{"Food", "Entertainment", "College"}

type (
	// Date is a calendar date without time of day, normalised to UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is one persisted record. Category is stored as free text.
	Expense struct {
		Date     Date
		Name     string
		Amount   Money
		Category string
	}

	// Submission carries the raw values of the entry form. RawDate, when
	// set, is parsed during validation and takes precedence over Date.
	Submission struct {
		Date     Date
		RawDate  string
		Name     string
		Amount   string
		Category string
	}

	// Policy controls the validation applied to submissions for a backend.
	Policy struct {
		RequireCategory bool
		Allowed         []string
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty expense name")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrAmountTooLarge  = errors.New("amount too large")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidRange    = errors.New("start date after end date")
	ErrTotalOverflow   = errors.New("total out of range")
)

var userMessages = map[error]string{
	ErrInvalidDate:     "Please enter a valid date.",
	ErrEmptyName:       "Please enter an expense name.",
	ErrInvalidAmount:   "Please enter a valid amount greater than 0.",
	ErrAmountTooLarge:  "Please enter an amount of at most 10,000,000.",
	ErrEmptyCategory:   "Please select a category.",
	ErrUnknownCategory: "Please select one of the listed categories.",
	ErrInvalidRange:    "Start date must be before end date.",
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time of day of t, keeping its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current local calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// DaysBetweenInclusive counts the calendar days in [start, end].
// The result is zero or negative when end precedes start.
func DaysBetweenInclusive(start, end Date) int {
	return int(dayNumber(end)-dayNumber(start)) + 1
}

// dayNumber counts days since the Unix epoch. Dates sit on UTC midnight,
// so the division is exact on both sides of the epoch.
func dayNumber(d Date) int64 {
	return d.Unix() / 86400
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	return e.Amount.Validate()
}

// Expense validates the submission in form order and converts it into a record.
// Name is checked first, then amount, then category, then the date text.
func (s Submission) Expense(p Policy) (Expense, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return Expense{}, ErrEmptyName
	}

	cents, err := ParseDecimalToCents(s.Amount)
	if err != nil {
		return Expense{}, ErrInvalidAmount
	}
	amount := Money{Cents: cents}
	if err := amount.Validate(); err != nil {
		return Expense{}, err
	}

	category := strings.TrimSpace(s.Category)
	if category == "" && p.RequireCategory {
		return Expense{}, ErrEmptyCategory
	}
	if category != "" && len(p.Allowed) > 0 && !slices.Contains(p.Allowed, category) {
		return Expense{}, ErrUnknownCategory
	}

	date := s.Date
	if raw := strings.TrimSpace(s.RawDate); raw != "" {
		if date, err = ParseDate(raw); err != nil {
			return Expense{}, err
		}
	}
	if date.IsZero() {
		date = Today()
	}

	return Expense{
		Date:     date,
		Name:     name,
		Amount:   amount,
		Category: category,
	}, nil
}

// UserMessage returns the text shown to the user for a validation or range error.
func UserMessage(err error) string {
	for sentinel, msg := range userMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}

// IsValidationError reports whether err is one of the user-facing input errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrAmountTooLarge) ||
		errors.Is(err, ErrEmptyCategory) ||
		errors.Is(err, ErrUnknownCategory) ||
		errors.Is(err, ErrInvalidDate)
}
