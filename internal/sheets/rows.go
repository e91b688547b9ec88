// Package sheets holds the row layout shared by the spreadsheet backends.
package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"expenses/internal/core"
)

// Header is the fixed first row of every expenses sheet.
var Header = []string{"Date", "Expense Name", "Amount", "Category"}

var errShortRow = errors.New("row has fewer than 3 columns")

var textDateLayouts = []string{
	core.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01-02-06",
	"1/2/2006",
}

// IsHeader reports whether cols is the header row.
func IsHeader(cols []string) bool {
	return len(cols) > 0 && strings.EqualFold(strings.TrimSpace(cols[0]), Header[0])
}

// Row renders e as the cell values written to a sheet.
func Row(e core.Expense) []any {
	return []any{e.Date.String(), e.Name, e.Amount.Float(), e.Category}
}

// ParseRow converts the textual cells of one data row into a record.
// Dates may be spreadsheet serial numbers or text; amounts are numbers.
func ParseRow(cols []string) (core.Expense, error) {
	if len(cols) < 3 {
		return core.Expense{}, errShortRow
	}
	date, err := ParseCellDate(cols[0])
	if err != nil {
		return core.Expense{}, err
	}
	amount, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(cols[2]), ",", "."), 64)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse amount %q: %w", cols[2], core.ErrInvalidAmount)
	}
	e := core.Expense{
		Date:   date,
		Name:   strings.TrimSpace(cols[1]),
		Amount: core.MoneyFromFloat(amount),
	}
	if len(cols) > 3 {
		e.Category = strings.TrimSpace(cols[3])
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// ParseCellDate accepts a serial date number or one of the text layouts.
func ParseCellDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return core.Date{}, fmt.Errorf("parse serial date %q: %w", s, core.ErrInvalidDate)
		}
		return core.DateOf(t), nil
	}
	for _, layout := range textDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("parse date %q: %w", s, core.ErrInvalidDate)
}

// ToStrings flattens API cell values into trimmed strings.
func ToStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch val := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}
