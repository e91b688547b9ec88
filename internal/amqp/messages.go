package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"expenses/internal/core"
)

// ExpenseRecordedMessage announces a record appended by the form.
// It carries the full record so consumers never read back from the source store.
type ExpenseRecordedMessage struct {
	Ref         string    `json:"ref"`
	Date        string    `json:"date"`
	Name        string    `json:"name"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category,omitempty"`
	Backend     string    `json:"backend"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewExpenseRecordedMessage builds the event for a stored expense.
func NewExpenseRecordedMessage(ref, backend string, e core.Expense) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		Ref:         ref,
		Date:        e.Date.String(),
		Name:        e.Name,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		Backend:     backend,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Expense converts the message back into a validated record.
func (m *ExpenseRecordedMessage) Expense() (core.Expense, error) {
	date, err := core.ParseDate(m.Date)
	if err != nil {
		return core.Expense{}, err
	}
	e := core.Expense{
		Date:     date,
		Name:     m.Name,
		Amount:   core.Money{Cents: m.AmountCents},
		Category: m.Category,
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

// ExpenseRecordedMessageFromJSON creates a message from JSON bytes
func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Date == "" || msg.Name == "" {
		return nil, errors.New("incomplete expense message")
	}
	return &msg, nil
}
