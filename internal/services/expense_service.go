package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/ports"
)

// Publisher announces stored expenses to other processes.
type Publisher interface {
	PublishExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error
}

// ExpenseService runs the form interactions against one store
type ExpenseService struct {
	store     ports.Store
	policy    core.Policy
	backend   string
	publisher Publisher
	today     func() core.Date
}

// NewExpenseService wires a store with the policy of its backend. publisher may be nil.
func NewExpenseService(store ports.Store, policy core.Policy, backend string, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		policy:    policy,
		backend:   backend,
		publisher: publisher,
		today:     core.Today,
	}
}

// Categories returns the options offered by the entry form.
func (s *ExpenseService) Categories() []string {
	if len(s.policy.Allowed) > 0 {
		return s.policy.Allowed
	}
	return core.DefaultCategories
}

// Today is the default date of the entry form.
func (s *ExpenseService) Today() core.Date {
	return s.today()
}

// Submit validates the submission and appends it as one record.
// Validation errors are returned unchanged and nothing is stored.
func (s *ExpenseService) Submit(ctx context.Context, sub core.Submission) (core.Expense, string, error) {
	if sub.Date.IsZero() {
		sub.Date = s.today()
	}
	e, err := sub.Expense(s.policy)
	if err != nil {
		return core.Expense{}, "", err
	}

	ref, err := s.store.Append(ctx, e)
	if err != nil {
		return core.Expense{}, "", fmt.Errorf("save expense: %w", err)
	}

	if err := s.publish(ctx, ref, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense recorded message",
			"ref", ref, "error", err)
		// the record is stored, the event is best effort
	}

	return e, ref, nil
}

func (s *ExpenseService) publish(ctx context.Context, ref string, e core.Expense) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishExpenseRecorded(ctx, amqp.NewExpenseRecordedMessage(ref, s.backend, e))
}

// Expenses reloads the full, unfiltered record set.
func (s *ExpenseService) Expenses(ctx context.Context) ([]core.Expense, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	return records, nil
}

// FilterRequest carries the raw filter panel values. Empty or unreadable
// dates fall back to the range of the stored records.
type FilterRequest struct {
	Start    string
	End      string
	Category string
	Period   string
}

// Listing is the state of the filter panel.
type Listing struct {
	// Empty is set when there are no records; nothing else is filled in.
	Empty    bool
	Defaults core.FilterDefaults
	Filter   core.Filter
	Period   string
	Result   core.FilterResult
	// RangeErr is set instead of Result when the start date is after the end date.
	RangeErr error
}

// Listing reloads all records and applies the requested filter.
// Storage errors are returned; range errors are reported in the listing.
func (s *ExpenseService) Listing(ctx context.Context, req FilterRequest) (*Listing, error) {
	records, err := s.Expenses(ctx)
	if err != nil {
		return nil, err
	}

	defaults, ok := core.DefaultsFor(records)
	if !ok {
		return &Listing{Empty: true}, nil
	}

	l := &Listing{
		Defaults: defaults,
		Filter:   s.resolveFilter(ctx, req, defaults),
	}
	if _, _, ok := core.PresetRange(req.Period, s.today()); ok {
		l.Period = req.Period
	}

	res, err := core.Apply(records, l.Filter)
	switch {
	case errors.Is(err, core.ErrInvalidRange):
		l.RangeErr = err
	case err != nil:
		return nil, fmt.Errorf("apply filter: %w", err)
	default:
		l.Result = res
	}
	return l, nil
}

func (s *ExpenseService) resolveFilter(ctx context.Context, req FilterRequest, d core.FilterDefaults) core.Filter {
	f := core.Filter{Start: d.Start, End: d.End, Category: core.AllCategories}

	if start, end, ok := core.PresetRange(req.Period, s.today()); ok {
		f.Start, f.End = start, end
	} else {
		f.Start = parseOr(ctx, "start", req.Start, d.Start)
		f.End = parseOr(ctx, "end", req.End, d.End)
	}

	if c := strings.TrimSpace(req.Category); c != "" {
		f.Category = c
	}
	return f
}

func parseOr(ctx context.Context, field, raw string, fallback core.Date) core.Date {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		slog.DebugContext(ctx, "Ignoring unreadable filter date", "field", field, "value", raw)
		return fallback
	}
	return d
}

// Close releases the store.
func (s *ExpenseService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
