package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/services"
)

const readinessTimeout = 5 * time.Second

// expenseRow is one table line, already formatted for display.
type expenseRow struct {
	Date     string
	Name     string
	Amount   string
	Category string
}

func toRows(items []core.Expense) []expenseRow {
	rows := make([]expenseRow, 0, len(items))
	for _, e := range items {
		rows = append(rows, expenseRow{
			Date:     e.Date.String(),
			Name:     e.Name,
			Amount:   formatAmount(e.Amount),
			Category: e.Category,
		})
	}
	return rows
}

type periodOption struct {
	Value  string
	Label  string
	Active bool
}

var periods = []struct{ value, label string }{
	{core.PeriodWeek, "This week"},
	{core.PeriodMonth, "This month"},
	{core.PeriodYear, "This year"},
}

// filterView feeds filter.html.
type filterView struct {
	Empty      bool
	Start      string
	End        string
	Min        string
	Max        string
	Category   string
	Categories []string
	Periods    []periodOption
	Error      string
	Rows       []expenseRow
	Total      string
	Days       int
	Average    string
}

// handleIndex renders the entry form page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	data := struct {
		Today      string
		Categories []string
	}{
		Today:      s.svc.Today().String(),
		Categories: s.svc.Categories(),
	}
	s.render(w, r, "index.html", data)
}

// handleCreateExpense validates and records one form submission.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx)

	parser := NewRequestBodyParser(w, r)
	if err := parser.Parse(); err != nil {
		logger.WarnContext(ctx, "Unreadable expense form", log.FieldError, err)
		if IsBodyTooLarge(err) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "The expense form is too large.").Write(w)
			return
		}
		BadRequestError("Invalid request format").Write(w)
		return
	}

	sub := ParseSubmission(parser)
	exp, ref, err := s.svc.Submit(ctx, sub)
	switch {
	case core.IsValidationError(err):
		s.metrics.submission(resultInvalid)
		logger.DebugContext(ctx, "Expense rejected", log.FieldError, err)
		WarningResponse(core.UserMessage(err)).Write(w)
		return
	case err != nil:
		s.metrics.submission(resultError)
		fields := log.NewFields().WithExpense(sub.Name, 0, sub.Category, sub.RawDate)
		log.NewStructuredLogger(logger).LogError(ctx, "Expense append failed", err, log.ComponentExpense, log.OpCreate, fields)
		InternalServerError("Could not save the expense. Please try again.").Write(w)
		return
	}

	s.metrics.submission(resultOK)
	log.NewStructuredLogger(logger).LogExpenseCreated(ctx, exp.Name, exp.Amount.Cents, exp.Category, exp.Date.String(), ref)

	SuccessResponse("Saved "+exp.Name+" ("+formatAmount(exp.Amount)+") on "+exp.Date.String()+".").
		TriggerExpenseCreated(ref, exp.Date.String()).
		TriggerFormReset().
		Write(w)
}

// handleExpensesTable renders every record, unfiltered.
func (s *Server) handleExpensesTable(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	items, err := s.svc.Expenses(ctx)
	if err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Expense table load failed", err, log.ComponentStorage, log.OpList, nil)
		InternalServerError("Could not load expenses.").Write(w)
		return
	}
	s.render(w, r, "expenses_table.html", struct{ Rows []expenseRow }{Rows: toRows(items)})
}

// handleFilter renders the filter panel for the requested range and category.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	listing, err := s.svc.Listing(ctx, ParseFilterRequest(r.URL.Query()))
	if err != nil {
		s.metrics.filter(resultError)
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Filter load failed", err, log.ComponentFilter, log.OpFilter, nil)
		InternalServerError("Could not load expenses.").Write(w)
		return
	}

	view := buildFilterView(listing)
	switch {
	case listing.Empty:
		s.metrics.filter(resultEmpty)
	case listing.RangeErr != nil:
		s.metrics.filter(resultRangeError)
	default:
		s.metrics.filter(resultOK)
	}
	s.render(w, r, "filter.html", view)
}

func buildFilterView(l *services.Listing) filterView {
	if l.Empty {
		return filterView{Empty: true}
	}

	v := filterView{
		Start:      l.Filter.Start.String(),
		End:        l.Filter.End.String(),
		Min:        l.Defaults.Start.String(),
		Max:        l.Defaults.End.String(),
		Category:   l.Filter.Category,
		Categories: l.Defaults.Categories,
	}
	for _, p := range periods {
		v.Periods = append(v.Periods, periodOption{Value: p.value, Label: p.label, Active: p.value == l.Period})
	}

	if l.RangeErr != nil {
		v.Error = core.UserMessage(l.RangeErr)
		return v
	}
	v.Rows = toRows(l.Result.Items)
	v.Total = formatAmount(l.Result.Total)
	v.Days = l.Result.Days
	v.Average = formatAmount(l.Result.DailyAverage)
	return v
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready only when the store can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{"templates": "ok", "store": "ok"}
	status, code := "ready", http.StatusOK

	if _, err := s.svc.Expenses(ctx); err != nil {
		checks["store"] = "failed: " + err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			checks["store"] = "timeout"
		}
		status, code = "not_ready", http.StatusServiceUnavailable
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// render executes a template into a buffer so a failure can still produce
// a clean error response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		ctx := r.Context()
		log.NewStructuredLogger(log.FromContext(ctx)).
			LogError(ctx, "Template execution failed", err, log.ComponentTemplate, log.OpRender, log.LogFields{"template": name})
		InternalServerError("Could not render the page.").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
