package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	appweb "expenses/web"
)

// ExpenseService is what the handlers need from the form service.
type ExpenseService interface {
	Submit(ctx context.Context, sub core.Submission) (core.Expense, string, error)
	Expenses(ctx context.Context) ([]core.Expense, error)
	Listing(ctx context.Context, req services.FilterRequest) (*services.Listing, error)
	Categories() []string
	Today() core.Date
}

// Server serves the entry form, the table and filter partials, and the
// operational endpoints.
type Server struct {
	http.Server
	templates *template.Template
	svc       ExpenseService
	logger    *log.Logger
	metrics   *serverMetrics
	started   time.Time
}

// templateFuncs are available to every page and partial.
var templateFuncs = template.FuncMap{
	"amount": formatAmount,
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, svc ExpenseService, logger *log.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("expense service is required")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates: t,
		svc:       svc,
		logger:    logger,
		metrics:   newServerMetrics(),
		started:   time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	tracer := trace.NewMiddleware(logger, extractClientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	handle := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, s.metrics.instrument(route, h))
	}

	handle("/", "index", s.handleIndex)
	handle("/expenses", "create_expense", s.handleCreateExpense)
	handle("/ui/expenses", "expenses_table", s.handleExpensesTable)
	handle("/ui/filter", "filter", s.handleFilter)
	handle("/healthz", "healthz", s.handleHealth)
	handle("/readyz", "readyz", s.handleReady)
	mux.Handle("/metrics", s.metrics.handler())

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}
}
