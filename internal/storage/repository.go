package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"expenses/internal/core"
	"expenses/internal/ports"

	// postgres driver
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

func (d Dialect) placeholders() sq.PlaceholderFormat {
	if d == Postgres {
		return sq.Dollar
	}
	return sq.Question
}

var expenseColumns = []string{"id", "date", "name", "amount", "category"}

var _ ports.Store = (*SQLRepository)(nil)

// SQLRepository keeps expenses in the relational table
// expenses(id, date, name, amount, category).
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
}

// NewSQLiteRepository opens the SQLite database file at dbPath.
func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(SQLite, dbPath)
}

// NewPostgresRepository connects with a libpq connection string or URL.
func NewPostgresRepository(dsn string) (*SQLRepository, error) {
	return Open(Postgres, dsn)
}

// Open connects, creates the table if absent and returns a repository that
// reuses a single long-lived connection.
func Open(dialect Dialect, dsn string) (*SQLRepository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("missing %s connection string", dialect)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLRepository{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(dialect.placeholders()),
	}, nil
}

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append inserts one row and returns its id.
func (r *SQLRepository) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	query := r.builder.Insert("expenses").
		Columns("date", "name", "amount", "category").
		Values(e.Date.String(), e.Name, e.Amount.Float(), e.Category).
		Suffix("RETURNING id")

	var id int64
	if err := query.RunWith(r.db).QueryRowContext(ctx).Scan(&id); err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to database",
		"id", id,
		"dialect", r.dialect,
		"name", e.Name,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	return strconv.FormatInt(id, 10), nil
}

// LoadAll returns every row, newest date first.
func (r *SQLRepository) LoadAll(ctx context.Context) ([]core.Expense, error) {
	query := r.builder.Select(expenseColumns...).
		From("expenses").
		OrderBy("date DESC", "id DESC")

	rows, err := query.RunWith(r.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			id       int64
			rawDate  any
			name     string
			amount   float64
			category sql.NullString
		)
		if err := rows.Scan(&id, &rawDate, &name, &amount, &category); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		date, err := scanDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", id, err)
		}
		out = append(out, core.Expense{
			Date:     date,
			Name:     name,
			Amount:   core.MoneyFromFloat(amount),
			Category: category.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// scanDate normalises the driver representation of a date column.
// Postgres returns time.Time, SQLite returns the stored text.
func scanDate(v any) (core.Date, error) {
	switch d := v.(type) {
	case time.Time:
		return core.DateOf(d), nil
	case string:
		return parseStoredDate(d)
	case []byte:
		return parseStoredDate(string(d))
	default:
		return core.Date{}, fmt.Errorf("unexpected date type %T: %w", v, core.ErrInvalidDate)
	}
}

func parseStoredDate(s string) (core.Date, error) {
	if len(s) >= len(core.DateLayout) {
		s = s[:len(core.DateLayout)]
	}
	return core.ParseDate(s)
}
