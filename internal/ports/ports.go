// Package ports defines the storage contract shared by every backend.
package ports

import (
	"context"
	"io"

	"expenses/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseAppender interface {
		// Append persists exactly one record and returns a backend-specific row reference.
		Append(ctx context.Context, e core.Expense) (ref string, err error)
	}

	// ExpenseLoader returns every persisted record. Spreadsheet backends keep
	// insertion order, table backends return newest dates first.
	ExpenseLoader interface {
		LoadAll(ctx context.Context) ([]core.Expense, error)
	}

	Store interface {
		ExpenseAppender
		ExpenseLoader
		io.Closer
	}
)
