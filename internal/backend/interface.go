package backend

import (
	"context"

	"expenses/internal/core"
	"expenses/internal/ports"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store instance and its cleanup function
type BackendResult struct {
	Store   ports.Store
	Type    BackendType
	Cleanup CleanupFunc
}

// Policy returns the validation policy submissions must satisfy for this backend.
func (r *BackendResult) Policy(categories []string) core.Policy {
	return core.Policy{
		RequireCategory: r.Type.RequiresCategory(),
		Allowed:         categories,
	}
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a store instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Spreadsheet file
	XLSXPath string

	// SQL
	SQLiteDBPath string
	DatabaseURL  string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory backend specific
	MemorySeedFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	XLSXBackend     BackendType = "xlsx"
	SheetsBackend   BackendType = "sheets"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case XLSXBackend, SheetsBackend, SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// RequiresCategory reports whether submissions must carry a category.
// Spreadsheet rows always have one; table rows may leave it empty.
func (bt BackendType) RequiresCategory() bool {
	return bt == XLSXBackend || bt == SheetsBackend
}
