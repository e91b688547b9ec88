// Package xlsx stores expenses as rows of a local spreadsheet file.
//
// The workbook has a single sheet whose first row is sheets.Header. Each
// append writes one row after the last used row and replaces the file on
// disk; the xlsx container has no in-place append, so the whole file is
// rewritten. This is a deliberate simplification for a single-user form.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"expenses/internal/core"
	"expenses/internal/ports"
	"expenses/internal/sheets"
)

// DefaultSheet matches the sheet name spreadsheet tools give a new workbook.
const DefaultSheet = "Sheet1"

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	path  string
	sheet string
}

// Open prepares the workbook at path, creating it with the header row when
// it is absent or empty.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("missing xlsx path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create xlsx directory: %w", err)
	}
	s := &Store{path: path, sheet: DefaultSheet}
	if err := s.initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	info, err := os.Stat(s.path)
	switch {
	case err == nil && info.Size() > 0:
		f, err := excelize.OpenFile(s.path)
		if err != nil {
			return fmt.Errorf("open workbook %s: %w", s.path, err)
		}
		defer f.Close()
		// Existing workbooks may name their first sheet differently.
		s.sheet = f.GetSheetName(0)
		return nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("stat workbook %s: %w", s.path, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow(s.sheet, "A1", &sheets.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := s.save(f); err != nil {
		return err
	}
	slog.Info("Created expenses workbook", "path", s.path, "sheet", s.sheet)
	return nil
}

// Append writes e as the next row of the sheet.
func (s *Store) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return "", fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return "", fmt.Errorf("read rows of %s: %w", s.sheet, err)
	}
	next := len(rows) + 1
	if next < 2 {
		// Header row went missing; restore it.
		if err := f.SetSheetRow(s.sheet, "A1", &sheets.Header); err != nil {
			return "", fmt.Errorf("write header: %w", err)
		}
		next = 2
	}

	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return "", fmt.Errorf("cell name for row %d: %w", next, err)
	}
	row := sheets.Row(e)
	if err := f.SetSheetRow(s.sheet, cell, &row); err != nil {
		return "", fmt.Errorf("write row %d: %w", next, err)
	}
	if err := s.save(f); err != nil {
		return "", err
	}

	ref := fmt.Sprintf("%s!A%d:D%d", s.sheet, next, next)
	slog.InfoContext(ctx, "Expense saved to workbook", "path", s.path, "ref", ref)
	return ref, nil
}

// LoadAll returns every data row in file order. Rows that cannot be parsed
// are skipped and logged.
func (s *Store) LoadAll(ctx context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", s.sheet, err)
	}

	out := make([]core.Expense, 0, len(rows))
	for i, cols := range rows {
		if i == 0 && sheets.IsHeader(cols) {
			continue
		}
		if len(cols) == 0 {
			continue
		}
		e, err := sheets.ParseRow(cols)
		if err != nil {
			slog.WarnContext(ctx, "Skipping unreadable workbook row", "path", s.path, "row", i+1, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Close is a no-op; the workbook is opened per operation.
func (s *Store) Close() error { return nil }

// Path returns the workbook location.
func (s *Store) Path() string { return s.path }

// save writes the workbook next to its final path and renames it into place
// so readers never observe a half-written file.
func (s *Store) save(f *excelize.File) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".expenses-*.xlsx")
	if err != nil {
		return fmt.Errorf("create temp workbook: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := f.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp workbook: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace workbook %s: %w", s.path, err)
	}
	return nil
}
