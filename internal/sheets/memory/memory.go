package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"expenses/internal/core"
	"expenses/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

func New(seed ...core.Expense) *Store {
	return &Store{items: append([]core.Expense(nil), seed...)}
}

// NewFromFile seeds the store from a pipe-separated file with lines of
// "date|name|amount|category". Missing files yield an empty store.
func NewFromFile(path string) *Store {
	return New(readSeed(path)...)
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// LoadAll returns a copy of the records in insertion order.
func (s *Store) LoadAll(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...), nil
}

func (s *Store) Close() error { return nil }

func readSeed(path string) []core.Expense {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []core.Expense
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cols := strings.Split(line, "|")
		if len(cols) < 3 {
			continue
		}
		date, err := core.ParseDate(cols[0])
		if err != nil {
			continue
		}
		cents, err := core.ParseDecimalToCents(cols[2])
		if err != nil {
			continue
		}
		e := core.Expense{Date: date, Name: strings.TrimSpace(cols[1]), Amount: core.Money{Cents: cents}}
		if len(cols) > 3 {
			e.Category = strings.TrimSpace(cols[3])
		}
		if e.Validate() != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}
