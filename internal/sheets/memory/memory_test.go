package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"expenses/internal/core"
)

func TestMemoryStoreAppendAndLoad(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, core.Expense{
		Date:     core.NewDate(2025, 1, 1),
		Name:     "Coffee",
		Amount:   core.Money{Cents: 5000},
		Category: "Food",
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	if _, err := s.Append(ctx, core.Expense{Date: core.NewDate(2025, 1, 1), Name: "", Amount: core.Money{Cents: 1}}); err == nil {
		t.Fatalf("expected validation error")
	}

	items, err := s.LoadAll(ctx)
	if err != nil || len(items) != 1 || items[0].Name != "Coffee" {
		t.Fatalf("unexpected load: %v err=%v", items, err)
	}

	items[0].Name = "mutated"
	again, _ := s.LoadAll(ctx)
	if again[0].Name != "Coffee" {
		t.Fatalf("LoadAll must return a copy")
	}
}

func TestNewFromFileSkipsBadLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed_expenses.txt")
	content := "# date|name|amount|category\n" +
		"2025-01-01|Coffee|3.50|Food\n" +
		"not-a-date|x|1|Food\n" +
		"2025-01-02|Zero|0|Food\n" +
		"\n" +
		"2025-01-03|Tickets|12|\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	items, _ := NewFromFile(path).LoadAll(context.Background())
	if len(items) != 2 {
		t.Fatalf("expected 2 seeded records, got %d: %+v", len(items), items)
	}
	if items[0].Amount.Cents != 350 || items[1].Category != "" {
		t.Fatalf("unexpected seed parse: %+v", items)
	}

	if items, _ := NewFromFile(filepath.Join(dir, "missing.txt")).LoadAll(context.Background()); len(items) != 0 {
		t.Fatalf("expected empty store for missing file")
	}
}
