package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expenses/internal/core"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got: %v", err)
	}
}

func TestNewFromEnv_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "test-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/does/not/exist.json")

	_, err := NewFromEnv(context.Background())
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got: %v", err)
	}
}

func TestClient_AppendValidatesFirst(t *testing.T) {
	c := &Client{spreadsheetID: "test"} // svc is nil, so only validation can run

	_, err := c.Append(context.Background(), core.Expense{
		Date:   core.NewDate(2025, 1, 1),
		Name:   "",
		Amount: core.Money{Cents: 100},
	})
	if !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got: %v", err)
	}

	_, err = c.Append(context.Background(), core.Expense{
		Date:   core.NewDate(2025, 1, 1),
		Name:   "ok",
		Amount: core.Money{Cents: 100},
	})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected uninitialized service error, got: %v", err)
	}
}

func TestParseValues(t *testing.T) {
	values := [][]interface{}{
		{"Date", "Expense Name", "Amount", "Category"},
		{45658.0, "Coffee", 50.0, "Food"},
		{},
		{"2025-01-03", "Cinema", 12.5, "Entertainment"},
		{"bad", "Broken", 1.0, "Food"},
		{45660.0, "Books", 30.0},
	}

	got := parseValues(context.Background(), values)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(got), got)
	}
	if got[0].Date != core.NewDate(2025, 1, 1) || got[0].Amount.Cents != 5000 {
		t.Fatalf("unexpected first record: %+v", got[0])
	}
	if got[1].Name != "Cinema" || got[1].Amount.Cents != 1250 {
		t.Fatalf("unexpected second record: %+v", got[1])
	}
	if got[2].Category != "" || got[2].Date != core.NewDate(2025, 1, 3) {
		t.Fatalf("unexpected third record: %+v", got[2])
	}
}

// fakeSheet stores appended rows as sent and serves them back on read.
type fakeSheet struct {
	mu         sync.Mutex
	rows       [][]any
	inputModes []string
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodPost:
		f.inputModes = append(f.inputModes, r.URL.Query().Get("valueInputOption"))
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.rows = append(f.rows, vr.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Expenses!A2:D2"},
		})
	case http.MethodGet:
		values := append([][]any{{"Date", "Expense Name", "Amount", "Category"}}, f.rows...)
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Expenses!A:D", "values": values})
	default:
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
	}
}

func TestClient_AppendStoresRawText(t *testing.T) {
	fake := &fakeSheet{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	svc, err := gsheet.NewService(ctx,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	c := &Client{svc: svc, spreadsheetID: "test", expensesSheet: "Expenses"}

	want := []core.Expense{
		{Date: core.NewDate(2025, 5, 14), Name: "1/2", Amount: core.Money{Cents: 450}, Category: "Food"},
		{Date: core.NewDate(2025, 5, 15), Name: "=SUM(A1:A2)", Amount: core.Money{Cents: 1000}, Category: "College"},
	}
	for _, e := range want {
		ref, err := c.Append(ctx, e)
		if err != nil {
			t.Fatalf("Append(%q): %v", e.Name, err)
		}
		if ref != "Expenses!A2:D2" {
			t.Errorf("ref = %q", ref)
		}
	}

	for i, mode := range fake.inputModes {
		if mode != "RAW" {
			t.Errorf("append %d used valueInputOption %q, want RAW", i, mode)
		}
	}

	got, err := c.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("LoadAll returned %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}
