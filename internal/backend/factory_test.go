package backend

import (
	"context"
	"path/filepath"
	"testing"

	"expenses/internal/config"
	"expenses/internal/core"
)

func TestBackendType(t *testing.T) {
	tests := []struct {
		bt              BackendType
		valid           bool
		requireCategory bool
	}{
		{XLSXBackend, true, true},
		{SheetsBackend, true, true},
		{SQLiteBackend, true, false},
		{PostgresBackend, true, false},
		{MemoryBackend, true, false},
		{BackendType("csv"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.bt.String(), func(t *testing.T) {
			if got := tt.bt.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
			if got := tt.bt.RequiresCategory(); got != tt.requireCategory {
				t.Errorf("RequiresCategory() = %v, want %v", got, tt.requireCategory)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "csv"}); err == nil {
		t.Error("expected error for invalid backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "xlsx", XLSXPath: "/tmp/x.xlsx"})
	if err != nil {
		t.Fatalf("FromAppConfig error: %v", err)
	}
	if cfg.Type != XLSXBackend || cfg.XLSXPath != "/tmp/x.xlsx" {
		t.Errorf("FromAppConfig = %+v", cfg)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"xlsx ok", Config{Type: XLSXBackend, XLSXPath: "a.xlsx"}, false},
		{"xlsx missing path", Config{Type: XLSXBackend}, true},
		{"sqlite missing path", Config{Type: SQLiteBackend}, true},
		{"postgres missing url", Config{Type: PostgresBackend}, true},
		{"sheets missing creds", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id"}, true},
		{"memory ok", Config{Type: MemoryBackend}, false},
		{"invalid type", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory_CreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f := NewFactory(nil)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"xlsx", Config{Type: XLSXBackend, XLSXPath: filepath.Join(dir, "expenses.xlsx")}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "expenses.db")}},
		{"memory", Config{Type: MemoryBackend}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.CreateBackend(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("CreateBackend error: %v", err)
			}
			defer res.Cleanup()

			if res.Type != tt.cfg.Type {
				t.Errorf("Type = %v, want %v", res.Type, tt.cfg.Type)
			}
			e := core.Expense{Date: core.NewDate(2025, 6, 1), Name: "Coffee", Amount: core.Money{Cents: 5000}, Category: "Food"}
			if _, err := res.Store.Append(ctx, e); err != nil {
				t.Fatalf("Append error: %v", err)
			}
			got, err := res.Store.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll error: %v", err)
			}
			if len(got) != 1 || got[0] != e {
				t.Errorf("LoadAll = %v, want [%v]", got, e)
			}
		})
	}
}

func TestBackendResult_Policy(t *testing.T) {
	cats := []string{"Food"}

	p := (&BackendResult{Type: XLSXBackend}).Policy(cats)
	if !p.RequireCategory || len(p.Allowed) != 1 {
		t.Errorf("xlsx policy = %+v", p)
	}
	p = (&BackendResult{Type: SQLiteBackend}).Policy(cats)
	if p.RequireCategory {
		t.Errorf("sqlite policy = %+v", p)
	}
}
