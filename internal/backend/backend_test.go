package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"rentledger/internal/config"
	"rentledger/internal/core"
	"rentledger/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", DatabaseURL: "postgres://db/ledger"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.DatabaseURL != "postgres://db/ledger" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown", Config{Type: "excel"}, true},
	}
	for _, tt := range tests {
		if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
			t.Fatalf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, err := res.Gateway.TotalWithdrawals(ctx); err != nil {
		t.Fatalf("TotalWithdrawals: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "data", "ledger.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer res.Cleanup()
	repo, ok := res.Gateway.(*storage.Repository)
	if !ok || repo.Dialect() != storage.DialectSQLite {
		t.Fatalf("expected sqlite repository, got %T", res.Gateway)
	}
	if _, err := res.Gateway.GetIncome(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("GetIncome missing: %v", err)
	}
}
