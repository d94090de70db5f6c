package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"finplan/internal/config"
	"finplan/internal/storage"
	"finplan/internal/store/file"
	"finplan/internal/store/memory"
)

func testFactory() Factory {
	return NewFactory(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", AMQPExchange: "finplan"}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != "x.db" || got.AMQPExchange != "finplan" {
		t.Fatalf("unexpected config %+v", got)
	}

	cfg.DataBackend = "sheets"
	if _, err := FromAppConfig(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{name: "memory", config: Config{Type: MemoryBackend}},
		{name: "file without dir", config: Config{Type: FileBackend}, wantErr: "data directory"},
		{name: "sqlite without path", config: Config{Type: SQLiteBackend}, wantErr: "SQLite"},
		{name: "postgres without url", config: Config{Type: PostgresBackend}, wantErr: "database URL"},
		{name: "amqp without queue", config: Config{Type: MemoryBackend, AMQPURL: "amqp://localhost", AMQPExchange: "x"}, wantErr: "AMQP"},
		{name: "unknown", config: Config{Type: "sheets"}, wantErr: "invalid backend type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name   string
		config Config
		check  func(t *testing.T, r *BackendResult)
	}{
		{
			name:   "memory",
			config: Config{Type: MemoryBackend},
			check: func(t *testing.T, r *BackendResult) {
				if _, ok := r.Store.(*memory.Store); !ok {
					t.Fatalf("got %T", r.Store)
				}
			},
		},
		{
			name:   "file",
			config: Config{Type: FileBackend, DataDirectory: filepath.Join(dir, "records")},
			check: func(t *testing.T, r *BackendResult) {
				if _, ok := r.Store.(*file.Store); !ok {
					t.Fatalf("got %T", r.Store)
				}
			},
		},
		{
			name:   "sqlite",
			config: Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "finplan.db")},
			check: func(t *testing.T, r *BackendResult) {
				if _, ok := r.Store.(*storage.SQLiteRepository); !ok {
					t.Fatalf("got %T", r.Store)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := testFactory().CreateBackend(ctx, tt.config)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer func() {
				if err := r.Cleanup(); err != nil {
					t.Fatalf("Cleanup: %v", err)
				}
			}()
			if r.Publisher != nil {
				t.Fatalf("no publisher expected without AMQP")
			}
			if _, err := r.Store.ListTeamMembers(ctx); err != nil {
				t.Fatalf("store unusable: %v", err)
			}
			tt.check(t, r)
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	if _, err := testFactory().CreateBackend(context.Background(), Config{Type: PostgresBackend}); err == nil {
		t.Fatal("expected validation error")
	}
}
