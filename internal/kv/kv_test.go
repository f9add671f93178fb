package kv

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemoryStore())
}

func TestSQLStore_SQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drome.db")
	store, err := NewSQLStore(ctx, DialectSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	exerciseStore(t, store)

	// Reopening the file sees the value written before
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}
	reopened, err := NewSQLStore(ctx, DialectSQLite, path)
	if err != nil {
		t.Fatalf("Failed to reopen sqlite store: %v", err)
	}
	defer func() {
		_ = reopened.Close()
	}()
	got, err := reopened.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("Expected persisted value after reopen, got %q", got)
	}
}

// exerciseStore checks the contract every backend shares
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get on missing key failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing key, got %q", got)
	}

	if err := store.Set(ctx, "k", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "k", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	got, err = store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"v":2}` {
		t.Errorf("Expected overwritten value, got %q", got)
	}

	swaps := []struct {
		name      string
		key       string
		old, next string
		nilOld    bool
		want      bool
	}{
		{"stale value", "k", `{"v":1}`, `{"v":9}`, false, false},
		{"current value", "k", `{"v":2}`, `{"v":3}`, false, true},
		{"absent expected but present", "k", "", `{"v":9}`, true, false},
		{"absent key", "swap", "", `{"s":1}`, true, true},
		{"absent key now present", "swap", "", `{"s":2}`, true, false},
	}
	for _, sw := range swaps {
		var old []byte
		if !sw.nilOld {
			old = []byte(sw.old)
		}
		ok, err := store.CompareAndSwap(ctx, sw.key, old, []byte(sw.next))
		if err != nil {
			t.Fatalf("CompareAndSwap (%s) failed: %v", sw.name, err)
		}
		if ok != sw.want {
			t.Errorf("CompareAndSwap (%s): expected %v, got %v", sw.name, sw.want, ok)
		}
	}
	if got, _ := store.Get(ctx, "swap"); string(got) != `{"s":1}` {
		t.Errorf("Expected first insert to win, got %q", got)
	}
	if err := store.Set(ctx, "k", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestSQLStore_Bind(t *testing.T) {
	t.Parallel()

	sqlite := &SQLStore{dialect: DialectSQLite}
	pg := &SQLStore{dialect: DialectPostgres}
	query := "SELECT value FROM drome_kv WHERE name = $1 AND x = $12"

	if got := sqlite.bind(query); got != "SELECT value FROM drome_kv WHERE name = ? AND x = ?" {
		t.Errorf("Unexpected sqlite binding: %q", got)
	}
	if got := pg.bind(query); got != query {
		t.Errorf("Expected postgres query unchanged, got %q", got)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{name: "memory", url: "memory://"},
		{name: "sqlite", url: "sqlite://" + filepath.Join(t.TempDir(), "open.db")},
		{name: "missing scheme", url: "drome.db", wantErr: "missing scheme"},
		{name: "unknown scheme", url: "mongodb://localhost", wantErr: "unsupported store scheme"},
		{name: "sqlite without path", url: "sqlite://", wantErr: "missing database path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store, err := Open(ctx, tt.url, OpenOptions{})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open(%q) failed: %v", tt.url, err)
			}
			_ = store.Close()
		})
	}
}

func TestOpen_RedisRetriesThenFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	// Nothing listens on port 1
	_, err := Open(ctx, "redis://127.0.0.1:1/0", OpenOptions{Attempts: 2, Delay: 1})
	if err == nil {
		t.Fatal("Expected connection error for unreachable Redis")
	}
	if !strings.Contains(err.Error(), "failed to connect to redis store") {
		t.Errorf("Unexpected error: %v", err)
	}
}
