package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benvon/lingua-drome/internal/kv"
	"github.com/benvon/lingua-drome/internal/project"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type harness struct {
	dir     string
	store   *project.Store
	batches chan Batch
	done    chan error
	cancel  context.CancelFunc
}

func startWatcher(t *testing.T, store *project.Store) *harness {
	t.Helper()
	h := &harness{
		dir:     t.TempDir(),
		store:   store,
		batches: make(chan Batch, 16),
		done:    make(chan error, 1),
	}
	w, err := New(h.dir, store,
		WithSettle(50*time.Millisecond),
		WithBatchHandler(func(b Batch) { h.batches <- b }),
	)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := <-h.done; err != nil {
			t.Errorf("Run returned %v", err)
		}
	})
	return h
}

func (h *harness) drop(t *testing.T, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(h.dir, name), data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

// waitFor collects batches until cond holds or the deadline passes
func (h *harness) waitFor(t *testing.T, cond func([]Batch) bool) []Batch {
	t.Helper()
	var got []Batch
	deadline := time.After(5 * time.Second)
	for !cond(got) {
		select {
		case b := <-h.batches:
			if b.Err != nil {
				t.Fatalf("Batch failed: %v", b.Err)
			}
			got = append(got, b)
		case <-deadline:
			t.Fatalf("Timed out waiting for batches, got %+v", got)
		}
	}
	return got
}

func imported(batches []Batch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Imported)
	}
	return n
}

func openStore(t *testing.T, mem *kv.MemoryStore) *project.Store {
	t.Helper()
	store, err := project.Open(context.Background(), mem)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	return store
}

func TestWatcher_ImportsDroppedMedia(t *testing.T) {
	t.Parallel()
	store := openStore(t, kv.NewMemoryStore())
	h := startWatcher(t, store)

	h.drop(t, "a.png", pngHeader)
	h.drop(t, "b.png", pngHeader)
	h.drop(t, "notes.txt", []byte("plain text"))
	h.drop(t, ".hidden.png", pngHeader)

	h.waitFor(t, func(b []Batch) bool { return imported(b) >= 2 })

	assets := store.Assets()
	if len(assets) != 2 {
		t.Fatalf("Expected 2 assets, got %d", len(assets))
	}
	for _, a := range assets {
		if a.Type != "image" || !a.HasContent() {
			t.Errorf("Unexpected asset %+v", a)
		}
	}

	rc, mediaType, err := store.Content(assets[0].ID)
	if err != nil {
		t.Fatalf("Content failed: %v", err)
	}
	defer rc.Close()
	if mediaType != "image/png" {
		t.Errorf("Expected image/png, got %s", mediaType)
	}
}

func TestWatcher_RelinksGhosts(t *testing.T) {
	t.Parallel()
	mem := kv.NewMemoryStore()
	first := openStore(t, mem)
	if _, err := first.ImportFiles(context.Background(), []project.FileHandle{
		project.NewMemoryFile("Seed.png", "image/png", pngHeader),
	}); err != nil {
		t.Fatalf("ImportFiles failed: %v", err)
	}

	store := openStore(t, mem)
	if store.Assets()[0].HasContent() {
		t.Fatal("Expected a ghost asset after reopening")
	}
	h := startWatcher(t, store)
	h.drop(t, "Seed.png", pngHeader)

	batches := h.waitFor(t, func(b []Batch) bool { return len(b) > 0 && b[len(b)-1].Relinked > 0 })
	if imported(batches) != 0 {
		t.Errorf("Expected no new assets, got %d", imported(batches))
	}
	assets := store.Assets()
	if len(assets) != 1 || !assets[0].HasContent() {
		t.Errorf("Expected the ghost to be relinked, got %+v", assets)
	}
}

func TestNew_Errors(t *testing.T) {
	t.Parallel()
	store := openStore(t, kv.NewMemoryStore())

	if _, err := New(filepath.Join(t.TempDir(), "missing"), store); err == nil {
		t.Error("Expected error for missing directory")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(file, store); err == nil {
		t.Error("Expected error for a regular file")
	}
}

func TestWatcher_StopsOnCancel(t *testing.T) {
	t.Parallel()
	store := openStore(t, kv.NewMemoryStore())
	w, err := New(t.TempDir(), store)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Errorf("Expected nil error, got %v", err)
	}
}
