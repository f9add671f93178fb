// Package watch imports media files dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/benvon/lingua-drome/internal/logger"
	"github.com/benvon/lingua-drome/internal/models"
	"github.com/benvon/lingua-drome/internal/project"
	"github.com/benvon/lingua-drome/internal/telemetry"
	"github.com/fsnotify/fsnotify"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// DefaultSettle is how long the folder must stay quiet before a batch is imported
const DefaultSettle = 500 * time.Millisecond

// Importer receives dropped files. *project.Store implements it.
type Importer interface {
	Relink(ctx context.Context, files []project.FileHandle) ([]project.FileHandle, error)
	ImportFiles(ctx context.Context, files []project.FileHandle) ([]models.Asset, error)
}

// Batch reports what happened to one drop
type Batch struct {
	Files    []string
	Relinked int
	Imported []models.Asset
	Err      error
}

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithSettle overrides DefaultSettle
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithBatchHandler registers fn to be called after each batch, on the Run goroutine
func WithBatchHandler(fn func(Batch)) Option {
	return func(w *Watcher) { w.onBatch = fn }
}

// Watcher turns files appearing in a directory into one import per burst of
// activity. Files whose names match an asset without content are relinked
// instead of imported again.
type Watcher struct {
	dir      string
	importer Importer
	logger   *zap.Logger
	settle   time.Duration
	onBatch  func(Batch)
	fsw      *fsnotify.Watcher

	// owned by the Run goroutine
	pending   map[string]struct{}
	lastEvent time.Time
	handled   map[string]struct{}
}

// New starts watching dir. Run must be called to process events.
func New(dir string, importer Importer, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open drop folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("drop folder %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		dir:      dir,
		importer: importer,
		logger:   zap.NewNop(),
		settle:   DefaultSettle,
		fsw:      fsw,
		pending:  make(map[string]struct{}),
		handled:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run processes events until ctx is cancelled, then releases the watcher.
// Files already in the folder are not imported; only new arrivals are.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	w.logger.Info("drop_folder_watching", zap.String("dir", logger.SanitizePath(w.dir)))

	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("drop_folder_stopped")
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("drop_folder_watch_error", zap.String("error", logger.SanitizeError(err)))

		case <-ticker.C:
			if len(w.pending) > 0 && time.Since(w.lastEvent) >= w.settle {
				w.flush(ctx)
			}
		}
	}
}

func (w *Watcher) tick() time.Duration {
	d := w.settle / 4
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if _, done := w.handled[event.Name]; done {
			return
		}
		w.pending[event.Name] = struct{}{}
		w.lastEvent = time.Now()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
		delete(w.handled, event.Name)
	}
}

// flush imports every pending file as one batch
func (w *Watcher) flush(ctx context.Context) {
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	clear(w.pending)

	ctx, span := telemetry.StartSpan(ctx, "watch.import_batch")
	defer span.End()
	span.SetAttributes(attribute.Int("drop.files", len(paths)))

	batch := Batch{}
	var files []project.FileHandle
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		f, err := project.NewDiskFile(p)
		if err != nil {
			w.logger.Warn("drop_folder_file_skipped",
				zap.String("name", logger.SanitizeName(filepath.Base(p))),
				zap.String("error", logger.SanitizeError(err)),
			)
			continue
		}
		w.handled[p] = struct{}{}
		files = append(files, f)
		batch.Files = append(batch.Files, f.Name())
	}

	if len(files) > 0 {
		batch.Relinked, batch.Imported, batch.Err = w.importBatch(ctx, files)
	}
	if batch.Err != nil {
		span.RecordError(batch.Err)
		w.logger.Error("drop_folder_import_failed", zap.String("error", logger.SanitizeError(batch.Err)))
	} else if len(files) > 0 {
		w.logger.Info("drop_folder_batch_imported",
			zap.Int("files", len(files)),
			zap.Int("relinked", batch.Relinked),
			zap.Int("imported", len(batch.Imported)),
		)
	}
	span.SetAttributes(
		attribute.Int("drop.relinked", batch.Relinked),
		attribute.Int("drop.imported", len(batch.Imported)),
	)

	if w.onBatch != nil {
		w.onBatch(batch)
	}
}

func (w *Watcher) importBatch(ctx context.Context, files []project.FileHandle) (int, []models.Asset, error) {
	unmatched, err := w.importer.Relink(ctx, files)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to relink dropped files: %w", err)
	}
	relinked := len(files) - len(unmatched)
	if len(unmatched) == 0 {
		return relinked, nil, nil
	}
	created, err := w.importer.ImportFiles(ctx, unmatched)
	if err != nil {
		return relinked, created, fmt.Errorf("failed to import dropped files: %w", err)
	}
	return relinked, created, nil
}
