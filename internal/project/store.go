// Package project holds the authoritative project state and keeps it mirrored
// to durable storage.
package project

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/benvon/lingua-drome/internal/kv"
	"github.com/benvon/lingua-drome/internal/logger"
	"github.com/benvon/lingua-drome/internal/models"
	"github.com/benvon/lingua-drome/internal/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store owns the assets and token vocabulary of a project along with the
// transient session state (selection and active phase).
// Every change to assets or tokens is handed to the Persister.
//
// Other processes may write the same key. Before each change the store re-reads
// the durable snapshot and adopts it when it differs from the one it last saw,
// and writes only succeed against that snapshot.
type Store struct {
	mu        sync.Mutex
	durable   kv.Store
	persister Persister
	resources *Registry
	logger    *zap.Logger
	newID     func() string
	// synced is the snapshot last read from or handed to durable storage
	synced []byte

	assets   []models.Asset
	tokens   models.Tokens
	selected string
	phase    models.Phase
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPersister replaces the default synchronous persister
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithPhase sets the initial session phase
func WithPhase(p models.Phase) Option {
	return func(s *Store) {
		s.phase = p
	}
}

// WithIDGenerator overrides asset id generation
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// AssetPatch lists the fields to change on an asset. Nil fields are left as they are.
type AssetPatch struct {
	Name          *string
	Phase         *models.Phase
	Timecode      *float64
	ClearTimecode bool
	Notes         *string
	Prompt        *string
	// Tags replaces the whole tag bundle when non-nil
	Tags models.Tags
}

// Open builds a store from the snapshot held in kvStore under models.ProjectKey.
// A missing or unreadable snapshot falls back to the default vocabulary and an
// empty asset list; this never fails the caller.
func Open(ctx context.Context, kvStore kv.Store, opts ...Option) (*Store, error) {
	s := &Store{
		durable:   kvStore,
		logger:    zap.NewNop(),
		newID:     uuid.NewString,
		assets:    []models.Asset{},
		tokens:    models.DefaultTokens(),
		phase:     models.DefaultPhase,
		resources: NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.phase.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAsset, validation.ValidatePhase(string(s.phase)))
	}
	if s.persister == nil {
		s.persister = NewSyncPersister(kvStore, models.ProjectKey)
	}

	data, err := kvStore.Get(ctx, models.ProjectKey)
	switch {
	case err != nil:
		s.logger.Warn("failed_to_read_stored_project_using_defaults", zap.Error(err))
	case data == nil:
		s.logger.Debug("no_stored_project_using_defaults")
	default:
		s.synced = data
		decoded, err := decodeSnapshot(data, s.newID)
		if err != nil {
			s.logger.Debug("stored_project_unreadable_using_defaults",
				zap.String("error", logger.SanitizeError(err)),
			)
			break
		}
		if decoded.hasAssets {
			s.assets = decoded.assets
		}
		if decoded.hasTokens {
			s.tokens = decoded.tokens
		}
		s.logger.Info("project_loaded_from_store",
			zap.Int("assets", len(s.assets)),
		)
	}

	return s, nil
}

// Close flushes pending writes
func (s *Store) Close() error {
	return s.persister.Close()
}

// Flush forces pending writes to durable storage
func (s *Store) Flush(ctx context.Context) error {
	return s.persister.Flush(ctx)
}

// persistLocked hands the current snapshot to the persister. When another
// process wrote first, the edit is dropped in favour of the stored project.
// Caller holds s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(models.Snapshot{Assets: s.assets, Tokens: s.tokens})
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	err = s.persister.Persist(ctx, s.synced, data)
	switch {
	case errors.Is(err, ErrStaleProject):
		s.logger.Warn("project_changed_elsewhere_discarding_edit")
		s.refreshLocked(ctx)
		return fmt.Errorf("failed to persist project: %w", err)
	case err != nil:
		s.logger.Error("failed_to_persist_project", zap.Error(err))
		return fmt.Errorf("failed to persist project: %w", err)
	}
	s.synced = data
	return nil
}

// Refresh adopts the stored project when another process has changed it
func (s *Store) Refresh(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)
}

// refreshLocked re-reads the stored snapshot and adopts it when it differs from
// the one last synced. Nothing is read while this store has a write pending.
// Caller holds s.mu.
func (s *Store) refreshLocked(ctx context.Context) {
	if s.persister.Pending() {
		return
	}
	data, err := s.durable.Get(ctx, models.ProjectKey)
	if err != nil {
		s.logger.Warn("failed_to_refresh_project", zap.Error(err))
		return
	}
	if bytes.Equal(data, s.synced) {
		return
	}
	s.synced = data
	if data == nil {
		return
	}
	decoded, err := decodeSnapshot(data, s.newID)
	if err != nil {
		s.logger.Warn("stored_project_unreadable_keeping_state",
			zap.String("error", logger.SanitizeError(err)),
		)
		return
	}
	if decoded.hasAssets {
		s.replaceAssetsLocked(decoded.assets, false)
	}
	if decoded.hasTokens {
		s.tokens = decoded.tokens
	}
	s.logger.Info("project_refreshed_from_store", zap.Int("assets", len(s.assets)))
}

// replaceAssetsLocked swaps in next as the asset list. Content moves to the new
// asset describing the same media item: same id and type, and same name when
// strict. Content left without an asset is released. Caller holds s.mu.
func (s *Store) replaceAssetsLocked(next []models.Asset, strict bool) {
	live := make(map[string]models.Asset, len(s.assets))
	for _, a := range s.assets {
		if a.Resource != "" {
			live[a.ID] = a
		}
	}
	for i := range next {
		old, ok := live[next[i].ID]
		if !ok || old.Type != next[i].Type || (strict && old.Name != next[i].Name) {
			continue
		}
		next[i].Resource = old.Resource
		delete(live, old.ID)
	}
	for _, a := range live {
		s.releaseLocked(a)
	}
	s.assets = next
	if s.selected != "" && s.indexLocked(s.selected) < 0 {
		s.selected = ""
	}
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.assets, func(a models.Asset) bool { return a.ID == id })
}

func (s *Store) releaseLocked(a models.Asset) {
	if a.Resource == "" {
		return
	}
	if err := s.resources.Release(a.Resource); err != nil {
		s.logger.Warn("failed_to_release_asset_resource",
			zap.String("asset_id", a.ID),
			zap.Error(err),
		)
	}
}

// ImportFiles creates one asset per image or video file and prepends them, in
// input order, ahead of the existing assets. Other files are ignored. When
// nothing is selected the first new asset becomes the selection.
func (s *Store) ImportFiles(ctx context.Context, files []FileHandle) ([]models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	created := make([]models.Asset, 0, len(files))
	for _, f := range files {
		kind, ok := ClassifyMediaType(f.MediaType())
		if !ok {
			s.logger.Debug("skipping_unsupported_file",
				zap.String("name", logger.SanitizeName(f.Name())),
				zap.String("media_type", logger.SanitizeString(f.MediaType(), 0)),
			)
			continue
		}
		created = append(created, models.Asset{
			ID:       s.newID(),
			Name:     f.Name(),
			Type:     kind,
			Phase:    s.phase,
			Tags:     models.Tags{},
			Resource: s.resources.Allocate(f),
		})
	}
	if len(created) == 0 {
		return nil, nil
	}

	s.assets = append(slices.Clone(created), s.assets...)
	if s.selected == "" {
		s.selected = created[0].ID
	}
	s.logger.Info("assets_imported",
		zap.Int("count", len(created)),
		zap.Int("total", len(s.assets)),
	)

	out := make([]models.Asset, len(created))
	for i, a := range created {
		out[i] = a.Clone()
	}
	return out, s.persistLocked(ctx)
}

// Relink attaches new content to assets that have none, matching by file name
// and media kind. Handles that matched no asset are returned.
func (s *Store) Relink(ctx context.Context, files []FileHandle) ([]FileHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	var unmatched []FileHandle
	for _, f := range files {
		kind, ok := ClassifyMediaType(f.MediaType())
		if !ok {
			unmatched = append(unmatched, f)
			continue
		}
		i := slices.IndexFunc(s.assets, func(a models.Asset) bool {
			return !a.HasContent() && a.Name == f.Name() && a.Type == kind
		})
		if i < 0 {
			unmatched = append(unmatched, f)
			continue
		}
		a := s.assets[i].Clone()
		a.Resource = s.resources.Allocate(f)
		s.assets[i] = a
		s.logger.Info("asset_relinked", zap.String("asset_id", a.ID))
	}
	return unmatched, nil
}

// Update applies patch to the asset with the given id. It reports false, and
// changes nothing, when no such asset exists.
func (s *Store) Update(ctx context.Context, id string, patch AssetPatch) (models.Asset, bool, error) {
	return s.update(ctx, id, func(a *models.Asset) error {
		if patch.Phase != nil {
			if !patch.Phase.Valid() {
				return fmt.Errorf("%w: %s", ErrInvalidAsset, validation.ValidatePhase(string(*patch.Phase)))
			}
			a.Phase = *patch.Phase
		}
		if patch.Timecode != nil {
			tc := *patch.Timecode
			if math.IsNaN(tc) || math.IsInf(tc, 0) {
				return fmt.Errorf("%w: timecode must be a finite number", ErrInvalidAsset)
			}
			a.Timecode = &tc
		}
		if patch.ClearTimecode {
			a.Timecode = nil
		}
		if patch.Name != nil {
			a.Name = *patch.Name
		}
		if patch.Notes != nil {
			a.Notes = *patch.Notes
		}
		if patch.Prompt != nil {
			a.Prompt = *patch.Prompt
		}
		if patch.Tags != nil {
			for c := range patch.Tags {
				if !c.Valid() {
					return fmt.Errorf("%w: %s", ErrInvalidAsset, validation.ValidateCategory(string(c)))
				}
			}
			a.Tags = patch.Tags.Clone()
		}
		return nil
	})
}

// SetTag replaces one tag category of an asset from comma-separated input
func (s *Store) SetTag(ctx context.Context, id string, category models.Category, raw string) (models.Asset, bool, error) {
	if !category.Valid() {
		return models.Asset{}, false, fmt.Errorf("%w: %s", ErrInvalidAsset, validation.ValidateCategory(string(category)))
	}
	values := validation.ParseTagList(raw)
	return s.update(ctx, id, func(a *models.Asset) error {
		a.Tags = a.Tags.With(category, values)
		return nil
	})
}

// update replaces the asset with a modified copy so values handed out earlier never change
func (s *Store) update(ctx context.Context, id string, mutate func(*models.Asset) error) (models.Asset, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	i := s.indexLocked(id)
	if i < 0 {
		return models.Asset{}, false, nil
	}
	next := s.assets[i].Clone()
	if err := mutate(&next); err != nil {
		return models.Asset{}, true, err
	}
	s.assets[i] = next
	return next.Clone(), true, s.persistLocked(ctx)
}

// ApplyPrompt stores text as the prompt of the selected asset
func (s *Store) ApplyPrompt(ctx context.Context, text string) (models.Asset, error) {
	s.mu.Lock()
	selected := s.selected
	s.mu.Unlock()

	if selected == "" {
		return models.Asset{}, ErrNoSelection
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Asset{}, ErrEmptyPrompt
	}
	a, found, err := s.Update(ctx, selected, AssetPatch{Prompt: &text})
	if !found {
		return models.Asset{}, ErrNoSelection
	}
	return a, err
}

// Remove deletes the asset with the given id and releases its content.
// Removing the selected asset clears the selection.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	i := s.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	s.releaseLocked(s.assets[i])
	s.assets = slices.Delete(slices.Clone(s.assets), i, i+1)
	if s.selected == id {
		s.selected = ""
	}
	s.logger.Info("asset_removed", zap.String("asset_id", id))
	return true, s.persistLocked(ctx)
}

// Clear removes every asset and releases their content
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	for _, a := range s.assets {
		s.releaseLocked(a)
	}
	s.logger.Info("assets_cleared", zap.Int("count", len(s.assets)))
	s.assets = []models.Asset{}
	s.selected = ""
	return s.persistLocked(ctx)
}

// Load replaces the project with the content of an exported project file.
// assets is replaced when it is an array and tokens when present. Content is
// kept only for loaded assets with the same id, name and type as a live one.
// Nothing is applied when the document is rejected; the error wraps
// ErrInvalidProject.
func (s *Store) Load(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	decoded, err := decodeSnapshot(data, s.newID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	s.refreshLocked(ctx)

	if decoded.hasAssets {
		s.replaceAssetsLocked(decoded.assets, true)
	}
	if decoded.hasTokens {
		s.tokens = decoded.tokens
	}

	s.logger.Info("project_loaded",
		zap.Bool("assets_replaced", decoded.hasAssets),
		zap.Bool("tokens_replaced", decoded.hasTokens),
		zap.Int("assets", len(s.assets)),
	)
	if !decoded.hasAssets && !decoded.hasTokens {
		return nil
	}
	return s.persistLocked(ctx)
}

// SetTokens replaces the token vocabulary
func (s *Store) SetTokens(ctx context.Context, tokens models.Tokens) error {
	for c := range tokens {
		if err := validation.ValidateCategory(string(c)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProject, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)
	s.tokens = tokens.Clone()
	return s.persistLocked(ctx)
}

// Select focuses the asset with the given id. An empty id clears the selection.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.indexLocked(id) < 0 {
		return ErrAssetNotFound
	}
	s.selected = id
	return nil
}

// Selected returns the focused asset
func (s *Store) Selected() (models.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == "" {
		return models.Asset{}, false
	}
	i := s.indexLocked(s.selected)
	if i < 0 {
		return models.Asset{}, false
	}
	return s.assets[i].Clone(), true
}

// SetPhase changes the session phase used for new imports and exports
func (s *Store) SetPhase(p models.Phase) error {
	if err := validation.ValidatePhase(string(p)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}
	s.mu.Lock()
	s.phase = p
	s.mu.Unlock()
	return nil
}

// Phase returns the session phase
func (s *Store) Phase() models.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Get returns a copy of the asset with the given id
func (s *Store) Get(id string) (models.Asset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(id)
	if i < 0 {
		return models.Asset{}, false
	}
	return s.assets[i].Clone(), true
}

// Assets returns a copy of the asset list in store order
func (s *Store) Assets() []models.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Asset, len(s.assets))
	for i, a := range s.assets {
		out[i] = a.Clone()
	}
	return out
}

// Tokens returns a copy of the vocabulary
func (s *Store) Tokens() models.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.Clone()
}

// Snapshot returns a deep copy of the persisted state
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Snapshot{Assets: s.assets, Tokens: s.tokens}.Clone()
}

// Content opens the media content of an asset along with its media type
func (s *Store) Content(id string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, "", ErrAssetNotFound
	}
	ref := s.assets[i].Resource
	s.mu.Unlock()

	if ref == "" {
		return nil, "", ErrNoContent
	}
	f, ok := s.resources.Lookup(ref)
	if !ok {
		return nil, "", ErrNoContent
	}
	rc, err := f.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open asset content: %w", err)
	}
	return rc, f.MediaType(), nil
}

// Resources returns the registry backing asset content
func (s *Store) Resources() *Registry {
	return s.resources
}
