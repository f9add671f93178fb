package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/benvon/lingua-drome/internal/logger"
	"github.com/benvon/lingua-drome/internal/middleware"
	"github.com/benvon/lingua-drome/internal/models"
	"github.com/benvon/lingua-drome/internal/project"
	"github.com/benvon/lingua-drome/internal/prompt"
	"github.com/benvon/lingua-drome/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// uploadField is the multipart field carrying imported files
	uploadField = "files"
	// DefaultMaxUploadBytes bounds multipart uploads when no limit is configured
	DefaultMaxUploadBytes int64 = 256 << 20
	// maxImportBytes bounds imported project files
	maxImportBytes int64 = 16 << 20
)

// ProjectHandler serves the project, its assets, the prompt console and
// import/export of project documents
type ProjectHandler struct {
	store          *project.Store
	console        *prompt.Console
	logger         *zap.Logger
	maxUploadBytes int64
}

// NewProjectHandler creates a handler for store. console holds the session's
// prompt state.
func NewProjectHandler(store *project.Store, console *prompt.Console, log *zap.Logger, maxUploadBytes int64) *ProjectHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ProjectHandler{
		store:          store,
		console:        console,
		logger:         log,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes mounts the API on r, which is expected to be the /api/v1 subrouter
func (h *ProjectHandler) RegisterRoutes(r *mux.Router) {
	small := middleware.MaxRequestSize(middleware.DefaultMaxRequestSize)
	upload := middleware.MaxRequestSize(h.maxUploadBytes)
	document := middleware.MaxRequestSize(maxImportBytes)

	r.HandleFunc("/project", h.GetProject).Methods(http.MethodGet)

	r.HandleFunc("/assets", h.ListAssets).Methods(http.MethodGet)
	r.Handle("/assets", upload(http.HandlerFunc(h.ImportAssets))).Methods(http.MethodPost)
	r.HandleFunc("/assets", h.ClearAssets).Methods(http.MethodDelete)
	r.Handle("/assets/relink", upload(http.HandlerFunc(h.RelinkAssets))).Methods(http.MethodPost)
	r.HandleFunc("/assets/{id}", h.GetAsset).Methods(http.MethodGet)
	r.Handle("/assets/{id}", small(http.HandlerFunc(h.UpdateAsset))).Methods(http.MethodPatch)
	r.HandleFunc("/assets/{id}", h.DeleteAsset).Methods(http.MethodDelete)
	r.HandleFunc("/assets/{id}/content", h.GetAssetContent).Methods(http.MethodGet)
	r.Handle("/assets/{id}/tags/{category}", small(http.HandlerFunc(h.SetAssetTag))).Methods(http.MethodPut)

	r.HandleFunc("/selection", h.GetSelection).Methods(http.MethodGet)
	r.Handle("/selection", small(http.HandlerFunc(h.SetSelection))).Methods(http.MethodPut)
	r.HandleFunc("/phase", h.GetPhase).Methods(http.MethodGet)
	r.Handle("/phase", small(http.HandlerFunc(h.SetPhase))).Methods(http.MethodPut)
	r.HandleFunc("/tokens", h.GetTokens).Methods(http.MethodGet)
	r.Handle("/tokens", small(http.HandlerFunc(h.SetTokens))).Methods(http.MethodPut)

	r.HandleFunc("/console", h.GetConsole).Methods(http.MethodGet)
	r.Handle("/console/toggle", small(http.HandlerFunc(h.TogglePick))).Methods(http.MethodPost)
	r.Handle("/console/custom", small(http.HandlerFunc(h.SetCustomLine))).Methods(http.MethodPut)
	r.HandleFunc("/console/compose", h.ComposePrompt).Methods(http.MethodPost)
	r.Handle("/console/composed", small(http.HandlerFunc(h.SetComposed))).Methods(http.MethodPut)
	r.HandleFunc("/console/clear", h.ClearConsole).Methods(http.MethodPost)
	r.HandleFunc("/console/credits", h.AppendCredits).Methods(http.MethodPost)
	r.HandleFunc("/console/apply", h.ApplyPrompt).Methods(http.MethodPost)

	r.HandleFunc("/export/catalog", h.ExportCatalog).Methods(http.MethodGet)
	r.HandleFunc("/export/project", h.ExportProject).Methods(http.MethodGet)
	r.Handle("/import/project", document(http.HandlerFunc(h.ImportProject))).Methods(http.MethodPost)
}

// AssetView is an asset as returned by the API
type AssetView struct {
	models.Asset
	HasContent bool   `json:"has_content"`
	ContentURL string `json:"content_url,omitempty"`
}

// ProjectView is the whole project plus the session state
type ProjectView struct {
	Assets     []AssetView   `json:"assets"`
	Tokens     models.Tokens `json:"tokens"`
	SelectedID string        `json:"selected_id,omitempty"`
	Phase      models.Phase  `json:"phase"`
	PhaseLabel string        `json:"phase_label"`
}

func newAssetView(a models.Asset) AssetView {
	v := AssetView{Asset: a, HasContent: a.HasContent()}
	if v.HasContent {
		v.ContentURL = "/api/v1/assets/" + a.ID + "/content"
	}
	return v
}

func newAssetViews(assets []models.Asset) []AssetView {
	views := make([]AssetView, len(assets))
	for i, a := range assets {
		views[i] = newAssetView(a)
	}
	return views
}

func (h *ProjectHandler) projectView() ProjectView {
	snapshot := h.store.Snapshot()
	phase := h.store.Phase()
	view := ProjectView{
		Assets:     newAssetViews(snapshot.Assets),
		Tokens:     snapshot.Tokens,
		Phase:      phase,
		PhaseLabel: phase.Label(),
	}
	if sel, ok := h.store.Selected(); ok {
		view.SelectedID = sel.ID
	}
	return view
}

// GetProject returns assets, tokens, selection and phase
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	h.store.Refresh(r.Context())
	respondJSON(w, http.StatusOK, h.projectView())
}

// ListAssets returns the assets in project order
func (h *ProjectHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	h.store.Refresh(r.Context())
	respondJSON(w, http.StatusOK, newAssetViews(h.store.Assets()))
}

// readUploads collects the files of a multipart request into memory
func (h *ProjectHandler) readUploads(w http.ResponseWriter, r *http.Request) ([]project.FileHandle, bool) {
	reader, err := r.MultipartReader()
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Expected a multipart/form-data body")
		return nil, false
	}

	var files []project.FileHandle
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			respondUploadError(w, err)
			return nil, false
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		file, err := readPart(part)
		if err != nil {
			respondUploadError(w, err)
			return nil, false
		}
		files = append(files, file)
	}
	return files, true
}

func readPart(part *multipart.Part) (*project.MemoryFile, error) {
	defer part.Close()
	data, err := io.ReadAll(part)
	if err != nil {
		return nil, err
	}
	return project.NewMemoryFile(part.FileName(), part.Header.Get("Content-Type"), data), nil
}

func respondUploadError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
			fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
		return
	}
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "Failed to read request body")
}

// ImportAssets creates assets from the image and video files of a multipart
// upload (field "files"). Other files are ignored.
func (h *ProjectHandler) ImportAssets(w http.ResponseWriter, r *http.Request) {
	files, ok := h.readUploads(w, r)
	if !ok {
		return
	}
	created, err := h.store.ImportFiles(r.Context(), files)
	if err != nil {
		respondStoreError(w, h.logger, err, "import assets")
		return
	}
	status := http.StatusCreated
	if len(created) == 0 {
		status = http.StatusOK
	}
	respondJSON(w, status, newAssetViews(created))
}

// RelinkResponse reports the outcome of a relink upload
type RelinkResponse struct {
	Relinked  int      `json:"relinked"`
	Unmatched []string `json:"unmatched"`
}

// RelinkAssets attaches uploaded files to assets without content, by file name
func (h *ProjectHandler) RelinkAssets(w http.ResponseWriter, r *http.Request) {
	files, ok := h.readUploads(w, r)
	if !ok {
		return
	}
	unmatched, err := h.store.Relink(r.Context(), files)
	if err != nil {
		respondStoreError(w, h.logger, err, "relink assets")
		return
	}
	resp := RelinkResponse{Relinked: len(files) - len(unmatched), Unmatched: []string{}}
	for _, f := range unmatched {
		resp.Unmatched = append(resp.Unmatched, f.Name())
	}
	respondJSON(w, http.StatusOK, resp)
}

// ClearAssets removes every asset
func (h *ProjectHandler) ClearAssets(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Clear(r.Context()); err != nil {
		respondStoreError(w, h.logger, err, "clear assets")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAsset returns one asset
func (h *ProjectHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	h.store.Refresh(r.Context())
	a, ok := h.store.Get(mux.Vars(r)["id"])
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Asset not found")
		return
	}
	respondJSON(w, http.StatusOK, newAssetView(a))
}

// UpdateAssetRequest lists editable asset fields; omitted fields are unchanged
type UpdateAssetRequest struct {
	Name          *string       `json:"name,omitempty" validate:"omitempty,max=255"`
	Phase         *models.Phase `json:"phase,omitempty" validate:"omitempty,phase"`
	Timecode      *float64      `json:"timecode,omitempty" validate:"omitempty,min=0"`
	ClearTimecode bool          `json:"clear_timecode,omitempty"`
	Notes         *string       `json:"notes,omitempty"`
	Prompt        *string       `json:"prompt,omitempty"`
	Tags          models.Tags   `json:"tags,omitempty"`
}

// UpdateAsset applies a partial edit to an asset
func (h *ProjectHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req UpdateAssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch := project.AssetPatch{
		Phase:         req.Phase,
		Timecode:      req.Timecode,
		ClearTimecode: req.ClearTimecode,
		Tags:          req.Tags,
	}
	if req.Name != nil {
		name := validation.SanitizeText(*req.Name)
		if name == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name cannot be empty")
			return
		}
		patch.Name = &name
	}
	if req.Notes != nil {
		notes := validation.StripControl(*req.Notes)
		patch.Notes = &notes
	}
	if req.Prompt != nil {
		text := validation.StripControl(*req.Prompt)
		patch.Prompt = &text
	}

	a, found, err := h.store.Update(r.Context(), mux.Vars(r)["id"], patch)
	if !found && err == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Asset not found")
		return
	}
	if err != nil {
		respondStoreError(w, h.logger, err, "update asset")
		return
	}
	respondJSON(w, http.StatusOK, newAssetView(a))
}

// SetTagRequest carries comma-separated tag input
type SetTagRequest struct {
	Value string `json:"value"`
}

// SetAssetTag replaces one tag category of an asset
func (h *ProjectHandler) SetAssetTag(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	category := models.Category(vars["category"])
	if err := validation.ValidateCategory(string(category)); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	var req SetTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, found, err := h.store.SetTag(r.Context(), vars["id"], category, req.Value)
	if !found && err == nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Asset not found")
		return
	}
	if err != nil {
		respondStoreError(w, h.logger, err, "update tags")
		return
	}
	respondJSON(w, http.StatusOK, newAssetView(a))
}

// DeleteAsset removes an asset and releases its content
func (h *ProjectHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.Remove(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondStoreError(w, h.logger, err, "remove asset")
		return
	}
	if !removed {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Asset not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAssetContent streams the media content of an asset. Range requests are
// honored so videos can seek.
func (h *ProjectHandler) GetAssetContent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	a, ok := h.store.Get(id)
	if !ok {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Asset not found")
		return
	}
	rc, mediaType, err := h.store.Content(id)
	if err != nil {
		respondStoreError(w, h.logger, err, "open asset content")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", mediaType)
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, a.Name, time.Time{}, rs)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed_to_stream_asset_content",
			zap.String("asset_id", id),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}

// SelectionRequest names the asset to focus; an empty id clears the selection
type SelectionRequest struct {
	ID string `json:"id"`
}

// GetSelection returns the focused asset, or null
func (h *ProjectHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	a, ok := h.store.Selected()
	if !ok {
		respondJSON(w, http.StatusOK, nil)
		return
	}
	respondJSON(w, http.StatusOK, newAssetView(a))
}

// SetSelection focuses an asset
func (h *ProjectHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.Select(req.ID); err != nil {
		respondStoreError(w, h.logger, err, "select asset")
		return
	}
	h.GetSelection(w, r)
}

// PhaseResponse is the session phase with its display label
type PhaseResponse struct {
	Phase models.Phase `json:"phase"`
	Label string       `json:"label"`
}

// PhaseRequest changes the session phase
type PhaseRequest struct {
	Phase models.Phase `json:"phase" validate:"required,phase"`
}

// GetPhase returns the session phase
func (h *ProjectHandler) GetPhase(w http.ResponseWriter, r *http.Request) {
	p := h.store.Phase()
	respondJSON(w, http.StatusOK, PhaseResponse{Phase: p, Label: p.Label()})
}

// SetPhase changes the session phase used for new imports, prompts and the catalog
func (h *ProjectHandler) SetPhase(w http.ResponseWriter, r *http.Request) {
	var req PhaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.SetPhase(req.Phase); err != nil {
		respondStoreError(w, h.logger, err, "set phase")
		return
	}
	h.GetPhase(w, r)
}

// GetTokens returns the token vocabulary
func (h *ProjectHandler) GetTokens(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Tokens())
}

// SetTokens replaces the token vocabulary
func (h *ProjectHandler) SetTokens(w http.ResponseWriter, r *http.Request) {
	var tokens models.Tokens
	if !decodeJSON(w, r, &tokens) {
		return
	}
	if tokens == nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Expected a vocabulary object")
		return
	}
	if err := h.store.SetTokens(r.Context(), tokens); err != nil {
		respondStoreError(w, h.logger, err, "update tokens")
		return
	}
	h.GetTokens(w, r)
}
