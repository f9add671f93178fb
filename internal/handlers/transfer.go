package handlers

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/benvon/lingua-drome/internal/catalog"
	"go.uber.org/zap"
)

func writeDownload(w http.ResponseWriter, e catalog.Export, log *zap.Logger) {
	w.Header().Set("Content-Type", e.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": e.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(e.Body); err != nil {
		log.Warn("failed_to_write_export", zap.String("filename", e.Filename), zap.Error(err))
	}
}

// ExportCatalog downloads the Markdown catalog
func (h *ProjectHandler) ExportCatalog(w http.ResponseWriter, r *http.Request) {
	h.store.Refresh(r.Context())
	writeDownload(w, catalog.CatalogExport(h.store.Snapshot(), h.store.Phase()), h.logger)
}

// ExportProject downloads the JSON project file
func (h *ProjectHandler) ExportProject(w http.ResponseWriter, r *http.Request) {
	h.store.Refresh(r.Context())
	e, err := catalog.ProjectExport(h.store.Snapshot())
	if err != nil {
		respondStoreError(w, h.logger, err, "export project")
		return
	}
	writeDownload(w, e, h.logger)
}

// ImportProject replaces the project with an uploaded project file. A
// malformed document answers 400 and changes nothing.
func (h *ProjectHandler) ImportProject(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondUploadError(w, err)
		return
	}
	if err := h.store.Load(r.Context(), data); err != nil {
		respondStoreError(w, h.logger, err, "import project")
		return
	}
	h.logger.Info("project_imported", zap.Int("bytes", len(data)))
	respondJSON(w, http.StatusOK, h.projectView())
}
