package handlers

import (
	"net/http"

	"github.com/benvon/lingua-drome/internal/models"
)

// ToggleRequest picks or unpicks one vocabulary entry
type ToggleRequest struct {
	Category models.Category `json:"category" validate:"required,category"`
	Value    string          `json:"value" validate:"required"`
}

// CustomLineRequest replaces the free-text line of the console
type CustomLineRequest struct {
	Line string `json:"line"`
}

// ComposedRequest replaces the composed prompt with edited text
type ComposedRequest struct {
	Text string `json:"text"`
}

// GetConsole returns picks, custom line and composed prompt
func (h *ProjectHandler) GetConsole(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.console.State())
}

// TogglePick flips one pick
func (h *ProjectHandler) TogglePick(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.console.Toggle(req.Category, req.Value); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	h.GetConsole(w, r)
}

// SetCustomLine replaces the custom line
func (h *ProjectHandler) SetCustomLine(w http.ResponseWriter, r *http.Request) {
	var req CustomLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.console.SetCustomLine(req.Line)
	h.GetConsole(w, r)
}

// ComposePrompt builds the prompt from the session phase and current picks
func (h *ProjectHandler) ComposePrompt(w http.ResponseWriter, r *http.Request) {
	h.console.Compose(h.store.Phase())
	h.GetConsole(w, r)
}

// SetComposed stores a hand-edited prompt
func (h *ProjectHandler) SetComposed(w http.ResponseWriter, r *http.Request) {
	var req ComposedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.console.SetComposed(req.Text)
	h.GetConsole(w, r)
}

// ClearConsole drops picks and the composed prompt
func (h *ProjectHandler) ClearConsole(w http.ResponseWriter, r *http.Request) {
	h.console.Clear()
	h.GetConsole(w, r)
}

// AppendCredits adds the credit lines to the composed prompt
func (h *ProjectHandler) AppendCredits(w http.ResponseWriter, r *http.Request) {
	h.console.AppendCredits()
	h.GetConsole(w, r)
}

// ApplyPrompt stores the composed prompt on the selected asset
func (h *ProjectHandler) ApplyPrompt(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.ApplyPrompt(r.Context(), h.console.Composed())
	if err != nil {
		respondStoreError(w, h.logger, err, "apply prompt")
		return
	}
	respondJSON(w, http.StatusOK, newAssetView(a))
}

