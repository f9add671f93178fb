package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/lingua-drome/internal/logger"
	"github.com/benvon/lingua-drome/internal/project"
	"github.com/benvon/lingua-drome/internal/validation"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxErrorMessageLength = 200

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSONError sends an error JSON response. message is sanitized and
// truncated before it is sent.
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   logger.SanitizeString(message, maxErrorMessageLength),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeJSON reads a JSON request body into dst and validates it. It writes
// the error response itself and reports false when the body is unusable.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}
	if err := validation.Validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if !errors.As(err, &invalid) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return false
		}
	}
	return true
}

// respondStoreError maps project errors onto HTTP statuses. Unexpected errors
// are logged and reported as a failure to perform action.
func respondStoreError(w http.ResponseWriter, log *zap.Logger, err error, action string) {
	switch {
	case errors.Is(err, project.ErrInvalidProject), errors.Is(err, project.ErrInvalidAsset):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, project.ErrAssetNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Asset not found")
	case errors.Is(err, project.ErrNoContent):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Asset content is not available; relink the file")
	case errors.Is(err, project.ErrNoSelection):
		respondJSONError(w, http.StatusConflict, "Conflict", "Select an asset first")
	case errors.Is(err, project.ErrStaleProject):
		respondJSONError(w, http.StatusConflict, "Conflict", "The project was changed by another process; reload and retry")
	case errors.Is(err, project.ErrEmptyPrompt):
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Compose a prompt first")
	default:
		log.Error("request_failed",
			zap.String("action", action),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to "+action)
	}
}
