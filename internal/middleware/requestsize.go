package middleware

import (
	"net/http"
)

const (
	// DefaultMaxRequestSize caps JSON request bodies (1MB)
	DefaultMaxRequestSize int64 = 1 << 20
)

// MaxRequestSize limits request bodies to maxBytes
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, r, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
					"Request body exceeds the configured limit", nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
