package middleware

import (
	"mime"
	"net/http"
	"slices"
)

// ContentType rejects POST, PUT and PATCH requests that carry a body whose
// media type is not one of allowed. Requests without a body pass through.
func ContentType(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength == 0 && r.Header.Get("Content-Type") == "" {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || !slices.Contains(allowed, mediaType) {
				writeError(w, r, http.StatusUnsupportedMediaType, "Unsupported Media Type",
					"Content-Type is not accepted by this endpoint", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
