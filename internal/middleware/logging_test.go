package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
		body          string
		wantLevel     string
	}{
		{"GET request", http.MethodGet, "/api/v1/project", http.StatusOK, "{}", "info"},
		{"POST request", http.MethodPost, "/api/v1/assets", http.StatusCreated, "", "info"},
		{"not found", http.MethodGet, "/notfound", http.StatusNotFound, "", "info"},
		{"server error", http.MethodGet, "/api/v1/export/project", http.StatusInternalServerError, "", "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.DebugLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
				_, _ = w.Write([]byte(tt.body))
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			Logging(zap.New(core))(handler).ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("Expected status %d, got %d", tt.handlerStatus, w.Code)
			}
			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 http_request entry, got %d", len(entries))
			}
			if entries[0].Level.String() != tt.wantLevel {
				t.Errorf("Expected level %s, got %s", tt.wantLevel, entries[0].Level)
			}
			fields := entries[0].ContextMap()
			if fields["status_code"] != int64(tt.handlerStatus) {
				t.Errorf("Expected status_code %d, got %v", tt.handlerStatus, fields["status_code"])
			}
			if fields["bytes"] != int64(len(tt.body)) {
				t.Errorf("Expected bytes %d, got %v", len(tt.body), fields["bytes"])
			}
			if fields["path"] != tt.path {
				t.Errorf("Expected path %s, got %v", tt.path, fields["path"])
			}
		})
	}
}

func TestLogging_ImplicitStatus(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("test"))
		w.WriteHeader(http.StatusTeapot) // ignored after the body started
	})

	w := httptest.NewRecorder()
	Logging(zap.New(core))(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	if got := logs.All()[0].ContextMap()["status_code"]; got != int64(http.StatusOK) {
		t.Errorf("Expected status_code 200, got %v", got)
	}
}
