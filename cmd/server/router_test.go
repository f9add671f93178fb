package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/lingua-drome/internal/config"
	"github.com/benvon/lingua-drome/internal/kv"
	"github.com/benvon/lingua-drome/internal/models"
	"github.com/benvon/lingua-drome/internal/project"
	"github.com/benvon/lingua-drome/internal/prompt"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		StoreURL:       "memory://",
		ServerPort:     "0",
		FrontendURL:    "http://localhost:3000",
		Phase:          models.PhaseEllipse,
		MaxUploadBytes: 1 << 20,
		RateLimit:      "100-S",
	}
}

func newTestHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	mem := kv.NewMemoryStore()
	store, err := project.Open(context.Background(), mem)
	if err != nil {
		t.Fatalf("Failed to open project: %v", err)
	}
	h, err := newHandler(routerDeps{
		cfg:     cfg,
		kv:      mem,
		store:   store,
		console: prompt.NewConsole(),
		logger:  zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("Failed to build handler: %v", err)
	}
	return h
}

func TestNewHandler(t *testing.T) {
	t.Parallel()
	h := newTestHandler(t, testConfig())

	tests := []struct {
		name        string
		method      string
		path        string
		contentType string
		body        string
		origin      string
		wantStatus  int
	}{
		{"health", http.MethodGet, "/healthz", "", "", "", http.StatusOK},
		{"project", http.MethodGet, "/api/v1/project", "", "", "", http.StatusOK},
		{"unsupported content type", http.MethodPost, "/api/v1/console/toggle", "text/plain", "material", "", http.StatusUnsupportedMediaType},
		{"json toggle", http.MethodPost, "/api/v1/console/toggle", "application/json", `{"category":"material","value":"soil"}`, "", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/todos", "", "", "", http.StatusNotFound},
		{"preflight", http.MethodOptions, "/api/v1/assets", "", "", "http://localhost:3000", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.origin != "" {
				if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.origin {
					t.Errorf("Expected allowed origin %s, got %q", tt.origin, got)
				}
			} else if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("Expected security headers on routed responses")
			}
		})
	}
}

func TestNewHandler_RateLimited(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.RateLimit = "1-M"
	h := newTestHandler(t, cfg)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/project", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("Expected [200 429], got %v", codes)
	}

	// Health checks are not limited
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected health check to pass, got %d", w.Code)
		}
	}
}

func TestNewHandler_InvalidRate(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.RateLimit = "lots"

	_, err := newHandler(routerDeps{cfg: cfg, kv: kv.NewMemoryStore(), console: prompt.NewConsole(), logger: zap.NewNop()})
	if err == nil {
		t.Error("Expected error for invalid rate")
	}
}
