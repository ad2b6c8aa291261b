package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/featureflags/internal/flags"
	"github.com/eugenenazirov/featureflags/internal/manifest"
)

const testManifest = `
SHOW_REGISTER_BUTTON: "Yes"
BETA: "0"
FEATURES:
  BETA: "true"
`

var fixedNow = time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)

func setupTestRouter(t *testing.T, doc string) http.Handler {
	t.Helper()

	store, err := manifest.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}

	handler := NewHandler(flags.New(store), WithClock(func() time.Time { return fixedNow }))
	logger := zaptest.NewLogger(t)
	return NewRouter(handler, logger, WithLogging(false))
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	if got := requestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %s", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t, testManifest)

	rec := get(t, router, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(fixedNow) {
		t.Fatalf("expected timestamp %s, got %s", fixedNow, body.Timestamp)
	}
}

func TestUIConfigEndpoint(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want bool
	}{
		{name: "enabled", doc: testManifest, want: true},
		{name: "absent", doc: `{}`, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, setupTestRouter(t, tc.doc), "/api/ui-config")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rec.Code)
			}

			var body struct {
				ShowRegisterButton bool `json:"showRegisterButton"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.ShowRegisterButton != tc.want {
				t.Fatalf("expected showRegisterButton=%v, got %v", tc.want, body.ShowRegisterButton)
			}
		})
	}
}

func TestGetFlagEndpoint(t *testing.T) {
	router := setupTestRouter(t, testManifest)

	tests := []struct {
		name      string
		target    string
		key       string
		group     *string
		wantValue bool
	}{
		{name: "top level", target: "/api/flags/BETA", key: "BETA", wantValue: false},
		{name: "grouped", target: "/api/flags/BETA?group=FEATURES", key: "BETA", group: ptr("FEATURES"), wantValue: true},
		{name: "missing group falls back", target: "/api/flags/SHOW_REGISTER_BUTTON?group=NOPE", key: "SHOW_REGISTER_BUTTON", group: ptr("NOPE"), wantValue: true},
		{name: "unknown key", target: "/api/flags/UNKNOWN", key: "UNKNOWN", wantValue: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(t, router, tc.target)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rec.Code)
			}

			var body struct {
				Key     string  `json:"key"`
				Group   *string `json:"group"`
				Enabled bool    `json:"enabled"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if body.Key != tc.key {
				t.Fatalf("expected key %s, got %s", tc.key, body.Key)
			}
			if (body.Group == nil) != (tc.group == nil) || (body.Group != nil && *body.Group != *tc.group) {
				t.Fatalf("unexpected group %v", body.Group)
			}
			if body.Enabled != tc.wantValue {
				t.Fatalf("expected enabled=%v, got %v", tc.wantValue, body.Enabled)
			}
		})
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	router := setupTestRouter(t, testManifest)

	if rec := get(t, router, "/api/unknown"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestFlagsAreReadOnly(t *testing.T) {
	router := setupTestRouter(t, testManifest)

	req := httptest.NewRequest(http.MethodPut, "/api/flags/BETA", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}

func TestCorsPreflight(t *testing.T) {
	router := setupTestRouter(t, testManifest)

	req := httptest.NewRequest(http.MethodOptions, "/api/flags/BETA", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("expected Access-Control-Allow-Origin header to be set")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router := setupTestRouter(t, testManifest)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "test-request-id" {
		t.Fatalf("expected X-Request-ID header to be echoed, got %s", got)
	}

	generated := get(t, router, "/api/health")
	if generated.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected a generated X-Request-ID header")
	}
}

func ptr(s string) *string {
	return &s
}
