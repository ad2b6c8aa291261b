package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eugenenazirov/featureflags/internal/flags"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// FlagReader resolves boolean feature flags.
type FlagReader interface {
	Boolean(key string, opts ...flags.LookupOption) bool
	ShowRegisterButton() bool
}

// Handler exposes feature flags to HTTP clients.
type Handler struct {
	flags FlagReader
	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided flag reader.
func NewHandler(reader FlagReader, opts ...HandlerOption) *Handler {
	h := &Handler{
		flags: reader,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUIConfig(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := uiConfigResponse{
		ShowRegisterButton: h.flags.ShowRegisterButton(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetFlag(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "flag key must not be empty")
		return
	}

	resp := flagResponse{Key: key}

	var opts []flags.LookupOption
	if query := r.URL.Query(); query.Has("group") {
		group := query.Get("group")
		opts = append(opts, flags.InGroup(group))
		resp.Group = &group
	}

	resp.Enabled = h.flags.Boolean(key, opts...)
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type flagResponse struct {
	Key     string  `json:"key"`
	Group   *string `json:"group,omitempty"`
	Enabled bool    `json:"enabled"`
}

type uiConfigResponse struct {
	ShowRegisterButton bool `json:"showRegisterButton"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}
