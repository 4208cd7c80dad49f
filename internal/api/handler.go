package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zeebo/blake3"

	"github.com/eugenenazirov/fir-settings/internal/capability"
	"github.com/eugenenazirov/fir-settings/internal/settings"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler serves a read-only view of the assembled settings.
type Handler struct {
	settings *settings.Settings
	registry capability.Registry

	clock func() time.Time

	loadedAt time.Time
	redacted *settings.Mapping
	body     []byte
	etag     string
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler for s. The redacted encoding and the ETag,
// a digest of that encoding, are computed once since s never changes.
func NewHandler(s *settings.Settings, registry capability.Registry, opts ...HandlerOption) (*Handler, error) {
	if s == nil {
		return nil, fmt.Errorf("settings are required")
	}

	h := &Handler{
		settings: s,
		registry: registry,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}

	h.redacted = s.Redacted()
	body, err := json.Marshal(h.redacted)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	sum := blake3.Sum256(body)

	h.body = body
	h.etag = `"` + hex.EncodeToString(sum[:]) + `"`
	h.loadedAt = h.clock()
	return h, nil
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
		LoadedAt:  h.loadedAt,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", h.etag)
	if etagMatches(r.Header.Get("If-None-Match"), h.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.body)
}

func (h *Handler) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, ok := h.redacted.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown setting", fmt.Sprintf("no setting named %q", key), "GET /api/settings lists every key")
		return
	}

	w.Header().Set("ETag", h.etag)
	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: value})
}

func (h *Handler) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	_ = r
	registered := []capability.Capability{}
	if h.registry != nil {
		registered = h.registry.Capabilities()
	}

	resp := capabilitiesResponse{
		Registered: registered,
		Active: activeCapabilities{
			TwoFactor:     h.settings.TwoFactorEnabled(),
			AAD:           h.settings.AADEnabled(),
			HardwareToken: h.settings.HardwareTokenEnabled(),
		},
		Fragments: fragmentApps(h.settings.Fragments()),
		Overrides: h.settings.Overrides(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func fragmentApps(fragments []settings.Fragment) []string {
	out := make([]string, 0, len(fragments))
	for _, f := range fragments {
		out = append(out, f.App)
	}
	return out
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LoadedAt  time.Time `json:"loadedAt"`
}

type settingResponse struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type activeCapabilities struct {
	TwoFactor     bool `json:"twoFactor"`
	AAD           bool `json:"aad"`
	HardwareToken bool `json:"hardwareToken"`
}

type capabilitiesResponse struct {
	Registered []capability.Capability `json:"registered"`
	Active     activeCapabilities      `json:"active"`
	Fragments  []string                `json:"fragments"`
	Overrides  []settings.Override     `json:"overrides"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}
