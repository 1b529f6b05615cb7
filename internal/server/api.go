package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chorusfm/chorus/internal/devices"
	"github.com/chorusfm/chorus/internal/models"
	"github.com/chorusfm/chorus/internal/playback"
	"github.com/chorusfm/chorus/internal/resolver"
	"github.com/chorusfm/chorus/internal/shared"
)

// PlaybackAPI serves the engine's exposed operations: resolve, search,
// device listing, activation, transfer, and remote commands.
type PlaybackAPI struct {
	cache    *playback.Cache
	prefetch *playback.Prefetcher
	search   *resolver.Resolver
	registry *devices.Registry
	arbiter  *devices.Arbiter
	relay    *devices.Relay
	logger   *log.Logger
}

var _ Handler = (*PlaybackAPI)(nil)

// NewPlaybackAPI wires the engine components into an HTTP handler.
func NewPlaybackAPI(cache *playback.Cache, prefetch *playback.Prefetcher, search *resolver.Resolver, registry *devices.Registry, arbiter *devices.Arbiter, relay *devices.Relay, logger *log.Logger) *PlaybackAPI {
	return &PlaybackAPI{
		cache:    cache,
		prefetch: prefetch,
		search:   search,
		registry: registry,
		arbiter:  arbiter,
		relay:    relay,
		logger:   logger,
	}
}

// Routes returns the path patterns this handler serves.
func (a *PlaybackAPI) Routes() []string {
	return []string{
		"/api/health",
		"/api/resolve/",
		"/api/prefetch",
		"/api/search",
		"/api/devices",
		"/api/devices/activate",
		"/api/devices/transfer",
		"/api/devices/command",
	}
}

// ServeHTTP dispatches to the matching operation.
func (a *PlaybackAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/health":
		a.handleHealth(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/resolve/"):
		a.handleResolve(w, r)
	case r.URL.Path == "/api/prefetch" && r.Method == http.MethodPost:
		a.handlePrefetch(w, r)
	case r.URL.Path == "/api/search":
		a.handleSearch(w, r)
	case r.URL.Path == "/api/devices" && r.Method == http.MethodGet:
		a.handleDevices(w, r)
	case r.URL.Path == "/api/devices/activate" && r.Method == http.MethodPost:
		a.handleActivate(w, r)
	case r.URL.Path == "/api/devices/transfer" && r.Method == http.MethodPost:
		a.handleTransfer(w, r)
	case r.URL.Path == "/api/devices/command" && r.Method == http.MethodPost:
		a.handleCommand(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (a *PlaybackAPI) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "cached": a.cache.Len()})
}

// handleResolve answers GET /api/resolve/{catalogId}?quality=. Exhaustion
// is a 204, not an error: no stream is a normal empty result.
func (a *PlaybackAPI) handleResolve(w http.ResponseWriter, r *http.Request) {
	catalogID := strings.TrimPrefix(r.URL.Path, "/api/resolve/")
	quality := models.Quality(r.URL.Query().Get("quality"))
	if quality == "" {
		quality = models.QualityNormal
	}

	desc, err := a.cache.GetOrResolve(r.Context(), catalogID, quality)
	if errors.Is(err, shared.ErrNoStream) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

// handlePrefetch warms the cache for the queue entry after index. The
// response only acknowledges scheduling; the resolution outlives the
// request.
func (a *PlaybackAPI) handlePrefetch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Queue []string `json:"queue"`
		Index int      `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	a.prefetch.Next(context.WithoutCancel(r.Context()), req.Queue, req.Index)
	w.WriteHeader(http.StatusAccepted)
}

func (a *PlaybackAPI) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results, err := a.search.Search(r.Context(), query)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (a *PlaybackAPI) handleDevices(w http.ResponseWriter, r *http.Request) {
	online, err := a.registry.ListOnline(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, online)
}

func (a *PlaybackAPI) handleActivate(w http.ResponseWriter, r *http.Request) {
	if err := a.arbiter.Activate(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *PlaybackAPI) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string                  `json:"target_id"`
		Snapshot models.PlaybackSnapshot `json:"snapshot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.arbiter.Transfer(r.Context(), req.TargetID, req.Snapshot); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *PlaybackAPI) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string         `json:"target_id"`
		Command  models.Command `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.relay.Send(r.Context(), req.TargetID, req.Command); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrInvalidCommand) || errors.Is(err, shared.ErrMissingArgument) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
