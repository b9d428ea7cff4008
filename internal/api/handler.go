// Package api exposes the management REST surface for the memory
// store. The assistant's chat transport is a separate collaborator;
// this API exists for statistics and management tooling.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/nidhogg/mnemo/internal/memory"
	"github.com/nidhogg/mnemo/internal/mirror"
	"go.uber.org/zap"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store     *memory.Store
	shortTerm *memory.ShortTermBuffer
	mirror    mirror.Mirror // optional
	logger    *zap.Logger
}

// NewHandler creates an API handler around the given store.
func NewHandler(store *memory.Store, shortTerm *memory.ShortTermBuffer, m mirror.Mirror, logger *zap.Logger) *Handler {
	return &Handler{store: store, shortTerm: shortTerm, mirror: m, logger: logger}
}

// Router builds the chi router for the API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)

		r.Get("/memories", h.listMemories)
		r.Post("/memories", h.createMemory)
		r.Post("/memories/search", h.searchMemories)
		r.Get("/memories/stats", h.memoryStats)
		r.Post("/memories/export", h.exportMemories)
		r.Delete("/memories/{position}", h.deleteMemory)
		r.Delete("/memories", h.clearMemories)

		r.Get("/context", h.buildContext)
		r.Post("/sessions", h.createSession)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"memories": h.store.Len(),
	})
}

// memoryView is the API projection of a record, without the embedding.
type memoryView struct {
	Content     string                 `json:"content"`
	MemoryType  string                 `json:"memory_type"`
	Importance  float64                `json:"importance"`
	Timestamp   string                 `json:"timestamp"`
	AccessCount int                    `json:"access_count"`
	SessionID   string                 `json:"session_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func toView(rec memory.Record) memoryView {
	return memoryView{
		Content:     rec.Content,
		MemoryType:  string(rec.Type),
		Importance:  rec.Importance,
		Timestamp:   rec.Timestamp.Format(time.RFC3339Nano),
		AccessCount: rec.AccessCount,
		SessionID:   rec.SessionID,
		Metadata:    rec.Metadata,
	}
}

func toViews(recs []memory.Record) []memoryView {
	views := make([]memoryView, len(recs))
	for i, rec := range recs {
		views[i] = toView(rec)
	}
	return views
}

func (h *Handler) listMemories(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var typeFilter memory.Type
	if raw := r.URL.Query().Get("memory_type"); raw != "" {
		typ, err := memory.ParseType(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		typeFilter = typ
	}

	writeJSON(w, http.StatusOK, toViews(h.store.List(offset, limit, typeFilter)))
}

type createMemoryRequest struct {
	Content    string                 `json:"content"`
	MemoryType string                 `json:"memory_type"`
	Importance float64                `json:"importance"`
	SessionID  string                 `json:"session_id"`
	Metadata   map[string]interface{} `json:"metadata"`
}

func (h *Handler) createMemory(w http.ResponseWriter, r *http.Request) {
	var req createMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rec, err := h.store.Add(r.Context(), memory.AddInput{
		Content:    req.Content,
		Type:       memory.Type(req.MemoryType),
		Importance: req.Importance,
		SessionID:  req.SessionID,
		Metadata:   req.Metadata,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "unable to create memory embedding at this time",
		})
		return
	}
	writeJSON(w, http.StatusCreated, toView(*rec))
}

type searchRequest struct {
	Query      string `json:"query"`
	K          int    `json:"k"`
	MemoryType string `json:"memory_type"`
	SessionID  string `json:"session_id"`
}

func (h *Handler) searchMemories(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.K <= 0 {
		req.K = 5
	}

	recs := h.store.Retrieve(r.Context(), req.Query, req.K, memory.RetrieveOptions{
		Type:      memory.Type(req.MemoryType),
		SessionID: req.SessionID,
	})
	writeJSON(w, http.StatusOK, toViews(recs))
}

func (h *Handler) memoryStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]interface{}{"store": h.store.Stats()}
	if h.mirror != nil {
		stats, err := h.mirror.Stats(r.Context())
		if err != nil {
			h.logger.Warn("mirror stats failed", zap.Error(err))
		} else {
			out["mirror"] = stats
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) exportMemories(w http.ResponseWriter, r *http.Request) {
	records := h.store.Export()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"memories": records,
		"count":    len(records),
	})
}

func (h *Handler) deleteMemory(w http.ResponseWriter, r *http.Request) {
	pos, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "position must be an integer"})
		return
	}
	if err := h.store.Delete(pos); err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) clearMemories(w http.ResponseWriter, r *http.Request) {
	count := h.store.Len()
	h.store.Clear()
	// Persist the empty state, otherwise a restart resurrects the
	// cleared memories from the old snapshot.
	if err := h.store.Persist(); err != nil {
		h.logger.Warn("persist after clear failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "cleared",
		"count":  count,
	})
}

func (h *Handler) buildContext(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter required"})
		return
	}
	k := queryInt(r, "k", 5)

	writeJSON(w, http.StatusOK, map[string]string{
		"context": h.store.BuildContext(r.Context(), query, k, h.shortTerm),
	})
}

// createSession issues a correlation key that callers attach to
// memories belonging to one conversation.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": uuid.New().String(),
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
