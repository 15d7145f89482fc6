package api

import (
	"net/http"

	"github.com/branddi/taskdash/backend/internal/auth"
	"github.com/branddi/taskdash/backend/internal/cache"
	"github.com/branddi/taskdash/backend/internal/storage"
	"github.com/rs/zerolog"
)

// AdminHandler handles destructive maintenance operations
type AdminHandler struct {
	store   storage.Store
	dataset *cache.Dataset
	logger  zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(store storage.Store, dataset *cache.Dataset, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		store:   store,
		dataset: dataset,
		logger:  logger.With().Str("component", "admin_handler").Logger(),
	}
}

// RequireAdmin middleware rejects anything below the admin role
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetUserFromContext(r.Context())
		if !ok || !auth.HasRole(claims, "admin") {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAnalyst middleware allows analyst and admin roles
func RequireAnalyst(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetUserFromContext(r.Context())
		if !ok || !auth.CanEdit(claims) {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"analyst or admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Truncate wipes the activities table and drops the in-memory dataset
// POST /api/admin/truncate
func (h *AdminHandler) Truncate(w http.ResponseWriter, r *http.Request) {
	if err := h.store.TruncateAll(); err != nil {
		h.logger.Error().Err(err).Msg("failed to truncate activities table")
		http.Error(w, `{"error":"failed to truncate"}`, http.StatusInternalServerError)
		return
	}

	h.dataset.Clear()
	h.logger.Info().Msg("activities table truncated")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "activities table truncated",
	})
}
