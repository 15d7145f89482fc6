package api

import (
	"net/http"
	"strings"

	"github.com/branddi/taskdash/backend/internal/ingest"
	"github.com/branddi/taskdash/backend/internal/metrics"
	"github.com/branddi/taskdash/backend/internal/storage"
	"github.com/branddi/taskdash/backend/internal/types"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// PeriodsHandler persists and reloads raw activity rows per period label
type PeriodsHandler struct {
	store     storage.Store
	dashboard *DashboardHandler
	logger    zerolog.Logger
}

// NewPeriodsHandler creates a new PeriodsHandler
func NewPeriodsHandler(store storage.Store, dashboard *DashboardHandler, logger zerolog.Logger) *PeriodsHandler {
	return &PeriodsHandler{
		store:     store,
		dashboard: dashboard,
		logger:    logger.With().Str("component", "periods_handler").Logger(),
	}
}

// List returns the distinct saved period labels, newest first
// GET /api/periods
func (h *PeriodsHandler) List(w http.ResponseWriter, r *http.Request) {
	periods, err := h.store.ListPeriods()
	if err != nil {
		metrics.Get().RecordStorageError()
		h.logger.Error().Err(err).Msg("failed to list periods")
		http.Error(w, `{"error":"failed to list periods"}`, http.StatusInternalServerError)
		return
	}
	metrics.Get().RecordStorageRead()

	if periods == nil {
		periods = []string{}
	}
	writeJSON(w, http.StatusOK, periods)
}

// Save persists the current raw activities under a period label,
// overwriting whatever was stored there before
// PUT /api/periods/{period}
func (h *PeriodsHandler) Save(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	dashboard, ok := h.dashboard.dataset.Get()
	if !ok {
		http.Error(w, `{"error":"no data loaded"}`, http.StatusNotFound)
		return
	}

	rows := make([]types.ActivityRow, 0, len(dashboard.RawActivities))
	for _, act := range dashboard.RawActivities {
		rows = append(rows, act.ToRow(period))
	}

	if err := h.store.SaveActivities(period, rows); err != nil {
		metrics.Get().RecordStorageError()
		h.logger.Error().Err(err).Str("period", period).Msg("failed to save period")
		http.Error(w, `{"error":"failed to save period"}`, http.StatusInternalServerError)
		return
	}
	metrics.Get().RecordStorageWrite()

	h.logger.Info().Str("period", period).Int("rows", len(rows)).Msg("period saved")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "period saved",
		"period":  period,
		"rows":    len(rows),
	})
}

// Load reads a saved period, re-aggregates it and replaces the
// current dataset
// GET /api/periods/{period}/load
func (h *PeriodsHandler) Load(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	rows, err := h.store.GetActivities(period)
	if err != nil {
		metrics.Get().RecordStorageError()
		h.logger.Error().Err(err).Str("period", period).Msg("failed to load period")
		http.Error(w, `{"error":"failed to load period"}`, http.StatusInternalServerError)
		return
	}
	metrics.Get().RecordStorageRead()

	if len(rows) == 0 {
		http.Error(w, `{"error":"period not found"}`, http.StatusNotFound)
		return
	}

	activities, stats := ingest.FromRows(rows, h.dashboard.cfg.Location)
	dashboard := h.dashboard.replaceDataset(activities, "period:"+period)

	h.logger.Info().
		Str("period", period).
		Int("rows_parsed", stats.RowsParsed).
		Int("rows_skipped", stats.RowsSkipped).
		Msg("period loaded")

	writeJSON(w, http.StatusOK, uploadResponse{Dashboard: dashboard, Stats: stats})
}

// Delete removes a saved period
// DELETE /api/periods/{period}
func (h *PeriodsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	period, ok := periodParam(w, r)
	if !ok {
		return
	}

	deleted, err := h.store.DeletePeriod(period)
	if err != nil {
		metrics.Get().RecordStorageError()
		h.logger.Error().Err(err).Str("period", period).Msg("failed to delete period")
		http.Error(w, `{"error":"failed to delete period"}`, http.StatusInternalServerError)
		return
	}
	metrics.Get().RecordStorageWrite()

	h.logger.Info().Str("period", period).Int("deleted", deleted).Msg("period deleted")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "period deleted",
		"period":  period,
		"deleted": deleted,
	})
}

// periodParam extracts and validates the period label from the route
func periodParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	period := strings.TrimSpace(chi.URLParam(r, "period"))
	if period == "" {
		http.Error(w, `{"error":"period is required"}`, http.StatusBadRequest)
		return "", false
	}
	return period, true
}
