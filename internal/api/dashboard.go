package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/branddi/taskdash/backend/internal/analytics"
	"github.com/branddi/taskdash/backend/internal/cache"
	"github.com/branddi/taskdash/backend/internal/config"
	"github.com/branddi/taskdash/backend/internal/ingest"
	"github.com/branddi/taskdash/backend/internal/metrics"
	"github.com/branddi/taskdash/backend/internal/types"
	"github.com/branddi/taskdash/backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// DashboardHandler serves the aggregation pipeline over REST:
// CSV upload, the current dashboard and per-user drill-downs.
type DashboardHandler struct {
	cfg     *config.Config
	dataset *cache.Dataset
	hub     *ws.Hub
	logger  zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(cfg *config.Config, dataset *cache.Dataset, hub *ws.Hub, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		cfg:     cfg,
		dataset: dataset,
		hub:     hub,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// uploadResponse pairs the fresh aggregate with the normalizer outcome
type uploadResponse struct {
	Dashboard *types.Dashboard `json:"dashboard"`
	Stats     ingest.Stats     `json:"stats"`
}

// Upload ingests a CSV activity export and replaces the current dataset
// POST /api/upload (multipart field "file" or raw CSV body)
func (h *DashboardHandler) Upload(w http.ResponseWriter, r *http.Request) {
	body, err := h.uploadBody(w, r)
	if err != nil {
		http.Error(w, `{"error":"could not read upload body"}`, http.StatusBadRequest)
		return
	}
	defer body.Close()

	activities, stats, err := ingest.ParseCSV(body, h.cfg.Location)
	if err != nil {
		h.logger.Warn().Err(err).Msg("csv upload rejected")
		http.Error(w, `{"error":"invalid csv upload"}`, http.StatusBadRequest)
		return
	}

	dashboard := h.replaceDataset(activities, "upload")
	metrics.Get().RecordUpload(stats.RowsParsed, stats.RowsSkipped)

	h.logger.Info().
		Int("rows_parsed", stats.RowsParsed).
		Int("rows_skipped", stats.RowsSkipped).
		Int("users", len(dashboard.UserMetrics)).
		Msg("csv upload processed")

	writeJSON(w, http.StatusOK, uploadResponse{Dashboard: dashboard, Stats: stats})
}

// uploadBody returns the CSV stream from a multipart "file" field when
// present, otherwise the raw request body. Size is capped either way.
func (h *DashboardHandler) uploadBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		return file, nil
	}
	return r.Body, nil
}

// GetDashboard returns the current aggregate
// GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := h.dataset.Get()
	if !ok {
		http.Error(w, `{"error":"no data loaded"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// GetUserDrilldown returns the per-user re-aggregation
// GET /api/dashboard/users/{name}?threshold=N
func (h *DashboardHandler) GetUserDrilldown(w http.ResponseWriter, r *http.Request) {
	dashboard, ok := h.dataset.Get()
	if !ok {
		http.Error(w, `{"error":"no data loaded"}`, http.StatusNotFound)
		return
	}

	name := chi.URLParam(r, "name")
	drill, ok := analytics.Drilldown(dashboard, name)
	if !ok {
		http.Error(w, `{"error":"unknown user"}`, http.StatusNotFound)
		return
	}

	if raw := r.URL.Query().Get("threshold"); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil || threshold < 0 {
			http.Error(w, `{"error":"threshold must be a non-negative integer"}`, http.StatusBadRequest)
			return
		}
		drill.Heatmap = analytics.FilterHeatmap(drill.Heatmap, threshold)
	}

	writeJSON(w, http.StatusOK, drill)
}

// replaceDataset aggregates a fresh batch, swaps it in and notifies
// websocket subscribers. Last write wins; the previous aggregate is
// discarded wholesale.
func (h *DashboardHandler) replaceDataset(activities []types.Activity, source string) *types.Dashboard {
	start := time.Now()
	dashboard := analytics.Aggregate(activities)
	metrics.Get().RecordAggregation(time.Since(start), len(activities))

	h.dataset.Replace(dashboard)
	h.notifyRefresh(dashboard, source)
	return dashboard
}

// notifyRefresh broadcasts a small refresh event; clients refetch over REST
func (h *DashboardHandler) notifyRefresh(dashboard *types.Dashboard, source string) {
	event := map[string]interface{}{
		"type":            "dashboard_updated",
		"source":          source,
		"totalActivities": dashboard.TotalActivities,
		"users":           len(dashboard.UserMetrics),
		"timestamp":       time.Now(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal refresh event")
		return
	}
	h.hub.Broadcast(data)
}

// writeJSON encodes v with the right content type
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
