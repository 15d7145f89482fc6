package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/branddi/taskdash/backend/internal/cache"
	"github.com/branddi/taskdash/backend/internal/config"
	"github.com/branddi/taskdash/backend/internal/types"
	"github.com/branddi/taskdash/backend/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const sampleCSV = "Usuário responsável,Tipo,Marcado como feito em\n" +
	"Alice,E-mail,2024-01-01T09:00:00Z\n" +
	"Alice,WhatsApp,2024-01-01T14:00:00Z\n" +
	"Bob,Chamada,2024-01-02T10:00:00Z\n"

func testConfig() *config.Config {
	return &config.Config{
		Location:       time.UTC,
		MaxUploadBytes: 1 << 20,
	}
}

func newTestDashboardHandler() (*DashboardHandler, *cache.Dataset) {
	logger := zerolog.New(&bytes.Buffer{})
	dataset := cache.NewDataset()
	hub := ws.NewHub(logger)
	return NewDashboardHandler(testConfig(), dataset, hub, logger), dataset
}

func dashboardRouter(h *DashboardHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/upload", h.Upload)
	r.Get("/api/dashboard", h.GetDashboard)
	r.Get("/api/dashboard/users/{name}", h.GetUserDrilldown)
	return r
}

func TestUploadAndGetDashboard(t *testing.T) {
	h, _ := newTestDashboardHandler()
	router := dashboardRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(sampleCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Dashboard.TotalActivities != 3 {
		t.Errorf("expected 3 activities, got %d", resp.Dashboard.TotalActivities)
	}
	if resp.Stats.RowsParsed != 3 || resp.Stats.RowsSkipped != 0 {
		t.Errorf("unexpected stats: %+v", resp.Stats)
	}

	// The dashboard endpoint now serves the same aggregate
	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var dashboard types.Dashboard
	if err := json.Unmarshal(rec.Body.Bytes(), &dashboard); err != nil {
		t.Fatalf("failed to parse dashboard: %v", err)
	}
	if len(dashboard.UserMetrics) != 2 {
		t.Errorf("expected 2 users, got %d", len(dashboard.UserMetrics))
	}
}

func TestUploadMultipart(t *testing.T) {
	h, _ := newTestDashboardHandler()
	router := dashboardRouter(h)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "activities.csv")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	fw.Write([]byte(sampleCSV))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Dashboard.TotalActivities != 3 {
		t.Errorf("expected 3 activities, got %d", resp.Dashboard.TotalActivities)
	}
}

func TestUploadRejectsUnusableCSV(t *testing.T) {
	h, _ := newTestDashboardHandler()
	router := dashboardRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("foo,bar\n1,2\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestGetDashboardNoData(t *testing.T) {
	h, _ := newTestDashboardHandler()
	router := dashboardRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestGetUserDrilldown(t *testing.T) {
	h, _ := newTestDashboardHandler()
	router := dashboardRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(sampleCSV))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed: %d", rec.Code)
	}

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"known user", "/api/dashboard/users/Alice", http.StatusOK},
		{"known user with threshold", "/api/dashboard/users/Alice?threshold=1", http.StatusOK},
		{"unknown user", "/api/dashboard/users/Mallory", http.StatusNotFound},
		{"negative threshold", "/api/dashboard/users/Alice?threshold=-1", http.StatusBadRequest},
		{"non-numeric threshold", "/api/dashboard/users/Alice?threshold=high", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetUserDrilldownThresholdCollapses(t *testing.T) {
	h, _ := newTestDashboardHandler()
	router := dashboardRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(sampleCSV))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Every Alice cell holds at most 1, so threshold 1 zeroes the grid
	req = httptest.NewRequest(http.MethodGet, "/api/dashboard/users/Alice?threshold=1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var drill types.UserDrilldown
	if err := json.Unmarshal(rec.Body.Bytes(), &drill); err != nil {
		t.Fatalf("failed to parse drilldown: %v", err)
	}
	for _, cell := range drill.Heatmap {
		if cell.Value != 0 {
			t.Errorf("expected all cells collapsed, found %+v", cell)
		}
	}
}
