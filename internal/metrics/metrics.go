package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Ingest metrics
	UploadsTotal     int64
	RowsParsedTotal  int64
	RowsSkippedTotal int64

	// Aggregation metrics
	AggregationsTotal       int64
	lastAggregationDuration time.Duration
	lastBatchSize           int

	// Storage metrics
	StorageReadsTotal  int64
	StorageWritesTotal int64
	StorageErrorsTotal int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketMessagesTotal       int64
	activeConnections            int64

	// HTTP metrics
	httpRequestsTotal map[string]map[int]int64 // endpoint -> status -> count

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			httpRequestsTotal: make(map[string]map[int]int64),
			startTime:         time.Now(),
		}
	})
	return instance
}

// RecordUpload records one CSV upload with its row outcome
func (m *Metrics) RecordUpload(parsed, skipped int) {
	m.mu.Lock()
	m.UploadsTotal++
	m.RowsParsedTotal += int64(parsed)
	m.RowsSkippedTotal += int64(skipped)
	m.mu.Unlock()
}

// RecordAggregation records one aggregation run
func (m *Metrics) RecordAggregation(duration time.Duration, batchSize int) {
	m.mu.Lock()
	m.AggregationsTotal++
	m.lastAggregationDuration = duration
	m.lastBatchSize = batchSize
	m.mu.Unlock()
}

// RecordStorageRead increments the storage read counter
func (m *Metrics) RecordStorageRead() {
	m.mu.Lock()
	m.StorageReadsTotal++
	m.mu.Unlock()
}

// RecordStorageWrite increments the storage write counter
func (m *Metrics) RecordStorageWrite() {
	m.mu.Lock()
	m.StorageWritesTotal++
	m.mu.Unlock()
}

// RecordStorageError increments the storage error counter
func (m *Metrics) RecordStorageError() {
	m.mu.Lock()
	m.StorageErrorsTotal++
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketMessage increments message counter
func (m *Metrics) RecordWebSocketMessage() {
	m.mu.Lock()
	m.WebSocketMessagesTotal++
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// statusRecorder captures the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records per-endpoint request counts by status code
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		Get().RecordHTTPRequest(r.URL.Path, rec.status)
	})
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("taskdash_uptime_seconds", time.Since(m.startTime).Seconds())

		// Ingest metrics
		write("taskdash_uploads_total", m.UploadsTotal)
		write("taskdash_rows_parsed_total", m.RowsParsedTotal)
		write("taskdash_rows_skipped_total", m.RowsSkippedTotal)

		// Aggregation metrics
		write("taskdash_aggregations_total", m.AggregationsTotal)
		write("taskdash_aggregation_duration_seconds", m.lastAggregationDuration.Seconds())
		write("taskdash_aggregation_batch_size", m.lastBatchSize)

		// Storage metrics
		write("taskdash_storage_reads_total", m.StorageReadsTotal)
		write("taskdash_storage_writes_total", m.StorageWritesTotal)
		write("taskdash_storage_errors_total", m.StorageErrorsTotal)

		// WebSocket metrics
		write("taskdash_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("taskdash_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("taskdash_websocket_active_connections", m.activeConnections)
		write("taskdash_websocket_messages_total", m.WebSocketMessagesTotal)

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("taskdash_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
