package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics stores application metrics
type Metrics struct {
	RequestsTotal        uint64
	RequestsInProgress   uint64
	RequestsSuccess      uint64
	RequestsFailed       uint64
	VerificationsTotal   uint64
	VerificationsRunning uint64
	VerificationsFailed  uint64
	WarningsIssued       uint64
	StartTime            time.Time
}

var globalMetrics = &Metrics{
	StartTime: time.Now(),
}

// IncrementRequests increments total request counter
func IncrementRequests() {
	atomic.AddUint64(&globalMetrics.RequestsTotal, 1)
}

// IncrementInProgress increments in-progress request counter
func IncrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, 1)
}

// DecrementInProgress decrements in-progress request counter
func DecrementInProgress() {
	atomic.AddUint64(&globalMetrics.RequestsInProgress, ^uint64(0))
}

// IncrementSuccess increments successful request counter
func IncrementSuccess() {
	atomic.AddUint64(&globalMetrics.RequestsSuccess, 1)
}

// IncrementFailed increments failed request counter
func IncrementFailed() {
	atomic.AddUint64(&globalMetrics.RequestsFailed, 1)
}

// IncrementVerifications increments total verification run counter
func IncrementVerifications() {
	atomic.AddUint64(&globalMetrics.VerificationsTotal, 1)
}

// IncrementVerificationsRunning increments running verification counter
func IncrementVerificationsRunning() {
	atomic.AddUint64(&globalMetrics.VerificationsRunning, 1)
}

// DecrementVerificationsRunning decrements running verification counter
func DecrementVerificationsRunning() {
	atomic.AddUint64(&globalMetrics.VerificationsRunning, ^uint64(0))
}

// IncrementVerificationsFailed increments failed verification counter
func IncrementVerificationsFailed() {
	atomic.AddUint64(&globalMetrics.VerificationsFailed, 1)
}

// IncrementWarnings increments the counter of runs that ended in warning
func IncrementWarnings() {
	atomic.AddUint64(&globalMetrics.WarningsIssued, 1)
}

// GetMetrics returns current metrics
func GetMetrics() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"requests_total":        atomic.LoadUint64(&globalMetrics.RequestsTotal),
		"requests_in_progress":  atomic.LoadUint64(&globalMetrics.RequestsInProgress),
		"requests_success":      atomic.LoadUint64(&globalMetrics.RequestsSuccess),
		"requests_failed":       atomic.LoadUint64(&globalMetrics.RequestsFailed),
		"verifications_total":   atomic.LoadUint64(&globalMetrics.VerificationsTotal),
		"verifications_running": atomic.LoadUint64(&globalMetrics.VerificationsRunning),
		"verifications_failed":  atomic.LoadUint64(&globalMetrics.VerificationsFailed),
		"warnings_issued":       atomic.LoadUint64(&globalMetrics.WarningsIssued),
		"uptime_seconds":        time.Since(globalMetrics.StartTime).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes":       m.Alloc,
			"total_alloc_bytes": m.TotalAlloc,
			"sys_bytes":         m.Sys,
			"num_gc":            m.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		IncrementRequests()
		IncrementInProgress()
		defer DecrementInProgress()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode >= 200 && wrapped.statusCode < 400 {
			IncrementSuccess()
		} else {
			IncrementFailed()
		}
	})
}

// MetricsHandler returns metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(GetMetrics())
}
