package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) error

// HealthHandler runs every registered checker and reports per-dependency
// status. Any failing checker turns the overall answer into 503 so load
// balancers stop routing here.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		type checkResult struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}
		results := make(map[string]checkResult, len(checkers))
		healthy := true
		for name, check := range checkers {
			if err := check(ctx); err != nil {
				healthy = false
				results[name] = checkResult{Status: "down", Error: err.Error()}
				continue
			}
			results[name] = checkResult{Status: "up"}
		}

		code := http.StatusOK
		overall := "ok"
		if !healthy {
			code = http.StatusServiceUnavailable
			overall = "degraded"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"status": overall,
			"checks": results,
		})
	}
}
