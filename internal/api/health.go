package api

import (
	"net/http"
	"time"
)

// healthTimestampLayout is ISO-8601 with millisecond precision.
const healthTimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// HealthHandler reports liveness. It has no dependencies.
func HealthHandler(now func() time.Time) http.Handler {
	if now == nil {
		now = time.Now
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: now().UTC().Format(healthTimestampLayout),
		})
	})
}
