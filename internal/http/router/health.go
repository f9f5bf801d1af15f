package router

import (
	"encoding/json"
	"net/http"

	"github.com/straye-as/crm-api/internal/database"
	"go.uber.org/zap"
)

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// health is the liveness probe
func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// healthDB reports database connectivity with pool statistics
func (rt *Router) healthDB(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
	if err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

// healthReady checks every dependency. A disabled cache does not fail readiness.
func (rt *Router) healthReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(r.Context(), rt.db); err != nil {
		rt.logger.Error("Database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	switch {
	case rt.cache == nil:
		checks["redis"] = map[string]interface{}{"status": "disabled"}
	default:
		if err := rt.cache.Ping(r.Context()); err != nil {
			rt.logger.Error("Redis health check failed", zap.Error(err))
			checks["redis"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			allHealthy = false
		} else {
			checks["redis"] = map[string]interface{}{"status": "healthy"}
		}
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeHealth(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
