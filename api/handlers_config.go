package api

import (
	"context"
	"net/http"
	"time"
)

// healthTimeout bounds the store check behind /health
const healthTimeout = 3 * time.Second

// handleHealth returns the health status of the API
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cache := "disabled"
	switch s.cacheBackend {
	case CacheBackendRedis:
		cache = "ok"
	case CacheBackendMemory:
		cache = "memory"
	}

	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "cache": cache})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	counts, err := s.health.CountAppointmentsByBranch(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "degraded",
			"database": "unavailable",
			"cache":    cache,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"database":     "ok",
		"cache":        cache,
		"appointments": counts,
	})
}
