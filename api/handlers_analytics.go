package api

import (
	"net/http"

	"petcare-analytics/analytics"
	"petcare-analytics/database"
	"petcare-analytics/realtime"
)

// handleBranchAnalytics returns current metrics and predictions for every branch.
// A store outage still answers 200 with a zeroed report.
func (s *Server) handleBranchAnalytics(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.BranchReport(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to compute branch analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleBranchDetail returns the metrics and prediction of one branch
func (s *Server) handleBranchDetail(w http.ResponseWriter, r *http.Request) {
	branch := r.PathValue("branch")

	detail, err := s.service.BranchDetail(r.Context(), branch)
	if err != nil {
		if database.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, err.Error(), nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to compute branch analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// handlePetTypePredictions returns next-period demand per pet type and per branch
func (s *Server) handlePetTypePredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := s.service.PetTypePredictions(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to compute pet type predictions", err)
		return
	}

	if predictions.IsMockData && s.broker != nil {
		s.broker.Broadcast(realtime.EventForecastFallback, map[string]string{"error": predictions.Error})
	}
	writeJSON(w, http.StatusOK, predictions)
}

// handleRefresh recomputes the report, bypassing the cache, and notifies dashboards
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.Refresh(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to refresh analytics", err)
		return
	}

	if s.broker != nil {
		s.broker.Broadcast(realtime.EventAnalyticsRefreshed, RefreshSummary(report))
	}
	writeJSON(w, http.StatusOK, report)
}

// RefreshSummary is the compact payload of the analytics_refreshed event
func RefreshSummary(report *analytics.BranchReport) map[string]interface{} {
	totals := make(map[string]int, len(report.CurrentMetrics))
	for branch, snapshot := range report.CurrentMetrics {
		totals[branch] = snapshot.Total
	}
	return map[string]interface{}{
		"generatedAt":     report.GeneratedAt,
		"totals":          totals,
		"dataUnavailable": report.DataUnavailable,
	}
}
