package handlers

import (
	"net/http"

	"printwatch/internal/logger"
	"printwatch/internal/report"
	"printwatch/internal/store"
)

// ReportHandler serves the device ranking: all devices ordered by descending
// anomaly event count.
type ReportHandler struct {
	store store.ProfileStore
}

// NewReportHandler creates a report handler over the profile store.
func NewReportHandler(profiles store.ProfileStore) *ReportHandler {
	return &ReportHandler{store: profiles}
}

func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ranking, err := report.Rank(r.Context(), h.store)
	if err != nil {
		log := logger.WithComponent("report")
		log.Error().Err(err).Msg("ranking scan failed")
		writeError(w, http.StatusServiceUnavailable, "profile store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, ranking)
}

// DevicesHandler lists every provisioned device profile.
type DevicesHandler struct {
	store store.ProfileStore
}

// NewDevicesHandler creates a device listing handler.
func NewDevicesHandler(profiles store.ProfileStore) *DevicesHandler {
	return &DevicesHandler{store: profiles}
}

func (h *DevicesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	profiles, err := h.store.Profiles(r.Context())
	if err != nil {
		log := logger.WithComponent("devices")
		log.Error().Err(err).Msg("profile scan failed")
		writeError(w, http.StatusServiceUnavailable, "profile store unavailable")
		return
	}

	writeJSON(w, http.StatusOK, profiles)
}
