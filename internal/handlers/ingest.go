package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"printwatch/internal/evaluator"
	"printwatch/internal/logger"
	"printwatch/internal/models"
	"printwatch/internal/store"
)

// Evaluator is the slice of the threshold evaluator the handler needs.
type Evaluator interface {
	Evaluate(ctx context.Context, deviceID string, value float64) (evaluator.Result, error)
}

// IngestHandler accepts single sensor readings over HTTP and evaluates them
// synchronously. The response contract mirrors the message path: unknown
// devices are still "processed" so malformed or unregistered device ids never
// cause retry storms.
type IngestHandler struct {
	evaluator   Evaluator
	maxBodySize int64
}

// IngestConfig holds configuration for the ingest handler
type IngestConfig struct {
	Evaluator   Evaluator
	MaxBodySize int64
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(cfg IngestConfig) *IngestHandler {
	maxBodySize := cfg.MaxBodySize
	if maxBodySize == 0 {
		maxBodySize = 1 << 20 // 1MB default
	}

	return &IngestHandler{
		evaluator:   cfg.Evaluator,
		maxBodySize: maxBodySize,
	}
}

// statusResponse is the fixed-shape ingest response.
type statusResponse struct {
	Status string `json:"status"`
}

// ServeHTTP handles the ingest HTTP request
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" && contentType != "" {
		writeError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	reading, err := models.DecodeReading(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	_, err = h.evaluator.Evaluate(r.Context(), reading.DeviceID, reading.Value)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, statusResponse{Status: "processed"})

	case errors.Is(err, evaluator.ErrUnknownDevice):
		// Documented policy: unprovisioned devices are a successful no-op.
		log := logger.WithComponent("ingest")
		log.Warn().
			Str("device_id", reading.DeviceID).
			Msg("reading for unknown device dropped")
		writeJSON(w, http.StatusOK, statusResponse{Status: "processed"})

	case errors.Is(err, models.ErrInvalidDeviceID):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, store.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "profile store unavailable")

	default:
		log := logger.WithComponent("ingest")
		log.Error().
			Err(err).
			Str("device_id", reading.DeviceID).
			Msg("evaluation failed")
		writeError(w, http.StatusInternalServerError, "evaluation failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
