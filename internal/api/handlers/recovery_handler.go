package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/application/services"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// RecoveryService defines the recovery operations used by the handler.
type RecoveryService interface {
	Snapshot(ctx context.Context, senderID string) (*entities.RecoverySnapshot, error)
	RecordMetricSample(ctx context.Context, senderID string, in services.MetricSampleInput) (*entities.RecoveryMetricSample, error)
}

// RecoveryHandler serves recovery snapshots and metric check-ins
type RecoveryHandler struct {
	service RecoveryService
}

// NewRecoveryHandler creates a new recovery handler
func NewRecoveryHandler(service RecoveryService) *RecoveryHandler {
	return &RecoveryHandler{service: service}
}

type metricSampleRequest struct {
	Date        string   `json:"date"`
	EnergyLevel *int     `json:"energy_level"`
	MoodScore   *int     `json:"mood_score"`
	SleepHours  *float64 `json:"sleep_hours"`
	Notes       string   `json:"notes"`
}

// GetSnapshot handles GET /api/recovery/{senderID}/snapshot
func (h *RecoveryHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	senderID := r.PathValue("senderID")
	if senderID == "" {
		respondWithError(w, http.StatusBadRequest, "sender id is required")
		return
	}

	snapshot, err := h.service.Snapshot(r.Context(), senderID)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, snapshot)
}

// RecordSample handles POST /api/recovery/{senderID}/samples
func (h *RecoveryHandler) RecordSample(w http.ResponseWriter, r *http.Request) {
	senderID := r.PathValue("senderID")
	if senderID == "" {
		respondWithError(w, http.StatusBadRequest, "sender id is required")
		return
	}

	var req metricSampleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.EnergyLevel == nil || req.MoodScore == nil || req.SleepHours == nil {
		respondWithError(w, http.StatusBadRequest, "energy_level, mood_score and sleep_hours are required")
		return
	}

	input := services.MetricSampleInput{
		EnergyLevel: *req.EnergyLevel,
		MoodScore:   *req.MoodScore,
		SleepHours:  *req.SleepHours,
		Notes:       req.Notes,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		input.Date = &date
	}

	sample, err := h.service.RecordMetricSample(r.Context(), senderID, input)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, sample)
}
