package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/application/services"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
)

// ProfileService defines the profile operations used by the handler.
type ProfileService interface {
	GetProfile(ctx context.Context, senderID string) (*entities.SenderProfile, error)
	UpdateProfile(ctx context.Context, senderID string, update services.ProfileUpdate) (*entities.SenderProfile, error)
	AddEmergencyContact(ctx context.Context, senderID string, in services.ContactInput) (*entities.EmergencyContact, error)
	ListEmergencyContacts(ctx context.Context, senderID string) ([]*entities.EmergencyContact, error)
}

// ProfileHandler manages sender profiles and emergency contacts
type ProfileHandler struct {
	service ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

type profileRequest struct {
	PreferredLanguage *string `json:"preferred_language"`
	DeliveryType      *string `json:"delivery_type"`
	DeliveryDate      *string `json:"delivery_date"`
	ConsentGiven      *bool   `json:"consent_given"`
}

type contactRequest struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// GetProfile handles GET /api/profiles/{senderID}
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.GetProfile(r.Context(), r.PathValue("senderID"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/profiles/{senderID}
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	update := services.ProfileUpdate{
		PreferredLanguage: req.PreferredLanguage,
		DeliveryType:      req.DeliveryType,
		ConsentGiven:      req.ConsentGiven,
	}
	if req.DeliveryDate != nil && *req.DeliveryDate != "" {
		date, err := time.Parse("2006-01-02", *req.DeliveryDate)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "delivery_date must be YYYY-MM-DD")
			return
		}
		update.DeliveryDate = &date
	}

	profile, err := h.service.UpdateProfile(r.Context(), r.PathValue("senderID"), update)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// AddContact handles POST /api/profiles/{senderID}/contacts
func (h *ProfileHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	contact, err := h.service.AddEmergencyContact(r.Context(), r.PathValue("senderID"), services.ContactInput{
		Name:         req.Name,
		Phone:        req.Phone,
		Relationship: req.Relationship,
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, contact)
}

// ListContacts handles GET /api/profiles/{senderID}/contacts
func (h *ProfileHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.ListEmergencyContacts(r.Context(), r.PathValue("senderID"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"contacts": contacts,
		"count":    len(contacts),
	})
}
