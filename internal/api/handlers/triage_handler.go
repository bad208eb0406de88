package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
)

const (
	triageSenderLimit  = 20
	triageSenderWindow = time.Minute
)

// TriageHandler exposes the in-app triage path. Replies are returned in the
// response body and never sent over the messaging transport.
type TriageHandler struct {
	service TriageService
	limiter *senderLimiter
}

// NewTriageHandler creates a new triage handler
func NewTriageHandler(service TriageService, cache providers.CacheProvider) *TriageHandler {
	return &TriageHandler{
		service: service,
		limiter: newSenderLimiter(cache, "triage", triageSenderLimit, triageSenderWindow),
	}
}

type triageRequest struct {
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
}

// Triage handles POST /api/triage
func (h *TriageHandler) Triage(w http.ResponseWriter, r *http.Request) {
	var req triageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.SenderID = strings.TrimSpace(req.SenderID)
	if req.SenderID == "" {
		respondWithError(w, http.StatusBadRequest, "sender_id is required")
		return
	}

	if ok, retryAfter := h.limiter.allow(r.Context(), req.SenderID); !ok && !h.service.IsUrgent(req.Text) {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		respondWithError(w, http.StatusTooManyRequests, "too many messages, please slow down")
		return
	}

	result, err := h.service.HandleInbound(r.Context(), entities.InboundMessage{
		SenderID:  req.SenderID,
		Text:      req.Text,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
