package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
)

const (
	webhookDedupWindow  = 24 * time.Hour
	webhookSenderLimit  = 30
	webhookSenderWindow = time.Minute
	signatureHeader     = "X-Hub-Signature-256"
)

// TriageService answers inbound messages.
type TriageService interface {
	HandleInbound(ctx context.Context, msg entities.InboundMessage) (*entities.TriageResult, error)
	IsUrgent(text string) bool
}

type messageOutcome int

const (
	messageSkipped messageOutcome = iota
	messageProcessed
	messageFailed
)

// WhatsAppWebhookHandler receives WhatsApp Cloud API webhooks and replies
// through the message sender.
type WhatsAppWebhookHandler struct {
	triage      TriageService
	sender      providers.MessageSender
	verifyToken string
	appSecret   string
	deduper     *messageDeduper
	limiter     *senderLimiter
}

// NewWhatsAppWebhookHandler creates a new webhook handler. sender may be nil,
// in which case replies are computed and logged but not delivered.
func NewWhatsAppWebhookHandler(
	triage TriageService,
	sender providers.MessageSender,
	cache providers.CacheProvider,
	verifyToken, appSecret string,
) *WhatsAppWebhookHandler {
	return &WhatsAppWebhookHandler{
		triage:      triage,
		sender:      sender,
		verifyToken: verifyToken,
		appSecret:   appSecret,
		deduper:     newMessageDeduper(cache, webhookDedupWindow),
		limiter:     newSenderLimiter(cache, "webhook", webhookSenderLimit, webhookSenderWindow),
	}
}

type webhookPayload struct {
	Object string         `json:"object"`
	Entry  []webhookEntry `json:"entry"`
}

type webhookEntry struct {
	ID      string          `json:"id"`
	Changes []webhookChange `json:"changes"`
}

type webhookChange struct {
	Field string       `json:"field"`
	Value webhookValue `json:"value"`
}

type webhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []webhookMessage `json:"messages"`
}

type webhookMessage struct {
	From      string       `json:"from"`
	ID        string       `json:"id"`
	Timestamp string       `json:"timestamp"`
	Type      string       `json:"type"`
	Text      *webhookText `json:"text,omitempty"`
}

type webhookText struct {
	Body string `json:"body"`
}

// Verify handles GET /webhooks/whatsapp subscription challenges
func (h *WhatsAppWebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if h.verifyToken == "" || q.Get("hub.mode") != "subscribe" ||
		!hmac.Equal([]byte(q.Get("hub.verify_token")), []byte(h.verifyToken)) {
		respondWithError(w, http.StatusForbidden, "verification failed")
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// Receive handles POST /webhooks/whatsapp. It answers 500 when any message
// failed triage so the platform redelivers the payload; messages that were
// already processed are then skipped as duplicates. Reply delivery failures
// are logged and still acknowledged.
func (h *WhatsAppWebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerFromContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if h.appSecret != "" && !h.verifySignature(body, r.Header.Get(signatureHeader)) {
		logger.Warn().Msg("rejected webhook with invalid signature")
		respondWithError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	processed, failed := 0, 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				switch h.handleMessage(ctx, msg) {
				case messageProcessed:
					processed++
				case messageFailed:
					failed++
				}
			}
		}
	}

	if failed > 0 {
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status":    "retry",
			"processed": processed,
			"failed":    failed,
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "received",
		"processed": processed,
	})
}

func (h *WhatsAppWebhookHandler) handleMessage(ctx context.Context, msg webhookMessage) messageOutcome {
	logger := observability.SenderLogger(ctx, msg.From)

	if msg.Type != "text" || msg.Text == nil || strings.TrimSpace(msg.Text.Body) == "" {
		logger.Debug().Str("type", msg.Type).Msg("ignoring non-text message")
		return messageSkipped
	}
	if msg.ID != "" && !h.deduper.claim(ctx, msg.ID) {
		logger.Info().Str("message_id", msg.ID).Msg("duplicate delivery ignored")
		return messageSkipped
	}
	if ok, _ := h.limiter.allow(ctx, msg.From); !ok {
		if !h.triage.IsUrgent(msg.Text.Body) {
			logger.Warn().Msg("sender over rate limit, message dropped")
			return messageSkipped
		}
		logger.Warn().Msg("sender over rate limit, urgent message let through")
	}

	result, err := h.triage.HandleInbound(ctx, entities.InboundMessage{
		SenderID:  msg.From,
		Text:      msg.Text.Body,
		Timestamp: parseUnixTimestamp(msg.Timestamp),
	})
	if err != nil {
		if apperrors.IsValidation(err) {
			logger.Warn().Err(err).Str("message_id", msg.ID).Msg("rejected inbound message")
			return messageSkipped
		}
		logger.Error().Err(err).Str("message_id", msg.ID).Msg("failed to triage inbound message")
		if msg.ID != "" {
			h.deduper.release(ctx, msg.ID)
		}
		return messageFailed
	}

	if h.sender == nil {
		logger.Info().Str("kind", string(result.Kind)).Msg("reply computed, no sender configured")
		return messageProcessed
	}
	if _, err := h.sender.SendText(ctx, msg.From, result.Message); err != nil {
		logger.Error().Err(err).Str("message_id", msg.ID).Msg("failed to deliver reply")
	}
	return messageProcessed
}

func (h *WhatsAppWebhookHandler) verifySignature(body []byte, header string) bool {
	signature, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

func parseUnixTimestamp(value string) time.Time {
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil || secs <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}
