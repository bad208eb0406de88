package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	"github.com/zatekoja/postnatalcare/backend/pkg/config"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
	"github.com/zatekoja/postnatalcare/backend/pkg/retry"
)

const (
	defaultGraphURL = "https://graph.facebook.com"
	// maxTextBody is the Cloud API limit for a text message body, in runes.
	maxTextBody = 4096
)

// WhatsAppCloudSender delivers replies and contact alerts through the
// WhatsApp Cloud API.
type WhatsAppCloudSender struct {
	accessToken   string
	phoneNumberID string
	httpClient    *http.Client
	baseURL       string
	retry         retry.Config
}

// NewWhatsAppCloudSender creates a new WhatsApp sender
func NewWhatsAppCloudSender(cfg *config.WhatsAppConfig) (*WhatsAppCloudSender, error) {
	if cfg == nil || cfg.AccessToken == "" || cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("WHATSAPP_ACCESS_TOKEN and WHATSAPP_PHONE_NUMBER_ID must be set")
	}

	version := cfg.APIVersion
	if version == "" {
		version = "v21.0"
	}

	return &WhatsAppCloudSender{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		baseURL:       defaultGraphURL + "/" + version,
		retry:         retry.QuickConfig(),
	}, nil
}

// outboundMessage is the Cloud API message envelope. Exactly one of Text or
// Template is set.
type outboundMessage struct {
	MessagingProduct string        `json:"messaging_product"`
	RecipientType    string        `json:"recipient_type"`
	To               string        `json:"to"`
	Type             string        `json:"type"`
	Text             *textBody     `json:"text,omitempty"`
	Template         *templateBody `json:"template,omitempty"`
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type templateBody struct {
	Name       string              `json:"name"`
	Language   templateLanguage    `json:"language"`
	Components []templateComponent `json:"components,omitempty"`
}

type templateLanguage struct {
	Code string `json:"code"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func newMessage(to, kind string) outboundMessage {
	return outboundMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             kind,
	}
}

// SendText sends a free-form reply. Bodies over the API limit are truncated.
func (w *WhatsAppCloudSender) SendText(ctx context.Context, to, body string) (string, error) {
	recipient, err := normalizeRecipient(to)
	if err != nil {
		return "", err
	}
	msg := newMessage(recipient, "text")
	msg.Text = &textBody{Body: truncateRunes(body, maxTextBody)}
	return w.send(ctx, msg)
}

// SendTemplate sends a pre-approved template with positional body parameters.
func (w *WhatsAppCloudSender) SendTemplate(ctx context.Context, to, templateName, languageCode string, parameters []string) (string, error) {
	recipient, err := normalizeRecipient(to)
	if err != nil {
		return "", err
	}
	tpl := &templateBody{
		Name:     templateName,
		Language: templateLanguage{Code: languageCode},
	}
	if len(parameters) > 0 {
		params := make([]templateParameter, 0, len(parameters))
		for _, p := range parameters {
			params = append(params, templateParameter{Type: "text", Text: p})
		}
		tpl.Components = []templateComponent{{Type: "body", Parameters: params}}
	}

	msg := newMessage(recipient, "template")
	msg.Template = tpl
	return w.send(ctx, msg)
}

func (w *WhatsAppCloudSender) send(ctx context.Context, msg outboundMessage) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", apperrors.NewInternalError("failed to encode WhatsApp message", err)
	}
	endpoint := fmt.Sprintf("%s/%s/messages", w.baseURL, w.phoneNumberID)

	logger := observability.LoggerFromContext(ctx).With().Str("message_type", msg.Type).Logger()
	var messageID string
	err = retry.DoWithLog(ctx, w.retry, "WhatsApp", func() error {
		id, err := w.post(ctx, endpoint, payload)
		if err != nil {
			return err
		}
		messageID = id
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("WhatsApp send failed, retrying")
	})
	if err != nil {
		return "", apperrors.NewExternalError("WhatsApp send failed", err)
	}
	return messageID, nil
}

func (w *WhatsAppCloudSender) post(ctx context.Context, endpoint string, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("WhatsApp API error (status %d): %s", resp.StatusCode, describeGraphError(body))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return "", retry.After(apiErr, retryAfter(resp.Header.Get("Retry-After")))
		case resp.StatusCode >= 500:
			return "", apiErr
		default:
			return "", retry.Permanent(apiErr)
		}
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", retry.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return "", retry.Permanent(fmt.Errorf("no message ID in response"))
	}
	return parsed.Messages[0].ID, nil
}

func describeGraphError(body []byte) string {
	var ge graphError
	if err := json.Unmarshal(body, &ge); err == nil && ge.Error.Message != "" {
		return fmt.Sprintf("%s (code %d)", ge.Error.Message, ge.Error.Code)
	}
	return truncateRunes(strings.TrimSpace(string(body)), 256)
}

func retryAfter(header string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// normalizeRecipient reduces a phone number to the digits-only international
// form the Cloud API expects.
func normalizeRecipient(phone string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", apperrors.NewFieldError("to", "must be a phone number")
		}
	}
	digits := b.String()
	if len(digits) < 8 || len(digits) > 15 {
		return "", apperrors.NewFieldError("to", "must have between 8 and 15 digits")
	}
	return digits, nil
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
