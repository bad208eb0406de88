package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/postnatalcare/backend/pkg/config"
	apperrors "github.com/zatekoja/postnatalcare/backend/pkg/errors"
	"github.com/zatekoja/postnatalcare/backend/pkg/retry"
)

func writeMessageID(w http.ResponseWriter, id string) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"` + id + `"}]}`))
}

func testSender(server *httptest.Server) *WhatsAppCloudSender {
	return &WhatsAppCloudSender{
		accessToken:   "test_token",
		phoneNumberID: "123456789",
		httpClient:    server.Client(),
		baseURL:       server.URL,
		retry: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  time.Millisecond,
			MaxDelay:      time.Millisecond,
			BackoffFactor: 1,
		},
	}
}

func TestNewWhatsAppCloudSender(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.WhatsAppConfig
		wantErr bool
	}{
		{"valid credentials", &config.WhatsAppConfig{AccessToken: "t", PhoneNumberID: "1"}, false},
		{"missing access token", &config.WhatsAppConfig{PhoneNumberID: "1"}, true},
		{"missing phone number id", &config.WhatsAppConfig{AccessToken: "t"}, true},
		{"nil config", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender, err := NewWhatsAppCloudSender(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://graph.facebook.com/v21.0", sender.baseURL)
		})
	}
}

func TestWhatsAppCloudSender_SendText(t *testing.T) {
	var got outboundMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/123456789/messages", r.URL.Path)
		assert.Equal(t, "Bearer test_token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeMessageID(w, "wamid.text123")
	}))
	defer server.Close()

	id, err := testSender(server).SendText(context.Background(), "+91 98000-00001", "Rest and monitor how you feel.")

	require.NoError(t, err)
	assert.Equal(t, "wamid.text123", id)
	assert.Equal(t, "text", got.Type)
	assert.Equal(t, "919800000001", got.To)
	require.NotNil(t, got.Text)
	assert.Equal(t, "Rest and monitor how you feel.", got.Text.Body)
	assert.Nil(t, got.Template)
}

func TestWhatsAppCloudSender_SendTextTruncatesLongBodies(t *testing.T) {
	var got outboundMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeMessageID(w, "wamid.long")
	}))
	defer server.Close()

	_, err := testSender(server).SendText(context.Background(), "919800000001", strings.Repeat("आ", maxTextBody+10))

	require.NoError(t, err)
	assert.Equal(t, maxTextBody, utf8.RuneCountInString(got.Text.Body))
}

func TestWhatsAppCloudSender_SendTemplate(t *testing.T) {
	var got outboundMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeMessageID(w, "wamid.tpl")
	}))
	defer server.Close()

	id, err := testSender(server).SendTemplate(context.Background(), "+919800000002", "danger_sign_alert", "hi", []string{"बुखार"})

	require.NoError(t, err)
	assert.Equal(t, "wamid.tpl", id)
	require.NotNil(t, got.Template)
	assert.Equal(t, "danger_sign_alert", got.Template.Name)
	assert.Equal(t, "hi", got.Template.Language.Code)
	require.Len(t, got.Template.Components, 1)
	assert.Equal(t, "बुखार", got.Template.Components[0].Parameters[0].Text)
}

func TestWhatsAppCloudSender_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeMessageID(w, "wamid.retry")
	}))
	defer server.Close()

	id, err := testSender(server).SendText(context.Background(), "+919800000001", "hello")

	require.NoError(t, err)
	assert.Equal(t, "wamid.retry", id)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestWhatsAppCloudSender_RetriesThrottling(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeMessageID(w, "wamid.throttled")
	}))
	defer server.Close()

	id, err := testSender(server).SendText(context.Background(), "+919800000001", "hello")

	require.NoError(t, err)
	assert.Equal(t, "wamid.throttled", id)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWhatsAppCloudSender_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Recipient phone number not in allowed list","code":131030}}`))
	}))
	defer server.Close()

	_, err := testSender(server).SendText(context.Background(), "+919800000001", "hello")

	require.Error(t, err)
	assert.True(t, apperrors.IsExternal(err))
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "not in allowed list (code 131030)")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWhatsAppCloudSender_RejectsInvalidRecipient(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	for _, to := range []string{"bad", "12345", "+91 98000 00001 ext 2", ""} {
		_, err := testSender(server).SendText(context.Background(), to, "hello")
		require.Error(t, err, to)
		assert.Equal(t, "to", apperrors.FieldOf(err), to)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWhatsAppCloudSender_NoMessageID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp"}`))
	}))
	defer server.Close()

	_, err := testSender(server).SendText(context.Background(), "+919800000001", "Test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no message ID in response")
}

func TestWhatsAppCloudSender_NetworkError(t *testing.T) {
	sender := &WhatsAppCloudSender{
		accessToken:   "test_token",
		phoneNumberID: "123456789",
		httpClient:    &http.Client{Timeout: time.Second},
		baseURL:       "http://127.0.0.1:1",
	}

	_, err := sender.SendText(context.Background(), "+919800000001", "Test")
	assert.Error(t, err)
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, retryAfter("3"))
	assert.Zero(t, retryAfter(""))
	assert.Zero(t, retryAfter("Wed, 21 Oct 2015 07:28:00 GMT"))
}
