package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/postnatalcare/backend/internal/domain/entities"
	"github.com/zatekoja/postnatalcare/backend/internal/domain/providers"
	"github.com/zatekoja/postnatalcare/backend/internal/infrastructure/observability"
	"github.com/zatekoja/postnatalcare/backend/pkg/config"
	"github.com/zatekoja/postnatalcare/backend/pkg/retry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

var errMissingOutput = errors.New("openai response missing output text")

// Client implements providers.InsightProvider over the OpenAI responses API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *tokenBucket
	retry      retry.Config
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      orDefault(cfg.Model, defaultModel),
		baseURL:    strings.TrimRight(orDefault(cfg.BaseURL, defaultBaseURL), "/"),
		httpClient: &http.Client{Timeout: 20 * time.Second},
		limiter:    newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst),
		retry:      retry.QuickConfig(),
	}, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Name identifies the provider in logs and metrics.
func (c *Client) Name() string {
	return "openai"
}

// Close stops the rate limiter refill goroutine.
func (c *Client) Close() {
	if c.limiter != nil {
		c.limiter.Stop()
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string        `json:"model"`
	Input           []chatMessage `json:"input"`
	Temperature     float64       `json:"temperature"`
	MaxOutputTokens int           `json:"max_output_tokens"`
}

type responseContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseOutput struct {
	Content []responseContent `json:"content"`
}

type responseEnvelope struct {
	Output []responseOutput `json:"output"`
}

// Enrich asks the model for short supplementary insights for the context.
// Throttling and server errors are retried; bad credentials are not.
func (c *Client) Enrich(ctx context.Context, in entities.InsightContext) ([]entities.Insight, error) {
	if in.SenderID == "" {
		return nil, errors.New("insight context requires a sender")
	}

	body, err := json.Marshal(responsesRequest{
		Model: c.model,
		Input: []chatMessage{
			{Role: "system", Content: insightSystemPrompt},
			{Role: "user", Content: buildInsightUserPrompt(in)},
		},
		Temperature:     0.3,
		MaxOutputTokens: 500,
	})
	if err != nil {
		return nil, err
	}

	logger := observability.SenderLogger(ctx, in.SenderID)
	var text string
	err = retry.DoWithLog(ctx, c.retry, "OpenAI", func() error {
		out, err := c.call(ctx, body)
		if err != nil {
			return err
		}
		text = out
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("openai request failed, retrying")
	})
	if err != nil {
		return nil, err
	}

	insights, err := parseInsightPayload([]byte(stripCodeFence(text)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse openai response: %w", err)
	}
	return insights, nil
}

// call performs one rate-limited request and returns the first output text.
func (c *Client) call(ctx context.Context, body []byte) (string, error) {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordOpenAIMetric(ctx, c.model, 0, 0, err)
			return "", retry.Permanent(err)
		}
		recordOpenAIRateLimitWait(ctx, c.model, time.Since(waitStart))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		recordOpenAIMetric(ctx, c.model, 0, time.Since(start), err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		statusErr := fmt.Errorf("openai request failed with status %d", resp.StatusCode)
		recordOpenAIMetric(ctx, c.model, resp.StatusCode, time.Since(start), statusErr)
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return "", retry.Permanent(fmt.Errorf("%w: %v", providers.ErrInsightProviderUnauthorized, statusErr))
		case resp.StatusCode == http.StatusTooManyRequests:
			return "", retry.After(statusErr, retryAfterSeconds(resp.Header.Get("Retry-After")))
		case resp.StatusCode >= 500:
			return "", statusErr
		default:
			return "", retry.Permanent(statusErr)
		}
	}

	var envelope responseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordOpenAIMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return "", retry.Permanent(err)
	}
	text := firstOutputText(envelope)
	if text == "" {
		recordOpenAIMetric(ctx, c.model, resp.StatusCode, time.Since(start), errMissingOutput)
		return "", retry.Permanent(errMissingOutput)
	}

	recordOpenAIMetric(ctx, c.model, resp.StatusCode, time.Since(start), nil)
	return text, nil
}

func retryAfterSeconds(header string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func firstOutputText(envelope responseEnvelope) string {
	for _, out := range envelope.Output {
		for _, content := range out.Content {
			if content.Type == "output_text" && content.Text != "" {
				return content.Text
			}
		}
	}
	return ""
}

func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(cleaned, "```"); ok {
		rest = strings.TrimPrefix(rest, "json")
		cleaned = strings.TrimSuffix(rest, "```")
	}
	return strings.TrimSpace(cleaned)
}
