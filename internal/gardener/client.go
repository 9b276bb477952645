// Package gardener wraps the AI gardening-chat API. Access tokens are
// short-lived OAuth tokens cached in-process with an explicit expiry.
package gardener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"plantbot/internal/metrics"
)

// Client provides access to the gardening chat completion API.
type Client struct {
	logger      *slog.Logger
	authURL     string
	baseURL     string
	credentials string
	scope       string
	model       string
	http        *http.Client
	metrics     *metrics.Metrics

	mu    sync.Mutex
	token tokenEntry
}

// tokenEntry is a cached access token with its expiry.
type tokenEntry struct {
	value     string
	expiresAt time.Time
}

func (t tokenEntry) valid(now time.Time) bool {
	return t.value != "" && now.Before(t.expiresAt)
}

// Config holds gardener client configuration.
type Config struct {
	AuthURL     string
	BaseURL     string
	Credentials string
	Scope       string
	Model       string
	Timeout     time.Duration
}

// New creates a gardener chat client.
func New(cfg Config, logger *slog.Logger, metricRegistry *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		logger:      logger.With("component", "gardener"),
		authURL:     cfg.AuthURL,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		credentials: cfg.Credentials,
		scope:       cfg.Scope,
		model:       cfg.Model,
		http:        &http.Client{Timeout: timeout},
		metrics:     metricRegistry,
	}
}

const systemPrompt = "You are an experienced gardener. Answer questions about houseplant care briefly and practically."

// Ask sends a single question and returns the assistant's answer.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		c.metrics.GardenerRequests.WithLabelValues("auth_error").Inc()
		return "", err
	}

	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": question},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.GardenerRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GardenerRequests.WithLabelValues("error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.metrics.GardenerRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		c.metrics.GardenerRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("chat response has no choices")
	}

	c.metrics.GardenerRequests.WithLabelValues("ok").Inc()
	return parsed.Choices[0].Message.Content, nil
}

// accessToken returns the cached token, refreshing it when expired. The
// check-and-refresh runs under the mutex so concurrent callers never race
// two refreshes.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.token.valid(now) {
		return c.token.value, nil
	}

	form := url.Values{"scope": {c.scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+c.credentials)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"` // unix milliseconds
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("token response has no access token")
	}

	c.token = tokenEntry{
		value:     parsed.AccessToken,
		expiresAt: time.UnixMilli(parsed.ExpiresAt),
	}
	c.logger.Debug("gardener token refreshed", "expires_at", c.token.expiresAt)
	return c.token.value, nil
}
