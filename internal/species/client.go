// Package species wraps the external species-search API behind a small
// request/response client with Redis-backed result caching.
package species

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"

	"plantbot/internal/cache"
	"plantbot/internal/metrics"
)

const defaultCacheTTL = 24 * time.Hour

// Client provides typed access to the species search API.
type Client struct {
	logger   *slog.Logger
	baseURL  string
	apiKey   string
	http     *http.Client
	metrics  *metrics.Metrics
	cache    *cache.Redis
	cacheTTL time.Duration
}

// Config holds species client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Species is the subset of the API response the bot surfaces.
type Species struct {
	CommonName     string `json:"common_name"`
	ScientificName string `json:"scientific_name"`
	Family         string `json:"family_common_name"`
	ImageURL       string `json:"image_url"`
}

// New creates a species search client.
func New(cfg Config, logger *slog.Logger, metricRegistry *metrics.Metrics, redis *cache.Redis) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://trefle.io/api/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		logger:   logger.With("component", "species"),
		baseURL:  base,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		metrics:  metricRegistry,
		cache:    redis,
		cacheTTL: defaultCacheTTL,
	}
}

// Search returns the best match for the query, or nil when nothing matched.
// Results are cached by normalised query.
func (c *Client) Search(ctx context.Context, query string) (*Species, error) {
	key := "species:" + strings.ToLower(strings.TrimSpace(query))
	if c.cache != nil {
		var cached Species
		if ok, err := c.cache.GetJSON(ctx, key, &cached); err != nil {
			c.logger.Warn("species cache read failed", "error", err)
		} else if ok {
			return &cached, nil
		}
	}

	endpoint := fmt.Sprintf("%s/species/search?q=%s&token=%s",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(c.apiKey))

	started := time.Now()
	sp, err := c.fetch(ctx, endpoint)
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.SpeciesRequests.WithLabelValues(status).Inc()
	c.metrics.SpeciesLatency.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, err
	}

	if sp != nil && c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, sp, c.cacheTTL); err != nil {
			c.logger.Warn("species cache write failed", "error", err)
		}
	}
	return sp, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*Species, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build species request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("species request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("species api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Data []Species `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode species response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil, nil
	}
	return &envelope.Data[0], nil
}
