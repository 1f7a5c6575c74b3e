// Package platform is the client for the remote learning-platform API.
// All category content lives upstream; the panel only renders it.
package platform

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boldtribe/kids-admin/internal/config"
	"github.com/boldtribe/kids-admin/internal/store"
)

// ErrUnauthorized is returned when an authenticated call comes back 401.
// The stored token has already been cleared by then.
var ErrUnauthorized = errors.New("authentication required")

// StatusError reports a non-2xx response other than 401.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

const requestTimeout = 30 * time.Second

// Client issues requests against the platform API. Requests carry the
// persisted bearer token; failed calls are retried once against the
// fallback origin without credentials, when one is configured.
type Client struct {
	BaseURL     string
	FallbackURL string
	DB          *sql.DB
	HTTPClient  *http.Client

	// OnUnauthorized is notified whenever an authenticated call comes
	// back 401 and the stored token has been cleared.
	OnUnauthorized func()
}

// NewClient creates a platform client from configuration.
func NewClient(cfg *config.Config, database *sql.DB) *Client {
	return &Client{
		BaseURL:     cfg.APIBaseURL,
		FallbackURL: cfg.APIFallbackURL,
		DB:          database,
		HTTPClient:  &http.Client{Timeout: requestTimeout},
	}
}

// send performs a request against the primary origin and, on failure,
// retries once against the fallback origin. The original error wins
// when the retry fails too.
func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte) ([]byte, error) {
	data, err := c.attempt(ctx, method, c.BaseURL+path, contentType, body, true)
	if err == nil {
		return data, nil
	}

	if c.FallbackURL == "" || c.FallbackURL == c.BaseURL {
		return nil, err
	}

	slog.Warn("primary request failed, retrying against fallback origin",
		"method", method, "path", path, "error", err)
	data, retryErr := c.attempt(ctx, method, c.FallbackURL+path, contentType, body, false)
	if retryErr != nil {
		return nil, err
	}
	return data, nil
}

// attempt performs a single HTTP call. Authenticated attempts attach the
// persisted bearer token; a 401 clears it and notifies the session.
func (c *Client) attempt(ctx context.Context, method, rawURL, contentType string, body []byte, authed bool) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		token, err := store.GetToken(ctx, c.DB)
		if err != nil {
			return nil, fmt.Errorf("reading stored token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if authed && resp.StatusCode == http.StatusUnauthorized {
		c.clearSession(ctx)
		return nil, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	return data, nil
}

// clearSession drops the stored token and tells the session about it.
// Token writes are idempotent last-write-wins, so concurrent 401s from
// different screens are harmless.
func (c *Client) clearSession(ctx context.Context) {
	if err := store.RemoveToken(ctx, c.DB); err != nil {
		slog.Error("failed to clear stored token", "error", err)
	}
	if c.OnUnauthorized != nil {
		c.OnUnauthorized()
	}
}

// ResolveMediaURL qualifies a possibly-relative media URL against the
// API origin so previews render from any screen.
func (c *Client) ResolveMediaURL(raw string) string {
	if raw == "" ||
		strings.HasPrefix(raw, "http://") ||
		strings.HasPrefix(raw, "https://") ||
		strings.HasPrefix(raw, "data:") {
		return raw
	}

	base, err := url.Parse(c.BaseURL)
	if err != nil || base.Host == "" {
		return raw
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	origin := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
	return origin.ResolveReference(ref).String()
}
