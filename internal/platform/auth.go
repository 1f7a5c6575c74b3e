package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/boldtribe/kids-admin/internal/model"
)

// ErrAuthFailed is returned when the login endpoint rejects the
// credentials or its response carries no usable token.
var ErrAuthFailed = errors.New("authentication failed")

// LoginResult is a successful login: the bearer token plus the admin
// profile extracted from the response.
type LoginResult struct {
	Token   string
	Profile model.Profile
}

// Login posts credentials to the admin login endpoint and extracts the
// token and profile from whichever nesting the server used. Login never
// uses the fallback origin and sends no bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/auth/admin/login", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading login response: %w", err)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		body = nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg, _ := body["message"].(string); msg != "" {
			return nil, fmt.Errorf("%w: %s", ErrAuthFailed, msg)
		}
		return nil, fmt.Errorf("%w: login failed with status %d", ErrAuthFailed, resp.StatusCode)
	}

	token := extractToken(body)
	if token == "" {
		return nil, fmt.Errorf("%w: no authentication token received", ErrAuthFailed)
	}

	return &LoginResult{
		Token:   token,
		Profile: model.ProfileFromLogin(body, username),
	}, nil
}

// extractToken searches the documented nesting paths for the bearer
// token: token/accessToken/access_token at top level, then the same
// keys under a data wrapper.
func extractToken(body map[string]any) string {
	if body == nil {
		return ""
	}

	keys := []string{"token", "accessToken", "access_token"}

	for _, key := range keys {
		if token, ok := body[key].(string); ok && token != "" {
			return token
		}
	}
	if wrapped, ok := body["data"].(map[string]any); ok {
		for _, key := range keys {
			if token, ok := wrapped[key].(string); ok && token != "" {
				return token
			}
		}
	}
	return ""
}
