package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/forestbush/bushel/internal/engine"
	"github.com/forestbush/bushel/internal/store"
)

// Client is an HTTP client for the bushel API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateRequest is the payload for creating a flag.
type CreateRequest struct {
	Key         string          `json:"key"`
	Description string          `json:"description,omitempty"`
	Enabled     *bool           `json:"enabled,omitempty"`
	Rules       json.RawMessage `json:"rules,omitempty"`
}

// UpdateRequest is the payload for a partial flag update. Nil fields are
// left unchanged; a JSON null in Rules clears the rules.
type UpdateRequest struct {
	Description *string         `json:"description,omitempty"`
	Enabled     *bool           `json:"enabled,omitempty"`
	Rules       json.RawMessage `json:"rules,omitempty"`
}

func (c *Client) do(req *http.Request, okStatuses ...int) (*http.Response, error) {
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	for _, status := range okStatuses {
		if resp.StatusCode == status {
			return resp, nil
		}
	}

	defer resp.Body.Close()
	bodyBytes, _ := io.ReadAll(resp.Body)
	return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
}

// CreateFlag creates a new flag
func (c *Client) CreateFlag(ctx context.Context, params CreateRequest) (*store.Flag, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/admin/flags", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var flag store.Flag
	if err := json.NewDecoder(resp.Body).Decode(&flag); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &flag, nil
}

// GetFlag retrieves a single flag by key
func (c *Client) GetFlag(ctx context.Context, key string) (*store.Flag, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/v1/admin/flags/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var flag store.Flag
	if err := json.NewDecoder(resp.Body).Decode(&flag); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &flag, nil
}

// ListFlags retrieves all flags
func (c *Client) ListFlags(ctx context.Context) ([]store.Flag, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/v1/admin/flags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var flags []store.Flag
	if err := json.NewDecoder(resp.Body).Decode(&flags); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return flags, nil
}

// UpdateFlag applies a partial update to an existing flag
func (c *Client) UpdateFlag(ctx context.Context, key string, params UpdateRequest) (*store.Flag, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PATCH", c.BaseURL+"/v1/admin/flags/"+url.PathEscape(key), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var flag store.Flag
	if err := json.NewDecoder(resp.Body).Decode(&flag); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &flag, nil
}

// DeleteFlag deletes a flag
func (c *Client) DeleteFlag(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.BaseURL+"/v1/admin/flags/"+url.PathEscape(key), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req, http.StatusNoContent)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Evaluate evaluates a flag for the given caller. An empty callerID requests
// an anonymous evaluation.
func (c *Client) Evaluate(ctx context.Context, key, callerID string) (*engine.Result, error) {
	u, err := url.Parse(c.BaseURL + "/v1/evaluate/" + url.PathEscape(key))
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	if callerID != "" {
		q := u.Query()
		q.Set("callerId", callerID)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result engine.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}
