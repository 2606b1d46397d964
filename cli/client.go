package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// Client calls the assistant API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// APIError is a non-2xx answer that carries no turn envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// Turn sends one message. A throttled turn still returns its envelope.
func (c *Client) Turn(ctx context.Context, req domain.TurnRequest) (*domain.TurnResponse, error) {
	var resp domain.TurnResponse
	status, err := c.do(ctx, http.MethodPost, "/v1/assistant/turn", req, &resp)
	if err != nil && status != http.StatusTooManyRequests {
		return nil, err
	}
	return &resp, nil
}

// Confirm accepts or declines a pending confirmation.
func (c *Client) Confirm(ctx context.Context, req domain.ConfirmRequest) (*domain.ConfirmResponse, error) {
	var resp domain.ConfirmResponse
	if _, err := c.do(ctx, http.MethodPost, "/v1/assistant/confirm", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Tools fetches the tool catalog.
func (c *Client) Tools(ctx context.Context) ([]domain.ToolInfo, error) {
	var resp struct {
		Tools []domain.ToolInfo `json:"tools"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/v1/tools", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// do sends a JSON request and decodes the answer into out. On a non-2xx
// status out is still filled when the body decodes, and an *APIError is returned.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: apiErr.Error}
		}
		_ = json.Unmarshal(data, out)
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
