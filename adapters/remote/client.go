package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"windaep/domain/core"
	"windaep/ports"
)

// IntegratePath is the endpoint served by internal/api
const IntegratePath = "/v1/integrate"

// Config holds remote solver connection settings
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.ExternalSolver over HTTP/JSON
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.ExternalSolver = (*Client)(nil)

// NewClient creates a remote solver client
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, core.NewInvalidOptionError("base_url", cfg.BaseURL)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Name returns the solver name
func (c *Client) Name() string {
	return "remote"
}

// Solve posts the request and decodes the integrated value
func (c *Client) Solve(ctx context.Context, req ports.IntegrationRequest) (ports.IntegrationResponse, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return ports.IntegrationResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+IntegratePath, bytes.NewReader(raw))
	if err != nil {
		return ports.IntegrationResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return ports.IntegrationResponse{}, core.NewExternalToolError(c.Name(), fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.IntegrationResponse{}, core.NewExternalToolError(c.Name(), fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ports.IntegrationResponse{}, core.NewExternalToolError(c.Name(),
			fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(respRaw))))
	}

	var decoded integrateResponse
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return ports.IntegrationResponse{}, core.NewExternalToolError(c.Name(),
			fmt.Errorf("%w: unmarshal response: %v", core.ErrResultInvalid, err))
	}
	if decoded.Value == nil {
		return ports.IntegrationResponse{}, core.NewExternalToolError(c.Name(),
			fmt.Errorf("%w: response has no value", core.ErrResultInvalid))
	}
	if math.IsNaN(*decoded.Value) || math.IsInf(*decoded.Value, 0) {
		return ports.IntegrationResponse{}, core.NewExternalToolError(c.Name(),
			fmt.Errorf("%w: non-finite value %v", core.ErrResultInvalid, *decoded.Value))
	}
	return ports.IntegrationResponse{ID: decoded.ID, Value: *decoded.Value}, nil
}

// integrateResponse distinguishes a missing value from zero
type integrateResponse struct {
	ID    core.RequestID `json:"id"`
	Value *float64       `json:"value"`
}
