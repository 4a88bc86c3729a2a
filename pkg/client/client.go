package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Client is a Go SDK for interview-engine API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new interview-engine client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StartInterview creates a new interview session and returns the first
// question
func (c *Client) StartInterview(ctx context.Context, cfg models.InterviewConfig) (*models.StartInterviewResponse, error) {
	body, err := json.Marshal(models.StartInterviewRequest{Config: cfg})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "POST", "/api/v1/interviews", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool                           `json:"success"`
		Data    *models.StartInterviewResponse `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// SubmitAnswer submits an answer to the pending question
func (c *Client) SubmitAnswer(ctx context.Context, id, answer string) (*models.SubmitAnswerResponse, error) {
	body, err := json.Marshal(models.SubmitAnswerRequest{Answer: answer})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, "POST", fmt.Sprintf("/api/v1/interviews/%s/answers", id), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool                         `json:"success"`
		Data    *models.SubmitAnswerResponse `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// GetInterview retrieves the full session state by ID
func (c *Client) GetInterview(ctx context.Context, id string) (*models.Session, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/interviews/%s", id), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    *models.Session `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// GetReport retrieves the final report for a completed interview
func (c *Client) GetReport(ctx context.Context, id string) (*models.Report, error) {
	resp, err := c.doRequest(ctx, "GET", fmt.Sprintf("/api/v1/interviews/%s/report", id), nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool           `json:"success"`
		Data    *models.Report `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data, nil
}

// DeleteInterview removes an interview session
func (c *Client) DeleteInterview(ctx context.Context, id string) error {
	resp, err := c.doRequest(ctx, "DELETE", fmt.Sprintf("/api/v1/interviews/%s", id), nil)
	if err != nil {
		return err
	}

	var result struct {
		Success bool `json:"success"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return nil
}

// ListInterviews retrieves interview summaries, newest first
func (c *Client) ListInterviews(ctx context.Context, limit, offset int) ([]models.Summary, error) {
	path := "/api/v1/interviews?"
	if limit > 0 {
		path += fmt.Sprintf("limit=%d&", limit)
	}
	if offset > 0 {
		path += fmt.Sprintf("offset=%d&", offset)
	}

	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Interviews []models.Summary `json:"interviews"`
			Total      int              `json:"total"`
		} `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
	}

	return result.Data.Interviews, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
