// Package apiclient talks to the ScriptForge HTTP API and maps its failures
// back onto the models sentinel errors.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ifuryst/scriptforge/internal/models"
	"github.com/ifuryst/scriptforge/internal/script"
)

// RateLimitMessage is shown when the server answers 429 without a body.
const RateLimitMessage = "Rate limit: Max 10 submissions per hour. Please try again later."

type SubmitRequest struct {
	SourceURL    string `json:"source_url"`
	SourceType   string `json:"source_type"`
	Category     string `json:"category,omitempty"`
	Requirements string `json:"requirements"`
	OutputType   string `json:"output_type,omitempty"`
	Tone         string `json:"tone,omitempty"`
	ClientToken  string `json:"client_token"`
}

type SubmitResponse struct {
	JobID      string                  `json:"job_id"`
	Status     models.SubmissionStatus `json:"status"`
	ETASeconds int                     `json:"eta_seconds"`
}

type HelpRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// APIError is a non-2xx answer. It unwraps to the sentinel matching its
// status code so callers can branch with errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return models.ErrValidation
	case e.StatusCode == http.StatusNotFound:
		return models.ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests:
		return models.ErrRateLimited
	case e.StatusCode >= 500:
		return models.ErrUpstreamUnavailable
	}
	return nil
}

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	var resp SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/submit", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Status(ctx context.Context, jobID string) (*models.JobStatus, error) {
	var resp models.JobStatus
	if err := c.do(ctx, http.MethodGet, "/status/"+url.PathEscape(jobID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Script(ctx context.Context, scriptID string) (*script.Script, error) {
	var resp script.Script
	if err := c.do(ctx, http.MethodGet, "/script/"+url.PathEscape(scriptID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Help(ctx context.Context, req HelpRequest) error {
	return c.do(ctx, http.MethodPost, "/help", req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", models.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", models.ErrUpstreamUnavailable, err)
	}
	return nil
}

func newAPIError(status int, body []byte) error {
	var payload struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	_ = json.Unmarshal(body, &payload)

	msg := payload.Error
	if payload.Details != "" {
		msg = msg + ": " + payload.Details
	}
	if msg == "" && status == http.StatusTooManyRequests {
		msg = RateLimitMessage
	}
	return &APIError{StatusCode: status, Message: msg}
}
