package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/scriptforge/internal/models"
)

var ErrHelpNotConfigured = errors.New("help webhook not configured")

type HelpRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// HelpReply is the upstream answer relayed to the caller unchanged.
type HelpReply struct {
	StatusCode int
	Body       json.RawMessage
}

// HelpForwarder relays contact requests to the help webhook.
type HelpForwarder struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewHelpForwarder(url string, logger *zap.Logger) *HelpForwarder {
	return &HelpForwarder{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

func (f *HelpForwarder) Forward(ctx context.Context, req HelpRequest) (*HelpReply, error) {
	var missing []string
	if strings.TrimSpace(req.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(req.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, &models.ValidationError{Fields: missing}
	}

	if f.url == "" {
		return nil, ErrHelpNotConfigured
	}

	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		f.logger.Error("Help webhook request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read help response: %v", models.ErrUpstreamUnavailable, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: help webhook returned non-JSON body (status %d)", models.ErrUpstreamUnavailable, resp.StatusCode)
	}

	return &HelpReply{StatusCode: resp.StatusCode, Body: body}, nil
}
