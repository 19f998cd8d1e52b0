package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"
)

const maxBodyPreview = 2000

type WebhookTrigger struct {
	url    string
	client *http.Client
}

func NewWebhookTrigger(url string, timeout time.Duration) *WebhookTrigger {
	tr := &http.Transport{
		IdleConnTimeout:       120 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		TLSHandshakeTimeout:   20 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
	}
	return &WebhookTrigger{
		url: url,
		client: &http.Client{
			Transport: tr,
			Timeout:   timeout,
		},
	}
}

func (w *WebhookTrigger) Name() string {
	return "webhook"
}

// Trigger posts the request and accepts only a 2xx JSON answer.
func (w *WebhookTrigger) Trigger(ctx context.Context, req Request) error {
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/*")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if !isJSON(resp.Header.Get("Content-Type")) {
		return fmt.Errorf("%w: status %d, non-JSON body: %s", ErrUnexpectedResponse, resp.StatusCode, preview(resp.Body))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrUnexpectedResponse, resp.StatusCode, preview(resp.Body))
	}

	var ack json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrUnexpectedResponse, err)
	}
	return nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

func preview(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxBodyPreview))
	return string(body)
}
