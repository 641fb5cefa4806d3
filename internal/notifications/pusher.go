package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/threepillars/storefront-backend/pkg/config"
	"github.com/threepillars/storefront-backend/pkg/db/models"
)

// PushMessage is one notification bound for a single device.
type PushMessage struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Pusher delivers a message to one device token.
type Pusher interface {
	Push(ctx context.Context, device models.Device, msg PushMessage) error
}

// HTTPPusher posts messages to a push relay endpoint.
type HTTPPusher struct {
	httpClient *http.Client
	endpoint   string
	serverKey  string
}

func NewHTTPPusher(cfg config.PushConfig) *HTTPPusher {
	return &HTTPPusher{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   cfg.Endpoint,
		serverKey:  cfg.ServerKey,
	}
}

func (p *HTTPPusher) Push(ctx context.Context, device models.Device, msg PushMessage) error {
	if p.endpoint == "" {
		return fmt.Errorf("push endpoint not configured")
	}

	payload := struct {
		To           string      `json:"to"`
		Platform     string      `json:"platform"`
		Notification PushMessage `json:"notification"`
	}{
		To:           device.Token,
		Platform:     device.Platform.String(),
		Notification: msg,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.serverKey != "" {
		req.Header.Set("Authorization", "key="+p.serverKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling push relay: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push relay returned %d", resp.StatusCode)
	}
	return nil
}

// NoopPusher drops every message. Used when no relay is configured so the
// rest of the pipeline still records delivery intent.
type NoopPusher struct{}

func (NoopPusher) Push(context.Context, models.Device, PushMessage) error {
	return nil
}
