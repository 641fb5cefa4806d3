package yoco

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 30 * time.Second

// CheckoutRequest is the body for POST /checkouts. Amount is in minor
// currency units (cents).
type CheckoutRequest struct {
	Amount     int64             `json:"amount"`
	Currency   string            `json:"currency"`
	SuccessURL string            `json:"successUrl,omitempty"`
	CancelURL  string            `json:"cancelUrl,omitempty"`
	FailureURL string            `json:"failureUrl,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// CheckoutResponse is Yoco's view of a created checkout session.
type CheckoutResponse struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirectUrl"`
	Status      string `json:"status"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Message     string `json:"message"`
}

// Client is a thin wrapper over the Yoco checkout API. Yoco publishes no Go
// SDK, so requests are assembled by hand. Credentials are passed per call;
// each tenant may use its own secret key.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    baseURL,
	}
}

// CreateCheckout opens a hosted checkout session.
func (c *Client) CreateCheckout(ctx context.Context, secretKey string, req CheckoutRequest) (*CheckoutResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling yoco: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading yoco response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && (apiErr.Description != "" || apiErr.Message != "") {
			msg := apiErr.Description
			if msg == "" {
				msg = apiErr.Message
			}
			return nil, fmt.Errorf("yoco returned %d: %s", resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("yoco returned %d", resp.StatusCode)
	}

	var out CheckoutResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding yoco response: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("yoco response missing checkout id")
	}
	return &out, nil
}
