package pudo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/threepillars/storefront-backend/internal/integrations"
	"github.com/threepillars/storefront-backend/pkg/types"
)

const requestTimeout = 30 * time.Second

// LocationFilter narrows a pickup-point search.
type LocationFilter struct {
	City     string
	Province string
	Search   string
}

// ShipmentRequest is the payload for booking a collection.
type ShipmentRequest struct {
	AccountNumber  string         `json:"account_number"`
	OrderNumber    string         `json:"order_reference"`
	CustomerName   string         `json:"customer_name"`
	CustomerEmail  string         `json:"customer_email"`
	CustomerPhone  string         `json:"customer_phone"`
	DeclaredValue  string         `json:"declared_value"`
	PickupPointID  string         `json:"terminal_id,omitempty"`
	DeliveryMethod string         `json:"service_level"`
	Address        *types.Address `json:"delivery_address,omitempty"`
}

// ShipmentResponse carries the courier identifiers for a booked shipment.
type ShipmentResponse struct {
	WaybillNumber  string `json:"waybill_number"`
	TrackingNumber string `json:"tracking_number"`
	CollectionCode string `json:"collection_code"`
	LabelURL       string `json:"label_url"`
}

// TrackingResult is a shipment's scan history. Found is false for unknown
// waybills instead of an error.
type TrackingResult struct {
	Found  bool                  `json:"found"`
	Events []types.TrackingEvent `json:"events"`
}

// Client is a thin wrapper over the Courier Guy Pudo API. Credentials ride
// per call so each tenant can bring its own account.
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

// SearchLocations lists pickup points matching the filter.
func (c *Client) SearchLocations(ctx context.Context, creds *integrations.CourierCredentials, filter LocationFilter) ([]types.PickupPoint, error) {
	q := url.Values{}
	if filter.City != "" {
		q.Set("city", filter.City)
	}
	if filter.Province != "" {
		q.Set("province", filter.Province)
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}

	endpoint := c.baseURL + "/pudo/terminals"
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var out struct {
		Terminals []types.PickupPoint `json:"terminals"`
	}
	if err := c.do(ctx, creds, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Terminals, nil
}

// GetLocation fetches a single pickup point. Unknown ids surface as a 404
// statusError for the caller to translate.
func (c *Client) GetLocation(ctx context.Context, creds *integrations.CourierCredentials, locationID string) (*types.PickupPoint, error) {
	var out struct {
		Terminal types.PickupPoint `json:"terminal"`
	}
	if err := c.do(ctx, creds, http.MethodGet, c.baseURL+"/pudo/terminals/"+url.PathEscape(locationID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Terminal, nil
}

// CreateShipment books a collection for an order.
func (c *Client) CreateShipment(ctx context.Context, creds *integrations.CourierCredentials, req ShipmentRequest) (*ShipmentResponse, error) {
	req.AccountNumber = creds.AccountNumber

	var out ShipmentResponse
	if err := c.do(ctx, creds, http.MethodPost, c.baseURL+"/shipments", req, &out); err != nil {
		return nil, err
	}
	if out.WaybillNumber == "" {
		return nil, fmt.Errorf("courier response missing waybill number")
	}
	return &out, nil
}

// Track fetches the scan history for a waybill. Unknown waybills come back
// with Found false.
func (c *Client) Track(ctx context.Context, creds *integrations.CourierCredentials, waybillNumber string) (*TrackingResult, error) {
	var out struct {
		Events []types.TrackingEvent `json:"events"`
	}
	err := c.do(ctx, creds, http.MethodGet, c.baseURL+"/shipments/"+url.PathEscape(waybillNumber)+"/tracking", nil, &out)
	if err != nil {
		var status *statusError
		if errors.As(err, &status) && status.code == http.StatusNotFound {
			return &TrackingResult{Found: false}, nil
		}
		return nil, err
	}
	return &TrackingResult{Found: true, Events: out.Events}, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("courier returned %d: %s", e.code, e.body)
}

func (c *Client) do(ctx context.Context, creds *integrations.CourierCredentials, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encoding courier request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("building courier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.APIKey)
	req.Header.Set("X-Api-Secret", creds.APISecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling courier: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading courier response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding courier response: %w", err)
	}
	return nil
}
