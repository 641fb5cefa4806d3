package yoco

import "encoding/json"

// Webhook event types Yoco delivers for checkout payments.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// Event is the envelope Yoco posts to the webhook endpoint.
type Event struct {
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Payload EventPayload `json:"payload"`
}

// EventPayload carries the payment detail. Amount is in minor currency
// units, matching what checkout creation submitted.
type EventPayload struct {
	ID       string        `json:"id"`
	Amount   int64         `json:"amount"`
	Currency string        `json:"currency"`
	Status   string        `json:"status"`
	Metadata EventMetadata `json:"metadata"`
}

// EventMetadata echoes the metadata attached at session creation plus the
// checkout id Yoco assigns.
type EventMetadata struct {
	CheckoutID  string `json:"checkoutId"`
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	TenantID    string `json:"tenant_id"`
}

// ParseEvent decodes a raw webhook body.
func ParseEvent(rawBody []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
