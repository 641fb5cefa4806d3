package types

// PickupPoint describes a locker or counter location offered by the courier
// network. Stored as jsonb on carts and orders.
type PickupPoint struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type,omitempty"`
	Address  string  `json:"address,omitempty"`
	City     string  `json:"city,omitempty"`
	Province string  `json:"province,omitempty"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
}

// CourierInfo is the courier detail snapshot attached to a shipped order.
type CourierInfo struct {
	Provider       string `json:"provider"`
	WaybillNumber  string `json:"waybill_number,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	CollectionCode string `json:"collection_code,omitempty"`
	LabelURL       string `json:"label_url,omitempty"`
}

// TrackingEvent is a single courier scan in a shipment history.
type TrackingEvent struct {
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}
