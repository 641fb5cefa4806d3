package pudo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threepillars/storefront-backend/internal/integrations"
	"github.com/threepillars/storefront-backend/pkg/types"
)

func testCreds() *integrations.CourierCredentials {
	return &integrations.CourierCredentials{APIKey: "key", APISecret: "secret", AccountNumber: "ACC-1"}
}

func TestSearchLocations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pudo/terminals", r.URL.Path)
		assert.Equal(t, "Johannesburg", r.URL.Query().Get("city"))
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"terminals": []types.PickupPoint{{ID: "JHB-001", Name: "Rosebank Locker", City: "Johannesburg"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	points, err := client.SearchLocations(context.Background(), testCreds(), LocationFilter{City: "Johannesburg"})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "JHB-001", points[0].ID)
}

func TestCreateShipmentSendsAccountNumber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ShipmentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ACC-1", req.AccountNumber)
		assert.Equal(t, "ORD-2026-0001", req.OrderNumber)

		_ = json.NewEncoder(w).Encode(ShipmentResponse{WaybillNumber: "WB123", TrackingNumber: "TRK456"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.CreateShipment(context.Background(), testCreds(), ShipmentRequest{OrderNumber: "ORD-2026-0001"})
	require.NoError(t, err)
	assert.Equal(t, "WB123", resp.WaybillNumber)
}

func TestCreateShipmentMissingWaybill(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.CreateShipment(context.Background(), testCreds(), ShipmentRequest{})
	require.Error(t, err)
}

func TestTrackNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	result, err := client.Track(context.Background(), testCreds(), "WB-UNKNOWN")
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestTrackReturnsEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shipments/WB123/tracking", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"events": []types.TrackingEvent{{Status: "collected", Location: "JHB Hub"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	result, err := client.Track(context.Background(), testCreds(), "WB123")
	require.NoError(t, err)
	assert.True(t, result.Found)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "collected", result.Events[0].Status)
}
