package pudo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/threepillars/storefront-backend/internal/integrations"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/types"
)

const providerName = "pudo"

type courierAPI interface {
	SearchLocations(ctx context.Context, creds *integrations.CourierCredentials, filter LocationFilter) ([]types.PickupPoint, error)
	GetLocation(ctx context.Context, creds *integrations.CourierCredentials, locationID string) (*types.PickupPoint, error)
	CreateShipment(ctx context.Context, creds *integrations.CourierCredentials, req ShipmentRequest) (*ShipmentResponse, error)
	Track(ctx context.Context, creds *integrations.CourierCredentials, waybillNumber string) (*TrackingResult, error)
}

type credentialSource interface {
	Courier(ctx context.Context, tenantID uuid.UUID) (*integrations.CourierCredentials, error)
}

type orderLifecycle interface {
	Get(ctx context.Context, tenantID, orderID uuid.UUID) (*models.Order, error)
	MarkShipped(ctx context.Context, order *models.Order, courier types.CourierInfo) error
}

// Service is the courier adapter. Location search degrades to an empty
// result on transport failure; shipment creation surfaces its errors because
// it changes order state.
type Service interface {
	SearchLocations(ctx context.Context, tenantID uuid.UUID, filter LocationFilter) ([]types.PickupPoint, error)
	GetLocation(ctx context.Context, tenantID uuid.UUID, locationID string) (*types.PickupPoint, error)
	CreateShipment(ctx context.Context, tenantID, orderID uuid.UUID, pickupPointID *string) (*models.Order, error)
	Track(ctx context.Context, tenantID uuid.UUID, waybillNumber string) (*TrackingResult, error)
}

type service struct {
	api    courierAPI
	creds  credentialSource
	orders orderLifecycle
	logg   *logger.Logger
}

// NewService builds the courier adapter.
func NewService(api courierAPI, creds credentialSource, orders orderLifecycle, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("courier client is required")
	}
	if creds == nil {
		return nil, fmt.Errorf("credential resolver is required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order lifecycle is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{api: api, creds: creds, orders: orders, logg: logg}, nil
}

// SearchLocations is discovery, not a financial operation, so transport
// errors log and return an empty list instead of failing the caller.
func (s *service) SearchLocations(ctx context.Context, tenantID uuid.UUID, filter LocationFilter) ([]types.PickupPoint, error) {
	creds, err := s.creds.Courier(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	points, err := s.api.SearchLocations(ctx, creds, filter)
	if err != nil {
		s.logg.Warn(s.logg.WithTenantID(ctx, tenantID.String()), "pickup point search failed: "+err.Error())
		return []types.PickupPoint{}, nil
	}
	if points == nil {
		points = []types.PickupPoint{}
	}
	return points, nil
}

func (s *service) GetLocation(ctx context.Context, tenantID uuid.UUID, locationID string) (*types.PickupPoint, error) {
	if strings.TrimSpace(locationID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id is required")
	}

	creds, err := s.creds.Courier(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	point, err := s.api.GetLocation(ctx, creds, locationID)
	if err != nil {
		var status *statusError
		if errors.As(err, &status) && status.code == http.StatusNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pickup point not found").
				WithDetails(map[string]any{"location_id": locationID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading pickup point")
	}
	return point, nil
}

func (s *service) CreateShipment(ctx context.Context, tenantID, orderID uuid.UUID, pickupPointID *string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPaid && order.Status != enums.OrderStatusProcessing {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "shipments require a paid order, got %s", order.Status)
	}

	creds, err := s.creds.Courier(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	req := ShipmentRequest{
		OrderNumber:    order.OrderNumber,
		CustomerName:   strings.TrimSpace(order.CustomerFirstName + " " + order.CustomerLastName),
		CustomerEmail:  order.CustomerEmail,
		CustomerPhone:  order.CustomerPhone,
		DeclaredValue:  order.Total.StringFixed(2),
		DeliveryMethod: order.DeliveryMethod.String(),
		Address:        order.ShippingAddress,
	}
	switch {
	case pickupPointID != nil && *pickupPointID != "":
		req.PickupPointID = *pickupPointID
	case order.PickupPoint != nil:
		req.PickupPointID = order.PickupPoint.ID
	}

	resp, err := s.api.CreateShipment(ctx, creds, req)
	if err != nil {
		// No partial shipment state: the order is untouched on failure.
		return nil, pkgerrors.Wrap(pkgerrors.CodeShipmentCreationFailed, err, "booking courier shipment")
	}

	courier := types.CourierInfo{
		Provider:       providerName,
		WaybillNumber:  resp.WaybillNumber,
		TrackingNumber: resp.TrackingNumber,
		CollectionCode: resp.CollectionCode,
		LabelURL:       resp.LabelURL,
	}
	if err := s.orders.MarkShipped(ctx, order, courier); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) Track(ctx context.Context, tenantID uuid.UUID, waybillNumber string) (*TrackingResult, error) {
	if strings.TrimSpace(waybillNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "waybill number is required")
	}

	creds, err := s.creds.Courier(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result, err := s.api.Track(ctx, creds, waybillNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "tracking shipment")
	}
	return result, nil
}
