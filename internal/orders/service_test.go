package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threepillars/storefront-backend/internal/catalog"
	"github.com/threepillars/storefront-backend/pkg/db"
	"github.com/threepillars/storefront-backend/pkg/db/models"
	"github.com/threepillars/storefront-backend/pkg/enums"
	pkgerrors "github.com/threepillars/storefront-backend/pkg/errors"
	"github.com/threepillars/storefront-backend/pkg/logger"
	"github.com/threepillars/storefront-backend/pkg/pagination"
	"github.com/threepillars/storefront-backend/pkg/types"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()

	client := newTestDB(t)
	conn := client.DB()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled})

	svc, err := NewService(client, NewRepository(conn), catalog.NewRepository(conn), nil, logg)
	require.NoError(t, err)
	return svc, client
}

func TestGetUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeOrderNotFound))
}

func TestGetIsTenantScoped(t *testing.T) {
	svc, client := newTestService(t)
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPending)

	_, err := svc.Get(context.Background(), uuid.New(), order.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeOrderNotFound))

	found, err := svc.Get(context.Background(), tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, found.OrderNumber)
}

func TestUpdateStatusRequiresPaidBeforeShipped(t *testing.T) {
	svc, client := newTestService(t)
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPending)

	_, err := svc.UpdateStatus(context.Background(), tenantID, order.ID, enums.OrderStatusShipped, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidStatusTransition))
}

func TestUpdateStatusStampsTimestamps(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPending)

	paid, err := svc.UpdateStatus(ctx, tenantID, order.ID, enums.OrderStatusPaid, nil)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, enums.PaymentStatusCompleted, paid.PaymentStatus)

	shipped, err := svc.UpdateStatus(ctx, tenantID, order.ID, enums.OrderStatusShipped, nil)
	require.NoError(t, err)
	require.NotNil(t, shipped.ShippedAt)

	delivered, err := svc.UpdateStatus(ctx, tenantID, order.ID, enums.OrderStatusDelivered, nil)
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveredAt)
}

func TestUpdateStatusAppendsNotes(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPending)

	first := "payment confirmed by support"
	updated, err := svc.UpdateStatus(ctx, tenantID, order.ID, enums.OrderStatusPaid, &first)
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)

	second := "packed"
	updated, err = svc.UpdateStatus(ctx, tenantID, order.ID, enums.OrderStatusProcessing, &second)
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, first+"\n"+second, *updated.Notes)
}

func TestCancelRestoresStock(t *testing.T) {
	svc, client := newTestService(t)
	conn := client.DB()
	ctx := context.Background()
	tenantID := uuid.New()

	product := seedProduct(t, conn, tenantID, 3)
	order := seedOrder(t, conn, tenantID, enums.OrderStatusPending, lineFor(product, 2))

	cancelled, err := svc.Cancel(ctx, tenantID, order.ID, "customer changed their mind")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	var live models.Product
	require.NoError(t, conn.First(&live, "id = ?", product.ID).Error)
	assert.Equal(t, 5, live.StockQuantity)
	assert.True(t, live.InStock)
}

func TestCancelPaidOrderFlagsRefund(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPaid)

	cancelled, err := svc.Cancel(ctx, tenantID, order.ID, "duplicate order")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRefunded, cancelled.PaymentStatus)
}

func TestCancelShippedOrderRejected(t *testing.T) {
	svc, client := newTestService(t)
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusShipped)

	_, err := svc.Cancel(context.Background(), tenantID, order.ID, "too late")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeOrderCannotBeCancelled))
}

func TestCancelRequiresReason(t *testing.T) {
	svc, client := newTestService(t)
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPending)

	_, err := svc.Cancel(context.Background(), tenantID, order.ID, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestUpdatePaymentCompletedAdvancesOrder(t *testing.T) {
	svc, client := newTestService(t)
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPending)

	txnID := "txn_42"
	updated, err := svc.UpdatePayment(context.Background(), tenantID, order.ID, enums.PaymentStatusCompleted, &txnID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPaid, updated.Status)
	assert.Equal(t, enums.PaymentStatusCompleted, updated.PaymentStatus)
	require.NotNil(t, updated.TransactionID)
	assert.Equal(t, "txn_42", *updated.TransactionID)
	assert.NotNil(t, updated.PaidAt)
}

func TestUpdatePaymentFailedLeavesStatus(t *testing.T) {
	svc, client := newTestService(t)
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPending)

	updated, err := svc.UpdatePayment(context.Background(), tenantID, order.ID, enums.PaymentStatusFailed, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPending, updated.Status)
	assert.Equal(t, enums.PaymentStatusFailed, updated.PaymentStatus)
}

func TestUpdatePaymentRejectsCompletedOnCancelled(t *testing.T) {
	svc, client := newTestService(t)
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusCancelled)

	_, err := svc.UpdatePayment(context.Background(), tenantID, order.ID, enums.PaymentStatusCompleted, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidStatusTransition))
}

func TestUpdateTrackingSetsCourierFields(t *testing.T) {
	svc, client := newTestService(t)
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPaid)

	waybill := "WB900"
	tracking := "TRK900"
	updated, err := svc.UpdateTracking(context.Background(), tenantID, order.ID, TrackingInput{
		WaybillNumber:  &waybill,
		TrackingNumber: &tracking,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.WaybillNumber)
	assert.Equal(t, "WB900", *updated.WaybillNumber)
	require.NotNil(t, updated.TrackingNumber)
	assert.Equal(t, "TRK900", *updated.TrackingNumber)
	assert.Equal(t, enums.OrderStatusPaid, updated.Status)
}

func TestMarkShippedAttachesCourier(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPaid)

	err := svc.MarkShipped(ctx, &order, types.CourierInfo{
		Provider:       "pudo",
		WaybillNumber:  "WB123",
		TrackingNumber: "TRK456",
		CollectionCode: "COL789",
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusShipped, order.Status)
	require.NotNil(t, order.WaybillNumber)
	assert.Equal(t, "WB123", *order.WaybillNumber)
	require.NotNil(t, order.TrackingNumber)
	assert.Equal(t, "TRK456", *order.TrackingNumber)
	require.NotNil(t, order.ShippedAt)
}

func TestMarkShippedRejectsUnpaid(t *testing.T) {
	svc, client := newTestService(t)
	tenantID := uuid.New()
	order := seedOrder(t, client.DB(), tenantID, enums.OrderStatusPending)

	err := svc.MarkShipped(context.Background(), &order, types.CourierInfo{Provider: "pudo"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeInvalidStatusTransition))
}

func TestListFiltersByStatus(t *testing.T) {
	svc, client := newTestService(t)
	conn := client.DB()
	ctx := context.Background()
	tenantID := uuid.New()

	seedOrder(t, conn, tenantID, enums.OrderStatusPending)
	seedOrder(t, conn, tenantID, enums.OrderStatusPaid)
	seedOrder(t, conn, tenantID, enums.OrderStatusPaid)
	seedOrder(t, conn, uuid.New(), enums.OrderStatusPaid)

	status := enums.OrderStatusPaid
	page, err := svc.List(ctx, tenantID, ListFilter{Status: &status}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, page.Orders, 2)
	assert.Empty(t, page.NextCursor)

	all, err := svc.List(ctx, tenantID, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, all.Orders, 3)
}
