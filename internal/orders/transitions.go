package orders

import "github.com/threepillars/storefront-backend/pkg/enums"

// allowedTransitions is the order state machine. Shipping states are only
// reachable after payment; delivered, cancelled and refunded are terminal.
// Refunds track through payment_status, not the order status.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:       {enums.OrderStatusProcessing, enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  nil,
	enums.OrderStatusCancelled:  nil,
	enums.OrderStatusRefunded:   nil,
}

// CanTransition reports whether the move from one status to another is legal.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
