package enums

import "fmt"

// NotificationEvent names a push-worthy moment in an order's life.
type NotificationEvent string

const (
	NotificationEventOrderCreated   NotificationEvent = "order_created"
	NotificationEventOrderPaid      NotificationEvent = "order_paid"
	NotificationEventOrderShipped   NotificationEvent = "order_shipped"
	NotificationEventOrderDelivered NotificationEvent = "order_delivered"
	NotificationEventOrderCancelled NotificationEvent = "order_cancelled"
	NotificationEventPaymentFailed  NotificationEvent = "payment_failed"
)

var validNotificationEvents = []NotificationEvent{
	NotificationEventOrderCreated,
	NotificationEventOrderPaid,
	NotificationEventOrderShipped,
	NotificationEventOrderDelivered,
	NotificationEventOrderCancelled,
	NotificationEventPaymentFailed,
}

// String implements fmt.Stringer.
func (n NotificationEvent) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationEvent.
func (n NotificationEvent) IsValid() bool {
	for _, candidate := range validNotificationEvents {
		if candidate == n {
			return true
		}
	}
	return false
}

// DevicePlatform identifies the push channel for a registered device.
type DevicePlatform string

const (
	DevicePlatformAndroid DevicePlatform = "android"
	DevicePlatformIOS     DevicePlatform = "ios"
	DevicePlatformWeb     DevicePlatform = "web"
)

var validDevicePlatforms = []DevicePlatform{
	DevicePlatformAndroid,
	DevicePlatformIOS,
	DevicePlatformWeb,
}

// String implements fmt.Stringer.
func (d DevicePlatform) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DevicePlatform.
func (d DevicePlatform) IsValid() bool {
	for _, candidate := range validDevicePlatforms {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDevicePlatform converts raw input into a DevicePlatform.
func ParseDevicePlatform(value string) (DevicePlatform, error) {
	for _, candidate := range validDevicePlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid device platform %q", value)
}
