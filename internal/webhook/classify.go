package webhook

import "strings"

// Event types that represent a completed payment. Everything outside this
// set is acknowledged and dropped so the provider does not retry it.
const (
	EventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	EventOrderCompleted   = "CHECKOUT.ORDER.COMPLETED"
)

var paidEventTypes = map[string]struct{}{
	EventCaptureCompleted: {},
	EventOrderCompleted:   {},
}

// IsPaid reports whether the event type signals a completed payment.
func IsPaid(eventType string) bool {
	_, ok := paidEventTypes[eventType]
	return ok
}

// isOrderEvent reports whether the event's resource is the order itself,
// meaning the resource id doubles as the order id.
func isOrderEvent(eventType string) bool {
	return strings.HasPrefix(eventType, "CHECKOUT.ORDER.")
}
