package enums

import "fmt"

// NotificationKind categorizes the user-facing alerts raised by matching
// transitions.
type NotificationKind string

const (
	NotificationKindRequestReceived   NotificationKind = "request_received"
	NotificationKindRequestAccepted   NotificationKind = "request_accepted"
	NotificationKindRequestRejected   NotificationKind = "request_rejected"
	NotificationKindDeliveryRequested NotificationKind = "delivery_requested"
	NotificationKindDeliveryConfirmed NotificationKind = "delivery_confirmed"
	NotificationKindReviewRequested   NotificationKind = "review_requested"
	NotificationKindReviewSubmitted   NotificationKind = "review_submitted"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindRequestReceived,
	NotificationKindRequestAccepted,
	NotificationKindRequestRejected,
	NotificationKindDeliveryRequested,
	NotificationKindDeliveryConfirmed,
	NotificationKindReviewRequested,
	NotificationKindReviewSubmitted,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
