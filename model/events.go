package model

// EventType is one of the closed set of business event tags that can trigger
// notifications.
type EventType string

const (
	EventRequestSubmitted    EventType = "request_submitted"
	EventRequestApproved     EventType = "request_approved"
	EventRequestRejected     EventType = "request_rejected"
	EventChangesRequested    EventType = "changes_requested"
	EventChangesSubmitted    EventType = "changes_submitted"
	EventChangesApproved     EventType = "changes_approved"
	EventChangesRejected     EventType = "changes_rejected"
	EventPaymentRequired     EventType = "payment_required"
	EventPaymentReceived     EventType = "payment_received"
	EventPaymentFailed       EventType = "payment_failed"
	EventItemsPurchased      EventType = "items_purchased"
	EventItemsArrived        EventType = "items_arrived"
	EventInspectionRequired  EventType = "inspection_required"
	EventInspectionCompleted EventType = "inspection_completed"
	EventPackagingOptions    EventType = "packaging_options"
	EventPackagingSelected   EventType = "packaging_selected"
	EventItemsShipped        EventType = "items_shipped"
	EventDeliveryConfirmed   EventType = "delivery_confirmed"
	EventDeadlineReminder    EventType = "deadline_reminder"
)

// KnownEventTypes returns all event tags that the rule table understands.
func KnownEventTypes() []EventType {
	return []EventType{
		EventRequestSubmitted,
		EventRequestApproved,
		EventRequestRejected,
		EventChangesRequested,
		EventChangesSubmitted,
		EventChangesApproved,
		EventChangesRejected,
		EventPaymentRequired,
		EventPaymentReceived,
		EventPaymentFailed,
		EventItemsPurchased,
		EventItemsArrived,
		EventInspectionRequired,
		EventInspectionCompleted,
		EventPackagingOptions,
		EventPackagingSelected,
		EventItemsShipped,
		EventDeliveryConfirmed,
		EventDeadlineReminder,
	}
}

// KnownEventType returns true if the given tag is part of the closed event set.
func KnownEventType(eventType EventType) bool {
	for _, known := range KnownEventTypes() {
		if known == eventType {
			return true
		}
	}
	return false
}
