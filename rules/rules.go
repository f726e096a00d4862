// Package rules maps business event tags to notification templates. Resolution is a pure
// function: it has no side effects and is deterministic for identical inputs.
package rules

import (
	"fmt"

	"github.com/hathak/notifications/model"
)

// Template describes a single fully-populated notification to be materialized for a recipient.
type Template struct {
	Title    string
	Message  string
	Priority model.Priority
	Channels []model.Channel
	Actions  []model.Action
}

// Result holds the templates resolved for an event. Either or both of the fields may be nil.
type Result struct {
	User  *Template
	Admin *Template
}

// Empty returns true if the result contains no templates.
func (r Result) Empty() bool {
	return r.User == nil && r.Admin == nil
}

// factory builds the templates for one event type from a request snapshot and a metadata bag.
type factory func(req *model.Request, md model.Metadata) Result

// defaultReason is used when an event that normally carries a reason arrives without one.
const defaultReason = "Please review and resubmit."

// stringField returns the named metadata field as a string, falling back to a default phrase
// when the field is absent, empty, or not a string.
func stringField(md model.Metadata, key, fallback string) string {
	if value, ok := md[key]; ok {
		if s, ok := value.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// boolField returns the named metadata field as a boolean, defaulting to false.
func boolField(md model.Metadata, key string) bool {
	if value, ok := md[key]; ok {
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return false
}

func viewRequestAction(req *model.Request) model.Action {
	return model.Action{
		Label:  "View Request",
		Action: "view_request",
		URL:    fmt.Sprintf("/requests/%s", req.RequestNumber),
	}
}

func reviewRequestAction(req *model.Request) model.Action {
	return model.Action{
		Label:  "Review Request",
		Action: "review_request",
		URL:    fmt.Sprintf("/admin/requests/%s", req.RequestNumber),
	}
}

func payNowAction(req *model.Request) model.Action {
	return model.Action{
		Label:  "Pay Now",
		Action: "pay_now",
		URL:    fmt.Sprintf("/requests/%s/payment", req.RequestNumber),
	}
}

// ruleFor maps every known event tag to its template factory. Keeping the table in one place
// keeps the closed event set centrally auditable.
var ruleFor = map[model.EventType]factory{

	model.EventRequestSubmitted: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Request Submitted",
				Message:  fmt.Sprintf("Your request %s has been received and is pending review.", req.RequestNumber),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail},
				Actions:  []model.Action{viewRequestAction(req)},
			},
			Admin: &Template{
				Title:    "New Request Submitted",
				Message:  fmt.Sprintf("%s submitted request %s for review.", req.CustomerName, req.RequestNumber),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp},
				Actions:  []model.Action{reviewRequestAction(req)},
			},
		}
	},

	model.EventRequestApproved: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Request Approved",
				Message:  fmt.Sprintf("Your request %s has been approved. Please proceed to payment.", req.RequestNumber),
				Priority: model.PriorityHigh,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail},
				Actions:  []model.Action{payNowAction(req)},
			},
		}
	},

	model.EventRequestRejected: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Request Rejected",
				Message:  fmt.Sprintf("Your request %s was rejected. %s", req.RequestNumber, stringField(md, "reason", defaultReason)),
				Priority: model.PriorityHigh,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail},
				Actions:  []model.Action{viewRequestAction(req)},
			},
		}
	},

	model.EventChangesRequested: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Changes Requested",
				Message:  fmt.Sprintf("Changes were requested on your request %s. %s", req.RequestNumber, stringField(md, "reason", defaultReason)),
				Priority: model.PriorityHigh,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail},
				Actions:  []model.Action{viewRequestAction(req)},
			},
		}
	},

	model.EventChangesSubmitted: func(req *model.Request, md model.Metadata) Result {
		return Result{
			Admin: &Template{
				Title:    "Changes Submitted",
				Message:  fmt.Sprintf("%s submitted changes for request %s.", req.CustomerName, req.RequestNumber),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp},
				Actions:  []model.Action{reviewRequestAction(req)},
			},
		}
	},

	model.EventChangesApproved: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Changes Approved",
				Message:  fmt.Sprintf("The changes to your request %s have been approved.", req.RequestNumber),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp},
				Actions:  []model.Action{viewRequestAction(req)},
			},
		}
	},

	model.EventChangesRejected: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Changes Rejected",
				Message:  fmt.Sprintf("The changes to your request %s were rejected. %s", req.RequestNumber, stringField(md, "reason", defaultReason)),
				Priority: model.PriorityHigh,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail},
				Actions:  []model.Action{viewRequestAction(req)},
			},
		}
	},

	model.EventPaymentRequired: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Payment Required",
				Message:  fmt.Sprintf("Payment is required for request %s. Complete it to keep your order moving.", req.RequestNumber),
				Priority: model.PriorityUrgent,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail, model.ChannelSMS},
				Actions:  []model.Action{payNowAction(req)},
			},
		}
	},

	model.EventPaymentReceived: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Payment Received",
				Message:  fmt.Sprintf("We received your payment for request %s. Thank you!", req.RequestNumber),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail},
				Actions:  []model.Action{viewRequestAction(req)},
			},
			Admin: &Template{
				Title:    "Payment Received",
				Message:  fmt.Sprintf("Payment received for request %s from %s.", req.RequestNumber, req.CustomerName),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp},
			},
		}
	},

	model.EventPaymentFailed: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title: "Payment Failed",
				Message: fmt.Sprintf(
					"Your payment for request %s failed. %s",
					req.RequestNumber,
					stringField(md, "reason", "Please try again or use a different payment method."),
				),
				Priority: model.PriorityUrgent,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail, model.ChannelSMS},
				Actions:  []model.Action{payNowAction(req)},
			},
		}
	},

	model.EventItemsPurchased: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Items Purchased",
				Message:  fmt.Sprintf("The items for request %s have been purchased from the seller.", req.RequestNumber),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp},
				Actions:  []model.Action{viewRequestAction(req)},
			},
		}
	},

	model.EventItemsArrived: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Items Arrived",
				Message:  fmt.Sprintf("The items for request %s have arrived at our warehouse.", req.RequestNumber),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail},
			},
			Admin: &Template{
				Title:    "Items Arrived",
				Message:  fmt.Sprintf("The items for request %s arrived and are awaiting inspection.", req.RequestNumber),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp},
				Actions:  []model.Action{reviewRequestAction(req)},
			},
		}
	},

	model.EventInspectionRequired: func(req *model.Request, md model.Metadata) Result {
		priority := model.PriorityHigh
		if boolField(md, "urgent") {
			priority = model.PriorityUrgent
		}
		return Result{
			Admin: &Template{
				Title:    "Inspection Required",
				Message:  fmt.Sprintf("Request %s is awaiting inspection.", req.RequestNumber),
				Priority: priority,
				Channels: []model.Channel{model.ChannelInApp},
				Actions: []model.Action{{
					Label:  "Start Inspection",
					Action: "start_inspection",
					URL:    fmt.Sprintf("/admin/requests/%s/inspection", req.RequestNumber),
				}},
			},
		}
	},

	model.EventInspectionCompleted: func(req *model.Request, md model.Metadata) Result {
		message := fmt.Sprintf("Some items for request %s did not pass inspection. We will contact you shortly.", req.RequestNumber)
		priority := model.PriorityHigh
		if boolField(md, "passed") {
			message = fmt.Sprintf("Your items for request %s passed inspection.", req.RequestNumber)
			priority = model.PriorityMedium
		}
		return Result{
			User: &Template{
				Title:    "Inspection Completed",
				Message:  message,
				Priority: priority,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail},
				Actions:  []model.Action{viewRequestAction(req)},
			},
		}
	},

	model.EventPackagingOptions: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Choose Packaging",
				Message:  fmt.Sprintf("Packaging options are ready for request %s. Pick the one you prefer.", req.RequestNumber),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail},
				Actions: []model.Action{{
					Label:  "Choose Packaging",
					Action: "choose_packaging",
					URL:    fmt.Sprintf("/requests/%s/packaging", req.RequestNumber),
				}},
			},
		}
	},

	model.EventPackagingSelected: func(req *model.Request, md model.Metadata) Result {
		return Result{
			Admin: &Template{
				Title:    "Packaging Selected",
				Message:  fmt.Sprintf("The customer selected a packaging option for request %s.", req.RequestNumber),
				Priority: model.PriorityLow,
				Channels: []model.Channel{model.ChannelInApp},
			},
		}
	},

	model.EventItemsShipped: func(req *model.Request, md model.Metadata) Result {
		message := fmt.Sprintf("Your items for request %s are on the way.", req.RequestNumber)
		if trackingNumber := stringField(md, "trackingNumber", ""); trackingNumber != "" {
			message = fmt.Sprintf("%s Tracking number: %s.", message, trackingNumber)
		}
		return Result{
			User: &Template{
				Title:    "Items Shipped",
				Message:  message,
				Priority: model.PriorityHigh,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail, model.ChannelSMS},
				Actions: []model.Action{{
					Label:  "Track Shipment",
					Action: "track_shipment",
					URL:    fmt.Sprintf("/requests/%s/tracking", req.RequestNumber),
				}},
			},
		}
	},

	model.EventDeliveryConfirmed: func(req *model.Request, md model.Metadata) Result {
		return Result{
			User: &Template{
				Title:    "Delivery Confirmed",
				Message:  fmt.Sprintf("Delivery confirmed for request %s. Enjoy your items!", req.RequestNumber),
				Priority: model.PriorityMedium,
				Channels: []model.Channel{model.ChannelInApp, model.ChannelEmail},
			},
			Admin: &Template{
				Title:    "Delivery Confirmed",
				Message:  fmt.Sprintf("Delivery confirmed for request %s.", req.RequestNumber),
				Priority: model.PriorityLow,
				Channels: []model.Channel{model.ChannelInApp},
			},
		}
	},

	model.EventDeadlineReminder: func(req *model.Request, md model.Metadata) Result {
		priority := model.Priority(stringField(md, "priority", string(model.PriorityMedium)))
		channels := []model.Channel{model.ChannelInApp, model.ChannelEmail}
		if priority == model.PriorityUrgent {
			channels = append(channels, model.ChannelSMS)
		}
		return Result{
			User: &Template{
				Title: "Deadline Reminder",
				Message: fmt.Sprintf(
					"%s deadline for request %s: %s",
					stringField(md, "deadlineType", "Action"),
					req.RequestNumber,
					stringField(md, "deadlineMessage", "a deadline is approaching."),
				),
				Priority: priority,
				Channels: channels,
				Actions:  []model.Action{viewRequestAction(req)},
			},
		}
	},
}

// Resolve returns the notification templates for the given event. Unknown event types resolve
// to an empty result rather than an error.
func Resolve(eventType model.EventType, req *model.Request, md model.Metadata) Result {
	templateFactory, ok := ruleFor[eventType]
	if !ok {
		return Result{}
	}
	return templateFactory(req, md)
}
