package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hathak/notifications/model"
)

func testRequest() *model.Request {
	return &model.Request{
		ID:            "6cc4fd1e-0b8f-41b7-b3b6-3e0106dfde91",
		RequestNumber: "R-100",
		CustomerID:    "e55cbb31-1e37-4b9a-8a95-4a7a8f4ffec9",
		CustomerName:  "Layla Hassan",
		CustomerEmail: "layla@example.org",
	}
}

func TestResolveKnownEventTypes(t *testing.T) {
	assert := assert.New(t)
	request := testRequest()

	// Every known event type must resolve to at least one fully-populated template.
	for _, eventType := range model.KnownEventTypes() {
		result := Resolve(eventType, request, model.Metadata{})
		assert.Falsef(result.Empty(), "event type %s resolved to an empty result", eventType)

		for _, template := range []*Template{result.User, result.Admin} {
			if template == nil {
				continue
			}
			assert.NotEmptyf(template.Title, "event type %s produced an empty title", eventType)
			assert.NotEmptyf(template.Message, "event type %s produced an empty message", eventType)
			assert.NotEmptyf(template.Priority, "event type %s produced an empty priority", eventType)
			assert.NotEmptyf(template.Channels, "event type %s produced no channels", eventType)
		}
	}
}

func TestResolveUnknownEventType(t *testing.T) {
	result := Resolve(model.EventType("order_teleported"), testRequest(), model.Metadata{})
	if !result.Empty() {
		t.Errorf("an unknown event type resolved to a non-empty result")
	}
}

func TestTemplateAudiences(t *testing.T) {
	assert := assert.New(t)
	request := testRequest()

	// Spot-check one event type per audience combination.
	userOnly := Resolve(model.EventRequestApproved, request, model.Metadata{})
	assert.NotNil(userOnly.User, "request_approved should have a user template")
	assert.Nil(userOnly.Admin, "request_approved should not have an admin template")

	adminOnly := Resolve(model.EventInspectionRequired, request, model.Metadata{})
	assert.Nil(adminOnly.User, "inspection_required should not have a user template")
	assert.NotNil(adminOnly.Admin, "inspection_required should have an admin template")

	both := Resolve(model.EventPaymentReceived, request, model.Metadata{})
	assert.NotNil(both.User, "payment_received should have a user template")
	assert.NotNil(both.Admin, "payment_received should have an admin template")
}

func TestRejectionReasonFallback(t *testing.T) {
	result := Resolve(model.EventRequestRejected, testRequest(), model.Metadata{})
	if !strings.Contains(result.User.Message, "Please review and resubmit.") {
		t.Errorf("the default rejection phrase is missing from: %s", result.User.Message)
	}
}

func TestRejectionReason(t *testing.T) {
	md := model.Metadata{"reason": "The item link is broken."}
	result := Resolve(model.EventRequestRejected, testRequest(), md)
	if !strings.Contains(result.User.Message, "The item link is broken.") {
		t.Errorf("the supplied rejection reason is missing from: %s", result.User.Message)
	}
}

func TestItemsShippedTrackingNumber(t *testing.T) {
	assert := assert.New(t)

	md := model.Metadata{"trackingNumber": "TRK1"}
	result := Resolve(model.EventItemsShipped, testRequest(), md)
	assert.Contains(result.User.Message, "R-100", "the request number is missing from the message")
	assert.Contains(result.User.Message, "TRK1", "the tracking number is missing from the message")
}

func TestInspectionCompletedWording(t *testing.T) {
	assert := assert.New(t)
	request := testRequest()

	passed := Resolve(model.EventInspectionCompleted, request, model.Metadata{"passed": true})
	assert.Contains(passed.User.Message, "passed inspection")
	assert.Equal(model.PriorityMedium, passed.User.Priority)

	failed := Resolve(model.EventInspectionCompleted, request, model.Metadata{"passed": false})
	assert.Contains(failed.User.Message, "did not pass inspection")
	assert.Equal(model.PriorityHigh, failed.User.Priority)
}

func TestInspectionRequiredUrgentFlag(t *testing.T) {
	assert := assert.New(t)
	request := testRequest()

	normal := Resolve(model.EventInspectionRequired, request, model.Metadata{})
	assert.Equal(model.PriorityHigh, normal.Admin.Priority)

	urgent := Resolve(model.EventInspectionRequired, request, model.Metadata{"urgent": true})
	assert.Equal(model.PriorityUrgent, urgent.Admin.Priority)
}

func TestDeadlineReminderPriorityChannels(t *testing.T) {
	assert := assert.New(t)
	request := testRequest()

	md := model.Metadata{
		"deadlineType":    "Payment",
		"deadlineMessage": "Deadline is today!",
		"priority":        "urgent",
	}
	result := Resolve(model.EventDeadlineReminder, request, md)
	assert.Equal(model.PriorityUrgent, result.User.Priority)
	assert.Contains(result.User.Channels, model.ChannelSMS, "urgent reminders should include the SMS channel")
	assert.Contains(result.User.Message, "Payment")
	assert.Contains(result.User.Message, "Deadline is today!")
}

func TestResolveIsDeterministic(t *testing.T) {
	request := testRequest()
	md := model.Metadata{"trackingNumber": "TRK1"}

	first := Resolve(model.EventItemsShipped, request, md)
	second := Resolve(model.EventItemsShipped, request, md)
	if first.User.Message != second.User.Message {
		t.Errorf("repeated resolution produced different messages")
	}
}
