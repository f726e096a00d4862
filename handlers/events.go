package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/streadway/amqp"

	"github.com/hathak/notifications/common"
	"github.com/hathak/notifications/model"
)

// EventRequest represents a deserialized business event published by the order, payment,
// inspection, and shipping workflows.
type EventRequest struct {
	RequestID string         `json:"request_id"`
	EventType string         `json:"event_type"`
	Metadata  model.Metadata `json:"metadata"`
}

// DeadlineReminderRequest represents a deserialized deadline reminder published by the
// scheduling workflow.
type DeadlineReminderRequest struct {
	RequestID         string `json:"request_id"`
	DeadlineType      string `json:"deadline_type"`
	DaysUntilDeadline int    `json:"days_until_deadline"`
}

// Dispatcher describes the dispatch operations that message handlers invoke.
type Dispatcher interface {
	Dispatch(
		ctx context.Context,
		requestID string,
		eventType model.EventType,
		metadata model.Metadata,
	) ([]*model.Notification, error)
	DispatchDeadlineReminder(
		ctx context.Context,
		requestID string,
		deadlineType string,
		daysUntilDeadline int,
	) ([]*model.Notification, error)
}

// Events is a message handler for business events.
type Events struct {
	dispatcher Dispatcher
}

// NewEvents returns a new business event handler.
func NewEvents(dispatcher Dispatcher) *Events {
	return &Events{dispatcher: dispatcher}
}

// HandleMessage handles a single AMQP delivery containing a business event.
func (h *Events) HandleMessage(ctx context.Context, delivery amqp.Delivery) error {

	// Parse the message body.
	var request EventRequest
	if err := json.Unmarshal(delivery.Body, &request); err != nil {
		return NewUnrecoverableError("unable to parse message body: %s", err.Error())
	}
	if request.RequestID == "" || request.EventType == "" {
		return NewUnrecoverableError("message body is missing request_id or event_type")
	}

	// Dispatch the event.
	_, err := h.dispatcher.Dispatch(ctx, request.RequestID, model.EventType(request.EventType), request.Metadata)
	return classifyDispatchError(err)
}

// DeadlineReminders is a message handler for deadline reminders.
type DeadlineReminders struct {
	dispatcher Dispatcher
}

// NewDeadlineReminders returns a new deadline reminder handler.
func NewDeadlineReminders(dispatcher Dispatcher) *DeadlineReminders {
	return &DeadlineReminders{dispatcher: dispatcher}
}

// HandleMessage handles a single AMQP delivery containing a deadline reminder.
func (h *DeadlineReminders) HandleMessage(ctx context.Context, delivery amqp.Delivery) error {

	// Parse the message body.
	var request DeadlineReminderRequest
	if err := json.Unmarshal(delivery.Body, &request); err != nil {
		return NewUnrecoverableError("unable to parse message body: %s", err.Error())
	}
	if request.RequestID == "" || request.DeadlineType == "" {
		return NewUnrecoverableError("message body is missing request_id or deadline_type")
	}

	// Dispatch the reminder.
	_, err := h.dispatcher.DispatchDeadlineReminder(
		ctx,
		request.RequestID,
		request.DeadlineType,
		request.DaysUntilDeadline,
	)
	return classifyDispatchError(err)
}

// classifyDispatchError maps a dispatch failure to the requeue taxonomy. A missing request
// can never succeed on redelivery; anything else is presumed transient.
func classifyDispatchError(err error) error {
	if err == nil {
		return nil
	}

	var notFound common.NotFoundError
	if errors.As(err, &notFound) {
		return NewUnrecoverableError(notFound.Error())
	}
	return NewRecoverableError("dispatch failed: %s", err.Error())
}
