// Package dispatch converts business events into persisted notification records.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hathak/notifications/model"
	"github.com/hathak/notifications/rules"
)

// defaultTTL is how long a notification remains visible before the expiry purge may remove it.
const defaultTTL = 30 * 24 * time.Hour

// RequestStore looks up the purchase request that triggered a dispatch.
type RequestStore interface {
	GetRequest(ctx context.Context, id string) (*model.Request, error)
}

// AdminDirectory enumerates the administrator accounts eligible for admin fan-outs. The set is
// evaluated fresh on every dispatch.
type AdminDirectory interface {
	ActiveAdmins(ctx context.Context) ([]*model.Admin, error)
}

// NotificationStore persists notification records.
type NotificationStore interface {
	SaveNotification(ctx context.Context, notification *model.Notification) error
}

// Engine orchestrates dispatch: it loads the triggering request, resolves the rule for the
// event type, materializes one record per eligible recipient, and persists them.
type Engine struct {
	requests RequestStore
	admins   AdminDirectory
	store    NotificationStore
	log      *logrus.Entry
}

// NewEngine returns a dispatch engine using the given collaborators.
func NewEngine(requests RequestStore, admins AdminDirectory, store NotificationStore, log *logrus.Entry) *Engine {
	return &Engine{
		requests: requests,
		admins:   admins,
		store:    store,
		log:      log,
	}
}

// Dispatch converts one business event into zero or more persisted notification records and
// returns the records that were created. A missing request aborts the whole dispatch with a
// NotFoundError before anything is written. A failure persisting one recipient's record is
// logged and skipped; records already written for sibling recipients stand.
func (e *Engine) Dispatch(
	ctx context.Context,
	requestID string,
	eventType model.EventType,
	metadata model.Metadata,
) ([]*model.Notification, error) {

	// Load the triggering request.
	request, err := e.requests.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	// Merge the denormalized request fields with the caller-supplied metadata. Caller-supplied
	// values win on key collisions.
	merged := model.Metadata{
		"requestNumber": request.RequestNumber,
		"customerName":  request.CustomerName,
	}
	if request.CustomerEmail != "" {
		merged["customerEmail"] = request.CustomerEmail
	}
	for key, value := range metadata {
		merged[key] = value
	}

	// Resolve the templates for the event.
	result := rules.Resolve(eventType, request, merged)
	if result.Empty() {
		if !model.KnownEventType(eventType) {
			e.log.WithField("event_type", eventType).Warn("unknown event type; no notifications dispatched")
		}
		return nil, nil
	}

	now := time.Now()
	var created []*model.Notification

	// Create the customer's notification.
	if result.User != nil {
		notification := e.materialize(result.User, request, eventType, merged, request.CustomerID, model.RecipientUser, now)
		if err := e.store.SaveNotification(ctx, notification); err != nil {
			e.log.WithError(err).WithField("recipient", request.CustomerID).
				Error("unable to save the customer notification")
		} else {
			created = append(created, notification)
		}
	}

	// Fan out to all currently-active admins. This produces one independent record per admin.
	if result.Admin != nil {
		admins, err := e.admins.ActiveAdmins(ctx)
		if err != nil {
			return created, errors.Wrap(err, "unable to enumerate active admins")
		}
		for _, admin := range admins {
			notification := e.materialize(result.Admin, request, eventType, merged, admin.ID, model.RecipientAdmin, now)
			if err := e.store.SaveNotification(ctx, notification); err != nil {
				e.log.WithError(err).WithField("recipient", admin.ID).
					Error("unable to save an admin notification")
				continue
			}
			created = append(created, notification)
		}
	}

	return created, nil
}

// DispatchDeadlineReminder dispatches a deadline reminder for a request, computing the urgency
// tier and human-readable message from the number of days remaining.
func (e *Engine) DispatchDeadlineReminder(
	ctx context.Context,
	requestID string,
	deadlineType string,
	daysUntilDeadline int,
) ([]*model.Notification, error) {

	priority := model.PriorityMedium
	switch {
	case daysUntilDeadline <= 1:
		priority = model.PriorityUrgent
	case daysUntilDeadline <= 3:
		priority = model.PriorityHigh
	}

	message := "Deadline is today!"
	if daysUntilDeadline > 0 {
		message = fmt.Sprintf("Deadline in %d day(s)", daysUntilDeadline)
	}

	metadata := model.Metadata{
		"deadlineType":      deadlineType,
		"deadlineMessage":   message,
		"daysUntilDeadline": daysUntilDeadline,
		"priority":          string(priority),
	}
	return e.Dispatch(ctx, requestID, model.EventDeadlineReminder, metadata)
}

// materialize builds a concrete notification record for one recipient from a resolved template.
func (e *Engine) materialize(
	template *rules.Template,
	request *model.Request,
	eventType model.EventType,
	metadata model.Metadata,
	recipientID string,
	recipientType model.RecipientType,
	now time.Time,
) *model.Notification {
	return &model.Notification{
		ID:            model.NewID(),
		Type:          eventType,
		RequestID:     request.ID,
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Title:         template.Title,
		Message:       template.Message,
		Priority:      template.Priority,
		Channels:      template.Channels,
		Actions:       template.Actions,
		Metadata:      metadata.Clone(),
		ScheduledFor:  now,
		ExpiresAt:     now.Add(defaultTTL),
		TimeCreated:   now,
	}
}
