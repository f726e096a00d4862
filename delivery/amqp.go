// Package delivery hands due notifications off to their delivery surfaces. In-app copies and
// email requests are published to the platform AMQP exchange; the actual email and SMS
// providers live behind other services.
package delivery

import (
	"context"
	"time"

	"github.com/cyverse-de/messaging/v9"

	"github.com/hathak/notifications/common"
	"github.com/hathak/notifications/model"
)

// MessagingClient describes the messaging operations used to publish outgoing notifications.
type MessagingClient interface {
	PublishNotificationMessage(message *messaging.WrappedNotificationMessage) error
	PublishEmailRequest(request *messaging.EmailRequest) error
}

// UnreadCounter returns a recipient's current unread notification count, which is included in
// outgoing in-app messages so that clients can update their badges without a follow-up query.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, recipientID string, recipientType model.RecipientType) (int64, error)
}

// emailTemplate is the platform email template used for notification email copies.
const emailTemplate = "notification"

// AMQPDeliverer publishes due notifications to the AMQP exchange.
type AMQPDeliverer struct {
	client MessagingClient
	unread UnreadCounter
}

// NewAMQPDeliverer returns a deliverer that publishes through the given messaging client.
func NewAMQPDeliverer(client MessagingClient, unread UnreadCounter) *AMQPDeliverer {
	return &AMQPDeliverer{
		client: client,
		unread: unread,
	}
}

// Deliver publishes one notification to each of its eligible surfaces. An email copy is only
// published for customer notifications that carry a valid address; admin email and SMS handoff
// are handled by the admin dashboard and are skipped here.
func (d *AMQPDeliverer) Deliver(ctx context.Context, notification *model.Notification) error {

	// Publish the in-app copy.
	if notification.HasChannel(model.ChannelInApp) {
		total, err := d.unread.UnreadCount(ctx, notification.RecipientID, notification.RecipientType)
		if err != nil {
			return common.NewDeliveryError("unable to count unread notifications: %s", err)
		}
		message := &messaging.NotificationMessage{
			Type:    string(notification.Type),
			User:    notification.RecipientID,
			Subject: notification.Title,
			Message: map[string]interface{}{
				"id":        notification.ID,
				"text":      notification.Message,
				"timestamp": common.FormatTimestamp(time.Now()),
			},
			Payload: notification.Metadata,
		}
		wrapped := &messaging.WrappedNotificationMessage{
			Total:   total,
			Message: message,
		}
		if err := d.client.PublishNotificationMessage(wrapped); err != nil {
			return common.NewDeliveryError("unable to publish the notification message: %s", err)
		}
	}

	// Publish the email copy.
	if notification.HasChannel(model.ChannelEmail) && notification.RecipientType == model.RecipientUser {
		if address := emailAddress(notification); address != "" {
			request := &messaging.EmailRequest{
				TemplateName: emailTemplate,
				TemplateValues: map[string]interface{}{
					"title":   notification.Title,
					"message": notification.Message,
				},
				Subject:   notification.Title,
				ToAddress: address,
			}
			if err := d.client.PublishEmailRequest(request); err != nil {
				return common.NewDeliveryError("unable to publish the email request: %s", err)
			}
		}
	}

	return nil
}

// emailAddress extracts the customer email address from the notification metadata, returning
// an empty string when the address is missing or malformed.
func emailAddress(notification *model.Notification) string {
	value, ok := notification.Metadata["customerEmail"]
	if !ok {
		return ""
	}
	address, ok := value.(string)
	if !ok || address == "" {
		return ""
	}
	if err := common.ValidateEmailAddress(address); err != nil {
		return ""
	}
	return address
}
