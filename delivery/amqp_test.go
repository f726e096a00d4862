package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/cyverse-de/messaging/v9"
	"github.com/stretchr/testify/assert"

	"github.com/hathak/notifications/model"
)

// MockMessagingClient provides mock implementations of the functions we need from messaging.Client.
type MockMessagingClient struct {
	PublishedNotificationMessage *messaging.WrappedNotificationMessage
	PublishedEmailRequest        *messaging.EmailRequest
}

// PublishNotificationMessage simply stores a copy of the notification message for later inspection.
func (c *MockMessagingClient) PublishNotificationMessage(msg *messaging.WrappedNotificationMessage) error {
	c.PublishedNotificationMessage = msg
	return nil
}

// PublishEmailRequest simply stores a copy of the email request for later inspection.
func (c *MockMessagingClient) PublishEmailRequest(req *messaging.EmailRequest) error {
	c.PublishedEmailRequest = req
	return nil
}

// fixtureUnreadCounter returns a fixed unread count.
type fixtureUnreadCounter struct {
	count int64
}

func (c *fixtureUnreadCounter) UnreadCount(
	_ context.Context,
	_ string,
	_ model.RecipientType,
) (int64, error) {
	return c.count, nil
}

func testNotification(recipientType model.RecipientType, channels []model.Channel, email string) *model.Notification {
	now := time.Now()
	metadata := model.Metadata{"requestNumber": "R-100"}
	if email != "" {
		metadata["customerEmail"] = email
	}
	return &model.Notification{
		ID:            "46ae63be-7030-4cdd-8eb9-66aa49fcf38b",
		Type:          model.EventItemsShipped,
		RecipientID:   "e55cbb31-1e37-4b9a-8a95-4a7a8f4ffec9",
		RecipientType: recipientType,
		Title:         "Items Shipped",
		Message:       "Your items for request R-100 are on the way.",
		Priority:      model.PriorityHigh,
		Channels:      channels,
		Metadata:      metadata,
		ScheduledFor:  now,
		ExpiresAt:     now.Add(time.Hour),
		TimeCreated:   now,
	}
}

func TestDeliverInAppAndEmail(t *testing.T) {
	assert := assert.New(t)

	client := &MockMessagingClient{}
	deliverer := NewAMQPDeliverer(client, &fixtureUnreadCounter{count: 42})

	channels := []model.Channel{model.ChannelInApp, model.ChannelEmail}
	notification := testNotification(model.RecipientUser, channels, "layla@example.org")
	err := deliverer.Deliver(context.Background(), notification)
	assert.NoError(err, "unexpected delivery error")

	// Verify that the in-app message was published and spot-check a couple of fields.
	published := client.PublishedNotificationMessage
	if published == nil {
		t.Fatalf("no notification message was published")
	}
	assert.Equal(int64(42), published.Total, "incorrect total")
	assert.Equal(notification.ID, published.Message.Message["id"], "incorrect ID")
	assert.Equal("Items Shipped", published.Message.Subject, "incorrect subject")
	assert.Equal(notification.RecipientID, published.Message.User, "incorrect user")

	// Verify that the email request was published and spot-check a couple of fields.
	emailRequest := client.PublishedEmailRequest
	if emailRequest == nil {
		t.Fatalf("no email request was published")
	}
	assert.Equal("layla@example.org", emailRequest.ToAddress, "incorrect address in email request")
	assert.Equal("Items Shipped", emailRequest.Subject, "incorrect subject in email request")
}

func TestDeliverSkipsEmailWithoutAddress(t *testing.T) {
	client := &MockMessagingClient{}
	deliverer := NewAMQPDeliverer(client, &fixtureUnreadCounter{})

	channels := []model.Channel{model.ChannelInApp, model.ChannelEmail}
	notification := testNotification(model.RecipientUser, channels, "")
	err := deliverer.Deliver(context.Background(), notification)
	if err != nil {
		t.Fatalf("unexpected delivery error: %s", err.Error())
	}

	if client.PublishedNotificationMessage == nil {
		t.Errorf("no notification message was published")
	}
	if client.PublishedEmailRequest != nil {
		t.Errorf("an email request was published without an address")
	}
}

func TestDeliverSkipsEmailForMalformedAddress(t *testing.T) {
	client := &MockMessagingClient{}
	deliverer := NewAMQPDeliverer(client, &fixtureUnreadCounter{})

	channels := []model.Channel{model.ChannelInApp, model.ChannelEmail}
	notification := testNotification(model.RecipientUser, channels, "not-an-address")
	err := deliverer.Deliver(context.Background(), notification)
	if err != nil {
		t.Fatalf("unexpected delivery error: %s", err.Error())
	}

	if client.PublishedEmailRequest != nil {
		t.Errorf("an email request was published for a malformed address")
	}
}

func TestDeliverSkipsEmailForAdmins(t *testing.T) {
	client := &MockMessagingClient{}
	deliverer := NewAMQPDeliverer(client, &fixtureUnreadCounter{})

	channels := []model.Channel{model.ChannelInApp, model.ChannelEmail}
	notification := testNotification(model.RecipientAdmin, channels, "layla@example.org")
	err := deliverer.Deliver(context.Background(), notification)
	if err != nil {
		t.Fatalf("unexpected delivery error: %s", err.Error())
	}

	if client.PublishedEmailRequest != nil {
		t.Errorf("an email request was published for an admin notification")
	}
}

func TestDeliverSkipsInAppWhenNotEligible(t *testing.T) {
	client := &MockMessagingClient{}
	deliverer := NewAMQPDeliverer(client, &fixtureUnreadCounter{})

	notification := testNotification(model.RecipientUser, []model.Channel{model.ChannelEmail}, "layla@example.org")
	err := deliverer.Deliver(context.Background(), notification)
	if err != nil {
		t.Fatalf("unexpected delivery error: %s", err.Error())
	}

	if client.PublishedNotificationMessage != nil {
		t.Errorf("a notification message was published for a record without the in-app channel")
	}
	if client.PublishedEmailRequest == nil {
		t.Errorf("no email request was published")
	}
}
