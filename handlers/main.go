package handlers

import (
	"context"

	"github.com/streadway/amqp"
)

// Routing keys for the AMQP queues this service consumes.
const (
	DispatchRoutingKey = "notifications.dispatch"
	DeadlineRoutingKey = "notifications.deadline"
)

// MessageHandler describes the interface used to handle AMQP messages.
type MessageHandler interface {
	HandleMessage(ctx context.Context, delivery amqp.Delivery) error
}

// InitMessageHandlers returns a map from routing key to message handler.
func InitMessageHandlers(dispatcher Dispatcher) map[string]MessageHandler {
	return map[string]MessageHandler{
		DispatchRoutingKey: NewEvents(dispatcher),
		DeadlineRoutingKey: NewDeadlineReminders(dispatcher),
	}
}
