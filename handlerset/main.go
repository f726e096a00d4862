package handlerset

import (
	"context"

	"github.com/cyverse-de/messaging/v9"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/hathak/notifications/common"
	"github.com/hathak/notifications/handlers"
)

// HandlerSet represents a set of AMQP message handlers.
type HandlerSet struct {
	amqpClient   *messaging.Client
	amqpSettings *common.AMQPSettings
	handlerFor   map[string]handlers.MessageHandler
	log          *logrus.Entry
}

// New creates a new handler set.
func New(
	amqpSettings *common.AMQPSettings,
	handlerFor map[string]handlers.MessageHandler,
	log *logrus.Entry,
) (*HandlerSet, error) {
	wrapMsg := "unable to create the message handler set"

	// Create the AMQP client.
	amqpClient, err := messaging.NewClient(amqpSettings.URI, false)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Build and return the handler set.
	handlerSet := HandlerSet{
		amqpClient:   amqpClient,
		amqpSettings: amqpSettings,
		handlerFor:   handlerFor,
		log:          log,
	}
	return &handlerSet, nil
}

// Listen registers a consumer for every routing key in the handler map and begins consuming
// deliveries in the background.
func (hs *HandlerSet) Listen(queueName string) {
	for routingKey, handler := range hs.handlerFor {
		hs.amqpClient.AddConsumer(
			hs.amqpSettings.ExchangeName,
			hs.amqpSettings.ExchangeType,
			queueName,
			routingKey,
			hs.consumerFor(routingKey, handler),
			1,
		)
	}
	go hs.amqpClient.Listen()
}

// consumerFor wraps a message handler in a consumer function that acknowledges or rejects the
// delivery based on the handler's error taxonomy. Recoverable failures are requeued once.
func (hs *HandlerSet) consumerFor(routingKey string, handler handlers.MessageHandler) messaging.MessageHandler {
	return func(ctx context.Context, delivery amqp.Delivery) {
		err := handler.HandleMessage(ctx, delivery)
		if err == nil {
			if err := delivery.Ack(false); err != nil {
				hs.log.WithError(err).Error("unable to acknowledge the delivery")
			}
			return
		}

		hs.log.WithError(err).WithField("routing_key", routingKey).Error("message handler failed")
		var recoverable handlers.RecoverableError
		requeue := errors.As(err, &recoverable) && !delivery.Redelivered
		if err := delivery.Reject(requeue); err != nil {
			hs.log.WithError(err).Error("unable to reject the delivery")
		}
	}
}

// Close closes a message handler set.
func (hs *HandlerSet) Close() {
	hs.amqpClient.Close()
}
