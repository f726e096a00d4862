// Package sweeper contains the periodic jobs that advance delivery state and purge expired
// notifications. Both jobs are safe to run concurrently with live dispatch and with themselves.
package sweeper

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/hathak/notifications/model"
)

// DeliveryStore describes the store operations the sweeper needs.
type DeliveryStore interface {
	DueNotifications(ctx context.Context, now time.Time) ([]*model.Notification, error)
	MarkDelivered(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Deliverer hands a due notification off to its delivery channels.
type Deliverer interface {
	Deliver(ctx context.Context, notification *model.Notification) error
}

// Sweeper periodically finds due, non-expired, undelivered notifications and marks them
// delivered after handing them off to the delivery channels.
type Sweeper struct {
	store     DeliveryStore
	deliverer Deliverer
	log       *logrus.Entry
}

// New returns a sweeper using the given store and deliverer.
func New(store DeliveryStore, deliverer Deliverer, log *logrus.Entry) *Sweeper {
	return &Sweeper{
		store:     store,
		deliverer: deliverer,
		log:       log,
	}
}

// Sweep performs a single best-effort delivery pass and returns the number of records
// considered. A record whose delivery fails is logged and left undelivered so that it's
// retried on the next sweep.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	due, err := s.store.DueNotifications(ctx, time.Now())
	if err != nil {
		return 0, errors.Wrap(err, "unable to list due notifications")
	}

	for _, notification := range due {
		if err := s.deliverer.Deliver(ctx, notification); err != nil {
			s.log.WithError(err).WithField("notification", notification.ID).
				Warn("delivery failed; the notification will be retried on the next sweep")
			continue
		}
		if err := s.store.MarkDelivered(ctx, notification.ID); err != nil {
			s.log.WithError(err).WithField("notification", notification.ID).
				Warn("unable to mark the notification as delivered")
		}
	}

	return len(due), nil
}

// PurgeExpired deletes all notifications whose expiration time has passed, returning the
// number of records deleted. Running it again immediately is a no-op.
func (s *Sweeper) PurgeExpired(ctx context.Context) (int64, error) {
	count, err := s.store.PurgeExpired(ctx, time.Now())
	if err != nil {
		return 0, errors.Wrap(err, "unable to purge expired notifications")
	}
	return count, nil
}

// Run sweeps and purges on the given intervals until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, sweepInterval, purgeInterval time.Duration) {
	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()
	purgeTicker := time.NewTicker(purgeInterval)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweepTicker.C:
			count, err := s.Sweep(ctx)
			if err != nil {
				s.log.WithError(err).Error("sweep failed")
				continue
			}
			if count > 0 {
				s.log.WithField("count", count).Info("swept due notifications")
			}
		case <-purgeTicker.C:
			count, err := s.PurgeExpired(ctx)
			if err != nil {
				s.log.WithError(err).Error("expiry purge failed")
				continue
			}
			if count > 0 {
				s.log.WithField("count", count).Info("purged expired notifications")
			}
		}
	}
}
