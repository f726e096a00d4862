package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/hathak/notifications/common"
	"github.com/hathak/notifications/model"
)

// Store wraps a database handle and exposes the notification operations used by the dispatch
// engine, the sweeper, and the HTTP API. Each operation runs in its own transaction.
type Store struct {
	db *sql.DB
}

// NewStore returns a store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// withTx runs fn inside a transaction, committing if fn succeeds and rolling back otherwise.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to begin a database transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "unable to commit the database transaction")
	}
	return nil
}

// GetRequest looks up the request that triggered a dispatch.
func (s *Store) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	var request *model.Request
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		request, err = GetRequest(ctx, tx, id)
		return err
	})
	return request, err
}

// ActiveAdmins enumerates the administrator accounts currently flagged active.
func (s *Store) ActiveAdmins(ctx context.Context) ([]*model.Admin, error) {
	var admins []*model.Admin
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		admins, err = ListActiveAdmins(ctx, tx)
		return err
	})
	return admins, err
}

// SaveNotification persists a single notification record.
func (s *Store) SaveNotification(ctx context.Context, notification *model.Notification) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return SaveNotification(ctx, tx, notification)
	})
}

// ListForRecipient returns a page of a recipient's notifications.
func (s *Store) ListForRecipient(
	ctx context.Context,
	recipientID string,
	recipientType model.RecipientType,
	options ListOptions,
) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		notifications, err = ListNotifications(ctx, tx, recipientID, recipientType, options)
		return err
	})
	return notifications, err
}

// MarkRead marks a single notification as read. It's idempotent: marking an already-read
// notification again returns the record without error.
func (s *Store) MarkRead(ctx context.Context, id, recipientID string) (*model.Notification, error) {
	var notification *model.Notification
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		notification, err = MarkNotificationRead(ctx, tx, id, recipientID)
		if err == sql.ErrNoRows {
			return common.NewNotFoundError("notification %s does not exist for recipient %s", id, recipientID)
		}
		return err
	})
	return notification, err
}

// MarkAllRead marks all of a recipient's unread notifications as read.
func (s *Store) MarkAllRead(
	ctx context.Context,
	recipientID string,
	recipientType model.RecipientType,
) (int64, error) {
	var count int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		count, err = MarkAllNotificationsRead(ctx, tx, recipientID, recipientType)
		return err
	})
	return count, err
}

// UnreadCount returns the number of a recipient's unread notifications.
func (s *Store) UnreadCount(
	ctx context.Context,
	recipientID string,
	recipientType model.RecipientType,
) (int64, error) {
	var count int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		count, err = CountUnreadNotifications(ctx, tx, recipientID, recipientType)
		return err
	})
	return count, err
}

// DueNotifications returns the notifications that are due for delivery as of the given time.
func (s *Store) DueNotifications(ctx context.Context, now time.Time) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		notifications, err = ListDueNotifications(ctx, tx, now)
		return err
	})
	return notifications, err
}

// MarkDelivered marks a single notification as delivered.
func (s *Store) MarkDelivered(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return MarkNotificationDelivered(ctx, tx, id)
	})
}

// PurgeExpired deletes all notifications whose expiration time has passed.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		count, err = DeleteExpiredNotifications(ctx, tx, now)
		return err
	})
	return count, err
}
