package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hathak/notifications/model"

	sq "github.com/Masterminds/squirrel"
)

// notificationColumns lists the columns scanned for a full notification record, in order.
var notificationColumns = []string{
	"id",
	"event_type",
	"request_id",
	"recipient_id",
	"recipient_type",
	"title",
	"message",
	"priority",
	"channels",
	"actions",
	"metadata",
	"scheduled_for",
	"delivered",
	"read",
	"read_at",
	"expires_at",
	"time_created",
}

// ListOptions controls pagination and filtering for notification listings.
type ListOptions struct {
	Limit      uint64
	Offset     uint64
	UnreadOnly bool
}

// channelStrings converts the channel slice to the string slice stored in the database.
func channelStrings(channels []model.Channel) []string {
	values := make([]string, len(channels))
	for i, channel := range channels {
		values[i] = string(channel)
	}
	return values
}

// scanNotification scans a single notification record from a row.
func scanNotification(row sq.RowScanner) (*model.Notification, error) {
	var (
		notification model.Notification
		channels     pq.StringArray
		actionsJSON  []byte
		metadataJSON []byte
		readAt       sql.NullTime
	)

	err := row.Scan(
		&notification.ID,
		&notification.Type,
		&notification.RequestID,
		&notification.RecipientID,
		&notification.RecipientType,
		&notification.Title,
		&notification.Message,
		&notification.Priority,
		&channels,
		&actionsJSON,
		&metadataJSON,
		&notification.ScheduledFor,
		&notification.Delivered,
		&notification.Read,
		&readAt,
		&notification.ExpiresAt,
		&notification.TimeCreated,
	)
	if err != nil {
		return nil, err
	}

	for _, channel := range channels {
		notification.Channels = append(notification.Channels, model.Channel(channel))
	}
	if len(actionsJSON) != 0 {
		if err := json.Unmarshal(actionsJSON, &notification.Actions); err != nil {
			return nil, err
		}
	}
	if len(metadataJSON) != 0 {
		if err := json.Unmarshal(metadataJSON, &notification.Metadata); err != nil {
			return nil, err
		}
	}
	if readAt.Valid {
		notification.ReadAt = &readAt.Time
	}

	return &notification, nil
}

// SaveNotification saves a single notification into the database.
func SaveNotification(ctx context.Context, tx *sql.Tx, notification *model.Notification) error {
	wrapMsg := "unable to save notification"

	// Marshal the JSON columns.
	actionsJSON, err := json.Marshal(notification.Actions)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}
	metadataJSON, err := json.Marshal(notification.Metadata)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Build the statement to insert the notification.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Insert("notifications").
		Columns(notificationColumns...).
		Values(
			notification.ID,
			notification.Type,
			notification.RequestID,
			notification.RecipientID,
			notification.RecipientType,
			notification.Title,
			notification.Message,
			notification.Priority,
			pq.Array(channelStrings(notification.Channels)),
			actionsJSON,
			metadataJSON,
			notification.ScheduledFor,
			notification.Delivered,
			notification.Read,
			notification.ReadAt,
			notification.ExpiresAt,
			notification.TimeCreated,
		).
		ToSql()
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Execute the insert statement.
	_, err = tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return nil
}

// ListNotifications returns a page of a recipient's notifications, most recent first.
func ListNotifications(
	ctx context.Context,
	tx *sql.Tx,
	recipientID string,
	recipientType model.RecipientType,
	options ListOptions,
) ([]*model.Notification, error) {
	wrapMsg := "unable to list notifications"

	// Build the query.
	builder := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(notificationColumns...).
		From("notifications").
		Where(sq.Eq{"recipient_id": recipientID}).
		Where(sq.Eq{"recipient_type": recipientType}).
		OrderBy("time_created DESC")
	if options.UnreadOnly {
		builder = builder.Where(sq.Eq{"read": false})
	}
	if options.Limit > 0 {
		builder = builder.Limit(options.Limit)
	}
	if options.Offset > 0 {
		builder = builder.Offset(options.Offset)
	}
	statement, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Query the database.
	rows, err := tx.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	defer rows.Close()

	// Scan the results.
	var notifications []*model.Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return notifications, nil
}

// MarkNotificationRead marks a single notification as read and returns the updated record.
// Marking an already-read notification again is a no-op success.
func MarkNotificationRead(ctx context.Context, tx *sql.Tx, id, recipientID string) (*model.Notification, error) {
	wrapMsg := "unable to mark the notification as read"

	// Build the update statement. COALESCE keeps the original read timestamp on repeat calls.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update("notifications").
		Set("read", true).
		Set("read_at", sq.Expr("COALESCE(read_at, now())")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"recipient_id": recipientID}).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Execute the statement and scan the updated record.
	row := tx.QueryRowContext(ctx, statement, args...)
	notification, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return notification, nil
}

// MarkAllNotificationsRead marks all of a recipient's unread notifications as read, returning
// the number of records updated.
func MarkAllNotificationsRead(
	ctx context.Context,
	tx *sql.Tx,
	recipientID string,
	recipientType model.RecipientType,
) (int64, error) {
	wrapMsg := "unable to mark all notifications as read"

	// Build the update statement.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update("notifications").
		Set("read", true).
		Set("read_at", sq.Expr("COALESCE(read_at, now())")).
		Where(sq.Eq{"recipient_id": recipientID}).
		Where(sq.Eq{"recipient_type": recipientType}).
		Where(sq.Eq{"read": false}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}

	// Execute the statement.
	result, err := tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}

	return count, nil
}

// CountUnreadNotifications counts the number of notifications for the recipient that haven't
// been marked as read.
func CountUnreadNotifications(
	ctx context.Context,
	tx *sql.Tx,
	recipientID string,
	recipientType model.RecipientType,
) (int64, error) {
	wrapMsg := "unable to count unread notifications"
	var total int64

	// Build the statement to count the unread notifications.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("count(*)").
		From("notifications").
		Where(sq.Eq{"recipient_id": recipientID}).
		Where(sq.Eq{"recipient_type": recipientType}).
		Where(sq.Eq{"read": false}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}

	// Execute the statement.
	err = tx.QueryRowContext(ctx, statement, args...).Scan(&total)
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}

	return total, nil
}

// ListDueNotifications returns the notifications that are due for delivery: scheduled at or
// before the given time, not yet delivered, and not yet expired.
func ListDueNotifications(ctx context.Context, tx *sql.Tx, now time.Time) ([]*model.Notification, error) {
	wrapMsg := "unable to list due notifications"

	// Build the query.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(notificationColumns...).
		From("notifications").
		Where(sq.LtOrEq{"scheduled_for": now}).
		Where(sq.Eq{"delivered": false}).
		Where(sq.Gt{"expires_at": now}).
		OrderBy("scheduled_for ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Query the database.
	rows, err := tx.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	defer rows.Close()

	// Scan the results.
	var notifications []*model.Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
		notifications = append(notifications, notification)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return notifications, nil
}

// MarkNotificationDelivered marks a single notification as delivered. Re-marking a delivered
// notification is a no-op.
func MarkNotificationDelivered(ctx context.Context, tx *sql.Tx, id string) error {
	wrapMsg := "unable to mark the notification as delivered"

	// Build the update statement.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Update("notifications").
		Set("delivered", true).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	// Execute the statement.
	_, err = tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return errors.Wrap(err, wrapMsg)
	}

	return nil
}

// DeleteExpiredNotifications deletes all notifications whose expiration time has passed,
// returning the number of records deleted.
func DeleteExpiredNotifications(ctx context.Context, tx *sql.Tx, now time.Time) (int64, error) {
	wrapMsg := "unable to delete expired notifications"

	// Build the delete statement.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Delete("notifications").
		Where(sq.Lt{"expires_at": now}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}

	// Execute the statement.
	result, err := tx.ExecContext(ctx, statement, args...)
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, wrapMsg)
	}

	return count, nil
}

// columnList returns the notification columns as a comma-separated list for RETURNING clauses.
func columnList() string {
	return strings.Join(notificationColumns, ", ")
}
