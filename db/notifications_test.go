package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/hathak/notifications/model"
)

const testNotificationID = "46ae63be-7030-4cdd-8eb9-66aa49fcf38b"
const testRecipientID = "e55cbb31-1e37-4b9a-8a95-4a7a8f4ffec9"

// notificationRows builds a sqlmock result set containing a single full notification record.
func notificationRows(read bool) *sqlmock.Rows {
	now := time.Now()
	var readAt interface{}
	if read {
		readAt = now
	}
	return sqlmock.NewRows(notificationColumns).
		AddRow(
			testNotificationID,
			"items_shipped",
			"6cc4fd1e-0b8f-41b7-b3b6-3e0106dfde91",
			testRecipientID,
			"user",
			"Items Shipped",
			"Your items for request R-100 are on the way. Tracking number: TRK1.",
			"high",
			[]byte("{in_app,email,sms}"),
			[]byte(`[{"label":"Track Shipment","action":"track_shipment","url":"/requests/R-100/tracking"}]`),
			[]byte(`{"requestNumber":"R-100","trackingNumber":"TRK1"}`),
			now,
			false,
			read,
			readAt,
			now.Add(30*24*time.Hour),
			now,
		)
}

func TestSaveNotification(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	// Save a notification.
	now := time.Now()
	notification := &model.Notification{
		ID:            testNotificationID,
		Type:          model.EventItemsShipped,
		RequestID:     "6cc4fd1e-0b8f-41b7-b3b6-3e0106dfde91",
		RecipientID:   testRecipientID,
		RecipientType: model.RecipientUser,
		Title:         "Items Shipped",
		Message:       "Your items for request R-100 are on the way.",
		Priority:      model.PriorityHigh,
		Channels:      []model.Channel{model.ChannelInApp, model.ChannelEmail},
		Metadata:      model.Metadata{"requestNumber": "R-100"},
		ScheduledFor:  now,
		ExpiresAt:     now.Add(30 * 24 * time.Hour),
		TimeCreated:   now,
	}
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	err = SaveNotification(ctx, tx, notification)
	assert.NoError(err, "unexpected error occurred while saving the notification")
	_ = tx.Rollback()

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestListNotifications(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM notifications WHERE recipient_id =").
		WillReturnRows(notificationRows(false))
	mock.ExpectRollback()

	// List the recipient's notifications.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	notifications, err := ListNotifications(ctx, tx, testRecipientID, model.RecipientUser, ListOptions{Limit: 10})
	assert.NoError(err, "unexpected error occurred while listing notifications")
	_ = tx.Rollback()

	// Spot-check the scanned record.
	if len(notifications) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifications))
	}
	notification := notifications[0]
	assert.Equal(testNotificationID, notification.ID, "incorrect ID")
	assert.Equal(model.EventItemsShipped, notification.Type, "incorrect event type")
	assert.Equal(
		[]model.Channel{model.ChannelInApp, model.ChannelEmail, model.ChannelSMS},
		notification.Channels,
		"incorrect channels",
	)
	assert.Len(notification.Actions, 1, "incorrect actions")
	assert.Equal("TRK1", notification.Metadata["trackingNumber"], "incorrect metadata")
	assert.Nil(notification.ReadAt, "an unread notification should have no read timestamp")

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestMarkNotificationRead(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE notifications SET read =").
		WillReturnRows(notificationRows(true))
	mock.ExpectRollback()

	// Mark the notification as read.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	notification, err := MarkNotificationRead(ctx, tx, testNotificationID, testRecipientID)
	assert.NoError(err, "unexpected error occurred while marking the notification as read")
	_ = tx.Rollback()

	assert.True(notification.Read, "the notification was not marked read")
	assert.NotNil(notification.ReadAt, "the read timestamp was not set")

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestMarkAllNotificationsRead(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notifications SET read =").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectRollback()

	// Mark all of the recipient's notifications as read.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	count, err := MarkAllNotificationsRead(ctx, tx, testRecipientID, model.RecipientUser)
	assert.NoError(err, "unexpected error occurred while marking all notifications as read")
	assert.Equal(int64(3), count, "incorrect update count")
	_ = tx.Rollback()

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestCountUnreadNotifications(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	rows := sqlmock.NewRows([]string{"count"}).AddRow(int64(42))
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM notifications`).
		WithArgs(testRecipientID, "user", false).
		WillReturnRows(rows)
	mock.ExpectRollback()

	// Count the unread notifications.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	total, err := CountUnreadNotifications(ctx, tx, testRecipientID, model.RecipientUser)
	assert.NoError(err, "unexpected error occurred while counting unread notifications")
	assert.Equal(int64(42), total, "incorrect unread count")
	_ = tx.Rollback()

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestListDueNotifications(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM notifications WHERE scheduled_for <=").
		WillReturnRows(notificationRows(false))
	mock.ExpectRollback()

	// List the due notifications.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	notifications, err := ListDueNotifications(ctx, tx, time.Now())
	assert.NoError(err, "unexpected error occurred while listing due notifications")
	assert.Len(notifications, 1, "incorrect result count")
	_ = tx.Rollback()

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestMarkNotificationDelivered(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notifications SET delivered =").
		WithArgs(true, testNotificationID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	// Mark the notification as delivered.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	err = MarkNotificationDelivered(ctx, tx, testNotificationID)
	assert.NoError(err, "unexpected error occurred while marking the notification as delivered")
	_ = tx.Rollback()

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}

func TestDeleteExpiredNotifications(t *testing.T) {
	assert := assert.New(t)

	db, mock, err := sqlmock.New()
	ctx := context.Background()
	assert.NoError(err, "unable to open the mock database connection")
	defer db.Close()

	// Set up the expectations.
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM notifications WHERE expires_at <").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectRollback()

	// Delete the expired notifications.
	tx, err := db.Begin()
	assert.NoError(err, "unable to begin a transaction")
	count, err := DeleteExpiredNotifications(ctx, tx, time.Now())
	assert.NoError(err, "unexpected error occurred while deleting expired notifications")
	assert.Equal(int64(4), count, "incorrect delete count")
	_ = tx.Rollback()

	// Verify that all mock expectations were met.
	err = mock.ExpectationsWereMet()
	assert.NoError(err, "not all mock expectations were met")
}
