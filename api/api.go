// Package api exposes the notification query facade over HTTP for the user and admin control
// panels.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/hathak/notifications/common"
	"github.com/hathak/notifications/db"
	"github.com/hathak/notifications/model"
)

// NotificationQueries describes the store operations the HTTP API delegates to.
type NotificationQueries interface {
	ListForRecipient(
		ctx context.Context,
		recipientID string,
		recipientType model.RecipientType,
		options db.ListOptions,
	) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, recipientID string, recipientType model.RecipientType) (int64, error)
	UnreadCount(ctx context.Context, recipientID string, recipientType model.RecipientType) (int64, error)
}

// API serves the notification query endpoints.
type API struct {
	queries NotificationQueries
	log     *logrus.Entry
}

// New returns an API serving the given queries.
func New(queries NotificationQueries, log *logrus.Entry) *API {
	return &API{
		queries: queries,
		log:     log,
	}
}

// Router builds the HTTP route table.
func (a *API) Router() http.Handler {
	router := chi.NewRouter()
	router.Get("/notifications", a.listNotifications)
	router.Get("/notifications/unread-count", a.unreadCount)
	router.Post("/notifications/{id}/read", a.markRead)
	router.Post("/notifications/read-all", a.markAllRead)
	return router
}

// recipientParams extracts and validates the recipient identification query parameters.
func recipientParams(r *http.Request) (string, model.RecipientType, error) {
	recipientID := r.URL.Query().Get("recipient_id")
	if recipientID == "" {
		return "", "", common.NewValidationError("recipient_id is required")
	}
	recipientType := r.URL.Query().Get("recipient_type")
	if !model.ValidRecipientType(recipientType) {
		return "", "", common.NewValidationError("recipient_type must be one of: user, admin")
	}
	return recipientID, model.RecipientType(recipientType), nil
}

func (a *API) listNotifications(w http.ResponseWriter, r *http.Request) {
	recipientID, recipientType, err := recipientParams(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	options := db.ListOptions{
		UnreadOnly: r.URL.Query().Get("unread_only") == "true",
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		value, err := strconv.ParseUint(limit, 10, 64)
		if err != nil {
			a.respondError(w, common.NewValidationError("limit must be a non-negative integer"))
			return
		}
		options.Limit = value
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		value, err := strconv.ParseUint(offset, 10, 64)
		if err != nil {
			a.respondError(w, common.NewValidationError("offset must be a non-negative integer"))
			return
		}
		options.Offset = value
	}

	notifications, err := a.queries.ListForRecipient(r.Context(), recipientID, recipientType, options)
	if err != nil {
		a.respondError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*model.Notification{}
	}
	a.respondJSON(w, http.StatusOK, notifications)
}

func (a *API) unreadCount(w http.ResponseWriter, r *http.Request) {
	recipientID, recipientType, err := recipientParams(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	count, err := a.queries.UnreadCount(r.Context(), recipientID, recipientType)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (a *API) markRead(w http.ResponseWriter, r *http.Request) {
	recipientID := r.URL.Query().Get("recipient_id")
	if recipientID == "" {
		a.respondError(w, common.NewValidationError("recipient_id is required"))
		return
	}

	notification, err := a.queries.MarkRead(r.Context(), chi.URLParam(r, "id"), recipientID)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, notification)
}

func (a *API) markAllRead(w http.ResponseWriter, r *http.Request) {
	recipientID, recipientType, err := recipientParams(r)
	if err != nil {
		a.respondError(w, err)
		return
	}

	count, err := a.queries.MarkAllRead(r.Context(), recipientID, recipientType)
	if err != nil {
		a.respondError(w, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// respondJSON writes a JSON response body with the given status code.
func (a *API) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.log.WithError(err).Error("unable to encode the response body")
	}
}

// respondError maps an error to its HTTP status code and writes a JSON error body.
func (a *API) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var notFound common.NotFoundError
	var validation common.ValidationError
	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	default:
		a.log.WithError(err).Error("request failed")
	}

	a.respondJSON(w, status, map[string]string{"error": err.Error()})
}
