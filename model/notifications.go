package model

import (
	"time"

	"github.com/google/uuid"
)

// RecipientType identifies the audience a notification belongs to.
type RecipientType string

// The two recipient audiences. Every notification belongs to exactly one
// (recipient ID, recipient type) pair.
const (
	RecipientUser  RecipientType = "user"
	RecipientAdmin RecipientType = "admin"
)

// ValidRecipientType returns true if the given string names a known recipient type.
func ValidRecipientType(recipientType string) bool {
	switch RecipientType(recipientType) {
	case RecipientUser, RecipientAdmin:
		return true
	}
	return false
}

// Priority indicates how urgently a notification should be surfaced.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Channel identifies a delivery surface a notification is eligible for.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Action offers the recipient a follow-up call to action.
type Action struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	URL    string `json:"url"`
}

// Metadata is a free-form key/value bag merged from caller-supplied data and
// denormalized request fields.
type Metadata map[string]interface{}

// Clone returns a shallow copy of the metadata bag so that notifications
// fanned out to multiple recipients don't share a map.
func (m Metadata) Clone() Metadata {
	clone := make(Metadata, len(m))
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Notification represents a single notification record for a single recipient.
// Only Delivered, Read, and ReadAt change after creation.
type Notification struct {
	ID            string        `json:"id"`
	Type          EventType     `json:"type"`
	RequestID     string        `json:"requestId"`
	RecipientID   string        `json:"recipientId"`
	RecipientType RecipientType `json:"recipientType"`
	Title         string        `json:"title"`
	Message       string        `json:"message"`
	Priority      Priority      `json:"priority"`
	Channels      []Channel     `json:"channels"`
	Actions       []Action      `json:"actions"`
	Metadata      Metadata      `json:"metadata"`
	ScheduledFor  time.Time     `json:"scheduledFor"`
	Delivered     bool          `json:"delivered"`
	Read          bool          `json:"read"`
	ReadAt        *time.Time    `json:"readAt,omitempty"`
	ExpiresAt     time.Time     `json:"expiresAt"`
	TimeCreated   time.Time     `json:"timeCreated"`
}

// HasChannel returns true if the notification is eligible for the given
// delivery surface.
func (n *Notification) HasChannel(channel Channel) bool {
	for _, c := range n.Channels {
		if c == channel {
			return true
		}
	}
	return false
}

// NewID generates an identifier for a new notification.
func NewID() string {
	return uuid.New().String()
}
