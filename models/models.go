// Package models defines data structures used throughout the application
package models

import "time"

// PushKeys holds the encryption material reported by the push service for a
// delivery target. Reminders are sent without a payload, so the keys are
// carried through for completeness but never used for content encryption.
type PushKeys struct {
	P256dh string `json:"p256dh,omitempty" gorm:"column:p256dh"`
	Auth   string `json:"auth,omitempty"`
}

// Subscription represents a registered push delivery target together with the
// subscriber's reminder schedule and observance-window preferences. The JSON
// field names match the record layout persisted under "sub:<endpoint>" keys.
type Subscription struct {
	ID               uint      `json:"-" gorm:"primaryKey"`
	Endpoint         string    `json:"endpoint" gorm:"uniqueIndex;not null"`
	ExpirationTime   *int64    `json:"expirationTime,omitempty"`
	Keys             PushKeys  `json:"keys" gorm:"embedded;embeddedPrefix:key_"`
	ReminderTime     string    `json:"reminderTime" gorm:"not null"`
	Timezone         string    `json:"timezone" gorm:"not null"`
	RamadanStartDate *string   `json:"ramadanStartDate"`
	RamadanDays      int       `json:"ramadanDays" gorm:"not null"`
	Enabled          bool      `json:"enabled"`
	LastSentDate     string    `json:"lastSentDate,omitempty"`
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

// SubscriptionPayload is the browser PushSubscription as sent by the client.
type SubscriptionPayload struct {
	Endpoint       string   `json:"endpoint" binding:"required"`
	ExpirationTime *int64   `json:"expirationTime"`
	Keys           PushKeys `json:"keys"`
}

// SubscribeRequest represents the body of POST /api/push/subscribe. Fields
// outside the push subscription itself are schedule preferences; all of them
// are optional and normalized server-side.
type SubscribeRequest struct {
	Subscription     SubscriptionPayload `json:"subscription" binding:"required"`
	ReminderTime     string              `json:"reminderTime"`
	Timezone         string              `json:"timezone" binding:"omitempty,timezone"`
	RamadanStartDate *string             `json:"ramadanStartDate" binding:"omitempty,datetime=2006-01-02"`
	RamadanDays      int                 `json:"ramadanDays"`
	Enabled          *bool               `json:"enabled"`
}

// UnsubscribeRequest represents the body of POST /api/push/unsubscribe.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// OkResponse acknowledges a successful registration operation.
type OkResponse struct {
	Ok bool `json:"ok"`
}

// ErrorResponse represents an error message structure for API responses
type ErrorResponse struct {
	Error string `json:"error"`
}
