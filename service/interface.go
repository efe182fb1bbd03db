package service

import (
	"context"

	"ramadantracker.app/models"
	"ramadantracker.app/push"
)

// SubscriptionStore is the durable registry of push delivery targets. Records
// are keyed by endpoint; Get yields (nil, nil) for a missing record and a
// corrupt-record error for one that no longer parses. List supports a
// paginated full scan: an empty next cursor means the scan is complete.
type SubscriptionStore interface {
	Put(ctx context.Context, sub *models.Subscription) error
	Get(ctx context.Context, endpoint string) (*models.Subscription, error)
	Delete(ctx context.Context, endpoint string) error
	List(ctx context.Context, cursor string, limit int) ([]string, string, error)
}

// PushSender delivers a payload-less notification to a push endpoint.
type PushSender interface {
	Send(ctx context.Context, endpoint string) (push.Result, error)
}

// SubscriptionManagerInterface handles subscription registration and removal
type SubscriptionManagerInterface interface {
	Subscribe(ctx context.Context, req *models.SubscribeRequest) error
	Unsubscribe(ctx context.Context, endpoint string) error
}

// ReminderDispatcherInterface runs one due-reminder scan over the registry
type ReminderDispatcherInterface interface {
	SendDueReminders(ctx context.Context) error
}

// Ensure implementations satisfy interfaces
var _ SubscriptionManagerInterface = (*SubscriptionService)(nil)
var _ ReminderDispatcherInterface = (*ReminderDispatcher)(nil)
var _ PushSender = (*push.Sender)(nil)
