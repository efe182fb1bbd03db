package service

import (
	"context"
	"log/slog"

	"ramadantracker.app/eligibility"
	"ramadantracker.app/errors"
	"ramadantracker.app/models"
	"ramadantracker.app/pkg/validation"
)

// SubscriptionService handles registration business logic: it normalizes
// subscribe requests into valid records and upserts/deletes them in the store.
type SubscriptionService struct {
	store SubscriptionStore
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(store SubscriptionStore) *SubscriptionService {
	return &SubscriptionService{store: store}
}

// Subscribe validates and normalizes a registration request and upserts the
// resulting record keyed by its endpoint. Re-subscribing an endpoint replaces
// the prior record in full, including any recorded send state.
func (s *SubscriptionService) Subscribe(ctx context.Context, req *models.SubscribeRequest) error {
	if err := s.validateSubscribeRequest(req); err != nil {
		return err
	}

	record := &models.Subscription{
		Endpoint:         req.Subscription.Endpoint,
		ExpirationTime:   req.Subscription.ExpirationTime,
		Keys:             req.Subscription.Keys,
		ReminderTime:     eligibility.NormalizeTime(req.ReminderTime),
		Timezone:         normalizeTimezone(req.Timezone),
		RamadanStartDate: normalizeStartDate(req.RamadanStartDate),
		RamadanDays:      normalizeObservanceDays(req.RamadanDays),
		Enabled:          req.Enabled == nil || *req.Enabled,
	}

	if err := s.store.Put(ctx, record); err != nil {
		return err
	}

	slog.Debug("Subscription stored",
		"endpoint", record.Endpoint,
		"reminder_time", record.ReminderTime,
		"timezone", record.Timezone)
	return nil
}

// Unsubscribe deletes the record for an endpoint. Deleting an unknown
// endpoint still succeeds, so the operation is idempotent.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, endpoint string) error {
	if !validation.IsNotEmpty(endpoint) {
		return errors.NewValidationError("endpoint is required")
	}

	if err := s.store.Delete(ctx, endpoint); err != nil {
		return err
	}

	slog.Debug("Subscription deleted", "endpoint", endpoint)
	return nil
}

func (s *SubscriptionService) validateSubscribeRequest(req *models.SubscribeRequest) error {
	if !validation.IsNotEmpty(req.Subscription.Endpoint) {
		return errors.NewValidationError("subscription endpoint is required")
	}
	if !validation.IsValidEndpoint(req.Subscription.Endpoint) {
		return errors.NewValidationError("subscription endpoint must be an absolute http(s) URL")
	}
	if req.Timezone != "" && !validation.IsValidTimezone(req.Timezone) {
		return errors.NewValidationError("timezone must be a valid IANA zone name")
	}
	if req.RamadanStartDate != nil && *req.RamadanStartDate != "" && !validation.IsValidDateKey(*req.RamadanStartDate) {
		return errors.NewValidationError("ramadanStartDate must be a YYYY-MM-DD date")
	}
	return nil
}

func normalizeTimezone(tz string) string {
	if tz == "" {
		return "UTC"
	}
	return tz
}

// normalizeStartDate maps an absent or empty start date to nil, which
// disables day-window eligibility until the subscriber finishes setup.
func normalizeStartDate(start *string) *string {
	if start == nil || *start == "" {
		return nil
	}
	return start
}

// normalizeObservanceDays accepts exactly 29; anything else becomes 30.
func normalizeObservanceDays(days int) int {
	if days == 29 {
		return 29
	}
	return 30
}
