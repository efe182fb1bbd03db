// Package repository implements the database-backed subscription store
package repository

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	apperrors "ramadantracker.app/errors"
	"ramadantracker.app/models"
)

// SubscriptionRepository handles data access operations for subscriptions.
// Records are keyed by endpoint; listing is keyset-paginated on the endpoint
// column so a full scan needs no global ordering state.
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new repository for subscription data
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Put upserts a subscription record keyed by its endpoint. Re-subscribing an
// existing endpoint overwrites the prior record in full (last write wins).
func (r *SubscriptionRepository) Put(ctx context.Context, sub *models.Subscription) error {
	log.Printf("[DEBUG] SubscriptionRepository.Put: endpoint=%s\n", sub.Endpoint)

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		UpdateAll: true,
	}).Create(sub)
	if result.Error != nil {
		log.Printf("[ERROR] Database error when upserting subscription: %v\n", result.Error)
		return apperrors.NewDatabaseError("failed to upsert subscription", result.Error)
	}

	log.Println("[DEBUG] Upserted subscription successfully")
	return nil
}

// Get retrieves a subscription by endpoint. A missing record yields (nil, nil).
func (r *SubscriptionRepository) Get(ctx context.Context, endpoint string) (*models.Subscription, error) {
	log.Printf("[DEBUG] SubscriptionRepository.Get: endpoint=%s\n", endpoint)

	var sub models.Subscription
	result := r.db.WithContext(ctx).Where("endpoint = ?", endpoint).First(&sub)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			log.Println("[DEBUG] No subscription found")
			return nil, nil
		}
		log.Printf("[ERROR] Database error when finding subscription: %v\n", result.Error)
		return nil, apperrors.NewDatabaseError("failed to find subscription", result.Error)
	}

	return &sub, nil
}

// Delete removes a subscription by endpoint. Deleting a missing record is a no-op.
func (r *SubscriptionRepository) Delete(ctx context.Context, endpoint string) error {
	log.Printf("[DEBUG] SubscriptionRepository.Delete: endpoint=%s\n", endpoint)

	result := r.db.WithContext(ctx).Where("endpoint = ?", endpoint).Delete(&models.Subscription{})
	if result.Error != nil {
		log.Printf("[ERROR] Database error when deleting subscription: %v\n", result.Error)
		return apperrors.NewDatabaseError("failed to delete subscription", result.Error)
	}

	log.Printf("[DEBUG] Deleted %d subscription(s)\n", result.RowsAffected)
	return nil
}

// List returns up to limit endpoints after cursor in endpoint order, plus the
// cursor for the next page. An empty next cursor means the scan is complete.
func (r *SubscriptionRepository) List(ctx context.Context, cursor string, limit int) ([]string, string, error) {
	log.Printf("[DEBUG] SubscriptionRepository.List: cursor=%q, limit=%d\n", cursor, limit)

	var endpoints []string
	query := r.db.WithContext(ctx).Model(&models.Subscription{}).Order("endpoint").Limit(limit)
	if cursor != "" {
		query = query.Where("endpoint > ?", cursor)
	}
	if err := query.Pluck("endpoint", &endpoints).Error; err != nil {
		log.Printf("[ERROR] Database error when listing subscriptions: %v\n", err)
		return nil, "", apperrors.NewDatabaseError("failed to list subscriptions", err)
	}

	next := ""
	if len(endpoints) == limit {
		next = endpoints[len(endpoints)-1]
	}
	log.Printf("[DEBUG] Listed %d subscription(s)\n", len(endpoints))
	return endpoints, next, nil
}
