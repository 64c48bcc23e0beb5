package repository

import (
	"github.com/HoangNamVo/Lumely/app/models"
	"gorm.io/gorm"
)

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetByUserID retrieves the current subscription row of a user
func (r *subscriptionRepository) GetByUserID(userID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.Preload("SubscriptionPlan").Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetByLemonID retrieves a subscription by its billing provider id
func (r *subscriptionRepository) GetByLemonID(lemonSubscriptionID string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.Preload("SubscriptionPlan").
		Where("lemon_subscription_id = ?", lemonSubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListPayments retrieves the payment history of a user, newest first
func (r *subscriptionRepository) ListPayments(userID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&payments).Error
	return payments, err
}

// CountPayments returns the number of payments recorded for a user
func (r *subscriptionRepository) CountPayments(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListUnreconciled retrieves payments recorded before their owner could be
// resolved. These rows carry a NULL user reference until reconciliation.
func (r *subscriptionRepository) ListUnreconciled(limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id IS NULL").
		Order("created_at ASC").Limit(limit).Find(&payments).Error
	return payments, err
}

// Reconcile attaches an orphan payment to its owner
func (r *subscriptionRepository) Reconcile(paymentID uint, userID uint, subscriptionID *uint) error {
	updates := map[string]any{"user_id": userID}
	if subscriptionID != nil {
		updates["user_subscription_id"] = *subscriptionID
	}
	return r.db.Model(&models.Payment{}).Where("id = ?", paymentID).Updates(updates).Error
}

// ListWebhookEvents retrieves the webhook audit log, newest first
func (r *subscriptionRepository) ListWebhookEvents(offset, limit int) ([]models.BillingWebhookEvent, error) {
	var events []models.BillingWebhookEvent
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&events).Error
	return events, err
}

// CountWebhookEvents returns the number of recorded webhook deliveries
func (r *subscriptionRepository) CountWebhookEvents() (int64, error) {
	var count int64
	err := r.db.Model(&models.BillingWebhookEvent{}).Count(&count).Error
	return count, err
}
