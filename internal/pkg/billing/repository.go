package billing

import (
	"time"

	"github.com/HoangNamVo/Lumely/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the reconciliation engine.
// Transaction returns a repository bound to the transaction so every webhook
// mutation (lookup + upsert) is atomic with respect to concurrent deliveries.
type Repository interface {
	Transaction(fn func(Repository) error) error

	FindPlanByVariantID(variantID string) (*models.SubscriptionPlan, error)

	FindUserByID(id uint) (*models.User, error)
	FindUserByLemonCustomerID(customerID string) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	SaveUser(user *models.User) error

	// The ForUpdate lookups take a row lock inside the surrounding
	// transaction, serializing concurrent deliveries per subscription.
	FindSubscriptionByUserIDForUpdate(userID uint) (*models.UserSubscription, error)
	FindSubscriptionByLemonIDForUpdate(lemonSubscriptionID string) (*models.UserSubscription, error)
	SaveSubscription(sub *models.UserSubscription) error

	CreatePayment(payment *models.Payment) error

	CreateWebhookEvent(event *models.BillingWebhookEvent) error
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Transaction(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func (r *gormRepository) FindPlanByVariantID(variantID string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.Where("lemon_variant_id = ?", variantID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *gormRepository) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) FindUserByLemonCustomerID(customerID string) (*models.User, error) {
	var user models.User
	err := r.db.Where("lemon_customer_id = ?", customerID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *gormRepository) SaveUser(user *models.User) error {
	return r.db.Save(user).Error
}

func (r *gormRepository) FindSubscriptionByUserIDForUpdate(userID uint) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) FindSubscriptionByLemonIDForUpdate(lemonSubscriptionID string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("lemon_subscription_id = ?", lemonSubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SaveSubscription(sub *models.UserSubscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) CreatePayment(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *gormRepository) CreateWebhookEvent(event *models.BillingWebhookEvent) error {
	return r.db.Create(event).Error
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
