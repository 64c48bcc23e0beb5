package repository

import (
	"github.com/HoangNamVo/Lumely/app/models"
	"gorm.io/gorm"
)

// planRepository implements the PlanRepository interface
type planRepository struct {
	db *gorm.DB
}

// NewPlanRepository creates a new subscription plan repository instance
func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

// Create creates a new subscription plan in the database
func (r *planRepository) Create(plan *models.SubscriptionPlan) error {
	return r.db.Create(plan).Error
}

// GetByID retrieves a plan by its ID
func (r *planRepository) GetByID(id uint) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByCode retrieves a plan by its unique code
func (r *planRepository) GetByCode(code string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.Where("code = ?", code).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByVariantID retrieves a plan by its billing provider variant id
func (r *planRepository) GetByVariantID(variantID string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.Where("lemon_variant_id = ?", variantID).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetActive retrieves all active plans ordered by price
func (r *planRepository) GetActive() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("price_in_cents ASC").Find(&plans).Error
	return plans, err
}

// GetAll retrieves all plans including inactive ones
func (r *planRepository) GetAll() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Order("price_in_cents ASC").Find(&plans).Error
	return plans, err
}

// Update updates an existing plan in the database
func (r *planRepository) Update(plan *models.SubscriptionPlan) error {
	return r.db.Save(plan).Error
}

// Delete soft deletes a plan by its ID
func (r *planRepository) Delete(id uint) error {
	return r.db.Delete(&models.SubscriptionPlan{}, id).Error
}

// CodeExists checks if a plan code already exists
func (r *planRepository) CodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Model(&models.SubscriptionPlan{}).Where("code = ?", code).Count(&count).Error
	return count > 0, err
}

// CodeExistsExceptID checks if a code exists excluding a specific ID
func (r *planRepository) CodeExistsExceptID(code string, id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.SubscriptionPlan{}).
		Where("code = ? AND id != ?", code, id).Count(&count).Error
	return count > 0, err
}
