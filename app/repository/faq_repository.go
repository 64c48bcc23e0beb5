package repository

import (
	"github.com/HoangNamVo/Lumely/app/models"
	"gorm.io/gorm"
)

// faqRepository implements the FAQRepository interface
type faqRepository struct {
	db *gorm.DB
}

// NewFAQRepository creates a new FAQ repository instance
func NewFAQRepository(db *gorm.DB) FAQRepository {
	return &faqRepository{db: db}
}

// GetActiveCategories retrieves active categories with their active FAQs,
// ordered the way they are displayed
func (r *faqRepository) GetActiveCategories() ([]models.FAQCategory, error) {
	var categories []models.FAQCategory
	err := r.db.Where("is_active = ?", true).
		Preload("FAQs", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order ASC")
		}).
		Order("order_index ASC").Find(&categories).Error
	return categories, err
}

// GetCategoryByID retrieves a category by its ID
func (r *faqRepository) GetCategoryByID(id uint) (*models.FAQCategory, error) {
	var category models.FAQCategory
	err := r.db.Preload("FAQs").First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// CreateCategory creates a new FAQ category
func (r *faqRepository) CreateCategory(category *models.FAQCategory) error {
	return r.db.Create(category).Error
}

// UpdateCategory updates an existing FAQ category
func (r *faqRepository) UpdateCategory(category *models.FAQCategory) error {
	return r.db.Save(category).Error
}

// DeleteCategory deletes a category and its FAQs
func (r *faqRepository) DeleteCategory(id uint) error {
	if err := r.db.Where("faq_category_id = ?", id).Delete(&models.FAQ{}).Error; err != nil {
		return err
	}
	return r.db.Delete(&models.FAQCategory{}, id).Error
}

// GetFAQByID retrieves an FAQ entry by its ID
func (r *faqRepository) GetFAQByID(id uint) (*models.FAQ, error) {
	var faq models.FAQ
	err := r.db.First(&faq, id).Error
	if err != nil {
		return nil, err
	}
	return &faq, nil
}

// CreateFAQ creates a new FAQ entry
func (r *faqRepository) CreateFAQ(faq *models.FAQ) error {
	return r.db.Create(faq).Error
}

// UpdateFAQ updates an existing FAQ entry
func (r *faqRepository) UpdateFAQ(faq *models.FAQ) error {
	return r.db.Save(faq).Error
}

// DeleteFAQ deletes an FAQ entry by its ID
func (r *faqRepository) DeleteFAQ(id uint) error {
	return r.db.Delete(&models.FAQ{}, id).Error
}
