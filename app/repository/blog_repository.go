package repository

import (
	"github.com/HoangNamVo/Lumely/app/models"
	"gorm.io/gorm"
)

// blogRepository implements the BlogRepository interface
type blogRepository struct {
	db *gorm.DB
}

// NewBlogRepository creates a new blog repository instance
func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepository{db: db}
}

// Create creates a new blog post in the database
func (r *blogRepository) Create(post *models.BlogPost) error {
	return r.db.Create(post).Error
}

// GetByID retrieves a blog post by its ID
func (r *blogRepository) GetByID(id uint) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.Preload("BlogCategory").First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetBySlug retrieves a blog post by its slug
func (r *blogRepository) GetBySlug(slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := r.db.Preload("BlogCategory").Where("slug = ?", slug).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPublished retrieves published posts with pagination
func (r *blogRepository) GetPublished(offset, limit int) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := r.db.Preload("BlogCategory").Where("published = ?", true).
		Order("published_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

// GetAll retrieves all posts with pagination
func (r *blogRepository) GetAll(offset, limit int) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	err := r.db.Preload("BlogCategory").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&posts).Error
	return posts, err
}

// Update updates an existing blog post in the database
func (r *blogRepository) Update(post *models.BlogPost) error {
	return r.db.Save(post).Error
}

// Delete soft deletes a blog post by its ID
func (r *blogRepository) Delete(id uint) error {
	return r.db.Delete(&models.BlogPost{}, id).Error
}

// Count returns the total number of blog posts
func (r *blogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.BlogPost{}).Count(&count).Error
	return count, err
}

// SlugExists checks if a slug already exists
func (r *blogRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.BlogPost{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// SlugExistsExceptID checks if a slug exists excluding a specific ID
func (r *blogRepository) SlugExistsExceptID(slug string, id uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.BlogPost{}).Where("slug = ? AND id != ?", slug, id).Count(&count).Error
	return count > 0, err
}

// GetCategories retrieves all blog categories
func (r *blogRepository) GetCategories() ([]models.BlogCategory, error) {
	var categories []models.BlogCategory
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

// CreateCategory creates a new blog category
func (r *blogRepository) CreateCategory(category *models.BlogCategory) error {
	return r.db.Create(category).Error
}
