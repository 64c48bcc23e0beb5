package repository

import (
	"time"

	"github.com/HoangNamVo/Lumely/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByRefCode retrieves a user by their referral code
func (r *userRepository) GetByRefCode(refCode string) (*models.User, error) {
	var user models.User
	err := r.db.Where("ref_code = ?", refCode).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByTokenHash retrieves a user and their token record by the token hash
func (r *userRepository) GetByTokenHash(hash string) (*models.User, *models.AuthToken, error) {
	var token models.AuthToken
	if err := r.db.Where("token_hash = ?", hash).First(&token).Error; err != nil {
		return nil, nil, err
	}
	var user models.User
	if err := r.db.First(&user, token.UserID).Error; err != nil {
		return nil, nil, err
	}
	return &user, &token, nil
}

// GetBySocialAccount retrieves a user linked to the given provider identity
func (r *userRepository) GetBySocialAccount(provider, providerUserID string) (*models.User, error) {
	var account models.SocialAccount
	err := r.db.Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := r.db.First(&user, account.UserID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateSocialAccount links a provider identity to a user
func (r *userRepository) CreateSocialAccount(account *models.SocialAccount) error {
	return r.db.Create(account).Error
}

// CreateToken stores a new auth token record
func (r *userRepository) CreateToken(token *models.AuthToken) error {
	return r.db.Create(token).Error
}

// DeleteToken removes a token record by its hash
func (r *userRepository) DeleteToken(hash string) error {
	return r.db.Where("token_hash = ?", hash).Delete(&models.AuthToken{}).Error
}

// DeleteExpiredTokens removes all tokens past their expiry
func (r *userRepository) DeleteExpiredTokens() (int64, error) {
	result := r.db.Where("expires_at < ?", time.Now()).Delete(&models.AuthToken{})
	return result.RowsAffected, result.Error
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft deletes a user by their ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves users with pagination
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// Search finds users by name or email fragment
func (r *userRepository) Search(query string) ([]models.User, error) {
	var users []models.User
	like := "%" + query + "%"
	err := r.db.Where("name LIKE ? OR email LIKE ?", like, like).
		Order("created_at DESC").Limit(50).Find(&users).Error
	return users, err
}
