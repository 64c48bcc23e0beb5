package repository

import (
	"github.com/HoangNamVo/Lumely/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByRefCode(refCode string) (*models.User, error)
	GetByTokenHash(hash string) (*models.User, *models.AuthToken, error)
	GetBySocialAccount(provider, providerUserID string) (*models.User, error)
	CreateSocialAccount(account *models.SocialAccount) error
	CreateToken(token *models.AuthToken) error
	DeleteToken(hash string) error
	DeleteExpiredTokens() (int64, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
}

// PlanRepository defines the interface for subscription plan operations
type PlanRepository interface {
	Create(plan *models.SubscriptionPlan) error
	GetByID(id uint) (*models.SubscriptionPlan, error)
	GetByCode(code string) (*models.SubscriptionPlan, error)
	GetByVariantID(variantID string) (*models.SubscriptionPlan, error)
	GetActive() ([]models.SubscriptionPlan, error)
	GetAll() ([]models.SubscriptionPlan, error)
	Update(plan *models.SubscriptionPlan) error
	Delete(id uint) error
	CodeExists(code string) (bool, error)
	CodeExistsExceptID(code string, id uint) (bool, error)
}

// SubscriptionRepository defines the interface for subscription and payment reads
type SubscriptionRepository interface {
	GetByUserID(userID uint) (*models.UserSubscription, error)
	GetByLemonID(lemonSubscriptionID string) (*models.UserSubscription, error)
	ListPayments(userID uint, offset, limit int) ([]models.Payment, error)
	CountPayments(userID uint) (int64, error)
	ListUnreconciled(limit int) ([]models.Payment, error)
	Reconcile(paymentID uint, userID uint, subscriptionID *uint) error
	ListWebhookEvents(offset, limit int) ([]models.BillingWebhookEvent, error)
	CountWebhookEvents() (int64, error)
}

// BlogRepository defines the interface for blog post and category operations
type BlogRepository interface {
	Create(post *models.BlogPost) error
	GetByID(id uint) (*models.BlogPost, error)
	GetBySlug(slug string) (*models.BlogPost, error)
	GetPublished(offset, limit int) ([]models.BlogPost, error)
	GetAll(offset, limit int) ([]models.BlogPost, error)
	Update(post *models.BlogPost) error
	Delete(id uint) error
	Count() (int64, error)
	SlugExists(slug string) (bool, error)
	SlugExistsExceptID(slug string, id uint) (bool, error)
	GetCategories() ([]models.BlogCategory, error)
	CreateCategory(category *models.BlogCategory) error
}

// FAQRepository defines the interface for FAQ operations
type FAQRepository interface {
	GetActiveCategories() ([]models.FAQCategory, error)
	GetCategoryByID(id uint) (*models.FAQCategory, error)
	CreateCategory(category *models.FAQCategory) error
	UpdateCategory(category *models.FAQCategory) error
	DeleteCategory(id uint) error
	GetFAQByID(id uint) (*models.FAQ, error)
	CreateFAQ(faq *models.FAQ) error
	UpdateFAQ(faq *models.FAQ) error
	DeleteFAQ(id uint) error
}

// TicketRepository defines the interface for support ticket operations
type TicketRepository interface {
	Create(ticket *models.SupportTicket) error
	GetByID(id uint) (*models.SupportTicket, error)
	GetByUserID(userID uint, offset, limit int) ([]models.SupportTicket, error)
	GetAll(offset, limit int) ([]models.SupportTicket, error)
	Update(ticket *models.SupportTicket) error
	AddComment(comment *models.SupportTicketComment) error
	Count() (int64, error)
	CountByUserID(userID uint) (int64, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User         UserRepository
	Plan         PlanRepository
	Subscription SubscriptionRepository
	Blog         BlogRepository
	FAQ          FAQRepository
	Ticket       TicketRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Plan:         NewPlanRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Blog:         NewBlogRepository(db),
		FAQ:          NewFAQRepository(db),
		Ticket:       NewTicketRepository(db),
	}
}
