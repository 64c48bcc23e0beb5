package repository

import (
	"github.com/HoangNamVo/Lumely/app/models"
	"gorm.io/gorm"
)

// ticketRepository implements the TicketRepository interface
type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new support ticket repository instance
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

// Create creates a new support ticket in the database
func (r *ticketRepository) Create(ticket *models.SupportTicket) error {
	return r.db.Create(ticket).Error
}

// GetByID retrieves a ticket with its comment thread
func (r *ticketRepository) GetByID(id uint) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	err := r.db.Preload("Comments", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&ticket, id).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetByUserID retrieves the tickets of a user, newest first
func (r *ticketRepository) GetByUserID(userID uint, offset, limit int) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&tickets).Error
	return tickets, err
}

// GetAll retrieves all tickets with pagination
func (r *ticketRepository) GetAll(offset, limit int) ([]models.SupportTicket, error) {
	var tickets []models.SupportTicket
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&tickets).Error
	return tickets, err
}

// Update updates an existing ticket in the database
func (r *ticketRepository) Update(ticket *models.SupportTicket) error {
	return r.db.Save(ticket).Error
}

// AddComment appends a comment to a ticket thread
func (r *ticketRepository) AddComment(comment *models.SupportTicketComment) error {
	return r.db.Create(comment).Error
}

// Count returns the total number of tickets
func (r *ticketRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.SupportTicket{}).Count(&count).Error
	return count, err
}

// CountByUserID returns the number of tickets opened by a user
func (r *ticketRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SupportTicket{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
