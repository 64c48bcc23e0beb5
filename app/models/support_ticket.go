package models

import "time"

const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

const (
	TicketPriorityLow    = "low"
	TicketPriorityNormal = "normal"
	TicketPriorityHigh   = "high"
)

// SupportTicket is a helpdesk request opened by a user.
type SupportTicket struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	Subject       string     `gorm:"type:varchar(255);not null" json:"subject" validate:"required,max=255"`
	Description   string     `gorm:"type:longtext;not null" json:"description" validate:"required"`
	Status        string     `gorm:"type:varchar(32);not null;default:'open';index" json:"status" validate:"oneof=open in_progress resolved closed"`
	Priority      string     `gorm:"type:varchar(16);not null;default:'normal'" json:"priority" validate:"oneof=low normal high"`
	AttachmentURL string     `gorm:"type:varchar(1000);default:null" json:"attachment_url"`
	ResolvedAt    *time.Time `gorm:"type:timestamp;default:null" json:"resolved_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User     User                   `gorm:"foreignKey:UserID" json:"-"`
	Comments []SupportTicketComment `gorm:"foreignKey:SupportTicketID" json:"comments,omitempty"`
}

// SupportTicketComment is a reply on a ticket, from the owner or staff.
type SupportTicketComment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SupportTicketID uint      `gorm:"not null;index" json:"support_ticket_id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	Body            string    `gorm:"type:longtext;not null" json:"body" validate:"required"`
	IsStaff         bool      `gorm:"default:false" json:"is_staff"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// CanTransitionTo limits ticket status changes to the supported lifecycle.
func (t *SupportTicket) CanTransitionTo(status string) bool {
	switch t.Status {
	case TicketStatusOpen:
		return status == TicketStatusInProgress || status == TicketStatusResolved || status == TicketStatusClosed
	case TicketStatusInProgress:
		return status == TicketStatusResolved || status == TicketStatusClosed
	case TicketStatusResolved:
		return status == TicketStatusClosed || status == TicketStatusOpen
	default:
		return false
	}
}
