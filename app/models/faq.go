package models

import "time"

// FAQCategory groups FAQ entries for display ordering.
type FAQCategory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required,max=255"`
	OrderIndex int       `gorm:"default:0;index" json:"order_index"`
	IsActive   bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	FAQs []FAQ `gorm:"foreignKey:FAQCategoryID" json:"faqs,omitempty"`
}

// FAQ is a single question/answer entry.
type FAQ struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FAQCategoryID *uint     `gorm:"index;default:null" json:"faq_category_id,omitempty"`
	Question      string    `gorm:"type:text;not null" json:"question" validate:"required"`
	Answer        string    `gorm:"type:longtext;not null" json:"answer" validate:"required"`
	SortOrder     int       `gorm:"default:0;index" json:"sort_order"`
	IsActive      bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	FAQCategory *FAQCategory `gorm:"foreignKey:FAQCategoryID" json:"faq_category,omitempty"`
}
