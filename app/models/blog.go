package models

import "time"

// BlogCategory groups published posts.
type BlogCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required,max=255"`
	Slug        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,max=255"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BlogPost is a CMS article written by an admin user.
type BlogPost struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	BlogCategoryID *uint      `gorm:"index;default:null" json:"blog_category_id,omitempty"`
	Title          string     `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Slug           string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug" validate:"required,max=255"`
	Excerpt        string     `gorm:"type:text" json:"excerpt"`
	Content        string     `gorm:"type:longtext" json:"content"`
	ThumbnailURL   string     `gorm:"type:varchar(1000);default:null" json:"thumbnail_url"`
	Published      bool       `gorm:"default:false;index" json:"published"`
	PublishedAt    *time.Time `gorm:"type:timestamp;default:null" json:"published_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User         User          `gorm:"foreignKey:UserID" json:"-"`
	BlogCategory *BlogCategory `gorm:"foreignKey:BlogCategoryID" json:"blog_category,omitempty"`
}
