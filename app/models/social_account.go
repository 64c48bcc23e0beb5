package models

import "time"

// SocialAccount links a user to an external identity provider. One provider
// identity can only ever be linked to a single local user.
type SocialAccount struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Provider       string    `gorm:"type:varchar(50);not null;index:ux_social_accounts_provider_user,unique,priority:1" json:"provider"`
	ProviderUserID string    `gorm:"type:varchar(191);not null;index:ux_social_accounts_provider_user,unique,priority:2" json:"provider_user_id"`
	ProviderEmail  string    `gorm:"type:varchar(200);default:null" json:"provider_email"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	LinkedAt       time.Time `gorm:"autoCreateTime" json:"linked_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
