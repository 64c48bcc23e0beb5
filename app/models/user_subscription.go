package models

import "time"

// Subscription status tokens observed from Lemon Squeezy. The processor is the
// source of truth, so Status stays an open string rather than a closed enum.
const (
	SubscriptionStatusActive        = "active"
	SubscriptionStatusOnTrial       = "on_trial"
	SubscriptionStatusCancelled     = "cancelled"
	SubscriptionStatusExpired       = "expired"
	SubscriptionStatusPaymentFailed = "payment_failed"
)

// UserSubscription is the current billing relationship between a user and a
// plan. The system keeps a single row per user and mutates it in place across
// the subscription lifecycle; the unique index on UserID enforces that at the
// storage level.
type UserSubscription struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	UserID              uint       `gorm:"not null;uniqueIndex" json:"user_id"`
	SubscriptionPlanID  uint       `gorm:"not null;index" json:"subscription_plan_id"`
	LemonSubscriptionID string     `gorm:"type:varchar(191);index;default:null" json:"lemon_subscription_id"`
	Status              string     `gorm:"type:varchar(32);not null" json:"status"`
	StartDate           *time.Time `gorm:"type:timestamp;default:null" json:"start_date,omitempty"`
	CurrentPeriodEnd    *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd   bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CanceledAt          *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	TrialEnd            *time.Time `gorm:"type:timestamp;default:null" json:"trial_end,omitempty"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User             User             `gorm:"foreignKey:UserID" json:"-"`
	SubscriptionPlan SubscriptionPlan `gorm:"foreignKey:SubscriptionPlanID" json:"subscription_plan,omitempty"`
}

// IsEntitling reports whether the subscription currently grants paid access.
func (s *UserSubscription) IsEntitling() bool {
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusOnTrial:
		return true
	case SubscriptionStatusCancelled:
		// Cancelled subscriptions keep access until the period ends.
		return s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.After(time.Now())
	default:
		return false
	}
}
