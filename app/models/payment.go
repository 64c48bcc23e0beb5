package models

import "time"

const PaymentStatusSucceeded = "succeeded"

// Payment is an immutable ledger entry recorded once per successful-payment
// webhook delivery. Rows are never updated or deleted. User and subscription
// references are nullable so a real payment signal is never dropped even when
// its owner cannot be resolved yet.
type Payment struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             *uint      `gorm:"index;default:null" json:"user_id,omitempty"`
	UserSubscriptionID *uint      `gorm:"index;default:null" json:"user_subscription_id,omitempty"`
	LemonOrderID       string     `gorm:"type:varchar(191);index;default:null" json:"lemon_order_id"`
	AmountInCents      int        `gorm:"not null;default:0" json:"amount_in_cents"`
	Currency           string     `gorm:"type:varchar(16);not null;default:'usd'" json:"currency"`
	Status             string     `gorm:"type:varchar(32);not null" json:"status"`
	PaidAt             *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	ReceiptURL         string     `gorm:"type:varchar(1000);default:null" json:"receipt_url"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`

	User             *User             `gorm:"foreignKey:UserID" json:"-"`
	UserSubscription *UserSubscription `gorm:"foreignKey:UserSubscriptionID" json:"-"`
}

// IsReconciled reports whether the ledger entry is linked to both a user and a
// subscription.
func (p *Payment) IsReconciled() bool {
	return p.UserID != nil && p.UserSubscriptionID != nil
}
