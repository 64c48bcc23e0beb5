package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	PlanIntervalMonth = "month"
	PlanIntervalYear  = "year"
)

// FeatureMap stores arbitrary per-plan feature flags/limits as a JSON column.
type FeatureMap map[string]any

func (m FeatureMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *FeatureMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported feature map column type")
	}
	return json.Unmarshal(raw, m)
}

// SubscriptionPlan is a purchasable tier. Plans are created by administrators
// only; the webhook reconciliation engine never creates one.
type SubscriptionPlan struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Code           string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code" validate:"required,min=2,max=64"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name" validate:"required,max=255"`
	Description    string         `gorm:"type:text" json:"description"`
	PriceInCents   int            `gorm:"not null;default:0" json:"price_in_cents"`
	Currency       string         `gorm:"type:varchar(16);not null;default:'usd'" json:"currency"`
	Interval       string         `gorm:"type:varchar(16);not null;default:'month'" json:"interval" validate:"oneof=month year"`
	Features       FeatureMap     `gorm:"type:json" json:"features,omitempty"`
	LemonProductID string         `gorm:"type:varchar(191);default:null" json:"lemon_product_id"`
	LemonVariantID string         `gorm:"type:varchar(191);index;default:null" json:"lemon_variant_id"`
	IsActive       bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsCheckoutConfigured reports whether the plan can be sold through Lemon
// Squeezy hosted checkout.
func (p *SubscriptionPlan) IsCheckoutConfigured() bool {
	return p.LemonVariantID != ""
}
