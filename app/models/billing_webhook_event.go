package models

import "time"

// BillingWebhookEvent is an append-only audit record of every inbound billing
// webhook delivery. Processing never short-circuits on duplicates: the
// reconciliation engine is idempotent for lifecycle events and deliberately
// append-per-delivery for payments, so the log exists for operator visibility
// and manual reconciliation, not for dedup.
type BillingWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	EventType       string     `gorm:"type:varchar(100);not null;index" json:"event_type"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	SignatureValid  bool       `gorm:"default:false;index" json:"signature_valid"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
