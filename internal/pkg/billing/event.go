package billing

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Webhook event types emitted by Lemon Squeezy that the reconciliation engine
// understands. Anything else is acknowledged and ignored.
const (
	EventOrderCreated               = "order_created"
	EventSubscriptionCreated        = "subscription_created"
	EventSubscriptionUpdated        = "subscription_updated"
	EventSubscriptionCancelled      = "subscription_cancelled"
	EventSubscriptionExpired        = "subscription_expired"
	EventSubscriptionPaymentSuccess = "subscription_payment_success"
	EventSubscriptionPaymentFailed  = "subscription_payment_failed"
)

// EventAttributes is the typed view of data.attributes. Lemon Squeezy sends
// numeric identifiers, so ids are json.Number and exposed as strings.
// Absent fields stay zero-valued; Cancelled is a pointer so "absent" and
// "false" remain distinguishable.
type EventAttributes struct {
	CustomerID            json.Number `json:"customer_id"`
	UserEmail             string      `json:"user_email"`
	OrderID               json.Number `json:"order_id"`
	VariantID             json.Number `json:"variant_id"`
	SubscriptionID        json.Number `json:"subscription_id"`
	FirstSubscriptionItem struct {
		SubscriptionID json.Number `json:"subscription_id"`
	} `json:"first_subscription_item"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	RenewsAt    string `json:"renews_at"`
	EndsAt      string `json:"ends_at"`
	TrialEndsAt string `json:"trial_ends_at"`
	Cancelled   *bool  `json:"cancelled"`
	Total       int    `json:"total"`
	Currency    string `json:"currency"`
	URLs        struct {
		InvoiceURL string `json:"invoice_url"`
	} `json:"urls"`
}

// WebhookEvent is the parsed webhook envelope handed to the engine. The
// dispatcher only ever works on this closed structure, never on raw JSON.
type WebhookEvent struct {
	Type       string
	UserIDHint string
	DataID     string
	Attrs      EventAttributes
}

type webhookEnvelope struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			UserID string `json:"user_id"`
		} `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         string          `json:"id"`
		Attributes EventAttributes `json:"attributes"`
	} `json:"data"`
}

// ParseWebhookEvent validates and converts a raw webhook body into a typed
// event. A body that is not JSON or lacks meta.event_name is malformed and
// must never reach the reconciliation engine.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var raw webhookEnvelope
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, err
	}
	eventName := strings.TrimSpace(raw.Meta.EventName)
	if eventName == "" {
		return nil, errors.New("webhook payload missing meta.event_name")
	}

	return &WebhookEvent{
		Type:       eventName,
		UserIDHint: strings.TrimSpace(raw.Meta.CustomData.UserID),
		DataID:     strings.TrimSpace(raw.Data.ID),
		Attrs:      raw.Data.Attributes,
	}, nil
}

// SubscriptionID resolves the external subscription identifier. Depending on
// the event type Lemon Squeezy puts it in a top-level attribute, inside
// first_subscription_item, or as the envelope's data.id.
func (e *WebhookEvent) SubscriptionID() string {
	if id := e.Attrs.SubscriptionID.String(); id != "" {
		return id
	}
	if id := e.Attrs.FirstSubscriptionItem.SubscriptionID.String(); id != "" {
		return id
	}
	return e.DataID
}

// CustomerID returns the external customer identifier, if present.
func (e *WebhookEvent) CustomerID() string {
	return e.Attrs.CustomerID.String()
}

// OrderID returns the external order identifier, if present.
func (e *WebhookEvent) OrderID() string {
	return e.Attrs.OrderID.String()
}

// VariantID returns the external plan variant identifier, if present.
func (e *WebhookEvent) VariantID() string {
	return e.Attrs.VariantID.String()
}

// UserID parses the internal user id hint set at checkout-session creation.
// Returns 0 when absent or not numeric.
func (e *WebhookEvent) UserID() uint {
	if e.UserIDHint == "" {
		return 0
	}
	id, err := strconv.ParseUint(e.UserIDHint, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// CreatedAt returns the event creation timestamp, nil if absent or unparsable.
func (e *WebhookEvent) CreatedAt() *time.Time { return parseEventTime(e.Attrs.CreatedAt) }

// RenewsAt returns the next renewal timestamp, nil if absent or unparsable.
func (e *WebhookEvent) RenewsAt() *time.Time { return parseEventTime(e.Attrs.RenewsAt) }

// TrialEndsAt returns the trial end timestamp, nil if absent or unparsable.
func (e *WebhookEvent) TrialEndsAt() *time.Time { return parseEventTime(e.Attrs.TrialEndsAt) }

func parseEventTime(val string) *time.Time {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}
