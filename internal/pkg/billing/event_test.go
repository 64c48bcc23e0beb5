package billing

import (
	"testing"
	"time"
)

func TestParseWebhookEvent(t *testing.T) {
	raw := []byte(`{
		"meta": {
			"event_name": "subscription_created",
			"custom_data": { "user_id": "42" }
		},
		"data": {
			"id": "991",
			"attributes": {
				"customer_id": 555,
				"user_email": "jane@example.com",
				"variant_id": 12345,
				"status": "active",
				"created_at": "2024-01-01T00:00:00Z",
				"renews_at": "2024-02-01T00:00:00Z",
				"first_subscription_item": { "subscription_id": 991 }
			}
		}
	}`)

	evt, err := ParseWebhookEvent(raw)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if evt.Type != EventSubscriptionCreated {
		t.Fatalf("unexpected event type: %q", evt.Type)
	}
	if evt.UserID() != 42 {
		t.Fatalf("expected user id hint 42, got %d", evt.UserID())
	}
	if evt.CustomerID() != "555" || evt.VariantID() != "12345" {
		t.Fatalf("unexpected ids: customer=%q variant=%q", evt.CustomerID(), evt.VariantID())
	}
	if evt.SubscriptionID() != "991" {
		t.Fatalf("unexpected subscription id: %q", evt.SubscriptionID())
	}
	want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if got := evt.RenewsAt(); got == nil || !got.Equal(want) {
		t.Fatalf("unexpected renews_at: %v", got)
	}
}

func TestParseWebhookEvent_Malformed(t *testing.T) {
	if _, err := ParseWebhookEvent([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
	if _, err := ParseWebhookEvent([]byte(`{"data":{"id":"1"}}`)); err == nil {
		t.Fatalf("expected error for missing meta.event_name")
	}
}

func TestWebhookEvent_SubscriptionIDFallbacks(t *testing.T) {
	// Top-level attribute wins.
	evt, err := ParseWebhookEvent([]byte(`{
		"meta": {"event_name": "subscription_payment_success"},
		"data": {"id": "77", "attributes": {"subscription_id": 991}}
	}`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if evt.SubscriptionID() != "991" {
		t.Fatalf("expected top-level subscription_id, got %q", evt.SubscriptionID())
	}

	// data.id is the last fallback (cancelled/expired payload shape).
	evt, err = ParseWebhookEvent([]byte(`{
		"meta": {"event_name": "subscription_cancelled"},
		"data": {"id": "991", "attributes": {"status": "cancelled"}}
	}`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if evt.SubscriptionID() != "991" {
		t.Fatalf("expected data.id fallback, got %q", evt.SubscriptionID())
	}
}

func TestWebhookEvent_TolerantTimestamps(t *testing.T) {
	evt, err := ParseWebhookEvent([]byte(`{
		"meta": {"event_name": "subscription_updated"},
		"data": {"id": "1", "attributes": {"renews_at": null, "trial_ends_at": "garbage"}}
	}`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if evt.RenewsAt() != nil {
		t.Fatalf("expected nil renews_at for null field")
	}
	if evt.TrialEndsAt() != nil {
		t.Fatalf("expected nil trial_ends_at for unparsable field")
	}
	if evt.UserID() != 0 {
		t.Fatalf("expected zero user id for absent hint")
	}
}
