package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HoangNamVo/Lumely/app/models"
)

func testPlan() *models.SubscriptionPlan {
	return &models.SubscriptionPlan{ID: 10, Code: "pro", LemonVariantID: "12345", IsActive: true}
}

func testUser() *models.User {
	return &models.User{ID: 42, Email: "jane@example.com"}
}

func TestCreateCheckout(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkouts" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Fatalf("unexpected authorization header: %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/vnd.api+json")
		_, _ = w.Write([]byte(`{"data":{"attributes":{"url":"https://checkout.lemonsqueezy.com/s/abc"}}}`))
	}))
	defer srv.Close()

	client := &LemonClient{
		APIKey:      "key",
		StoreID:     "777",
		APIBaseURL:  srv.URL,
		RedirectURL: "https://lumely.app/dashboard",
		HTTPClient:  &http.Client{Timeout: 5 * time.Second},
	}

	url, err := client.CreateCheckout(context.Background(), testPlan(), testUser())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://checkout.lemonsqueezy.com/s/abc" {
		t.Fatalf("unexpected checkout url: %q", url)
	}

	// The custom user_id field is what lets the webhook resolve identity.
	data := gotPayload["data"].(map[string]any)
	attrs := data["attributes"].(map[string]any)
	checkoutData := attrs["checkout_data"].(map[string]any)
	custom := checkoutData["custom"].(map[string]any)
	if custom["user_id"] != "42" {
		t.Fatalf("expected custom user_id 42, got %v", custom["user_id"])
	}
	if checkoutData["email"] != "jane@example.com" {
		t.Fatalf("expected prefilled email, got %v", checkoutData["email"])
	}
}

func TestCreateCheckout_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"errors":[{"detail":"store unavailable"}]}`))
	}))
	defer srv.Close()

	client := &LemonClient{
		APIKey:     "key",
		StoreID:    "777",
		APIBaseURL: srv.URL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}

	if _, err := client.CreateCheckout(context.Background(), testPlan(), testUser()); err == nil {
		t.Fatalf("expected error on non-2xx upstream response")
	}
}

func TestCreateCheckout_NotConfigured(t *testing.T) {
	client := &LemonClient{HTTPClient: &http.Client{}}
	if _, err := client.CreateCheckout(context.Background(), testPlan(), testUser()); err != ErrLemonNotConfigured {
		t.Fatalf("expected ErrLemonNotConfigured, got %v", err)
	}

	client = &LemonClient{APIKey: "key", StoreID: "777", HTTPClient: &http.Client{}}
	if _, err := client.CreateCheckout(context.Background(), &models.SubscriptionPlan{Code: "free"}, testUser()); err == nil {
		t.Fatalf("expected error for plan without variant id")
	}
}
