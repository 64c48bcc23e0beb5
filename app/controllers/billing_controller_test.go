package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/HoangNamVo/Lumely/app/models"
	"github.com/HoangNamVo/Lumely/internal/pkg/billing"
)

func TestWebhookResponse(t *testing.T) {
	assert.Equal(t, fiber.Map{"ok": true}, webhookResponse(billing.Result{Status: billing.StatusOK}))
	assert.Equal(t, fiber.Map{"ignored": true}, webhookResponse(billing.Result{Status: billing.StatusIgnored}))
	assert.Equal(t,
		fiber.Map{"error": "Plan not found"},
		webhookResponse(billing.Result{Status: billing.StatusSoftError, Detail: "Plan not found"}),
	)
}

func TestCheckoutPlanResponse(t *testing.T) {
	// Unknown code and existing-but-unsellable plans both come back 404.
	status, body := checkoutPlanResponse(nil, gorm.ErrRecordNotFound)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "not_found", body["error"])

	status, _ = checkoutPlanResponse(&models.SubscriptionPlan{Code: "pro", IsActive: true}, nil)
	assert.Equal(t, fiber.StatusNotFound, status, "plan without a variant must be 404")

	status, _ = checkoutPlanResponse(&models.SubscriptionPlan{Code: "pro", IsActive: false, LemonVariantID: "123"}, nil)
	assert.Equal(t, fiber.StatusNotFound, status, "inactive plan must be 404")

	status, _ = checkoutPlanResponse(nil, errors.New("connection refused"))
	assert.Equal(t, fiber.StatusInternalServerError, status)

	status, body = checkoutPlanResponse(&models.SubscriptionPlan{Code: "pro", IsActive: true, LemonVariantID: "123"}, nil)
	assert.Equal(t, 0, status)
	assert.Nil(t, body)
}

func TestHandleLemonWebhook_RejectsBadSignature(t *testing.T) {
	t.Setenv("LEMON_WEBHOOK_SECRET", "shh")

	app := fiber.New()
	app.Post("/webhooks/lemonsqueezy", HandleLemonWebhook)

	body := `{"meta":{"event_name":"subscription_created"},"data":{}}`

	// Missing signature header
	req := httptest.NewRequest("POST", "/webhooks/lemonsqueezy", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Signature computed with the wrong secret
	mac := hmac.New(sha256.New, []byte("not-the-secret"))
	mac.Write([]byte(body))
	req = httptest.NewRequest("POST", "/webhooks/lemonsqueezy", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", hex.EncodeToString(mac.Sum(nil)))
	resp, err = app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestHandleLemonWebhook_RejectsWhenSecretUnset(t *testing.T) {
	t.Setenv("LEMON_WEBHOOK_SECRET", "")

	app := fiber.New()
	app.Post("/webhooks/lemonsqueezy", HandleLemonWebhook)

	body := `{"meta":{"event_name":"subscription_created"},"data":{}}`
	mac := hmac.New(sha256.New, []byte(""))
	mac.Write([]byte(body))

	req := httptest.NewRequest("POST", "/webhooks/lemonsqueezy", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Signature", hex.EncodeToString(mac.Sum(nil)))
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var offset, limit int
	app.Get("/items", func(c *fiber.Ctx) error {
		offset, limit = parsePagination(c)
		return c.SendStatus(fiber.StatusOK)
	})

	cases := []struct {
		query      string
		wantOffset int
		wantLimit  int
	}{
		{"", 0, defaultPageSize},
		{"?page=3&page_size=10", 20, 10},
		{"?page=0&page_size=-5", 0, defaultPageSize},
		{"?page=1&page_size=9999", 0, maxPageSize},
		{"?page=abc&page_size=xyz", 0, defaultPageSize},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/items"+tc.query, nil)
		_, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, tc.wantOffset, offset, "query %q", tc.query)
		assert.Equal(t, tc.wantLimit, limit, "query %q", tc.query)
	}
}
