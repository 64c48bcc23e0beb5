package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/HoangNamVo/Lumely/app/models"
	"github.com/HoangNamVo/Lumely/app/repository"
	"github.com/HoangNamVo/Lumely/internal/pkg/billing"
	"github.com/HoangNamVo/Lumely/internal/pkg/database"
	"github.com/HoangNamVo/Lumely/internal/pkg/env"
	"github.com/HoangNamVo/Lumely/internal/pkg/middleware"
)

// HandleLemonWebhook processes billing events pushed by Lemon Squeezy.
// Every delivery is recorded in the audit log; events the system cannot
// act on are acknowledged with 200 so the provider stops retrying.
func HandleLemonWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Signature"))
	eventName := strings.TrimSpace(c.Get("X-Event-Name"))
	secret := env.GetEnv("LEMON_WEBHOOK_SECRET", "")

	if !billing.VerifyWebhookSignature(rawBody, signature, secret) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	stored, err := svc.RecordWebhookEvent(ctx, eventName, rawBody, true)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}

	evt, err := billing.ParseWebhookEvent(rawBody)
	if err != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	result, handleErr := svc.HandleEvent(ctx, evt)
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, handleErr)
	if handleErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "event_processing_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(webhookResponse(result))
}

// webhookResponse maps a processing result to the acknowledgement body.
// Soft errors are acknowledged with 200 so the provider stops retrying
// deliveries the system can never act on.
func webhookResponse(result billing.Result) fiber.Map {
	switch result.Status {
	case billing.StatusIgnored:
		return fiber.Map{"ignored": true}
	case billing.StatusSoftError:
		return fiber.Map{"error": result.Detail}
	default:
		return fiber.Map{"ok": true}
	}
}

type checkoutRequest struct {
	PlanCode string `json:"plan_code" validate:"required"`
}

// HandleCreateCheckout starts a hosted checkout session for the
// authenticated user and returns the provider checkout URL.
func HandleCreateCheckout(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	plan, err := repository.GetGlobalFactory().GetPlanRepository().GetByCode(req.PlanCode)
	if status, body := checkoutPlanResponse(plan, err); status != 0 {
		return c.Status(status).JSON(body)
	}

	client := billing.NewLemonClientFromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	checkoutURL, err := client.CreateCheckout(ctx, plan, user)
	if err != nil {
		if errors.Is(err, billing.ErrLemonNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "billing_not_configured", "message": "Billing is not configured"})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "checkout_failed", "message": "Could not create checkout session"})
	}

	return c.JSON(fiber.Map{"checkout_url": checkoutURL})
}

// checkoutPlanResponse maps a plan lookup to the error status and body for
// checkout, or (0, nil) when the plan can be sold. A plan that exists but is
// inactive or has no Lemon Squeezy variant is reported the same way as an
// unknown code so the response does not leak catalog state.
func checkoutPlanResponse(plan *models.SubscriptionPlan, err error) (int, fiber.Map) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.StatusNotFound, fiber.Map{"error": "not_found", "message": "Plan not found or not configured"}
		}
		return fiber.StatusInternalServerError, fiber.Map{"error": "internal_server_error", "message": "Failed to load plan"}
	}
	if !plan.IsActive || !plan.IsCheckoutConfigured() {
		return fiber.StatusNotFound, fiber.Map{"error": "not_found", "message": "Plan not found or not configured"}
	}
	return 0, nil
}

// HandleListWebhookEvents exposes the webhook audit log to administrators.
func HandleListWebhookEvents(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	repo := repository.GetGlobalFactory().GetSubscriptionRepository()

	events, err := repo.ListWebhookEvents(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load webhook events"})
	}
	total, err := repo.CountWebhookEvents()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count webhook events"})
	}

	return c.JSON(fiber.Map{"events": events, "total": total})
}
