package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/HoangNamVo/Lumely/app/models"
	"github.com/HoangNamVo/Lumely/app/repository"
	"github.com/HoangNamVo/Lumely/internal/pkg/middleware"
)

// HandleListPlans returns all active plans for the public pricing page.
func HandleListPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalFactory().GetPlanRepository().GetActive()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plans"})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// HandleGetPlan returns a single plan by its code.
func HandleGetPlan(c *fiber.Ctx) error {
	plan, err := repository.GetGlobalFactory().GetPlanRepository().GetByCode(c.Params("code"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plan"})
	}
	return c.JSON(plan)
}

// HandleListAllPlans returns every plan, inactive ones included (admin only).
func HandleListAllPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalFactory().GetPlanRepository().GetAll()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plans"})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

type planRequest struct {
	Code           string            `json:"code" validate:"required,max=50"`
	Name           string            `json:"name" validate:"required,max=255"`
	Description    string            `json:"description"`
	PriceInCents   int               `json:"price_in_cents" validate:"gte=0"`
	Currency       string            `json:"currency" validate:"required,len=3"`
	Interval       string            `json:"interval" validate:"required,oneof=month year"`
	Features       models.FeatureMap `json:"features"`
	LemonProductID string            `json:"lemon_product_id"`
	LemonVariantID string            `json:"lemon_variant_id"`
	IsActive       *bool             `json:"is_active"`
}

// HandleCreatePlan creates a new subscription plan (admin only).
func HandleCreatePlan(c *fiber.Ctx) error {
	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	exists, err := repo.CodeExists(req.Code)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to check plan code"})
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "code_taken", "message": "Plan code already exists"})
	}
	// A Lemon Squeezy variant maps webhook events to exactly one plan.
	if req.LemonVariantID != "" {
		if _, err := repo.GetByVariantID(req.LemonVariantID); err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "variant_taken", "message": "Another plan already uses this variant"})
		}
	}

	plan := &models.SubscriptionPlan{
		Code:           req.Code,
		Name:           req.Name,
		Description:    req.Description,
		PriceInCents:   req.PriceInCents,
		Currency:       req.Currency,
		Interval:       req.Interval,
		Features:       req.Features,
		LemonProductID: req.LemonProductID,
		LemonVariantID: req.LemonVariantID,
		IsActive:       true,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if err := repo.Create(plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create plan"})
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// HandleUpdatePlan updates an existing plan (admin only).
func HandleUpdatePlan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid plan id"})
	}

	repo := repository.GetGlobalFactory().GetPlanRepository()
	plan, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plan"})
	}

	var req planRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	taken, err := repo.CodeExistsExceptID(req.Code, plan.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to check plan code"})
	}
	if taken {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "code_taken", "message": "Plan code already exists"})
	}
	if req.LemonVariantID != "" {
		if other, err := repo.GetByVariantID(req.LemonVariantID); err == nil && other.ID != plan.ID {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "variant_taken", "message": "Another plan already uses this variant"})
		}
	}

	plan.Code = req.Code
	plan.Name = req.Name
	plan.Description = req.Description
	plan.PriceInCents = req.PriceInCents
	plan.Currency = req.Currency
	plan.Interval = req.Interval
	plan.Features = req.Features
	plan.LemonProductID = req.LemonProductID
	plan.LemonVariantID = req.LemonVariantID
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if err := repo.Update(plan); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update plan"})
	}
	return c.JSON(plan)
}

// HandleDeletePlan soft deletes a plan (admin only).
func HandleDeletePlan(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid plan id"})
	}
	if err := repository.GetGlobalFactory().GetPlanRepository().Delete(uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete plan"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleMySubscription returns the authenticated user's current subscription.
func HandleMySubscription(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	sub, err := repository.GetGlobalFactory().GetSubscriptionRepository().GetByUserID(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"subscription": nil})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load subscription"})
	}

	return c.JSON(fiber.Map{
		"subscription": fiber.Map{
			"id":                    sub.ID,
			"plan":                  sub.SubscriptionPlan,
			"status":                sub.Status,
			"entitled":              sub.IsEntitling(),
			"start_date":            formatTimePtr(sub.StartDate),
			"current_period_end":    formatTimePtr(sub.CurrentPeriodEnd),
			"cancel_at_period_end":  sub.CancelAtPeriodEnd,
			"canceled_at":           formatTimePtr(sub.CanceledAt),
			"trial_end":             formatTimePtr(sub.TrialEnd),
			"lemon_subscription_id": sub.LemonSubscriptionID,
		},
	})
}

// HandleMyPayments returns the authenticated user's payment history.
func HandleMyPayments(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offset, limit := parsePagination(c)
	repo := repository.GetGlobalFactory().GetSubscriptionRepository()

	payments, err := repo.ListPayments(user.ID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payments"})
	}
	total, err := repo.CountPayments(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count payments"})
	}

	return c.JSON(fiber.Map{"payments": payments, "total": total})
}
