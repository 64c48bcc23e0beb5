package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/HoangNamVo/Lumely/app/models"
	"github.com/HoangNamVo/Lumely/app/repository"
)

// HandleListFAQs returns active categories with their FAQs for display.
func HandleListFAQs(c *fiber.Ctx) error {
	categories, err := repository.GetGlobalFactory().GetFAQRepository().GetActiveCategories()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load FAQs"})
	}
	return c.JSON(fiber.Map{"categories": categories})
}

type faqCategoryRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	OrderIndex int    `json:"order_index"`
	IsActive   *bool  `json:"is_active"`
}

// HandleCreateFAQCategory creates a category (admin only).
func HandleCreateFAQCategory(c *fiber.Ctx) error {
	var req faqCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	category := &models.FAQCategory{
		Name:       req.Name,
		OrderIndex: req.OrderIndex,
		IsActive:   true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := repository.GetGlobalFactory().GetFAQRepository().CreateCategory(category); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create category"})
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleUpdateFAQCategory updates a category (admin only).
func HandleUpdateFAQCategory(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid category id"})
	}

	repo := repository.GetGlobalFactory().GetFAQRepository()
	category, err := repo.GetCategoryByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Category not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load category"})
	}

	var req faqCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	category.Name = req.Name
	category.OrderIndex = req.OrderIndex
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := repo.UpdateCategory(category); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update category"})
	}
	return c.JSON(category)
}

// HandleDeleteFAQCategory removes a category and its entries (admin only).
func HandleDeleteFAQCategory(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid category id"})
	}
	if err := repository.GetGlobalFactory().GetFAQRepository().DeleteCategory(uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete category"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

type faqRequest struct {
	FAQCategoryID *uint  `json:"faq_category_id"`
	Question      string `json:"question" validate:"required"`
	Answer        string `json:"answer" validate:"required"`
	SortOrder     int    `json:"sort_order"`
	IsActive      *bool  `json:"is_active"`
}

// HandleCreateFAQ creates an FAQ entry (admin only).
func HandleCreateFAQ(c *fiber.Ctx) error {
	var req faqRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	faq := &models.FAQ{
		FAQCategoryID: req.FAQCategoryID,
		Question:      req.Question,
		Answer:        req.Answer,
		SortOrder:     req.SortOrder,
		IsActive:      true,
	}
	if req.IsActive != nil {
		faq.IsActive = *req.IsActive
	}
	if err := repository.GetGlobalFactory().GetFAQRepository().CreateFAQ(faq); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create FAQ"})
	}
	return c.Status(fiber.StatusCreated).JSON(faq)
}

// HandleUpdateFAQ updates an FAQ entry (admin only).
func HandleUpdateFAQ(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid FAQ id"})
	}

	repo := repository.GetGlobalFactory().GetFAQRepository()
	faq, err := repo.GetFAQByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "FAQ not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load FAQ"})
	}

	var req faqRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	faq.FAQCategoryID = req.FAQCategoryID
	faq.Question = req.Question
	faq.Answer = req.Answer
	faq.SortOrder = req.SortOrder
	if req.IsActive != nil {
		faq.IsActive = *req.IsActive
	}
	if err := repo.UpdateFAQ(faq); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update FAQ"})
	}
	return c.JSON(faq)
}

// HandleDeleteFAQ removes an FAQ entry (admin only).
func HandleDeleteFAQ(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid FAQ id"})
	}
	if err := repository.GetGlobalFactory().GetFAQRepository().DeleteFAQ(uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete FAQ"})
	}
	return c.JSON(fiber.Map{"ok": true})
}
