package controllers

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HoangNamVo/Lumely/app/models"
	"github.com/HoangNamVo/Lumely/app/repository"
	"github.com/HoangNamVo/Lumely/internal/pkg/mail"
	"github.com/HoangNamVo/Lumely/internal/pkg/middleware"
)

type createTicketRequest struct {
	Subject     string `json:"subject" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low normal high"`
}

// HandleCreateTicket opens a new support ticket for the authenticated user.
// Accepts JSON or multipart; a multipart request may carry an attachment.
func HandleCreateTicket(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req createTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}
	if req.Priority == "" {
		req.Priority = models.TicketPriorityNormal
	}

	ticket := &models.SupportTicket{
		UserID:      user.ID,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      models.TicketStatusOpen,
		Priority:    req.Priority,
	}

	if fileHeader, err := c.FormFile("attachment"); err == nil {
		tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("ticket_%d_%s%s", user.ID, uuid.NewString(), filepath.Ext(fileHeader.Filename)))
		if err := c.SaveFile(fileHeader, tmpPath); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store attachment"})
		}
		defer os.Remove(tmpPath)

		url, err := storeUploadedFile(tmpPath, "tickets", uuid.NewString(), time.Now())
		if err != nil {
			log.Printf("ticket attachment storage failed for user %d: %v", user.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store attachment"})
		}
		ticket.AttachmentURL = url
	}

	if err := repository.GetGlobalFactory().GetTicketRepository().Create(ticket); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create ticket"})
	}
	return c.Status(fiber.StatusCreated).JSON(ticket)
}

// HandleListMyTickets returns the authenticated user's tickets.
func HandleListMyTickets(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	offset, limit := parsePagination(c)
	repo := repository.GetGlobalFactory().GetTicketRepository()

	tickets, err := repo.GetByUserID(user.ID, offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load tickets"})
	}
	total, err := repo.CountByUserID(user.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count tickets"})
	}
	return c.JSON(fiber.Map{"tickets": tickets, "total": total})
}

// HandleListAllTickets returns every ticket for administrators.
func HandleListAllTickets(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	repo := repository.GetGlobalFactory().GetTicketRepository()

	tickets, err := repo.GetAll(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load tickets"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count tickets"})
	}
	return c.JSON(fiber.Map{"tickets": tickets, "total": total})
}

// HandleGetTicket returns a ticket with its comment thread. Owners and
// administrators only.
func HandleGetTicket(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	ticket, ok := loadTicketForUser(c, user)
	if !ok {
		return nil
	}
	return c.JSON(ticket)
}

type ticketCommentRequest struct {
	Body string `json:"body" validate:"required"`
}

// HandleAddTicketComment appends a reply to the ticket thread.
func HandleAddTicketComment(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	ticket, ok := loadTicketForUser(c, user)
	if !ok {
		return nil
	}
	if ticket.Status == models.TicketStatusClosed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "ticket_closed", "message": "Ticket is closed"})
	}

	var req ticketCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	comment := &models.SupportTicketComment{
		SupportTicketID: ticket.ID,
		UserID:          user.ID,
		Body:            req.Body,
		IsStaff:         user.IsAdmin(),
	}
	if err := repository.GetGlobalFactory().GetTicketRepository().AddComment(comment); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to add comment"})
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

type ticketStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open in_progress resolved closed"`
}

// HandleUpdateTicketStatus moves a ticket through its lifecycle (admin only).
func HandleUpdateTicketStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid ticket id"})
	}

	repo := repository.GetGlobalFactory().GetTicketRepository()
	ticket, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Ticket not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load ticket"})
	}

	var req ticketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	if !ticket.CanTransitionTo(req.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_transition", "message": fmt.Sprintf("Cannot move ticket from %s to %s", ticket.Status, req.Status)})
	}

	ticket.Status = req.Status
	if req.Status == models.TicketStatusResolved {
		now := time.Now()
		ticket.ResolvedAt = &now
	}
	if err := repo.Update(ticket); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update ticket"})
	}

	// Notify the ticket owner best-effort.
	if owner, err := repository.GetGlobalFactory().GetUserRepository().GetByID(ticket.UserID); err == nil {
		subject := fmt.Sprintf("Your support ticket #%d is now %s", ticket.ID, ticket.Status)
		body := fmt.Sprintf("<p>The status of your ticket <strong>%s</strong> changed to <strong>%s</strong>.</p>", ticket.Subject, ticket.Status)
		if err := mail.SendMail(owner.Email, subject, body); err != nil {
			log.Printf("failed to notify user %d about ticket %d: %v", owner.ID, ticket.ID, err)
		}
	}

	return c.JSON(ticket)
}

// loadTicketForUser resolves the ticket in the id param and enforces
// ownership. On failure the response is already written and ok is false.
func loadTicketForUser(c *fiber.Ctx, user *models.User) (*models.SupportTicket, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid ticket id"})
		return nil, false
	}

	ticket, err := repository.GetGlobalFactory().GetTicketRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Ticket not found"})
		} else {
			_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load ticket"})
		}
		return nil, false
	}
	if ticket.UserID != user.ID && !user.IsAdmin() {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your ticket"})
		return nil, false
	}
	return ticket, true
}
