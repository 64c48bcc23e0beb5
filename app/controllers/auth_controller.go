package controllers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/HoangNamVo/Lumely/app/models"
	"github.com/HoangNamVo/Lumely/app/repository"
	"github.com/HoangNamVo/Lumely/internal/pkg/cache"
	"github.com/HoangNamVo/Lumely/internal/pkg/mail"
	"github.com/HoangNamVo/Lumely/internal/pkg/middleware"
)

const otpTTL = 10 * time.Minute
const tokenTTL = 30 * 24 * time.Hour

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	RefCode  string `json:"ref_code" validate:"omitempty,max=32"`
}

// HandleRegister creates a new account and mails a verification code.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := repo.GetByEmail(email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_taken", "message": "Email address already registered"})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to check email"})
	}

	user, err := models.CreateUser(req.Name, email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create user"})
	}
	// Referral attribution; unknown codes are ignored.
	if req.RefCode != "" {
		if referrer, err := repo.GetByRefCode(req.RefCode); err == nil {
			user.ReferredByID = &referrer.ID
		}
	}
	if err := repo.Create(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create user"})
	}

	if err := sendVerificationCode(email); err != nil {
		log.Printf("failed to send verification code to %s: %v", email, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

type verifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

// HandleVerifyEmail checks the mailed code and activates the account.
func HandleVerifyEmail(c *fiber.Ctx) error {
	var req verifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	stored, err := cache.Get(otpCacheKey(email))
	if err != nil || stored != req.Code {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_code", "message": "Verification code is wrong or expired"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(email)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	}

	user.EmailVerified = true
	user.Status = models.STATUS_ACTIVE
	if err := repo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to activate user"})
	}
	_ = cache.Delete(otpCacheKey(email))

	return c.JSON(fiber.Map{"ok": true})
}

type resendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleResendCode mails a fresh verification code.
func HandleResendCode(c *fiber.Ctx) error {
	var req resendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(email)
	if err != nil {
		// Do not leak whether the address exists.
		return c.JSON(fiber.Map{"ok": true})
	}
	if user.EmailVerified {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_verified", "message": "Email is already verified"})
	}

	if err := sendVerificationCode(email); err != nil {
		log.Printf("failed to resend verification code to %s: %v", email, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin verifies credentials and issues a bearer token.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := repo.GetByEmail(email)
	if err != nil || !models.CheckPasswordHash(req.Password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credentials", "message": "Email or password is wrong"})
	}
	if !user.EmailVerified {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "email_unverified", "message": "Email address is not verified"})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "User inactive"})
	}

	rawToken, token, err := models.NewAuthToken(user.ID, tokenTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to issue token"})
	}
	if err := repo.CreateToken(token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to issue token"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Printf("failed to update last login for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"token":      rawToken,
		"expires_at": token.ExpiresAt.UTC().Format(time.RFC3339),
		"user": fiber.Map{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"is_admin": user.IsAdmin(),
		},
	})
}

// HandleLogout revokes the presented bearer token.
func HandleLogout(c *fiber.Ctx) error {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing access token"})
	}
	raw := strings.TrimSpace(auth[7:])

	repo := repository.GetGlobalFactory().GetUserRepository()
	if err := repo.DeleteToken(models.HashToken(raw)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to revoke token"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleMe returns the authenticated user's account.
func HandleMe(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	return c.JSON(fiber.Map{
		"id":            user.ID,
		"name":          user.Name,
		"email":         user.Email,
		"company_name":  user.CompanyName,
		"phone_number":  user.PhoneNumber,
		"website_url":   user.WebsiteURL,
		"avatar_url":    user.AvatarURL,
		"ref_code":      user.RefCode,
		"is_admin":      user.IsAdmin(),
		"created_at":    user.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at": formatTimePtr(user.LastLoginAt),
	})
}

func otpCacheKey(email string) string {
	return "otp:" + email
}

func sendVerificationCode(email string) error {
	code, err := generateOTP()
	if err != nil {
		return err
	}
	if err := cache.Set(otpCacheKey(email), code, otpTTL); err != nil {
		return err
	}
	return mail.SendOTPMail(email, code)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
