package controllers

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/HoangNamVo/Lumely/app/models"
	"github.com/HoangNamVo/Lumely/app/repository"
)

// HandleOAuthBegin redirects to the provider's consent screen
func HandleOAuthBegin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow, links or creates the
// local account and issues a bearer token.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "oauth_failed", "message": fmt.Sprintf("OAuth failed: %v", err)})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()

	user, err := repo.GetBySocialAccount(u.Provider, u.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Optional email match if the provider supplied one
		if u.Email != "" {
			if existing, err := repo.GetByEmail(u.Email); err == nil {
				user = existing
			}
		}
		if user == nil {
			// Password is a random placeholder, not usable for login
			placeholder := fmt.Sprintf("oauth_%d", time.Now().UnixNano())
			email := u.Email
			if email == "" {
				email = fmt.Sprintf("%s_%s@%s.oauth.local", u.Provider, u.UserID, u.Provider)
			}
			created, err := models.CreateUser(firstNonEmpty(u.Name, u.NickName, u.Email, "User"), email, placeholder)
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create user"})
			}
			created.AvatarURL = u.AvatarURL
			created.Status = models.STATUS_ACTIVE
			created.EmailVerified = u.Email != ""
			if err := repo.Create(created); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create user"})
			}
			user = created
		}

		account := &models.SocialAccount{
			UserID:         user.ID,
			Provider:       u.Provider,
			ProviderUserID: u.UserID,
			ProviderEmail:  u.Email,
		}
		if err := repo.CreateSocialAccount(account); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to link provider account"})
		}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to look up provider account"})
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

// HandleOAuthLogout clears the provider session state
func HandleOAuthLogout(c *fiber.Ctx) error {
	if err := gothfiber.Logout(c); err != nil {
		log.Printf("oauth logout failed: %v", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
