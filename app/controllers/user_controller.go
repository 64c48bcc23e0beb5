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
	"github.com/HoangNamVo/Lumely/internal/pkg/env"
	"github.com/HoangNamVo/Lumely/internal/pkg/middleware"
	"github.com/HoangNamVo/Lumely/internal/pkg/storage"
	"github.com/HoangNamVo/Lumely/internal/pkg/upload"
)

type updateProfileRequest struct {
	Name        string `json:"name" validate:"omitempty,min=3,max=50"`
	CompanyName string `json:"company_name" validate:"omitempty,max=255"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=50"`
	WebsiteURL  string `json:"website_url" validate:"omitempty,url,max=255"`
}

// HandleUpdateProfile updates the authenticated user's profile fields.
func HandleUpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	user.CompanyName = req.CompanyName
	user.PhoneNumber = req.PhoneNumber
	user.WebsiteURL = req.WebsiteURL

	if err := repository.GetGlobalFactory().GetUserRepository().Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update profile"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// HandleChangePassword rotates the authenticated user's password.
func HandleChangePassword(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	if !models.CheckPasswordHash(req.CurrentPassword, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credentials", "message": "Current password is wrong"})
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to set password"})
	}
	if err := repository.GetGlobalFactory().GetUserRepository().Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update password"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleUploadAvatar accepts a multipart image, normalizes it and stores it.
func HandleUploadAvatar(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Missing avatar file"})
	}
	if !upload.IsImageFile(fileHeader.Filename) {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": "unsupported_type", "message": "Avatar must be an image"})
	}

	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("avatar_%d_%s%s", user.ID, uuid.NewString(), filepath.Ext(fileHeader.Filename)))
	if err := c.SaveFile(fileHeader, tmpPath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store upload"})
	}
	defer os.Remove(tmpPath)

	processedPath, err := upload.ProcessAvatar(tmpPath)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "processing_failed", "message": "Could not process image"})
	}
	defer os.Remove(processedPath)

	now := time.Now()
	avatarURL, err := storeUploadedFile(processedPath, "avatars", uuid.NewString(), now)
	if err != nil {
		log.Printf("avatar storage failed for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store avatar"})
	}

	user.AvatarURL = avatarURL
	if err := repository.GetGlobalFactory().GetUserRepository().Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update avatar"})
	}
	return c.JSON(fiber.Map{"avatar_url": avatarURL})
}

// HandleListUsers lists accounts for administrators, with optional search.
func HandleListUsers(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetUserRepository()

	if query := c.Query("q"); query != "" {
		users, err := repo.Search(query)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to search users"})
		}
		return c.JSON(fiber.Map{"users": users, "total": len(users)})
	}

	offset, limit := parsePagination(c)
	users, err := repo.List(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load users"})
	}
	total, err := repo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count users"})
	}
	return c.JSON(fiber.Map{"users": users, "total": total})
}

// HandleGetUser returns a single account for administrators.
func HandleGetUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid user id"})
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}
	return c.JSON(user)
}

// HandleDeleteUser soft deletes an account (admin only). Admins cannot
// delete themselves.
func HandleDeleteUser(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	if admin == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid user id"})
	}
	if uint(id) == admin.ID {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "self_delete", "message": "Cannot delete your own account"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByID(uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}
	if err := repo.Delete(uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete user"})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// storeUploadedFile pushes a processed file to S3 when enabled, local disk otherwise.
func storeUploadedFile(localPath, kind, name string, now time.Time) (string, error) {
	cfg, err := storage.LoadConfig()
	if err != nil {
		return "", err
	}

	objectKey := cfg.ObjectKey(kind, name, filepath.Ext(localPath), now.Year(), int(now.Month()))
	if cfg.IsEnabled() {
		client, err := storage.NewClient(cfg)
		if err != nil {
			return "", err
		}
		return client.UploadFile(localPath, objectKey)
	}

	local := &storage.LocalStore{
		BaseDir:   env.GetEnv("UPLOAD_DIR", "./uploads"),
		PublicURL: env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8000") + "/uploads",
	}
	return local.Save(localPath, objectKey)
}
