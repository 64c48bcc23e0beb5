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
	"github.com/HoangNamVo/Lumely/internal/pkg/middleware"
	"github.com/HoangNamVo/Lumely/internal/pkg/upload"
)

// HandleListBlogPosts returns published posts for the public blog.
func HandleListBlogPosts(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	repo := repository.GetGlobalFactory().GetBlogRepository()

	posts, err := repo.GetPublished(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load posts"})
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// HandleGetBlogPost returns a published post by its slug.
func HandleGetBlogPost(c *fiber.Ctx) error {
	post, err := repository.GetGlobalFactory().GetBlogRepository().GetBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Post not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load post"})
	}
	if !post.Published {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Post not found"})
	}
	return c.JSON(post)
}

// HandleListBlogCategories returns all blog categories.
func HandleListBlogCategories(c *fiber.Ctx) error {
	categories, err := repository.GetGlobalFactory().GetBlogRepository().GetCategories()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load categories"})
	}
	return c.JSON(fiber.Map{"categories": categories})
}

type blogPostRequest struct {
	Title          string `json:"title" validate:"required,max=255"`
	Slug           string `json:"slug" validate:"required,max=255"`
	Excerpt        string `json:"excerpt"`
	Content        string `json:"content" validate:"required"`
	ThumbnailURL   string `json:"thumbnail_url"`
	BlogCategoryID *uint  `json:"blog_category_id"`
	Published      bool   `json:"published"`
}

// HandleCreateBlogPost creates a post (admin only).
func HandleCreateBlogPost(c *fiber.Ctx) error {
	author := middleware.CurrentUser(c)
	if author == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req blogPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	repo := repository.GetGlobalFactory().GetBlogRepository()
	exists, err := repo.SlugExists(req.Slug)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to check slug"})
	}
	if exists {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "slug_taken", "message": "Slug already exists"})
	}

	post := &models.BlogPost{
		UserID:         author.ID,
		Title:          req.Title,
		Slug:           req.Slug,
		Excerpt:        req.Excerpt,
		Content:        req.Content,
		ThumbnailURL:   req.ThumbnailURL,
		BlogCategoryID: req.BlogCategoryID,
		Published:      req.Published,
	}
	if req.Published {
		now := time.Now()
		post.PublishedAt = &now
	}
	if err := repo.Create(post); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to create post"})
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleUpdateBlogPost updates a post (admin only).
func HandleUpdateBlogPost(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid post id"})
	}

	repo := repository.GetGlobalFactory().GetBlogRepository()
	post, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Post not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load post"})
	}

	var req blogPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Malformed request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return validationError(c, err)
	}

	taken, err := repo.SlugExistsExceptID(req.Slug, post.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to check slug"})
	}
	if taken {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "slug_taken", "message": "Slug already exists"})
	}

	wasPublished := post.Published
	post.Title = req.Title
	post.Slug = req.Slug
	post.Excerpt = req.Excerpt
	post.Content = req.Content
	post.ThumbnailURL = req.ThumbnailURL
	post.BlogCategoryID = req.BlogCategoryID
	post.Published = req.Published
	if req.Published && !wasPublished {
		now := time.Now()
		post.PublishedAt = &now
	}
	if err := repo.Update(post); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update post"})
	}
	return c.JSON(post)
}

// HandleUploadBlogThumbnail accepts a multipart image, scales it down and
// attaches it to the post (admin only).
func HandleUploadBlogThumbnail(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid post id"})
	}

	repo := repository.GetGlobalFactory().GetBlogRepository()
	post, err := repo.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Post not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load post"})
	}

	fileHeader, err := c.FormFile("thumbnail")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": "Missing thumbnail file"})
	}
	if !upload.IsImageFile(fileHeader.Filename) {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{"error": "unsupported_type", "message": "Thumbnail must be an image"})
	}

	tmpPath := filepath.Join(os.TempDir(), fmt.Sprintf("thumb_%d_%s%s", post.ID, uuid.NewString(), filepath.Ext(fileHeader.Filename)))
	if err := c.SaveFile(fileHeader, tmpPath); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store upload"})
	}
	defer os.Remove(tmpPath)

	processedPath, err := upload.ProcessThumbnail(tmpPath)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "processing_failed", "message": "Could not process image"})
	}
	defer os.Remove(processedPath)

	// File the object under its capture date when EXIF carries one.
	taken := time.Now()
	if meta, err := upload.ReadMeta(tmpPath); err == nil && meta.TakenAt != nil {
		taken = *meta.TakenAt
	}

	thumbnailURL, err := storeUploadedFile(processedPath, "blog", uuid.NewString(), taken)
	if err != nil {
		log.Printf("thumbnail storage failed for post %d: %v", post.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store thumbnail"})
	}

	post.ThumbnailURL = thumbnailURL
	if err := repo.Update(post); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update post"})
	}
	return c.JSON(fiber.Map{"thumbnail_url": thumbnailURL})
}

// HandleDeleteBlogPost deletes a post (admin only).
func HandleDeleteBlogPost(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "Invalid post id"})
	}
	if err := repository.GetGlobalFactory().GetBlogRepository().Delete(uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to delete post"})
	}
	return c.JSON(fiber.Map{"ok": true})
}
