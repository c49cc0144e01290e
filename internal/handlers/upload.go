package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/logging"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UploadAvatar stores a profile picture and points the caller's avatar at it
func UploadAvatar(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No image file provided",
		})
	}

	// Validate file type
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	if !allowed[ext] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only jpg, png, and webp images are allowed",
		})
	}

	// Limit to 5MB
	if file.Size > 5*1024*1024 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Image must be under 5MB",
		})
	}

	if err := os.MkdirAll(settings.UploadDir, 0755); err != nil {
		logging.LogError("handlers", "UploadAvatar", "create upload dir", settings.UploadDir, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create uploads directory",
		})
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	if err := c.SaveFile(file, filepath.Join(settings.UploadDir, filename)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save image",
		})
	}

	avatarURL := fmt.Sprintf("/uploads/%s", filename)
	if err := database.DB.Model(&user).Update("avatar_url", avatarURL).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"url": avatarURL,
	})
}
