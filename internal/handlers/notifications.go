package handlers

import (
	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/middleware"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetNotifications returns the caller's feed, newest first
func GetNotifications(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	page, limit, offset := pagination(c)

	notifications := []models.Notification{}
	database.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications)

	// Attach actor names for display
	actorIDs := make([]uuid.UUID, 0, len(notifications))
	for _, n := range notifications {
		actorIDs = append(actorIDs, n.ActorID)
	}
	var actors []models.User
	if len(actorIDs) > 0 {
		database.DB.Where("id IN ?", actorIDs).Find(&actors)
	}
	names := make(map[uuid.UUID]models.User, len(actors))
	for _, a := range actors {
		names[a.ID] = a
	}

	items := make([]fiber.Map, 0, len(notifications))
	for _, n := range notifications {
		actor := names[n.ActorID]
		items = append(items, fiber.Map{
			"id":        n.ID,
			"type":      n.Type,
			"message":   n.Message,
			"read":      n.Read,
			"timestamp": n.CreatedAt,
			"actor": fiber.Map{
				"id":     n.ActorID,
				"name":   actor.Name,
				"avatar": actor.AvatarURL,
			},
		})
	}

	var total int64
	database.DB.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total)

	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Where(map[string]interface{}{"read": false}).
		Count(&unread)

	return c.JSON(fiber.Map{
		"notifications": items,
		"total":         total,
		"unread":        unread,
		"page":          page,
		"limit":         limit,
	})
}

// MarkNotificationRead marks a single notification as read
func MarkNotificationRead(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	notifID, err := paramID(c, "id", "notification")
	if err != nil {
		return respondError(c, err)
	}

	result := database.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notifID, userID).
		Update("read", true)

	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkAllRead marks all notifications as read for the current user
func MarkAllRead(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	database.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Where(map[string]interface{}{"read": false}).
		Update("read", true)

	return c.JSON(fiber.Map{"success": true})
}

// RegisterDeviceToken saves the FCM token for push notifications
func RegisterDeviceToken(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req struct {
		Token string `json:"token" validate:"required"`
	}
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	database.DB.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", req.Token)

	return c.JSON(fiber.Map{"success": true})
}
