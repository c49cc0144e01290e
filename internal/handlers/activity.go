package handlers

import (
	"encoding/json"

	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/logging"
	"github.com/arnold/kpigo-api/internal/middleware"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/arnold/kpigo-api/internal/services"
	"github.com/arnold/kpigo-api/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetActivity returns the company audit log, newest first
func GetActivity(c *fiber.Ctx) error {
	companyID := middleware.GetCompanyID(c)
	page, limit, offset := pagination(c)

	var activities []models.Activity
	if err := database.DB.Where("company_id = ?", companyID).
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&activities).Error; err != nil {
		return respondError(c, err)
	}

	var total int64
	database.DB.Model(&models.Activity{}).Where("company_id = ?", companyID).Count(&total)

	return c.JSON(fiber.Map{
		"activities": activities,
		"total":      total,
		"page":       page,
		"limit":      limit,
	})
}

// LogActivity is a helper to create activity entries from other handlers
func LogActivity(companyID, userID uuid.UUID, actionType string, targetID *uuid.UUID, metadata map[string]interface{}) {
	activity := models.Activity{
		CompanyID:  companyID,
		UserID:     userID,
		ActionType: actionType,
		TargetID:   targetID,
	}

	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err == nil {
			s := string(data)
			activity.Metadata = &s
		}
	}

	if err := database.DB.Create(&activity).Error; err != nil {
		logging.LogError("handlers", "LogActivity", "create activity", actionType, err)
	}
}

// publish records a committed change in the audit log, the notification
// feed and the company's realtime channel.
func publish(companyID uuid.UUID, ev store.Event) {
	LogActivity(companyID, ev.Actor.ID, ev.Type, ev.TargetID(), activityMetadata(ev))

	if services.Notifications != nil && ev.Message != "" {
		// failures are logged by the notifier
		services.Notifications.Notify(companyID, ev.Actor, ev.Recipients, models.NotificationType(ev.Type), ev.Message)
	}

	WS.Broadcast(companyID, ev.Actor.ID, WSEvent{
		Type:      ev.Type,
		CompanyID: companyID.String(),
		UserID:    ev.Actor.ID.String(),
		Data:      eventPayload(ev),
	})
}

func activityMetadata(ev store.Event) map[string]interface{} {
	meta := map[string]interface{}{}
	if ev.Goal != nil {
		meta["goalTitle"] = ev.Goal.Title
	}
	if ev.KPI != nil {
		meta["kpiTitle"] = ev.KPI.Title
	}
	if ev.Progress != nil {
		meta["year"] = ev.Progress.Year
		meta["month"] = ev.Progress.Month
		meta["actual"] = ev.Progress.Actual
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

func eventPayload(ev store.Event) fiber.Map {
	data := fiber.Map{}
	if ev.Goal != nil {
		data["goalId"] = ev.Goal.ID
		if ev.Type != store.EventGoalDeleted {
			data["goal"] = newGoalSummary(*ev.Goal)
		}
	}
	if ev.KPI != nil {
		data["kpiId"] = ev.KPI.ID
		if ev.Type != store.EventKPIDeleted {
			data["kpi"] = ev.KPI
		}
	}
	if ev.Progress != nil {
		data["progress"] = ev.Progress
	}
	if ev.Order != nil {
		data["order"] = ev.Order
	}
	return data
}
