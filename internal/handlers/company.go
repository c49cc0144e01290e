package handlers

import (
	"time"

	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/middleware"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

// GetCompany returns the caller's company with its effective subscription
// status. It is reachable after the trial ends so the paywall can render.
func GetCompany(c *fiber.Ctx) error {
	var company models.Company
	if err := database.DB.First(&company, "id = ?", middleware.GetCompanyID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Company not found",
		})
	}

	now := time.Now()
	status := company.EffectiveStatus(now)
	daysLeft := 0
	if status == models.SubscriptionTrialing {
		daysLeft = int(company.TrialEndsAt.Sub(now).Hours()/24) + 1
	}

	return c.JSON(fiber.Map{
		"company":       company,
		"status":        status,
		"trialDaysLeft": daysLeft,
	})
}

func GetPricing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"plans":    models.Plans(),
		"currency": "IDR",
	})
}

// Subscribe activates a plan. There is no payment provider behind it yet;
// only the company owner or an admin may call it.
func Subscribe(c *fiber.Ctx) error {
	var req models.SubscribeRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	var company models.Company
	if err := database.DB.First(&company, "id = ?", user.CompanyID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Company not found",
		})
	}
	if company.OwnerID != user.ID && !user.Role.Elevated() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only an admin can change the subscription",
		})
	}

	plan := req.Plan
	if err := database.DB.Model(&company).Updates(map[string]interface{}{
		"subscription_status": models.SubscriptionActive,
		"plan":                plan,
	}).Error; err != nil {
		return respondError(c, err)
	}
	company.SubscriptionStatus = models.SubscriptionActive
	company.Plan = &plan

	LogActivity(company.ID, user.ID, "subscription_changed", &company.ID, map[string]interface{}{"plan": plan})

	return c.JSON(fiber.Map{
		"company": company,
		"status":  company.SubscriptionStatus,
	})
}
