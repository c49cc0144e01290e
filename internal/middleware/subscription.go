package middleware

import (
	"time"

	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

// Subscription blocks companies whose trial has run out without a paid plan.
// It must run after Protected.
func Subscription() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var company models.Company
		if err := database.DB.First(&company, "id = ?", GetCompanyID(c)).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Company not found",
			})
		}

		if company.EffectiveStatus(time.Now()) == models.SubscriptionExpired {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
				"error":   "Your free trial has ended. Choose a plan to keep using KPI Go.",
				"paywall": true,
			})
		}

		c.Locals("company", company)
		return c.Next()
	}
}
