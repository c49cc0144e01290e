package handlers

import (
	"time"

	"github.com/arnold/kpigo-api/internal/access"
	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

// CreateInvite generates an invite code for a new team member (admins only)
func CreateInvite(c *fiber.Ctx) error {
	var req models.CreateInviteRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	if !access.CanEdit(user, access.TeamResource{}) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only admins can invite team members",
		})
	}

	email := normalizeEmail(req.Email)
	if emailTaken(email, user.ID) || email == user.Email {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}

	invite := models.Invite{
		CompanyID: user.CompanyID,
		InviterID: user.ID,
		Email:     email,
		Role:      req.Role,
		MaxUses:   req.MaxUses,
	}

	if req.ExpiresIn > 0 {
		exp := time.Now().Add(time.Duration(req.ExpiresIn) * time.Hour)
		invite.ExpiresAt = &exp
	}

	if err := database.DB.Create(&invite).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invite",
		})
	}

	LogActivity(user.CompanyID, user.ID, "invite_created", &invite.ID, map[string]interface{}{
		"email": invite.Email,
		"role":  invite.Role,
	})

	return c.Status(fiber.StatusCreated).JSON(invite)
}

// GetInvites lists the company's invites, newest first (admins only)
func GetInvites(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	if !access.CanView(user, access.TeamResource{}) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only admins can see invites",
		})
	}

	invites := []models.Invite{}
	database.DB.Where("company_id = ?", user.CompanyID).
		Order("created_at DESC").
		Find(&invites)

	now := time.Now()
	out := make([]fiber.Map, 0, len(invites))
	for _, inv := range invites {
		out = append(out, fiber.Map{
			"invite": inv,
			"valid":  inv.IsValid(now),
		})
	}
	return c.JSON(fiber.Map{"invites": out})
}
