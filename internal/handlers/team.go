package handlers

import (
	"strings"

	"github.com/arnold/kpigo-api/internal/access"
	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/gofiber/fiber/v2"
)

// GetUsers is the company directory
func GetUsers(c *fiber.Ctx) error {
	s, _, err := companyState(c)
	if err != nil {
		return respondError(c, err)
	}
	users := s.Users
	if users == nil {
		users = []models.User{}
	}
	return c.JSON(fiber.Map{"users": users})
}

// GetUser returns a team member with the goals they manage and the KPIs
// they own, limited to what the caller can see
func GetUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "id", "user")
	if err != nil {
		return respondError(c, err)
	}
	year, month, err := period(c)
	if err != nil {
		return respondError(c, err)
	}
	s, viewer, err := companyState(c)
	if err != nil {
		return respondError(c, err)
	}

	target, ok := s.User(userID)
	if !ok || !access.CanView(viewer, access.UserResource{User: target}) {
		return respondError(c, notFound("User not found"))
	}

	managed := make([]goalView, 0)
	owned := make([]kpiView, 0)
	for _, g := range visibleGoals(s, viewer) {
		if g.ManagerID == target.ID {
			managed = append(managed, newGoalView(s, g, year, month))
		}
		for _, k := range s.KPIsOf(g.ID) {
			if k.OwnerID == target.ID {
				owned = append(owned, newKPIView(k, year, month))
			}
		}
	}

	return c.JSON(fiber.Map{
		"user":         target,
		"managedGoals": managed,
		"ownedKpis":    owned,
		"canEdit":      access.CanEdit(viewer, access.UserResource{User: target}),
	})
}

// UpdateUser edits a team member. Role changes need an elevated caller and
// never apply to the company owner.
func UpdateUser(c *fiber.Ctx) error {
	userID, err := paramID(c, "id", "user")
	if err != nil {
		return respondError(c, err)
	}
	var req models.UpdateUserRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	actor, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	var target models.User
	if err := database.DB.Where("id = ? AND company_id = ?", userID, actor.CompanyID).First(&target).Error; err != nil {
		return respondError(c, notFound("User not found"))
	}
	if !access.CanEdit(actor, access.UserResource{User: target}) {
		return respondError(c, forbidden("You can only edit your own profile"))
	}

	updates := map[string]interface{}{}
	if req.Role != nil && *req.Role != target.Role {
		if !access.CanChangeRole(actor) {
			return respondError(c, forbidden("Only admins can change roles"))
		}
		if !req.Role.Valid() {
			return respondError(c, validationErrors{"role": "Must be one of: Super Admin, Admin, Manager, Staff"})
		}
		var company models.Company
		if err := database.DB.First(&company, "id = ?", actor.CompanyID).Error; err == nil && company.OwnerID == target.ID {
			return respondError(c, forbidden("The company owner's role cannot be changed"))
		}
		updates["role"] = *req.Role
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return respondError(c, validationErrors{"name": "Name cannot be empty"})
		}
		updates["name"] = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if emailTaken(email, target.ID) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email already registered",
			})
		}
		updates["email"] = email
	}
	if req.JobTitle != nil {
		updates["job_title"] = *req.JobTitle
	}
	if req.Division != nil {
		updates["division"] = *req.Division
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&target).Updates(updates).Error; err != nil {
			return respondError(c, err)
		}
		LogActivity(actor.CompanyID, actor.ID, "user_updated", &target.ID, nil)
	}

	database.DB.First(&target, "id = ?", target.ID)
	return c.JSON(target)
}
