package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/logging"
	"github.com/arnold/kpigo-api/internal/middleware"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/arnold/kpigo-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailTaken(email string, exceptID uuid.UUID) bool {
	var existing models.User
	return database.DB.Where("email = ? AND id <> ?", email, exceptID).First(&existing).Error == nil
}

// authResponse issues a session token for user.
func authResponse(c *fiber.Ctx, status int, user models.User) error {
	var company models.Company
	if err := database.DB.First(&company, "id = ?", user.CompanyID).Error; err != nil {
		return respondError(c, err)
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	company.SubscriptionStatus = company.EffectiveStatus(time.Now())
	return c.Status(status).JSON(models.AuthResponse{
		Token:   token,
		User:    user,
		Company: company,
	})
}

// Signup creates a company on a free trial together with its first admin
func Signup(c *fiber.Ctx) error {
	var req models.SignUpRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	email := normalizeEmail(req.Email)

	// Check if user exists
	if emailTaken(email, uuid.Nil) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}

	subdomain := models.Subdomain(req.CompanyName)
	if subdomain == "" {
		return respondError(c, validationErrors{"companyName": "Company name must contain letters or numbers"})
	}
	var existing models.Company
	if err := database.DB.Where("subdomain = ?", subdomain).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "A company with this name already exists",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	company := models.Company{
		Name:               strings.TrimSpace(req.CompanyName),
		Subdomain:          subdomain,
		SubscriptionStatus: models.SubscriptionTrialing,
		TrialEndsAt:        time.Now().AddDate(0, 0, settings.TrialDays),
	}
	user := models.User{
		Email:    email,
		Password: string(hashedPassword),
		Name:     strings.TrimSpace(req.Name),
		Role:     models.RoleAdmin,
		JobTitle: "Founder",
		Division: "Executive",
		Notify:   models.DefaultNotifyPrefs(),
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		user.CompanyID = company.ID
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		company.OwnerID = user.ID
		return tx.Model(&company).Update("owner_id", user.ID).Error
	})
	if err != nil {
		logging.LogError("handlers", "Signup", "create company", company.Subdomain, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create account",
		})
	}

	return authResponse(c, fiber.StatusCreated, user)
}

func Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	// Find user
	var user models.User
	if err := database.DB.Where("email = ?", normalizeEmail(req.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	// Check password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	return authResponse(c, fiber.StatusOK, user)
}

// GoogleLogin signs in an existing user with a Google ID token. New people
// join through an invite, so unknown addresses are rejected.
func GoogleLogin(c *fiber.Ctx) error {
	var req models.GoogleAuthRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	identity, err := services.GoogleVerifier(c.UserContext(), req.IDToken, settings.GoogleClientIDs)
	if err != nil {
		if errors.Is(err, services.ErrGoogleAudience) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logging.GetLogger().WithError(err).Warn("google token verification failed")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid Google token",
		})
	}

	if identity.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email not available from Google account",
		})
	}

	var user models.User
	if err := database.DB.Where("email = ?", normalizeEmail(identity.Email)).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No account uses this Google address. Ask your admin for an invite.",
		})
	}

	if user.AuthProvider != "google" {
		database.DB.Model(&user).Update("auth_provider", "google")
		user.AuthProvider = "google"
	}

	return authResponse(c, fiber.StatusOK, user)
}

var errInviteUsedUp = errors.New("invite used up")

// claimInvite takes one use of the invite. The usage limit and expiry are
// checked in the same statement that bumps the count, so concurrent joins
// cannot overshoot MaxUses.
func claimInvite(tx *gorm.DB, invite models.Invite, now time.Time) error {
	res := tx.Model(&models.Invite{}).
		Where("id = ?", invite.ID).
		Where("(max_uses = 0 OR used_count < max_uses)").
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errInviteUsedUp
	}
	return nil
}

// JoinCompany creates an account through an invite code
func JoinCompany(c *fiber.Ctx) error {
	code := c.Params("code")

	var req models.JoinRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	email := normalizeEmail(req.Email)

	// Find the invite
	var invite models.Invite
	if err := database.DB.Where("invite_code = ?", code).First(&invite).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Invalid invite code",
		})
	}

	if !invite.IsValid(time.Now()) {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error": "This invite has expired or reached its usage limit",
		})
	}

	if invite.Email != "" && normalizeEmail(invite.Email) != email {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This invite was sent to a different email address",
		})
	}

	if emailTaken(email, uuid.Nil) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user := models.User{
		CompanyID: invite.CompanyID,
		Email:     email,
		Password:  string(hashedPassword),
		Name:      strings.TrimSpace(req.Name),
		Role:      invite.Role,
		Notify:    models.DefaultNotifyPrefs(),
	}
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := claimInvite(tx, invite, time.Now()); err != nil {
			return err
		}
		return tx.Create(&user).Error
	})
	if errors.Is(err, errInviteUsedUp) {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error": "This invite has expired or reached its usage limit",
		})
	}
	if err != nil {
		logging.LogError("handlers", "JoinCompany", "create user", invite.ID.String(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to join company",
		})
	}

	LogActivity(invite.CompanyID, user.ID, EventMemberJoined, &user.ID, map[string]interface{}{
		"invitedBy": invite.InviterID,
		"role":      user.Role,
	})

	// Notify the company's admins
	var admins []models.User
	database.DB.Where("company_id = ? AND role IN ?", invite.CompanyID,
		[]models.Role{models.RoleSuperAdmin, models.RoleAdmin}).Find(&admins)
	if services.Notifications != nil {
		services.Notifications.Notify(invite.CompanyID, user, admins, models.NotificationMemberJoined, "joined the team")
	}

	WS.Broadcast(invite.CompanyID, user.ID, WSEvent{
		Type:      EventMemberJoined,
		CompanyID: invite.CompanyID.String(),
		UserID:    user.ID.String(),
		Data: map[string]interface{}{
			"user": user,
		},
	})

	return authResponse(c, fiber.StatusCreated, user)
}

func GetMe(c *fiber.Ctx) error {
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
	company.SubscriptionStatus = company.EffectiveStatus(time.Now())

	return c.JSON(fiber.Map{
		"user":    user,
		"company": company,
	})
}

// UpdateProfile edits the caller's own profile, theme and notification settings
func UpdateProfile(c *fiber.Ctx) error {
	var req models.UpdateProfileRequest
	if err := parseAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return respondError(c, validationErrors{"name": "Name cannot be empty"})
		}
		updates["name"] = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if emailTaken(email, user.ID) {
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
	if req.Theme != nil {
		updates["theme"] = *req.Theme
	}
	if req.NotificationPrefs != nil {
		updates["notify_kpi_updates"] = req.NotificationPrefs.KPIUpdates
		updates["notify_goal_assignments"] = req.NotificationPrefs.GoalAssignments
		updates["notify_team_mentions"] = req.NotificationPrefs.TeamMentions
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update profile",
			})
		}
	}

	database.DB.First(&user, "id = ?", user.ID)
	return c.JSON(user)
}
