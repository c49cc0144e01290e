package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of organisation roles.
type Role string

const (
	RoleSuperAdmin Role = "Super Admin"
	RoleAdmin      Role = "Admin"
	RoleManager    Role = "Manager"
	RoleStaff      Role = "Staff"
)

// Roles lists every valid role, most privileged first.
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleStaff}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Elevated reports whether the role sees and manages the whole company.
func (r Role) Elevated() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// NotifyPrefs are the per-user notification toggles from the settings page.
type NotifyPrefs struct {
	KPIUpdates      bool `json:"kpiUpdates"`
	GoalAssignments bool `json:"goalAssignments"`
	TeamMentions    bool `json:"teamMentions"`
}

func DefaultNotifyPrefs() NotifyPrefs {
	return NotifyPrefs{KPIUpdates: true, GoalAssignments: true}
}

type User struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID      `json:"companyId" gorm:"type:uuid;index;not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;not null"`
	Password     string         `json:"-"`
	AuthProvider string         `json:"authProvider" gorm:"default:email"`
	Name         string         `json:"name"`
	Role         Role           `json:"role" gorm:"not null"`
	AvatarURL    string         `json:"avatar"`
	JobTitle     string         `json:"jobTitle"`
	Division     string         `json:"division"`
	Theme        Theme          `json:"theme" gorm:"default:light"`
	Notify       NotifyPrefs    `json:"notificationPrefs" gorm:"embedded;embeddedPrefix:notify_"`
	FCMToken     string         `json:"-" gorm:"column:fcm_token"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.AvatarURL == "" {
		u.AvatarURL = "https://picsum.photos/seed/" + u.ID.String() + "/100/100"
	}
	return nil
}

// Auth DTOs
type SignUpRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	CompanyName string `json:"companyName" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleAuthRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type JoinRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type UpdateProfileRequest struct {
	Name              *string      `json:"name"`
	Email             *string      `json:"email" validate:"omitempty,email"`
	JobTitle          *string      `json:"jobTitle"`
	Division          *string      `json:"division"`
	Theme             *Theme       `json:"theme" validate:"omitempty,oneof=light dark"`
	NotificationPrefs *NotifyPrefs `json:"notificationPrefs"`
}

// UpdateUserRequest is the team-management edit; Role is honoured only for elevated editors.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	JobTitle *string `json:"jobTitle"`
	Division *string `json:"division"`
	Role     *Role   `json:"role"`
}

type AuthResponse struct {
	Token   string  `json:"token"`
	User    User    `json:"user"`
	Company Company `json:"company"`
}
