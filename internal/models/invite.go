package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invite lets a new team member join a company with a preset role.
type Invite struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CompanyID  uuid.UUID      `json:"companyId" gorm:"type:uuid;index;not null"`
	InviterID  uuid.UUID      `json:"inviterId" gorm:"type:uuid;not null"`
	Email      string         `json:"email"`
	Role       Role           `json:"role" gorm:"not null"`
	InviteCode string         `json:"inviteCode" gorm:"uniqueIndex;not null"`
	ExpiresAt  *time.Time     `json:"expiresAt"`
	MaxUses    int            `json:"maxUses" gorm:"default:0"` // 0 = unlimited
	UsedCount  int            `json:"usedCount" gorm:"default:0"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

func (i *Invite) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.InviteCode == "" {
		i.InviteCode = generateInviteCode()
	}
	return nil
}

// IsValid checks if the invite is still usable
func (i *Invite) IsValid(now time.Time) bool {
	if i.ExpiresAt != nil && now.After(*i.ExpiresAt) {
		return false
	}
	if i.MaxUses > 0 && i.UsedCount >= i.MaxUses {
		return false
	}
	return true
}

func generateInviteCode() string {
	b := make([]byte, 6) // 12 hex chars
	rand.Read(b)
	return hex.EncodeToString(b)
}

type CreateInviteRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Role      Role   `json:"role" validate:"required,oneof='Super Admin' Admin Manager Staff"`
	MaxUses   int    `json:"maxUses" validate:"gte=0"`   // 0 = unlimited
	ExpiresIn int    `json:"expiresIn" validate:"gte=0"` // hours, 0 = never
}
