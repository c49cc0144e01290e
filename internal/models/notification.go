package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FeedLimit is the number of notifications kept per user; older ones are pruned.
const FeedLimit = 20

type NotificationType string

const (
	NotificationGoalCreated    NotificationType = "goal_created"
	NotificationGoalUpdated    NotificationType = "goal_updated"
	NotificationKPICreated     NotificationType = "kpi_created"
	NotificationKPIUpdated     NotificationType = "kpi_updated"
	NotificationProgressLogged NotificationType = "progress_logged"
	NotificationMemberJoined   NotificationType = "member_joined"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID        `json:"userId" gorm:"type:uuid;index;not null"`
	CompanyID uuid.UUID        `json:"companyId" gorm:"type:uuid;index"`
	ActorID   uuid.UUID        `json:"actorId" gorm:"type:uuid;not null"`
	Type      NotificationType `json:"type" gorm:"not null"`
	Message   string           `json:"message" gorm:"not null"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"timestamp" gorm:"index"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Muted reports whether prefs silence this kind of notification.
func (t NotificationType) Muted(prefs NotifyPrefs) bool {
	switch t {
	case NotificationKPICreated, NotificationKPIUpdated, NotificationProgressLogged:
		return !prefs.KPIUpdates
	case NotificationGoalCreated, NotificationGoalUpdated:
		return !prefs.GoalAssignments
	case NotificationMemberJoined:
		return !prefs.TeamMentions
	}
	return false
}
