package services

import (
	"github.com/arnold/kpigo-api/internal/logging"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Realtime delivers an event to one connected user.
type Realtime interface {
	SendToUser(companyID, userID uuid.UUID, eventType string, data interface{})
}

// Notifier writes the per-user notification feed and fans each entry out to
// push and the realtime connection.
type Notifier struct {
	db       *gorm.DB
	push     *PushService
	realtime Realtime
}

var Notifications *Notifier

func NewNotifier(db *gorm.DB, push *PushService, realtime Realtime) *Notifier {
	return &Notifier{db: db, push: push, realtime: realtime}
}

// Notify adds message to each recipient's feed. The actor is never notified,
// recipients who muted this kind of message are skipped, and each feed is
// trimmed to the newest models.FeedLimit entries.
func (n *Notifier) Notify(companyID uuid.UUID, actor models.User, recipients []models.User, kind models.NotificationType, message string) ([]models.Notification, error) {
	if message == "" {
		return nil, nil
	}

	var created []models.Notification
	err := n.db.Transaction(func(tx *gorm.DB) error {
		for _, r := range recipients {
			if r.ID == actor.ID || kind.Muted(r.Notify) {
				continue
			}
			notif := models.Notification{
				UserID:    r.ID,
				CompanyID: companyID,
				ActorID:   actor.ID,
				Type:      kind,
				Message:   message,
			}
			if err := tx.Create(&notif).Error; err != nil {
				return err
			}
			if err := prune(tx, r.ID); err != nil {
				return err
			}
			created = append(created, notif)
		}
		return nil
	})
	if err != nil {
		logging.LogError("services", "Notify", "create notifications", string(kind), err)
		return nil, err
	}

	for _, notif := range created {
		if n.realtime != nil {
			n.realtime.SendToUser(companyID, notif.UserID, "notification", notificationPayload(notif, actor))
		}
		if n.push.Enabled() {
			go n.push.SendToUser(notif.UserID, "KPI Go", actor.Name+" "+message, map[string]string{
				"type":           string(kind),
				"notificationId": notif.ID.String(),
			})
		}
	}
	return created, nil
}

func prune(tx *gorm.DB, userID uuid.UUID) error {
	var ids []uuid.UUID
	if err := tx.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) <= models.FeedLimit {
		return nil
	}
	return tx.Where("id IN ?", ids[models.FeedLimit:]).Delete(&models.Notification{}).Error
}

func notificationPayload(n models.Notification, actor models.User) map[string]interface{} {
	return map[string]interface{}{
		"notification": n,
		"actor": map[string]interface{}{
			"id":     actor.ID,
			"name":   actor.Name,
			"avatar": actor.AvatarURL,
		},
	}
}
