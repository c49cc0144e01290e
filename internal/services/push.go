package services

import (
	"context"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/logging"
	"github.com/arnold/kpigo-api/internal/models"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// PushService handles sending push notifications via Firebase Cloud Messaging
type PushService struct {
	client *messaging.Client
}

// Global push service instance
var Push *PushService

// InitPush initializes the Firebase push notification service.
// Push stays disabled, without failing startup, if no service account is
// configured or Firebase cannot be reached.
func InitPush(serviceAccountPath string) error {
	log := logging.GetLogger()
	if serviceAccountPath == "" {
		log.Info("FCM: no service account configured, push notifications disabled")
		Push = &PushService{client: nil}
		return nil
	}

	ctx := context.Background()
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		logging.LogError("services", "InitPush", "firebase.NewApp", serviceAccountPath, err)
		Push = &PushService{client: nil}
		return nil
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		logging.LogError("services", "InitPush", "app.Messaging", nil, err)
		Push = &PushService{client: nil}
		return nil
	}

	Push = &PushService{client: client}
	log.Info("FCM: push notifications enabled")
	return nil
}

// Enabled reports whether messages will actually be sent.
func (p *PushService) Enabled() bool {
	return p != nil && p.client != nil
}

// SendToUser pushes a notification to the user's registered device.
// No-op if push is not configured or the user has no FCM token.
func (p *PushService) SendToUser(userID uuid.UUID, title, body string, data map[string]string) {
	if !p.Enabled() {
		return
	}

	var user models.User
	if err := database.DB.Select("fcm_token").First(&user, "id = ?", userID).Error; err != nil {
		return
	}

	if user.FCMToken == "" {
		return
	}

	msg := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	if _, err := p.client.Send(context.Background(), msg); err != nil {
		logging.LogError("services", "SendToUser", "messaging.Send", userID.String(), err)
	}
}
