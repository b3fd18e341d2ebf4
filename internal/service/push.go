package service

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"warehub-backend/internal/logger"
)

type fcmPushSender struct {
	client *messaging.Client
}

// NewFCMPushSender builds a Firebase Cloud Messaging sender from a service account file.
func NewFCMPushSender(ctx context.Context, projectID, credentialsFile string) (PushSender, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize messaging: %w", err)
	}
	return &fcmPushSender{client: client}, nil
}

func (s *fcmPushSender) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	logger.ExternalServiceCall("fcm", "Send")
	id, err := s.client.Send(ctx, msg)
	logger.ExternalServiceResult("fcm", "Send", err, "message_id", id)
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	return nil
}
