package domain

import "time"

type NotificationChannel string

const (
	NotificationChannelInApp NotificationChannel = "in_app"
	NotificationChannelEmail NotificationChannel = "email"
	NotificationChannelPush  NotificationChannel = "push"
)

// NotificationRequest is what business code hands to the dispatcher.
type NotificationRequest struct {
	UserID       int32                 `json:"user_id"`
	Type         string                `json:"type"`
	Channels     []NotificationChannel `json:"channels"`
	Title        string                `json:"title"`
	Message      string                `json:"message"`
	Template     string                `json:"template,omitempty"`
	TemplateData map[string]string     `json:"template_data,omitempty"`
}

type Notification struct {
	ID         int32             `json:"id"`
	UserID     int32             `json:"user_id"`
	Type       string            `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
}
