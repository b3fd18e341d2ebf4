package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"warehub-backend/internal/domain"
)

func TestDispatcher_Send(t *testing.T) {
	ctx := context.Background()
	profile := &domain.Profile{ID: 7, Email: "ops@acme.test", Name: "Acme Ops", PushToken: "tok-1"}

	t.Run("Defaults to in-app", func(t *testing.T) {
		noteRepo := new(MockNotificationRepo)
		userRepo := new(MockUserRepo)
		noteRepo.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == 7 && n.Type == "invoice_created" && n.Attributes["type"] == "invoice_created" && n.Attributes["invoice_id"] == "900"
		})).Return(nil)

		d := NewDispatcher(noteRepo, userRepo, nil, nil)
		err := d.Send(ctx, domain.NotificationRequest{UserID: 7, Type: "invoice_created", Title: "Invoice", TemplateData: map[string]string{"invoice_id": "900"}})
		require.NoError(t, err)
		noteRepo.AssertExpectations(t)
		userRepo.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
	})

	t.Run("Fans out to every channel", func(t *testing.T) {
		noteRepo := new(MockNotificationRepo)
		userRepo := new(MockUserRepo)
		email := new(MockEmailSender)
		push := new(MockPushSender)
		userRepo.On("GetProfile", mock.Anything, int32(7)).Return(profile, nil)
		noteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		email.On("Send", mock.Anything, "ops@acme.test", "Acme Ops", "Paid", "Thanks").Return(nil)
		push.On("Send", mock.Anything, "tok-1", "Paid", "Thanks", mock.Anything).Return(nil)

		d := NewDispatcher(noteRepo, userRepo, email, push)
		err := d.Send(ctx, domain.NotificationRequest{
			UserID:   7,
			Type:     "payment_succeeded",
			Title:    "Paid",
			Message:  "Thanks",
			Channels: []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelEmail, domain.NotificationChannelPush},
		})
		require.NoError(t, err)
		noteRepo.AssertExpectations(t)
		email.AssertExpectations(t)
		push.AssertExpectations(t)
		userRepo.AssertNumberOfCalls(t, "GetProfile", 1)
	})

	t.Run("Channel failures are joined", func(t *testing.T) {
		noteRepo := new(MockNotificationRepo)
		userRepo := new(MockUserRepo)
		email := new(MockEmailSender)
		userRepo.On("GetProfile", mock.Anything, int32(7)).Return(profile, nil)
		noteRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		email.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp refused"))

		d := NewDispatcher(noteRepo, userRepo, email, nil)
		err := d.Send(ctx, domain.NotificationRequest{
			UserID:   7,
			Channels: []domain.NotificationChannel{domain.NotificationChannelInApp, domain.NotificationChannelEmail, domain.NotificationChannelPush},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email: smtp refused")
		noteRepo.AssertExpectations(t)
	})

	t.Run("Unknown recipient", func(t *testing.T) {
		userRepo := new(MockUserRepo)
		userRepo.On("GetProfile", mock.Anything, int32(7)).Return(nil, domain.NotFoundError("user", 7))

		d := NewDispatcher(new(MockNotificationRepo), userRepo, new(MockEmailSender), nil)
		err := d.Send(ctx, domain.NotificationRequest{UserID: 7, Channels: []domain.NotificationChannel{domain.NotificationChannelEmail}})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

type deadlineNotifier struct {
	deadline time.Time
	ok       bool
}

func (d *deadlineNotifier) Send(ctx context.Context, _ domain.NotificationRequest) error {
	d.deadline, d.ok = ctx.Deadline()
	return nil
}

func TestWithNotifyTimeout(t *testing.T) {
	inner := &deadlineNotifier{}
	assert.Same(t, Notifier(inner), WithNotifyTimeout(inner, 0))

	n := WithNotifyTimeout(inner, 2*time.Second)
	require.NoError(t, n.Send(context.Background(), domain.NotificationRequest{UserID: 1}))
	assert.True(t, inner.ok)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), inner.deadline, time.Second)
}

func TestNotifyBestEffort_IgnoresCancellation(t *testing.T) {
	inner := &deadlineNotifier{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	notifyBestEffort(ctx, inner, domain.NotificationRequest{UserID: 1})
	assert.True(t, inner.ok)
	assert.WithinDuration(t, time.Now().Add(defaultNotifyTimeout), inner.deadline, time.Second)

	notifyBestEffort(ctx, nil, domain.NotificationRequest{UserID: 1})
}

func TestNotificationService_GetNotifications(t *testing.T) {
	noteRepo := new(MockNotificationRepo)
	noteRepo.On("List", mock.Anything, int32(7), int32(20), int32(0)).Return([]domain.Notification{{ID: 1}}, int32(1), nil)
	noteRepo.On("List", mock.Anything, int32(7), int32(10), int32(20)).Return(nil, int32(1), nil)
	noteRepo.On("MarkAsRead", mock.Anything, int32(1), int32(7)).Return(nil)

	svc := NewNotificationService(noteRepo)
	items, total, err := svc.GetNotifications(context.Background(), 7, 0, 500)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int32(1), total)

	items, _, err = svc.GetNotifications(context.Background(), 7, 3, 10)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, svc.MarkAsRead(context.Background(), 7, 1))
	noteRepo.AssertExpectations(t)
}
