package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"warehub-backend/internal/domain"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/repository"
)

const defaultNotifyTimeout = 5 * time.Second

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, userID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, userID)
}

// dispatcher delivers a request to every requested channel concurrently.
type dispatcher struct {
	noteRepo repository.NotificationRepository
	userRepo repository.UserRepository
	email    EmailSender
	push     PushSender
}

func NewDispatcher(noteRepo repository.NotificationRepository, userRepo repository.UserRepository, email EmailSender, push PushSender) Notifier {
	return &dispatcher{noteRepo: noteRepo, userRepo: userRepo, email: email, push: push}
}

func (d *dispatcher) Send(ctx context.Context, req domain.NotificationRequest) error {
	channels := req.Channels
	if len(channels) == 0 {
		channels = []domain.NotificationChannel{domain.NotificationChannelInApp}
	}

	var profile *domain.Profile
	for _, ch := range channels {
		if ch == domain.NotificationChannelEmail || ch == domain.NotificationChannelPush {
			p, err := d.userRepo.GetProfile(ctx, req.UserID)
			if err != nil {
				return fmt.Errorf("failed to resolve recipient: %w", err)
			}
			profile = p
			break
		}
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, ch := range channels {
		g.Go(func() error {
			err := d.deliver(ctx, ch, profile, req)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", ch, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (d *dispatcher) deliver(ctx context.Context, ch domain.NotificationChannel, profile *domain.Profile, req domain.NotificationRequest) error {
	switch ch {
	case domain.NotificationChannelInApp:
		attrs := map[string]string{"type": req.Type}
		for k, v := range req.TemplateData {
			attrs[k] = v
		}
		return d.noteRepo.Create(ctx, &domain.Notification{
			UserID:     req.UserID,
			Type:       req.Type,
			Title:      req.Title,
			Message:    req.Message,
			Attributes: attrs,
		})
	case domain.NotificationChannelEmail:
		if d.email == nil || profile.Email == "" {
			return nil
		}
		return d.email.Send(ctx, profile.Email, profile.Name, req.Title, req.Message)
	case domain.NotificationChannelPush:
		if d.push == nil || profile.PushToken == "" {
			return nil
		}
		return d.push.Send(ctx, profile.PushToken, req.Title, req.Message, req.TemplateData)
	default:
		return fmt.Errorf("unknown channel %q", ch)
	}
}

// notifyBestEffort sends req detached from the caller's cancellation and bounded by a
// timeout. Failures are logged and never returned.
func notifyBestEffort(ctx context.Context, n Notifier, req domain.NotificationRequest) {
	if n == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultNotifyTimeout)
	defer cancel()
	if err := n.Send(ctx, req); err != nil {
		logger.Warn("Notification failed", "user_id", req.UserID, "type", req.Type, "error", err)
	}
}

type timeoutNotifier struct {
	next    Notifier
	timeout time.Duration
}

// WithNotifyTimeout bounds every Send on n by d.
func WithNotifyTimeout(n Notifier, d time.Duration) Notifier {
	if d <= 0 {
		return n
	}
	return &timeoutNotifier{next: n, timeout: d}
}

func (t *timeoutNotifier) Send(ctx context.Context, req domain.NotificationRequest) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Send(ctx, req)
}
