package canchannels

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationService owns notification writes. Public reads go straight to
// the store and degrade to empty on failure.
type NotificationService struct {
	store *Store
	log   *Logger
}

// NewNotificationService wires a NotificationService over the given store.
func NewNotificationService(store *Store, log *Logger) *NotificationService {
	return &NotificationService{store: store, log: log.With("component", "notifications")}
}

// Create validates and inserts a notification.
func (s *NotificationService) Create(n Notification) (Notification, error) {
	if err := validateNotification(n); err != nil {
		return Notification{}, err
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if err := s.store.SaveNotification(n); err != nil {
		return Notification{}, fmt.Errorf("save notification: %w", err)
	}
	return n, nil
}

// Update validates and rewrites an existing notification.
func (s *NotificationService) Update(n Notification) error {
	if n.ID == "" {
		return fmt.Errorf("%w: notification id is required", ErrValidation)
	}
	if err := validateNotification(n); err != nil {
		return err
	}
	if err := s.store.UpdateNotification(n); err != nil {
		return fmt.Errorf("update notification: %w", err)
	}
	return nil
}

func validateNotification(n Notification) error {
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: notification title is required", ErrValidation)
	}
	if n.YoutubeLink != "" {
		u, err := url.Parse(n.YoutubeLink)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: video link %q is not a valid URL", ErrValidation, n.YoutubeLink)
		}
	}
	return nil
}
