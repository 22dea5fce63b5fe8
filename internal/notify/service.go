// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/chaptra/pkg/uuidv7"
)

// # Service Layer

// ConnectionSource reports whether a user currently holds a live
// notification stream. Satisfied by [*Registry].
type ConnectionSource interface {
	IsConnected(userID string) bool
}

// Service orchestrates durable notification writes and live fan-out.
type Service struct {
	notificationRepo NotificationRepository
	publisher        Publisher
	connections      ConnectionSource
	logger           *slog.Logger
}

// NewService constructs a new notification [Service].
func NewService(notificationRepo NotificationRepository, publisher Publisher, connections ConnectionSource, logger *slog.Logger) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		connections:      connections,
		logger:           logger,
	}
}

// # Notification Emission

/*
NotifyUser persists a user-facing notification and pushes it live.

Description: The durable write is mandatory; the live push is best-effort
and only attempted while the user holds a registered stream. A push
failure is logged and swallowed so that workflow transitions never fail
because a socket hop was down.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - notificationType: Type
  - message: string

Returns:
  - *Notification: The persisted record
  - error: Storage failure only
*/
func (service *Service) NotifyUser(context context.Context, userID string, notificationType Type, message string) (*Notification, error) {
	notification := &Notification{
		ID:        uuidv7.New(),
		UserID:    &userID,
		Type:      notificationType,
		Message:   message,
		IsRead:    false,
		ForAdmin:  false,
		CreatedAt: time.Now().UTC(),
	}

	// ── 1. Durable Write ──────────────────────────────────────────────────
	if err := service.notificationRepo.Create(context, notification); err != nil {
		return nil, err
	}

	// ── 2. Best-effort Live Push ──────────────────────────────────────────
	// The bridge dispatches through this process's registry, so a publish
	// for a user with no registered stream has no receiver. Skip the
	// Redis round trip for disconnected users.
	if service.connections.IsConnected(userID) {
		if err := service.publisher.PublishUser(context, userID, notification); err != nil {
			service.logger.Warn("notification_push_failed",
				slog.String("user_id", userID),
				slog.String("type", string(notificationType)),
				slog.Any("error", err),
			)
		}
	}

	service.logger.Info("notification_created",
		slog.String("notification_id", notification.ID),
		slog.String("user_id", userID),
		slog.String("type", string(notificationType)),
	)

	return notification, nil
}

/*
NotifyAdmin persists an admin-facing notification.

Description: Admin notifications are not pushed to any specific connection;
the admin dashboard polls for them.

Parameters:
  - context: context.Context
  - notificationType: Type
  - message: string

Returns:
  - *Notification: The persisted record
  - error: Storage failure
*/
func (service *Service) NotifyAdmin(context context.Context, notificationType Type, message string) (*Notification, error) {
	notification := &Notification{
		ID:        uuidv7.New(),
		UserID:    nil,
		Type:      notificationType,
		Message:   message,
		IsRead:    false,
		ForAdmin:  true,
		CreatedAt: time.Now().UTC(),
	}

	if err := service.notificationRepo.Create(context, notification); err != nil {
		return nil, err
	}

	service.logger.Info("admin_notification_created",
		slog.String("notification_id", notification.ID),
		slog.String("type", string(notificationType)),
	)

	return notification, nil
}

// # Read Models

// ListForUser returns a page of the user's notifications, newest first.
func (service *Service) ListForUser(context context.Context, userID string, limit, offset int) ([]*Notification, int, error) {
	return service.notificationRepo.ListForUser(context, userID, limit, offset)
}

// ListForAdmin returns a page of admin-facing notifications, newest first.
func (service *Service) ListForAdmin(context context.Context, limit, offset int) ([]*Notification, int, error) {
	return service.notificationRepo.ListForAdmin(context, limit, offset)
}

/*
MarkAllRead flips is_read on every notification of one user.

Description: The unread badge count is derived client-side from the list,
so after this call the recomputed count is zero by construction.

Parameters:
  - context: context.Context
  - userID: string (UUID)

Returns:
  - error: Storage failure
*/
func (service *Service) MarkAllRead(context context.Context, userID string) error {
	if err := service.notificationRepo.MarkAllRead(context, userID); err != nil {
		return err
	}

	service.logger.Info("notifications_marked_read", slog.String("user_id", userID))
	return nil
}
