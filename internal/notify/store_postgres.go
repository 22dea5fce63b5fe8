// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taibuivan/chaptra/internal/platform/database/schema"
)

// # PostgreSQL Repository

// notificationRepository implements [NotificationRepository] using pgx.
type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository constructs a PostgreSQL backed notification store.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

/*
Create persists a new notification row.

Parameters:
  - context: context.Context
  - notification: *Notification

Returns:
  - error: Insert failure
*/
func (repository *notificationRepository) Create(context context.Context, notification *Notification) error {

	// Parameterized insert using the schema definitions
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		schema.NotifyNotification.Table,
		schema.NotifyNotification.ID,
		schema.NotifyNotification.UserID,
		schema.NotifyNotification.Type,
		schema.NotifyNotification.Message,
		schema.NotifyNotification.IsRead,
		schema.NotifyNotification.ForAdmin,
		schema.NotifyNotification.CreatedAt,
	)

	_, err := repository.pool.Exec(context, query,
		notification.ID,
		notification.UserID,
		string(notification.Type),
		notification.Message,
		notification.IsRead,
		notification.ForAdmin,
		notification.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to create notification: %w", err)
	}

	return nil
}

/*
ListForUser returns a user's notifications, newest first.

Parameters:
  - context: context.Context
  - userID: string (UUID)
  - limit: int
  - offset: int

Returns:
  - []*Notification: Page of notifications
  - int: Total notification count for the user
*/
func (repository *notificationRepository) ListForUser(context context.Context, userID string, limit, offset int) ([]*Notification, int, error) {

	// Window function avoids a second COUNT round-trip
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s,
			COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1 AND %s = FALSE
		ORDER BY %s DESC
		LIMIT $2 OFFSET $3
	`,
		schema.NotifyNotification.ID,
		schema.NotifyNotification.UserID,
		schema.NotifyNotification.Type,
		schema.NotifyNotification.Message,
		schema.NotifyNotification.IsRead,
		schema.NotifyNotification.ForAdmin,
		schema.NotifyNotification.CreatedAt,
		schema.NotifyNotification.Table,
		schema.NotifyNotification.UserID,
		schema.NotifyNotification.ForAdmin,
		schema.NotifyNotification.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	var totalCount int

	for rows.Next() {
		var notification Notification
		err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Type,
			&notification.Message,
			&notification.IsRead,
			&notification.ForAdmin,
			&notification.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan notification: %w", err)
		}
		notifications = append(notifications, &notification)
	}

	return notifications, totalCount, nil
}

/*
ListForAdmin returns admin-facing notifications, newest first.

Parameters:
  - context: context.Context
  - limit: int
  - offset: int

Returns:
  - []*Notification: Page of admin notifications
  - int: Total admin notification count
*/
func (repository *notificationRepository) ListForAdmin(context context.Context, limit, offset int) ([]*Notification, int, error) {

	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s,
			COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = TRUE
		ORDER BY %s DESC
		LIMIT $1 OFFSET $2
	`,
		schema.NotifyNotification.ID,
		schema.NotifyNotification.UserID,
		schema.NotifyNotification.Type,
		schema.NotifyNotification.Message,
		schema.NotifyNotification.IsRead,
		schema.NotifyNotification.ForAdmin,
		schema.NotifyNotification.CreatedAt,
		schema.NotifyNotification.Table,
		schema.NotifyNotification.ForAdmin,
		schema.NotifyNotification.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres: failed to list admin notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	var totalCount int

	for rows.Next() {
		var notification Notification
		err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Type,
			&notification.Message,
			&notification.IsRead,
			&notification.ForAdmin,
			&notification.CreatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan admin notification: %w", err)
		}
		notifications = append(notifications, &notification)
	}

	return notifications, totalCount, nil
}

/*
MarkAllRead sets is_read on every notification owned by one user.

Description: No row-level mark-read exists by design; the client clears the
whole badge at once. Rows of other users are untouched by the WHERE clause.

Parameters:
  - context: context.Context
  - userID: string (UUID)

Returns:
  - error: Update failure
*/
func (repository *notificationRepository) MarkAllRead(context context.Context, userID string) error {

	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE WHERE %s = $1`,
		schema.NotifyNotification.Table,
		schema.NotifyNotification.IsRead,
		schema.NotifyNotification.UserID,
	)

	// Zero affected rows is fine: the user may simply have no notifications
	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres: failed to mark notifications read: %w", err)
	}

	return nil
}
