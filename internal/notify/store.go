// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import "context"

// # Notification Data Access

// NotificationRepository defines the data access contract for notifications.
type NotificationRepository interface {

	/*
		Create persists a new notification row.

		Parameters:
		  - context: context.Context
		  - notification: *Notification

		Returns:
		  - error: Storage failure
	*/
	Create(context context.Context, notification *Notification) error

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
		  - error: Storage failure
	*/
	ListForUser(context context.Context, userID string, limit, offset int) ([]*Notification, int, error)

	/*
		ListForAdmin returns admin-facing notifications, newest first.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*Notification: Page of admin notifications
		  - int: Total admin notification count
		  - error: Storage failure
	*/
	ListForAdmin(context context.Context, limit, offset int) ([]*Notification, int, error)

	/*
		MarkAllRead sets is_read on every notification owned by one user.
		Notifications of other users are untouched.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)

		Returns:
		  - error: Storage failure
	*/
	MarkAllRead(context context.Context, userID string) error
}
