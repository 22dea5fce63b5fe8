// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notify implements durable per-user notifications with live fan-out.

Every workflow transition (request submitted, decision taken, chapter
assigned, access revoked or expired) creates a notification row. If the
target user has a live stream open, the row is additionally pushed over
Redis pub/sub to whichever API instance holds the connection.

Architecture:

  - Notification: The durable record (never deleted, bulk mark-read only).
  - Registry: Explicitly-owned in-process map of live subscriber channels.
  - Publisher/Bridge: Redis pub/sub hop between Notify() and the Registry,
    so fan-out works across multiple API instances.

Delivery to the durable store is the source of truth; the live push is
best-effort and may be lost if the client is disconnected.
*/
package notify

import "time"

// # Notification Types

// Type enumerates the workflow transitions that produce notifications.
type Type string

const (
	// A user submitted an access request (user-facing acknowledgement).
	TypeRequestSubmitted Type = "request_submitted"

	// An admin approved one or more requested chapters.
	TypeApproved Type = "approved"

	// An admin rejected one or more requested chapters.
	TypeRejected Type = "rejected"

	// An admin directly assigned time-bounded chapter access.
	TypeAssigned Type = "assigned"

	// An admin revoked an assignment before its expiry.
	TypeRevoked Type = "revoked"

	// The sweep expired an assignment. Reserved for the sweep; manual
	// revocation uses TypeRevoked instead.
	TypeExpired Type = "expired"

	// A user action awaiting admin attention (admin-facing).
	TypeUserRequest Type = "user_request"
)

// # Entity

// Notification is the durable record of a workflow event addressed to a
// user, or broadcast to the admin dashboard when UserID is absent.
type Notification struct {
	ID string `json:"id"`

	// UserID is nil for admin-broadcast notifications.
	UserID *string `json:"user_id,omitempty"`

	Type    Type   `json:"type"`
	Message string `json:"message"`

	// IsRead flips only through the bulk mark-all-read operation.
	IsRead bool `json:"is_read"`

	// ForAdmin notifications are fetched by admin polling, never pushed.
	ForAdmin bool `json:"for_admin"`

	CreatedAt time.Time `json:"created_at"`
}
