// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sweep removes lapsed chapter grants on a fixed interval.

Each pass lists every assignment whose expiry is at or before now,
notifies the holder and the admin channel, then deletes the grant.
Deletion happens after the notifications, so a crash mid-pass re-sends
on the next pass rather than expiring silently. Consumers must treat
expiry notifications as at-least-once.
*/
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/chaptra/internal/access/assignment"
	"github.com/taibuivan/chaptra/internal/catalog/book"
	"github.com/taibuivan/chaptra/internal/notify"
	"github.com/taibuivan/chaptra/internal/users/auth"
)

// # Contracts & Types

// AssignmentSource lists and removes lapsed grants.
type AssignmentSource interface {
	// ListExpired returns every grant expiring at or before now.
	ListExpired(ctx context.Context, now time.Time) ([]*assignment.Assignment, error)

	// Delete removes one grant by ID.
	Delete(ctx context.Context, id string) error
}

// CatalogSource resolves display names for expiry messages.
type CatalogSource interface {
	GetBook(ctx context.Context, identifier string) (*book.Book, error)
	GetChapter(ctx context.Context, chapterID string) (*book.Chapter, error)
}

// UserSource resolves the grant holder's account.
type UserSource interface {
	Me(ctx context.Context, userID string) (*auth.User, error)
}

// Notifier delivers expiry notifications to both sides.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, notificationType notify.Type, message string) (*notify.Notification, error)
	NotifyAdmin(ctx context.Context, notificationType notify.Type, message string) (*notify.Notification, error)
}

// Sweeper runs the periodic expiry pass.
type Sweeper struct {
	assignments AssignmentSource
	catalog     CatalogSource
	users       UserSource
	notifier    Notifier
	interval    time.Duration
	logger      *slog.Logger

	// running guards against overlapping passes when one run outlasts
	// the tick interval.
	running sync.Mutex
}

// NewSweeper constructs a [Sweeper] with its required dependencies.
func NewSweeper(assignments AssignmentSource, catalog CatalogSource, users UserSource, notifier Notifier, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		assignments: assignments,
		catalog:     catalog,
		users:       users,
		notifier:    notifier,
		interval:    interval,
		logger:      logger,
	}
}

// # Lifecycle

/*
Run ticks the expiry pass until the context is cancelled.

Description: One pass runs immediately on startup so lapsed grants from
downtime are expired without waiting a full interval.

Parameters:
  - context: context.Context (Cancellation stops the loop)

Returns:
  - error: Always nil; pass failures are logged and retried next tick
*/
func (sweeper *Sweeper) Run(context context.Context) error {
	ticker := time.NewTicker(sweeper.interval)
	defer ticker.Stop()

	sweeper.logger.Info("sweep_started", slog.Duration("interval", sweeper.interval))

	sweeper.sweep(context)

	for {
		select {
		case <-context.Done():
			sweeper.logger.Info("sweep_stopped")
			return nil
		case <-ticker.C:
			sweeper.sweep(context)
		}
	}
}

// sweep runs one guarded pass; an in-flight pass makes this a no-op.
func (sweeper *Sweeper) sweep(context context.Context) {
	if !sweeper.running.TryLock() {
		sweeper.logger.Warn("sweep_pass_skipped_overlap")
		return
	}
	defer sweeper.running.Unlock()

	if err := sweeper.Pass(context, time.Now().UTC()); err != nil {
		sweeper.logger.Error("sweep_pass_failed", slog.String("error", err.Error()))
	}
}

// # Expiry Pass

/*
Pass expires every grant lapsed at the given instant.

Description: Each lapsed grant is resolved against the catalog and the
user store for display fields, both sides are notified, and the grant is
deleted. A grant whose names cannot be resolved is skipped and retried
on the next pass.

Parameters:
  - context: context.Context
  - now: time.Time (Expiry cutoff)

Returns:
  - error: Listing failures only; per-grant failures are logged
*/
func (sweeper *Sweeper) Pass(context context.Context, now time.Time) error {
	expired, err := sweeper.assignments.ListExpired(context, now)
	if err != nil {
		return fmt.Errorf("sweep: failed to list expired assignments: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}

	swept := 0
	for _, lapsed := range expired {
		if sweeper.expire(context, lapsed) {
			swept++
		}
	}

	sweeper.logger.Info("sweep_pass_completed",
		slog.Int("expired", len(expired)),
		slog.Int("swept", swept),
	)

	return nil
}

// expire notifies and deletes one lapsed grant. Reports whether the
// grant was removed.
func (sweeper *Sweeper) expire(context context.Context, lapsed *assignment.Assignment) bool {

	// ── 1. Display Resolution ────────────────────────────────────────────

	holder, err := sweeper.users.Me(context, lapsed.UserID)
	if err != nil {
		sweeper.skip(lapsed, "user", err)
		return false
	}

	granted, err := sweeper.catalog.GetBook(context, lapsed.BookID)
	if err != nil {
		sweeper.skip(lapsed, "book", err)
		return false
	}

	chapter, err := sweeper.catalog.GetChapter(context, lapsed.ChapterID)
	if err != nil {
		sweeper.skip(lapsed, "chapter", err)
		return false
	}

	// ── 2. Notifications ─────────────────────────────────────────────────

	days := lapsed.DurationDays()

	userMessage := fmt.Sprintf("Your %d-day access to %q (%s) expired on %s.",
		days, granted.Name, chapter.Name, lapsed.ExpiresAt.Format("2006-01-02"))
	if _, err := sweeper.notifier.NotifyUser(context, lapsed.UserID, notify.TypeExpired, userMessage); err != nil {
		sweeper.skip(lapsed, "user_notification", err)
		return false
	}

	adminMessage := fmt.Sprintf("Access of %s (%s) to %q (%s) expired on %s after %d day(s).",
		holder.Name, holder.Email, granted.Name, chapter.Name,
		lapsed.ExpiresAt.Format("2006-01-02"), days)
	if _, err := sweeper.notifier.NotifyAdmin(context, notify.TypeExpired, adminMessage); err != nil {
		sweeper.skip(lapsed, "admin_notification", err)
		return false
	}

	// ── 3. Removal ───────────────────────────────────────────────────────

	if err := sweeper.assignments.Delete(context, lapsed.ID); err != nil {
		sweeper.skip(lapsed, "delete", err)
		return false
	}

	sweeper.logger.Info("assignment_expired",
		slog.String("assignment_id", lapsed.ID),
		slog.String("user_id", lapsed.UserID),
		slog.String("chapter_id", lapsed.ChapterID),
		slog.Time("expired_at", lapsed.ExpiresAt),
	)

	return true
}

// skip logs one per-grant failure; the grant stays for the next pass.
func (sweeper *Sweeper) skip(lapsed *assignment.Assignment, stage string, err error) {
	sweeper.logger.Error("sweep_assignment_skipped",
		slog.String("assignment_id", lapsed.ID),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}
