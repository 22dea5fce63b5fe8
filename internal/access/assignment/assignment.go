// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package assignment implements direct, time-limited chapter grants.

Unlike the request workflow, an assignment is pushed by an admin: it
grants a user access to chapters of one book for a fixed number of days.
The expiry sweep removes lapsed grants and notifies both sides.

Core Responsibility:

  - Granting: Upsert per (user, book, chapter); re-assigning replaces
    the expiry instead of duplicating the grant.
  - Revocation: Immediate deletion with a user notification.
  - Visibility: Reader countdown view grouped by book, and the admin
    overview merging approved requests with direct grants.
*/
package assignment

import "time"

// # Core Entities

// Assignment is one time-limited chapter grant.
type Assignment struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	BookID    string `json:"book_id"`
	ChapterID string `json:"chapter_id"`

	AssignedAt time.Time `json:"assigned_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Active reports whether the grant has not lapsed at the given instant.
func (assignment *Assignment) Active(now time.Time) bool {
	return assignment.ExpiresAt.After(now)
}

// DurationDays returns the grant length in whole days, rounded up.
// Used in expiry notifications so a 30-day grant never reads as 29.
func (assignment *Assignment) DurationDays() int {
	elapsed := assignment.ExpiresAt.Sub(assignment.AssignedAt)
	days := int(elapsed / (24 * time.Hour))
	if elapsed%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Grant is one assignment decorated with its chapter display name,
// as shown in the reader countdown view.
type Grant struct {
	AssignmentID string    `json:"assignment_id"`
	ChapterID    string    `json:"chapter_id"`
	ChapterName  string    `json:"chapter_name"`
	AssignedAt   time.Time `json:"assigned_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// BookGrants groups a user's active grants under one book.
type BookGrants struct {
	BookID   string  `json:"book_id"`
	BookName string  `json:"book_name"`
	Chapters []Grant `json:"chapters"`
}

// # Admin Overview

// Source tags an overview row with how the access was obtained.
type Source string

const (
	// SourceApproved marks access derived from an approved request chapter.
	SourceApproved Source = "approved"

	// SourceAssigned marks access pushed through a direct grant.
	SourceAssigned Source = "assigned"
)

// OverviewRow is one line of the admin access-management view.
type OverviewRow struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	UserEmail   string `json:"user_email"`
	BookID      string `json:"book_id"`
	BookName    string `json:"book_name"`
	ChapterID   string `json:"chapter_id"`
	ChapterName string `json:"chapter_name"`
	Source      Source `json:"source"`

	// ExpiresAt is nil for approved-request access, which never lapses.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// # Field Identifiers

const (
	FieldUserID       = "user_id"
	FieldBookID       = "book_id"
	FieldChapterIDs   = "chapter_ids"
	FieldDurationDays = "duration_days"
)
