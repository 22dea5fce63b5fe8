// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request implements the chapter access request workflow.

A reader asks for access to a set of chapters in one book; every chapter
transitions independently under admin review, and the request carries a
derived overall status.

Core Responsibility:

  - Submission: One request per (user, book, chapter set) ask.
  - Review: Per-chapter approve/reject decisions, single or bulk.
  - Derivation: Approved viewing rights are read straight from approved
    chapter rows; there is no separate grant table to drift out of sync.
*/
package request

import "time"

// # Domain Enums

// Status is the review state of a request or of one requested chapter.
type Status string

const (
	// StatusPending indicates at least one chapter awaits a decision.
	StatusPending Status = "pending"

	// StatusApproved indicates every chapter was approved.
	StatusApproved Status = "approved"

	// StatusRejected indicates every chapter was rejected.
	StatusRejected Status = "rejected"

	// StatusPartial indicates every chapter is decided with mixed outcomes.
	// Valid only as an overall status, never on a chapter row.
	StatusPartial Status = "partial"
)

// IsDecision reports whether s is a valid per-chapter decision value.
func (s Status) IsDecision() bool {
	return s == StatusApproved || s == StatusRejected
}

// # Core Entities

// Request is one reader's ask for access to chapters of a single book.
type Request struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	BookID string `json:"book_id"`

	// Status is derived from the chapter decisions; see [AggregateStatus].
	Status Status `json:"status"`

	Chapters []ChapterDecision `json:"chapters"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChapterDecision is the review state of one requested chapter.
type ChapterDecision struct {
	ID        string     `json:"id"`
	RequestID string     `json:"request_id"`
	ChapterID string     `json:"chapter_id"`
	Status    Status     `json:"status"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// View is a [Request] joined with display fields for the admin review list.
type View struct {
	Request

	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
	BookName  string `json:"book_name"`
}

// ApprovedChapter is one derived viewing right, read from approved
// chapter rows.
type ApprovedChapter struct {
	RequestID string     `json:"request_id"`
	UserID    string     `json:"user_id"`
	BookID    string     `json:"book_id"`
	ChapterID string     `json:"chapter_id"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
}

// # Status Derivation

// AggregateStatus derives the overall request status from its chapter rows.
//
// # Rules
//
//   - Any pending chapter keeps the request pending.
//   - All approved yields approved; all rejected yields rejected.
//   - Fully decided with mixed outcomes yields partial.
func AggregateStatus(decisions []ChapterDecision) Status {
	if len(decisions) == 0 {
		return StatusPending
	}

	var approved, rejected int
	for _, decision := range decisions {
		switch decision.Status {
		case StatusApproved:
			approved++
		case StatusRejected:
			rejected++
		default:
			return StatusPending
		}
	}

	switch {
	case rejected == 0:
		return StatusApproved
	case approved == 0:
		return StatusRejected
	default:
		return StatusPartial
	}
}

// # Field Identifiers

const (
	FieldBookID     = "book_id"
	FieldChapterIDs = "chapter_ids"
	FieldChapterID  = "chapter_id"
	FieldDecision   = "decision"
)
