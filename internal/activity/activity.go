// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package activity records per-chapter reading progress.

One row exists per (user, book, chapter); repeated reads accumulate
pages viewed and seconds read, and the last page overwrites. The rows
back the reader's continue-reading shelf and the admin usage report.
*/
package activity

import "time"

// # Core Entities

// Entry is one accumulated reading record.
type Entry struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	BookID    string `json:"book_id"`
	ChapterID string `json:"chapter_id"`

	// LastPage is the page the reader stopped on, overwritten per record.
	LastPage int `json:"last_page"`

	// PagesViewed and SecondsRead accumulate across records.
	PagesViewed int   `json:"pages_viewed"`
	SecondsRead int64 `json:"seconds_read"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Progress is one continue-reading shelf row with display names.
type Progress struct {
	Entry
	BookName    string `json:"book_name"`
	ChapterName string `json:"chapter_name"`
}

// ReportRow is one admin usage-report line with reader and book fields.
type ReportRow struct {
	Progress
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

// # Field Identifiers

const (
	FieldBookID      = "book_id"
	FieldChapterID   = "chapter_id"
	FieldLastPage    = "last_page"
	FieldPagesViewed = "pages_viewed"
	FieldSecondsRead = "seconds_read"
)
