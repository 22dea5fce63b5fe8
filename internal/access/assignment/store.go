// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package assignment

import (
	"context"
	"time"
)

// # Assignment Data Access

// AssignmentRepository defines the data access contract for direct grants.
type AssignmentRepository interface {

	/*
		UpsertAll writes the given grants in one batch. A conflict on
		(user, book, chapter) replaces the assignment window instead of
		inserting a duplicate.

		Parameters:
		  - context: context.Context
		  - assignments: []*Assignment

		Returns:
		  - error: Storage failures
	*/
	UpsertAll(context context.Context, assignments []*Assignment) error

	/*
		FindByID returns one grant.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *Assignment: The hydrated grant
		  - error: ErrNotFound if missing
	*/
	FindByID(context context.Context, id string) (*Assignment, error)

	/*
		FindByKey returns the grant for one (user, book, chapter) triple.

		Parameters:
		  - context: context.Context
		  - userID, bookID, chapterID: string (UUIDs)

		Returns:
		  - *Assignment: The hydrated grant
		  - error: ErrNotFound if missing
	*/
	FindByKey(context context.Context, userID, bookID, chapterID string) (*Assignment, error)

	/*
		Delete removes one grant by ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - error: ErrNotFound if missing
	*/
	Delete(context context.Context, id string) error

	/*
		ListActiveForUser returns the user's unexpired grants joined with
		book and chapter display names, grouped by book.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - now: time.Time (Expiry cutoff)

		Returns:
		  - []*BookGrants: Grouped countdown view
		  - error: Database retrieval failures
	*/
	ListActiveForUser(context context.Context, userID string, now time.Time) ([]*BookGrants, error)

	/*
		ListExpired returns every grant whose expiry is at or before now.

		Parameters:
		  - context: context.Context
		  - now: time.Time

		Returns:
		  - []*Assignment: Lapsed grants
		  - error: Database retrieval failures
	*/
	ListExpired(context context.Context, now time.Time) ([]*Assignment, error)

	/*
		Overview returns the merged access-management view: approved
		request chapters and direct grants, joined with user, book, and
		chapter display fields.

		Parameters:
		  - context: context.Context
		  - limit: int
		  - offset: int

		Returns:
		  - []*OverviewRow: Merged rows, newest grants first
		  - int: Total row count
		  - error: Database retrieval failures
	*/
	Overview(context context.Context, limit, offset int) ([]*OverviewRow, int, error)
}
