// Copyright (c) 2026 Chaptra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package request

import (
	"context"
	"time"
)

// # Request Data Access

// RequestRepository defines the data access contract for the request workflow.
type RequestRepository interface {

	/*
		Create persists a request and its chapter rows atomically.

		Parameters:
		  - context: context.Context
		  - request: *Request (All chapter rows pending)

		Returns:
		  - error: Storage or constraint failures
	*/
	Create(context context.Context, request *Request) error

	/*
		FindByID returns the request with its chapter decisions.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *Request: The hydrated aggregate
		  - error: ErrNotFound if missing
	*/
	FindByID(context context.Context, id string) (*Request, error)

	/*
		List returns requests joined with requester and book display
		fields, newest first.

		Parameters:
		  - context: context.Context
		  - status: Status (Empty matches every status)
		  - limit: int
		  - offset: int

		Returns:
		  - []*View: Joined review rows
		  - int: Total count matching the filter
		  - error: Database retrieval failures
	*/
	List(context context.Context, status Status, limit, offset int) ([]*View, int, error)

	/*
		ApplyDecision transitions the given chapter rows and updates the
		overall status atomically.

		Parameters:
		  - context: context.Context
		  - requestID: string (UUID)
		  - chapterIDs: []string (Chapter rows to transition)
		  - decision: Status (approved or rejected)
		  - decidedAt: time.Time
		  - overall: Status (Recomputed request status)

		Returns:
		  - error: Storage failures
	*/
	ApplyDecision(context context.Context, requestID string, chapterIDs []string, decision Status, decidedAt time.Time, overall Status) error

	/*
		ApprovedForUser returns the user's derived viewing rights.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)

		Returns:
		  - []*ApprovedChapter: One row per approved chapter
		  - error: Database retrieval failures
	*/
	ApprovedForUser(context context.Context, userID string) ([]*ApprovedChapter, error)

	/*
		ApprovedForBook returns the user's approved chapter rows for one book.

		Parameters:
		  - context: context.Context
		  - userID: string (UUID)
		  - bookID: string (UUID)

		Returns:
		  - []*ApprovedChapter: One row per approved chapter
		  - error: Database retrieval failures
	*/
	ApprovedForBook(context context.Context, userID, bookID string) ([]*ApprovedChapter, error)
}
